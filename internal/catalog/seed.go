package catalog

// DefaultTrees returns the trees written to an empty catalog on first run.
func DefaultTrees(newID func() string) []Tree {
	return []Tree{
		{
			ID:             newID(),
			Name:           "Red Oak",
			ScientificName: "Quercus rubra",
			Category:       Deciduous,
			Environment:    Suburban,
			Purpose:        Shade,
			GrowthRate:     Moderate,
			MatureHeight:   "60-75 feet",
			Spacing:        "40-50 feet",
			SoilType:       []SoilType{Loamy, Acidic},
			SunRequirement: FullSun,
			WaterNeeds:     WaterModerate,
			PlantingMonths: []int{3, 4, 5, 9, 10},
			Description:    "A large deciduous tree known for its beautiful fall foliage and strong wood. Perfect for shade and wildlife habitat.",
			CareTips: []string{
				"Water regularly during first year",
				"Mulch around base to retain moisture",
				"Prune in late winter when dormant",
				"Watch for oak wilt disease",
			},
		},
		{
			ID:             newID(),
			Name:           "Eastern White Pine",
			ScientificName: "Pinus strobus",
			Category:       Evergreen,
			Environment:    Rural,
			Purpose:        Windbreak,
			GrowthRate:     Fast,
			MatureHeight:   "50-80 feet",
			Spacing:        "20-30 feet",
			SoilType:       []SoilType{Sandy, Loamy},
			SunRequirement: FullSun,
			WaterNeeds:     WaterLow,
			PlantingMonths: []int{4, 5, 9, 10},
			Description:    "A fast-growing evergreen with soft, blue-green needles. Excellent for windbreaks and privacy screens.",
			CareTips: []string{
				"Drought tolerant once established",
				"Avoid wet, poorly drained soils",
				"Prune lightly to maintain shape",
				"Watch for white pine weevil",
			},
		},
		{
			ID:             newID(),
			Name:           "Japanese Maple",
			ScientificName: "Acer palmatum",
			Category:       Ornamental,
			Environment:    Urban,
			Purpose:        Beauty,
			GrowthRate:     Slow,
			MatureHeight:   "15-25 feet",
			Spacing:        "15-20 feet",
			SoilType:       []SoilType{Loamy, Acidic},
			SunRequirement: PartialShade,
			WaterNeeds:     WaterModerate,
			PlantingMonths: []int{3, 4, 5, 10, 11},
			Description:    "A stunning ornamental tree with delicate leaves and incredible fall color. Perfect for small spaces and gardens.",
			CareTips: []string{
				"Protect from strong winds",
				"Provide afternoon shade in hot climates",
				"Keep soil consistently moist",
				"Minimal pruning required",
			},
		},
		{
			ID:             newID(),
			Name:           "Apple Tree",
			ScientificName: "Malus domestica",
			Category:       Fruit,
			Environment:    Suburban,
			Purpose:        Food,
			GrowthRate:     Moderate,
			MatureHeight:   "20-30 feet",
			Spacing:        "15-25 feet",
			SoilType:       []SoilType{Loamy},
			SunRequirement: FullSun,
			WaterNeeds:     WaterModerate,
			PlantingMonths: []int{3, 4, 5, 10, 11},
			Description:    "A productive fruit tree that provides delicious apples and beautiful spring blossoms.",
			CareTips: []string{
				"Requires cross-pollination for fruit",
				"Prune annually for best fruit production",
				"Monitor for common pests and diseases",
				"Thin fruit for larger, better quality apples",
			},
		},
		{
			ID:             newID(),
			Name:           "Live Oak",
			ScientificName: "Quercus virginiana",
			Category:       Evergreen,
			Environment:    Coastal,
			Purpose:        Shade,
			GrowthRate:     Moderate,
			MatureHeight:   "40-80 feet",
			Spacing:        "50-80 feet",
			SoilType:       []SoilType{Sandy, Loamy},
			SunRequirement: FullSun,
			WaterNeeds:     WaterLow,
			PlantingMonths: []int{3, 4, 5, 10, 11},
			Description:    "An iconic Southern tree with a broad, spreading crown. Extremely long-lived and hurricane resistant.",
			CareTips: []string{
				"Very drought tolerant once established",
				"Avoid soil compaction around roots",
				"Minimal pruning needed",
				"Provides excellent wildlife habitat",
			},
		},
	}
}
