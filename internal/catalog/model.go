// Package catalog stores the tree catalog and imports new trees from web pages.
package catalog

import (
	"errors"

	"treecare/internal/shared"
)

var ErrNotFound = errors.New("tree not found")

type Category string

const (
	Deciduous  Category = "Deciduous"
	Evergreen  Category = "Evergreen"
	Fruit      Category = "Fruit"
	Flowering  Category = "Flowering"
	Nut        Category = "Nut"
	Ornamental Category = "Ornamental"
)

var Categories = []Category{Deciduous, Evergreen, Fruit, Flowering, Nut, Ornamental}

type Environment string

const (
	Urban    Environment = "Urban"
	Suburban Environment = "Suburban"
	Rural    Environment = "Rural"
	Coastal  Environment = "Coastal"
	Mountain Environment = "Mountain"
	Desert   Environment = "Desert"
)

var Environments = []Environment{Urban, Suburban, Rural, Coastal, Mountain, Desert}

type Purpose string

const (
	Shade          Purpose = "Shade"
	Privacy        Purpose = "Privacy"
	Windbreak      Purpose = "Windbreak"
	Wildlife       Purpose = "Wildlife"
	Food           Purpose = "Food"
	Beauty         Purpose = "Beauty"
	ErosionControl Purpose = "Erosion Control"
)

type GrowthRate string

const (
	Slow     GrowthRate = "Slow"
	Moderate GrowthRate = "Moderate"
	Fast     GrowthRate = "Fast"
)

type SoilType string

const (
	Clay     SoilType = "Clay"
	Sandy    SoilType = "Sandy"
	Loamy    SoilType = "Loamy"
	Rocky    SoilType = "Rocky"
	Acidic   SoilType = "Acidic"
	Alkaline SoilType = "Alkaline"
)

type SunRequirement string

const (
	FullSun      SunRequirement = "Full Sun"
	PartialSun   SunRequirement = "Partial Sun"
	PartialShade SunRequirement = "Partial Shade"
	FullShade    SunRequirement = "Full Shade"
)

type WaterNeeds string

const (
	WaterLow      WaterNeeds = "Low"
	WaterModerate WaterNeeds = "Moderate"
	WaterHigh     WaterNeeds = "High"
)

// Tree is one catalog entry.
type Tree struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	ScientificName string         `json:"scientificName"`
	Category       Category       `json:"category"`
	Environment    Environment    `json:"environment"`
	Purpose        Purpose        `json:"purpose"`
	GrowthRate     GrowthRate     `json:"growthRate"`
	MatureHeight   string         `json:"matureHeight"`
	Spacing        string         `json:"spacing"`
	SoilType       []SoilType     `json:"soilType"`
	SunRequirement SunRequirement `json:"sunRequirement"`
	WaterNeeds     WaterNeeds     `json:"waterNeeds"`
	PlantingMonths []int          `json:"plantingMonths"` // 1-12
	Description    string         `json:"description"`
	CareTips       []string       `json:"careTips"`
}

// PlantableIn reports whether month (1-12) is a planting month for t.
func (t Tree) PlantableIn(month int) bool {
	for _, m := range t.PlantingMonths {
		if m == month {
			return true
		}
	}
	return false
}

// ParseCategory accepts any casing; "" yields "" (no filter).
func ParseCategory(s string) (Category, error) {
	return shared.ParseEnum(s, Categories, "category")
}

// ParseEnvironment accepts any casing; "" yields "" (no filter).
func ParseEnvironment(s string) (Environment, error) {
	return shared.ParseEnum(s, Environments, "environment")
}
