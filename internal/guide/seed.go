package guide

import "github.com/google/uuid"

type stepSeed struct {
	title, description, icon, estimate string
}

func buildGuide(newID func() string, title, treeType string, d Difficulty, estimate string,
	steps []stepSeed, tools, materials, tips []string) Guide {
	g := Guide{
		ID:                newID(),
		Title:             title,
		TreeType:          treeType,
		Difficulty:        d,
		EstimatedTime:     estimate,
		RequiredTools:     tools,
		RequiredMaterials: materials,
		Tips:              tips,
		UserProgress:      NewUserProgress(),
	}
	for i, s := range steps {
		g.Steps = append(g.Steps, Step{
			ID:            newID(),
			StepNumber:    i + 1,
			Title:         s.title,
			Description:   s.description,
			IconName:      s.icon,
			EstimatedTime: s.estimate,
		})
	}
	return g
}

// DefaultGuides returns the built-in guides written on first run.
// newID defaults to random UUIDs.
func DefaultGuides(newID func() string) []Guide {
	if newID == nil {
		newID = uuid.NewString
	}
	return []Guide{
		buildGuide(newID, "Complete Tree Planting Guide", "General", Intermediate, "4-6 hours",
			[]stepSeed{
				{"Site Selection", "Choose the right location for your tree considering mature size, sun requirements, and nearby structures.", "location", "30 minutes"},
				{"Soil Preparation", "Test soil pH and drainage. Amend soil if necessary with compost or organic matter.", "leaf", "45 minutes"},
				{"Dig the Hole", "Dig a hole 2-3 times wider than the root ball and same depth as the root ball height.", "shovel", "60 minutes"},
				{"Tree Placement", "Carefully remove the tree from container and place in hole. Ensure the root flare is at ground level.", "tree", "20 minutes"},
				{"Backfill", "Fill hole with native soil, gently firm to eliminate air pockets. Water thoroughly.", "drop", "30 minutes"},
				{"Mulching", "Apply 2-4 inches of organic mulch around base, keeping it away from trunk.", "circle", "20 minutes"},
				{"Staking (if needed)", "Stake young trees only if necessary. Use soft ties and remove after 1-2 years.", "arrow.up", "15 minutes"},
				{"Initial Watering", "Water deeply and slowly. Establish a regular watering schedule.", "drop.fill", "30 minutes"},
			},
			[]string{"Shovel", "Garden hose", "Measuring tape", "Stakes (if needed)"},
			[]string{"Tree", "Mulch", "Compost", "Tree ties"},
			[]string{
				"Plant during dormant season for best results",
				"Never plant too deep - root flare should be visible",
				"Water regularly first year until established",
				"Avoid fertilizing newly planted trees",
			},
		),
		buildGuide(newID, "Container Tree Planting", "Container", Beginner, "2-3 hours",
			[]stepSeed{
				{"Choose Location", "Select appropriate site based on tree's mature size and requirements.", "location", "15 minutes"},
				{"Prepare Hole", "Dig hole twice as wide as container and same depth.", "shovel", "45 minutes"},
				{"Remove Container", "Carefully remove tree from container, loosening circled roots.", "scissors", "10 minutes"},
				{"Plant Tree", "Place tree in hole and backfill with native soil.", "tree", "20 minutes"},
				{"Water & Mulch", "Water thoroughly and apply mulch around base.", "drop", "30 minutes"},
			},
			[]string{"Shovel", "Pruning shears", "Garden hose"},
			[]string{"Container tree", "Mulch"},
			[]string{
				"Container trees can be planted any time during growing season",
				"Check for root circling and correct before planting",
				"Keep soil consistently moist but not waterlogged",
			},
		),
		buildGuide(newID, "Bare Root Tree Planting", "Bare Root", Advanced, "3-4 hours",
			[]stepSeed{
				{"Timing", "Plant during dormant season (late fall to early spring).", "calendar", "5 minutes"},
				{"Root Inspection", "Examine roots and prune any damaged or broken ones.", "scissors", "15 minutes"},
				{"Soil Preparation", "Prepare planting site and dig appropriate hole.", "leaf", "60 minutes"},
				{"Root Positioning", "Spread roots naturally in hole, avoiding bending or circling.", "tree", "20 minutes"},
				{"Backfill Carefully", "Fill hole gradually, ensuring good root-to-soil contact.", "shovel", "30 minutes"},
				{"Water Thoroughly", "Water deeply to settle soil and eliminate air pockets.", "drop", "20 minutes"},
			},
			[]string{"Shovel", "Pruning shears", "Garden hose"},
			[]string{"Bare root tree", "Mulch"},
			[]string{
				"Keep roots moist until planting",
				"Plant immediately after purchase",
				"Root flare should be at or slightly above ground level",
			},
		),
	}
}
