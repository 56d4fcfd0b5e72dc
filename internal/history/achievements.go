package history

// Stats is what the achievements are computed from.
type Stats struct {
	TreesPlanted    int
	TreesGrown      int // plantings at or above SuccessThreshold
	GuidesCompleted int
	AdviceQuestions int
}

type Achievement struct {
	Title       string
	Description string
	IconName    string
	Requirement string
	IsUnlocked  bool
	Progress    float64 // 0 to 1
}

type rule struct {
	title, description, icon, requirement string
	target                                int
	count                                 func(Stats) int
}

var rules = []rule{
	{"First Planting", "Plant your first tree", "leaf", "Plant 1 tree", 1,
		func(s Stats) int { return s.TreesPlanted }},
	{"Green Thumb", "Successfully grow 3 trees", "hand.thumbsup", "Successfully grow 3 trees", 3,
		func(s Stats) int { return s.TreesGrown }},
	{"Guide Graduate", "Finish a planting guide", "checkmark.seal", "Complete 1 guide", 1,
		func(s Stats) int { return s.GuidesCompleted }},
	{"Researcher", "Use AI advisor 10 times", "brain.head.profile", "Ask AI advisor 10 questions", 10,
		func(s Stats) int { return s.AdviceQuestions }},
}

// Achievements evaluates every achievement against s, in a fixed order.
func Achievements(s Stats) []Achievement {
	out := make([]Achievement, 0, len(rules))
	for _, r := range rules {
		progress := min(float64(r.count(s))/float64(r.target), 1)
		out = append(out, Achievement{
			Title:       r.title,
			Description: r.description,
			IconName:    r.icon,
			Requirement: r.requirement,
			IsUnlocked:  progress >= 1,
			Progress:    progress,
		})
	}
	return out
}

func Unlocked(all []Achievement) []Achievement {
	var out []Achievement
	for _, a := range all {
		if a.IsUnlocked {
			out = append(out, a)
		}
	}
	return out
}

// InProgress returns achievements that are started but still locked.
func InProgress(all []Achievement) []Achievement {
	var out []Achievement
	for _, a := range all {
		if !a.IsUnlocked && a.Progress > 0 {
			out = append(out, a)
		}
	}
	return out
}
