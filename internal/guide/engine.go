package guide

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// Start marks g as started at now and points it at the first step.
func Start(g Guide, now time.Time) Guide {
	out := g.Clone()
	out.UserProgress.IsStarted = true
	out.UserProgress.StartDate = &now
	out.UserProgress.CurrentStep = 1
	return out
}

// CompleteStep records stepNumber as done with the given notes. Completing a
// step twice does not count it twice. When every step is done the guide is
// marked completed; otherwise CurrentStep advances, never past the last step.
// An unknown stepNumber returns ErrUnknownStep and g unchanged.
func CompleteStep(g Guide, stepNumber int, notes string, now time.Time) (Guide, error) {
	idx := slices.IndexFunc(g.Steps, func(s Step) bool { return s.StepNumber == stepNumber })
	if idx < 0 {
		return g, fmt.Errorf("%w: %d in guide %s", ErrUnknownStep, stepNumber, g.ID)
	}

	out := g.Clone()
	step := &out.Steps[idx]
	step.IsCompleted = true
	step.CompletedDate = &now
	step.Notes = notes

	p := &out.UserProgress
	if !slices.Contains(p.CompletedSteps, stepNumber) {
		p.CompletedSteps = append(p.CompletedSteps, stepNumber)
	}

	total := len(out.Steps)
	if len(p.CompletedSteps) == total {
		p.IsCompleted = true
		p.CompletionDate = &now
	} else if next := len(p.CompletedSteps) + 1; next <= total {
		p.CurrentStep = next
	}
	return out, nil
}

// Reset clears every step's completion fields and notes and returns the
// progress to its never-started state.
func Reset(g Guide) Guide {
	out := g.Clone()
	for i := range out.Steps {
		out.Steps[i].IsCompleted = false
		out.Steps[i].CompletedDate = nil
		out.Steps[i].Notes = ""
	}
	out.UserProgress = NewUserProgress()
	return out
}

// CompletionPercentage is the completed fraction in [0, 1]; 0 for a guide without steps.
func CompletionPercentage(g Guide) float64 {
	total := len(g.Steps)
	if total == 0 {
		return 0
	}
	return float64(len(g.UserProgress.CompletedSteps)) / float64(total)
}

// ProgressPercent is CompletionPercentage on a 0-100 scale, rounded for display.
func ProgressPercent(g Guide) int {
	return int(math.Round(CompletionPercentage(g) * 100))
}

// StatusOf classifies g by its progress flags.
func StatusOf(g Guide) Status {
	switch {
	case g.UserProgress.IsCompleted:
		return Completed
	case g.UserProgress.IsStarted:
		return InProgress
	default:
		return NotStarted
	}
}
