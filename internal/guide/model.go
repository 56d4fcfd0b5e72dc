// Package guide tracks a user's progress through step-by-step planting guides.
//
// The progress transitions (Start, CompleteStep, Reset) are pure functions on
// Guide values; Repository persists whole guides, Service combines the two and
// Board derives the not-started / in-progress / completed views.
package guide

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors used across layers.
var (
	ErrNotFound    = errors.New("guide not found")
	ErrUnknownStep = errors.New("unknown step number")
)

// Difficulty is serialized as its display string.
type Difficulty string

const (
	Beginner     Difficulty = "Beginner"
	Intermediate Difficulty = "Intermediate"
	Advanced     Difficulty = "Advanced"
	Expert       Difficulty = "Expert"
)

// Difficulties lists every level in ascending order.
var Difficulties = []Difficulty{Beginner, Intermediate, Advanced, Expert}

// Rank orders difficulties; unknown values rank 0.
func (d Difficulty) Rank() int {
	for i, v := range Difficulties {
		if v == d {
			return i + 1
		}
	}
	return 0
}

// ParseDifficulty accepts any casing of a display string.
func ParseDifficulty(s string) (Difficulty, error) {
	for _, d := range Difficulties {
		if strings.EqualFold(string(d), strings.TrimSpace(s)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// Guide is a multi-step planting guide together with the user's progress.
type Guide struct {
	ID                string       `json:"id"`
	Title             string       `json:"title"`
	TreeType          string       `json:"treeType"`
	Difficulty        Difficulty   `json:"difficulty"`
	EstimatedTime     string       `json:"estimatedTime"`
	Steps             []Step       `json:"steps"`
	RequiredTools     []string     `json:"requiredTools"`
	RequiredMaterials []string     `json:"requiredMaterials"`
	Tips              []string     `json:"tips"`
	UserProgress      UserProgress `json:"userProgress"`
}

// Step is identified by StepNumber, not by its position in Guide.Steps.
type Step struct {
	ID            string     `json:"id"`
	StepNumber    int        `json:"stepNumber"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	IconName      string     `json:"iconName"`
	EstimatedTime string     `json:"estimatedTime"`
	IsCompleted   bool       `json:"isCompleted"`
	CompletedDate *time.Time `json:"completedDate,omitempty"`
	Notes         string     `json:"notes"`
}

// UserProgress summarizes how far the user got through a guide.
// CurrentStep counts completed steps plus one; it is not a step number.
type UserProgress struct {
	IsStarted      bool       `json:"isStarted"`
	StartDate      *time.Time `json:"startDate,omitempty"`
	CurrentStep    int        `json:"currentStep"`
	CompletedSteps []int      `json:"completedSteps"`
	TotalTimeSpent float64    `json:"totalTimeSpent"` // seconds; nothing records it yet
	IsCompleted    bool       `json:"isCompleted"`
	CompletionDate *time.Time `json:"completionDate,omitempty"`
}

// NewUserProgress is the state of a guide nobody has started.
func NewUserProgress() UserProgress {
	return UserProgress{CurrentStep: 1, CompletedSteps: []int{}}
}

// Step returns the step with the given number.
func (g Guide) Step(stepNumber int) (Step, bool) {
	for _, s := range g.Steps {
		if s.StepNumber == stepNumber {
			return s, true
		}
	}
	return Step{}, false
}

// Clone returns a deep copy so callers can mutate freely.
func (g Guide) Clone() Guide {
	out := g
	out.Steps = make([]Step, len(g.Steps))
	for i, s := range g.Steps {
		s.CompletedDate = cloneTime(s.CompletedDate)
		out.Steps[i] = s
	}
	out.RequiredTools = append([]string(nil), g.RequiredTools...)
	out.RequiredMaterials = append([]string(nil), g.RequiredMaterials...)
	out.Tips = append([]string(nil), g.Tips...)

	p := g.UserProgress
	p.StartDate = cloneTime(p.StartDate)
	p.CompletionDate = cloneTime(p.CompletionDate)
	p.CompletedSteps = append([]int{}, p.CompletedSteps...)
	out.UserProgress = p
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// Status is where a guide sits in the progress lifecycle.
type Status int

const (
	NotStarted Status = iota
	InProgress
	Completed
)

func (s Status) String() string {
	switch s {
	case InProgress:
		return "in progress"
	case Completed:
		return "completed"
	default:
		return "not started"
	}
}
