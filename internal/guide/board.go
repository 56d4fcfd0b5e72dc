package guide

import (
	"context"
	"slices"
	"strings"
)

// Mutator is the subset of Service the Board drives.
type Mutator interface {
	List(ctx context.Context) ([]Guide, error)
	Start(ctx context.Context, id string) (Guide, error)
	CompleteStep(ctx context.Context, id string, stepNumber int, notes string) (Guide, error)
	Reset(ctx context.Context, id string) (Guide, error)
}

// Board keeps the filtered guide views a front end renders and re-derives
// them after every change. It keeps the full list separately so filtering
// never loses guides.
type Board struct {
	svc        Mutator
	all        []Guide
	search     string
	difficulty Difficulty

	notStarted []Guide
	inProgress []Guide
	completed  []Guide
}

// NewBoard creates an empty board; call Load to fill it.
func NewBoard(svc Mutator) *Board {
	return &Board{svc: svc}
}

// Load replaces the board contents with the stored guides.
func (b *Board) Load(ctx context.Context) error {
	guides, err := b.svc.List(ctx)
	if err != nil {
		return err
	}
	b.all = guides
	b.refresh()
	return nil
}

func (b *Board) StartGuide(ctx context.Context, id string) error {
	return b.apply(b.svc.Start(ctx, id))
}

func (b *Board) CompleteStep(ctx context.Context, id string, stepNumber int, notes string) error {
	return b.apply(b.svc.CompleteStep(ctx, id, stepNumber, notes))
}

func (b *Board) ResetGuideProgress(ctx context.Context, id string) error {
	return b.apply(b.svc.Reset(ctx, id))
}

// SetSearch filters on title, tree type or any step title, ignoring case.
func (b *Board) SetSearch(text string) {
	b.search = text
	b.refresh()
}

// SetDifficulty filters on difficulty; "" shows every level.
func (b *Board) SetDifficulty(d Difficulty) {
	b.difficulty = d
	b.refresh()
}

func (b *Board) NotStarted() []Guide { return slices.Clone(b.notStarted) }
func (b *Board) InProgress() []Guide { return slices.Clone(b.inProgress) }
func (b *Board) Completed() []Guide  { return slices.Clone(b.completed) }

// Progress is the completion fraction shown next to a guide.
func (b *Board) Progress(g Guide) float64 {
	return CompletionPercentage(g)
}

func (b *Board) apply(updated Guide, err error) error {
	if err != nil {
		return err
	}
	if i := indexOf(b.all, updated.ID); i >= 0 {
		b.all[i] = updated
	} else {
		b.all = append(b.all, updated)
	}
	b.refresh()
	return nil
}

func (b *Board) refresh() {
	b.notStarted, b.inProgress, b.completed = []Guide{}, []Guide{}, []Guide{}
	for _, g := range b.all {
		if !b.matches(g) {
			continue
		}
		switch StatusOf(g) {
		case Completed:
			b.completed = append(b.completed, g)
		case InProgress:
			b.inProgress = append(b.inProgress, g)
		default:
			b.notStarted = append(b.notStarted, g)
		}
	}
}

func (b *Board) matches(g Guide) bool {
	if b.difficulty != "" && g.Difficulty != b.difficulty {
		return false
	}
	if b.search == "" {
		return true
	}
	q := strings.ToLower(b.search)
	if strings.Contains(strings.ToLower(g.Title), q) || strings.Contains(strings.ToLower(g.TreeType), q) {
		return true
	}
	return slices.ContainsFunc(g.Steps, func(s Step) bool {
		return strings.Contains(strings.ToLower(s.Title), q)
	})
}
