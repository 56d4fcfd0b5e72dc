package guide

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"treecare/internal/storage"
)

const (
	guidesSlot      = "planting_guides"
	initializedSlot = "planting_guides_initialized"
)

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithRepositoryClock overrides time.Now.
func WithRepositoryClock(now func() time.Time) RepositoryOption {
	return func(r *Repository) { r.now = now }
}

// WithIDGenerator overrides the ids given to seeded guides and steps.
func WithIDGenerator(newID func() string) RepositoryOption {
	return func(r *Repository) { r.newID = newID }
}

// Repository owns the durable guide collection. Every write rewrites the
// whole collection; it is not safe for concurrent mutation.
type Repository struct {
	guides      *storage.Collection[Guide]
	initialized *storage.Flag
	log         *zap.Logger
	now         func() time.Time
	newID       func() string

	seedMu sync.Mutex
}

// NewRepository binds the guide collection to store.
func NewRepository(store storage.SlotStore, log *zap.Logger, opts ...RepositoryOption) *Repository {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Repository{
		guides:      storage.NewCollection[Guide](store, guidesSlot, log),
		initialized: storage.NewFlag(store, initializedSlot),
		log:         log,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetAll returns every guide. The built-in guides are written on first run
// only; emptying the collection later does not bring them back.
func (r *Repository) GetAll(ctx context.Context) ([]Guide, error) {
	guides, err := r.guides.Load(ctx)
	if err != nil {
		return nil, err
	}

	done, err := r.initialized.IsSet(ctx)
	if err != nil {
		return nil, err
	}
	if done {
		return guides, nil
	}

	r.seedMu.Lock()
	defer r.seedMu.Unlock()
	// Another caller may have seeded while we waited.
	done, err = r.initialized.IsSet(ctx)
	if err != nil {
		return nil, err
	}
	if done {
		return r.guides.Load(ctx)
	}

	// Data written before the flag existed is kept as is.
	if len(guides) == 0 {
		guides = DefaultGuides(r.newID)
		if err := r.guides.Save(ctx, guides); err != nil {
			return nil, fmt.Errorf("seeding guides: %w", err)
		}
		r.log.Info("seeded default planting guides", zap.Int("count", len(guides)))
	}
	if err := r.initialized.Set(ctx, r.now()); err != nil {
		return nil, err
	}
	return guides, nil
}

// GetByID returns ErrNotFound for an unknown id.
func (r *Repository) GetByID(ctx context.Context, id string) (Guide, error) {
	guides, err := r.GetAll(ctx)
	if err != nil {
		return Guide{}, err
	}
	for _, g := range guides {
		if g.ID == id {
			return g, nil
		}
	}
	return Guide{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (r *Repository) GetByDifficulty(ctx context.Context, d Difficulty) ([]Guide, error) {
	return r.filter(ctx, func(g Guide) bool { return g.Difficulty == d })
}

// GetByTreeType matches a case-insensitive substring of the tree type.
func (r *Repository) GetByTreeType(ctx context.Context, treeType string) ([]Guide, error) {
	needle := strings.ToLower(treeType)
	return r.filter(ctx, func(g Guide) bool {
		return strings.Contains(strings.ToLower(g.TreeType), needle)
	})
}

func (r *Repository) filter(ctx context.Context, keep func(Guide) bool) ([]Guide, error) {
	guides, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := []Guide{}
	for _, g := range guides {
		if keep(g) {
			out = append(out, g)
		}
	}
	return out, nil
}

// Save inserts g or replaces the guide with the same id.
func (r *Repository) Save(ctx context.Context, g Guide) error {
	guides, err := r.GetAll(ctx)
	if err != nil {
		return err
	}
	if i := indexOf(guides, g.ID); i >= 0 {
		guides[i] = g
	} else {
		guides = append(guides, g)
	}
	return r.guides.Save(ctx, guides)
}

// UpdateProgress replaces a known guide. An unknown id is ignored: progress
// may only be written for guides already in the store.
func (r *Repository) UpdateProgress(ctx context.Context, g Guide) error {
	guides, err := r.GetAll(ctx)
	if err != nil {
		return err
	}
	i := indexOf(guides, g.ID)
	if i < 0 {
		r.log.Debug("ignoring progress update for unknown guide", zap.String("guide_id", g.ID))
		return nil
	}
	guides[i] = g
	return r.guides.Save(ctx, guides)
}

// MarkStepCompleted completes a step keeping the step's current notes.
//
// Deprecated: use Service.CompleteStep. Kept for older callers; it runs the
// same CompleteStep transition so guide-level progress stays in sync.
func (r *Repository) MarkStepCompleted(ctx context.Context, id string, stepNumber int) error {
	g, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	step, ok := g.Step(stepNumber)
	if !ok {
		return fmt.Errorf("%w: %d in guide %s", ErrUnknownStep, stepNumber, id)
	}
	updated, err := CompleteStep(g, stepNumber, step.Notes, r.now())
	if err != nil {
		return err
	}
	return r.UpdateProgress(ctx, updated)
}

// ResetProgress wipes all progress of a guide.
func (r *Repository) ResetProgress(ctx context.Context, id string) error {
	g, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return r.UpdateProgress(ctx, Reset(g))
}

func indexOf(guides []Guide, id string) int {
	return slices.IndexFunc(guides, func(g Guide) bool { return g.ID == id })
}
