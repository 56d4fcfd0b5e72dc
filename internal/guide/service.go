package guide

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Store is the persistence the Service needs; *Repository satisfies it.
type Store interface {
	GetAll(ctx context.Context) ([]Guide, error)
	GetByID(ctx context.Context, id string) (Guide, error)
	GetByDifficulty(ctx context.Context, d Difficulty) ([]Guide, error)
	GetByTreeType(ctx context.Context, treeType string) ([]Guide, error)
	UpdateProgress(ctx context.Context, g Guide) error
}

// TransitionObserver is told about every successful progress transition.
type TransitionObserver interface {
	GuideTransition(kind string)
}

// Transition kinds reported to a TransitionObserver.
const (
	TransitionStart    = "start"
	TransitionStep     = "complete_step"
	TransitionComplete = "completed"
	TransitionReset    = "reset"
)

// Option configures the Service.
type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithObserver reports transitions to o.
func WithObserver(o TransitionObserver) Option {
	return func(s *Service) { s.observer = o }
}

// Service exposes the guide use cases. Progress changes are read, transformed
// and written back under mu, so concurrent callers never overwrite each
// other's completions.
type Service struct {
	store    Store
	log      *zap.Logger
	now      func() time.Time
	observer TransitionObserver

	mu sync.Mutex
}

// NewService creates a guide service over store.
func NewService(store Store, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{store: store, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) List(ctx context.Context) ([]Guide, error) {
	return s.store.GetAll(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (Guide, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) ByDifficulty(ctx context.Context, d Difficulty) ([]Guide, error) {
	return s.store.GetByDifficulty(ctx, d)
}

func (s *Service) ByTreeType(ctx context.Context, treeType string) ([]Guide, error) {
	return s.store.GetByTreeType(ctx, treeType)
}

// Start begins a guide. Starting an already started guide restarts its clock
// but keeps completed steps.
func (s *Service) Start(ctx context.Context, id string) (Guide, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Guide{}, err
	}
	updated := Start(g, s.now())
	if err := s.store.UpdateProgress(ctx, updated); err != nil {
		return Guide{}, err
	}
	s.log.Info("guide started", zap.String("guide_id", id), zap.String("title", g.Title))
	s.notify(TransitionStart)
	return updated, nil
}

// CompleteStep completes stepNumber of guide id.
func (s *Service) CompleteStep(ctx context.Context, id string, stepNumber int, notes string) (Guide, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Guide{}, err
	}
	updated, err := CompleteStep(g, stepNumber, notes, s.now())
	if err != nil {
		return Guide{}, err
	}
	if err := s.store.UpdateProgress(ctx, updated); err != nil {
		return Guide{}, err
	}

	s.log.Info("guide step completed",
		zap.String("guide_id", id),
		zap.Int("step", stepNumber),
		zap.Float64("progress", CompletionPercentage(updated)),
	)
	s.notify(TransitionStep)
	if updated.UserProgress.IsCompleted && !g.UserProgress.IsCompleted {
		s.notify(TransitionComplete)
	}
	return updated, nil
}

// Reset wipes a guide's progress.
func (s *Service) Reset(ctx context.Context, id string) (Guide, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Guide{}, err
	}
	updated := Reset(g)
	if err := s.store.UpdateProgress(ctx, updated); err != nil {
		return Guide{}, err
	}
	s.log.Info("guide progress reset", zap.String("guide_id", id))
	s.notify(TransitionReset)
	return updated, nil
}

// InProgress lists guides that are started but not completed.
func (s *Service) InProgress(ctx context.Context) ([]Guide, error) {
	return s.byStatus(ctx, InProgress)
}

// Completed lists finished guides.
func (s *Service) Completed(ctx context.Context) ([]Guide, error) {
	return s.byStatus(ctx, Completed)
}

func (s *Service) byStatus(ctx context.Context, status Status) ([]Guide, error) {
	guides, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := []Guide{}
	for _, g := range guides {
		if StatusOf(g) == status {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *Service) notify(kind string) {
	if s.observer != nil {
		s.observer.GuideTransition(kind)
	}
}
