// Package app wires configuration, storage and the feature services into
// one object shared by the CLI and the Telegram bot.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"treecare/internal/advisor"
	"treecare/internal/catalog"
	"treecare/internal/config"
	"treecare/internal/costs"
	"treecare/internal/database"
	"treecare/internal/guide"
	"treecare/internal/history"
	"treecare/internal/inventory"
	"treecare/internal/llm"
	"treecare/internal/materials"
	"treecare/internal/metrics"
	"treecare/internal/schedule"
	"treecare/internal/storage"
)

// App holds the application's dependencies.
type App struct {
	cfg *config.Config
	log *zap.Logger

	Slots     storage.SlotStore
	Collector *metrics.Collector
	Metrics   *metrics.Store

	GuideRepo *guide.Repository
	Guides    *guide.Service
	Catalog   *catalog.Catalog
	Inventory *inventory.Inventory
	Costs     *costs.Tracker
	Materials *materials.Planner
	Schedule  *schedule.Scheduler
	Journal   *history.Journal
	Advisor   *advisor.Advisor

	// Nil when no model is configured.
	llmClient llm.Client
	Clipper   *catalog.Clipper

	closers []func() error
}

type options struct {
	client llm.Client
	store  storage.SlotStore
}

// Option customizes New.
type Option func(*options)

// WithLLM uses c instead of building a client from the config.
func WithLLM(c llm.Client) Option {
	return func(o *options) { o.client = c }
}

// WithSlotStore bypasses the configured storage driver.
func WithSlotStore(s storage.SlotStore) Option {
	return func(o *options) { o.store = s }
}

// New opens every backend named by cfg. A missing LLM key is not fatal:
// the advisor and the importer report an error when used.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, opts ...Option) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{cfg: cfg, log: log, Collector: metrics.NewCollector()}

	store := o.store
	if store == nil {
		s, closeFn, err := openSlotStore(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		store = s
		a.addCloser(closeFn)
	}
	a.Slots = metrics.InstrumentSlots(store, a.Collector)

	metricsDB, err := database.NewDB(cfg.Metrics.DBPath, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open metrics database: %w", err)
	}
	a.addCloser(metricsDB.Close)
	a.Metrics = metrics.NewStore(metricsDB.SQL)

	client := o.client
	if client == nil {
		client, err = llm.New(ctx, cfg)
		if err != nil {
			log.Warn("language model unavailable", zap.String("provider", cfg.LLM.Provider), zap.Error(err))
			client = nil
		} else {
			a.addCloser(client.Close)
		}
	}
	a.llmClient = client

	a.GuideRepo = guide.NewRepository(a.Slots, log.Named("guides"))
	a.Guides = guide.NewService(a.GuideRepo, log.Named("guides"), guide.WithObserver(a.Collector))
	a.Catalog = catalog.New(a.Slots, log.Named("catalog"))
	a.Inventory = inventory.New(a.Slots, log.Named("inventory"))
	a.Costs = costs.NewTracker(a.Slots, log.Named("costs"))
	a.Materials = materials.NewPlanner(a.Slots, log.Named("materials"))
	a.Schedule = schedule.New(a.Slots, log.Named("schedule"))
	a.Journal = history.New(a.Slots, log.Named("history"))

	var chat llm.ChatGenerator
	if client != nil {
		chat = client
		textGen, err := a.textGenerator(client)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Clipper = catalog.NewClipper(a.Catalog, textGen, a.Metrics, log.Named("clipper"))
	}
	a.Advisor = advisor.New(chat, a.Slots, log.Named("advisor"),
		advisor.WithUsageRecorder(a.Metrics),
		advisor.WithLatencyObserver(a.Collector),
	)

	return a, nil
}

// Achievements evaluates the achievements against the journal, finished
// guides and the questions asked of the advisor.
func (a *App) Achievements(ctx context.Context) ([]history.Achievement, error) {
	totals, err := a.Journal.Totals(ctx)
	if err != nil {
		return nil, err
	}
	completed, err := a.Guides.Completed(ctx)
	if err != nil {
		return nil, err
	}
	asked, err := a.Advisor.QuestionsAsked(ctx)
	if err != nil {
		return nil, err
	}
	return history.Achievements(history.Stats{
		TreesPlanted:    totals.TreesPlanted,
		TreesGrown:      totals.Successful,
		GuidesCompleted: len(completed),
		AdviceQuestions: asked,
	}), nil
}

// textGenerator wraps client in the on-disk prompt cache when one is configured.
func (a *App) textGenerator(client llm.Client) (llm.TextGenerator, error) {
	if a.cfg.LLM.CachePath == "" {
		return client, nil
	}
	cached, err := llm.NewCachedTextGenerator(client, a.cfg.LLM.CachePath, a.log.Named("llm_cache"))
	if err != nil {
		return nil, fmt.Errorf("failed to open llm cache: %w", err)
	}
	return cached, nil
}

// HasLLM reports whether a language model is configured.
func (a *App) HasLLM() bool { return a.llmClient != nil }

// Config returns the configuration the app was built from.
func (a *App) Config() *config.Config { return a.cfg }

func (a *App) addCloser(fn func() error) {
	if fn != nil {
		a.closers = append(a.closers, fn)
	}
}

// Close releases backends in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// CleanupMetrics applies the configured retention to the metrics ledger.
func (a *App) CleanupMetrics(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		days = a.cfg.Metrics.RetentionDays
	}
	n, err := a.Metrics.Cleanup(ctx, days)
	if err != nil {
		return 0, fmt.Errorf("metrics cleanup failed: %w", err)
	}
	a.log.Info("metrics cleanup complete", zap.Int64("removed", n), zap.Int("retention_days", days))
	return n, nil
}

func openSlotStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.SlotStore, func() error, error) {
	log.Info("opening slot store", zap.String("driver", cfg.Storage.Driver))

	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return storage.NewMemoryStore(), nil, nil
	case config.DriverFile, "":
		s, err := storage.NewFileStore(cfg.Storage.FileDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open file store: %w", err)
		}
		return s, nil, nil
	case config.DriverSQLite:
		db, err := database.NewDB(cfg.Storage.SQLitePath, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return storage.NewSQLStore(db.SQL, storage.DialectSQLite), db.Close, nil
	case config.DriverPostgres:
		db, err := database.OpenPostgres(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		return storage.NewSQLStore(db.SQL, storage.DialectPostgres), db.Close, nil
	case config.DriverS3:
		s3cfg := cfg.Storage.S3
		s, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:          s3cfg.Bucket,
			Region:          s3cfg.Region,
			Endpoint:        s3cfg.Endpoint,
			Prefix:          s3cfg.Prefix,
			PathStyle:       s3cfg.PathStyle,
			AccessKeyID:     s3cfg.AccessKeyID,
			SecretAccessKey: s3cfg.SecretAccessKey,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open s3 store: %w", err)
		}
		return s, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
