package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrNoLLM is returned by operations that need a language model when none is configured.
var ErrNoLLM = errors.New("no language model configured")

// ImportResult summarizes a batch import.
type ImportResult struct {
	Imported []string
	Failed   map[string]error
}

// ImportTreePages runs each URL through the clipper, pausing between
// requests to stay under provider rate limits. A failing page is logged
// and skipped.
func (a *App) ImportTreePages(ctx context.Context, urls []string, pause time.Duration) (ImportResult, error) {
	if a.Clipper == nil {
		return ImportResult{}, ErrNoLLM
	}

	res := ImportResult{Failed: map[string]error{}}
	for i, url := range urls {
		if i > 0 && pause > 0 {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-time.After(pause):
			}
		}

		a.log.Info("importing tree page", zap.String("url", url))
		tree, err := a.Clipper.ImportURL(ctx, url)
		if err != nil {
			a.log.Warn("failed to import tree page", zap.String("url", url), zap.Error(err))
			res.Failed[url] = err
			continue
		}
		res.Imported = append(res.Imported, tree.Name)
	}

	a.log.Info("import complete",
		zap.Int("imported", len(res.Imported)),
		zap.Int("failed", len(res.Failed)),
	)
	if len(res.Imported) == 0 && len(res.Failed) > 0 {
		return res, fmt.Errorf("all %d pages failed to import", len(res.Failed))
	}
	return res, nil
}
