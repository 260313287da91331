// Package loader resolves element loads that miss the in-memory store by
// consulting the configured element source.
package loader

import (
	"context"
	"fmt"
	"log/slog"

	"gtasync/internal/core"
	"gtasync/internal/logging"
	sourcecore "gtasync/internal/source/core"
	"gtasync/pkg/domain"
)

// Store is the part of core.Service the loader drives.
type Store interface {
	Load(ctx context.Context, id int64) core.LoadResult
	RefreshElements(ctx context.Context, payload core.ElementsPayload) error
}

// Result reports the opened element and whether it had to be fetched.
type Result struct {
	Element *domain.Element `json:"element"`
	Fetched bool            `json:"fetched"`
}

// Loader opens elements, fetching the ones the store does not hold.
type Loader struct {
	store   Store
	fetcher sourcecore.Fetcher
	logger  *slog.Logger
}

// New builds a Loader. A nil logger discards records.
func New(store Store, fetcher sourcecore.Fetcher, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{store: store, fetcher: fetcher, logger: logger}
}

// Load opens id. On a miss the element is fetched, merged into the held
// elements with an update and loaded again. A source miss is returned as
// domain.NotFoundError.
func (l *Loader) Load(ctx context.Context, id int64) (Result, error) {
	res := l.store.Load(ctx, id)
	if res.Err != nil {
		return Result{}, res.Err
	}
	if !res.FetchRequired {
		return Result{Element: res.Element}, nil
	}
	logger := l.logger
	if ctxLogger := logging.FromContext(ctx); ctxLogger != nil {
		logger = ctxLogger
	}

	el, err := l.fetcher.FetchElement(ctx, id)
	if err != nil {
		logger.Warn("element fetch failed",
			"element_id", id,
			"driver", string(l.fetcher.Driver()),
			"error", err,
		)
		return Result{}, fmt.Errorf("fetch element %d: %w", id, err)
	}
	payload := core.ElementsPayload{
		Action:   core.ElementUpdate,
		Elements: []core.ElementPatch{domain.ElementPatchFrom(el)},
	}
	if err := l.store.RefreshElements(ctx, payload); err != nil {
		return Result{}, fmt.Errorf("merge fetched element %d: %w", id, err)
	}
	res = l.store.Load(ctx, id)
	if res.Err != nil {
		return Result{}, res.Err
	}
	if res.FetchRequired {
		return Result{}, fmt.Errorf("element %d not held after merge", id)
	}
	logger.Debug("element fetched", "element_id", id, "driver", string(l.fetcher.Driver()))
	return Result{Element: res.Element, Fetched: true}, nil
}
