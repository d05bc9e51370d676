package source

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"ActivityAggregator/internal/domain"
	"ActivityAggregator/internal/ports"
)

// Fanout runs every registered content source concurrently and merges
// their results only after all branches complete. A failing source
// contributes an empty slice; one outage never aborts the others.
type Fanout struct {
	sources []ports.ContentSource
	logger  *slog.Logger
}

// NewFanout wires the configured sources with a shared logger.
func NewFanout(logger *slog.Logger, sources ...ports.ContentSource) *Fanout {
	return &Fanout{sources: sources, logger: logger}
}

// FetchAll returns the fetched items grouped by source name.
func (f *Fanout) FetchAll(ctx context.Context) map[string][]domain.ContentItem {
	results := make([][]domain.ContentItem, len(f.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range f.sources {
		g.Go(func() error {
			items, err := src.Fetch(gctx)
			if err != nil {
				f.warn("source fetch failed", "source", src.Name(), "error", err)
				return nil
			}
			results[i] = items
			return nil
		})
	}
	_ = g.Wait()

	byName := make(map[string][]domain.ContentItem, len(f.sources))
	for i, src := range f.sources {
		byName[src.Name()] = results[i]
	}
	return byName
}

func (f *Fanout) warn(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Warn(msg, args...)
	}
}
