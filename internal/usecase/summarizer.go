package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"ActivityAggregator/internal/domain"
	"ActivityAggregator/internal/ports"
)

const (
	truncateLength    = 200
	defaultBatchSize  = 5
	defaultBatchDelay = time.Second
)

// Summarizer maps content items to summaries while minimizing calls to
// the generation service. Code-activity items are always truncated
// directly; article items reuse cached summaries by id and only misses
// are sent out, batched with an inter-batch delay to respect the
// service rate limit.
type Summarizer struct {
	gen        ports.TextGenerator
	logger     *slog.Logger
	batchSize  int
	batchDelay time.Duration
}

// NewSummarizer wires the generator; a nil generator degrades every
// uncached article to the truncation strategy.
func NewSummarizer(gen ports.TextGenerator, logger *slog.Logger, batchSize int, batchDelay time.Duration) *Summarizer {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if batchDelay <= 0 {
		batchDelay = defaultBatchDelay
	}
	return &Summarizer{gen: gen, logger: logger, batchSize: batchSize, batchDelay: batchDelay}
}

// Summarize produces one summary per item. Cache entries are reused
// verbatim; per-item generation failures degrade to truncation and
// never fail the run.
func (s *Summarizer) Summarize(ctx context.Context, items []domain.ContentItem, cache map[string]domain.SummarizedContent) []domain.SummarizedContent {
	results := make([]domain.SummarizedContent, 0, len(items))
	var pending []domain.ContentItem

	for _, item := range items {
		if item.Source == domain.SourceGitHub {
			results = append(results, truncated(item))
			continue
		}
		if cached, ok := cache[item.ID]; ok {
			results = append(results, cached)
			continue
		}
		if s.gen == nil {
			results = append(results, truncated(item))
			continue
		}
		pending = append(pending, item)
	}

	for start := 0; start < len(pending); start += s.batchSize {
		if start > 0 {
			select {
			case <-time.After(s.batchDelay):
			case <-ctx.Done():
			}
		}

		end := min(start+s.batchSize, len(pending))
		batch := pending[start:end]

		out := make([]domain.SummarizedContent, len(batch))
		g, gctx := errgroup.WithContext(ctx)
		for i, item := range batch {
			g.Go(func() error {
				out[i] = s.summarizeOne(gctx, item)
				return nil
			})
		}
		_ = g.Wait()

		results = append(results, out...)
	}

	return results
}

func (s *Summarizer) summarizeOne(ctx context.Context, item domain.ContentItem) domain.SummarizedContent {
	text, err := s.gen.Generate(ctx, summaryPrompt(item))
	if err != nil {
		s.warn("summarize failed, falling back to truncation", "id", item.ID, "error", err)
		return truncated(item)
	}

	entry := truncated(item)
	entry.Summary = strings.TrimSpace(text)
	return entry
}

// truncated derives a summary by cutting the body to a fixed length,
// falling back to the title when the body is empty.
func truncated(item domain.ContentItem) domain.SummarizedContent {
	summary := item.Body
	if runes := []rune(summary); len(runes) > truncateLength {
		summary = string(runes[:truncateLength]) + "..."
	}
	if summary == "" {
		summary = item.Title
	}

	return domain.SummarizedContent{
		ID:          item.ID,
		Source:      item.Source,
		Title:       item.Title,
		Summary:     summary,
		URL:         item.URL,
		ImageURLs:   item.ImageURLs,
		PublishedAt: item.PublishedAt,
	}
}

func (s *Summarizer) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
