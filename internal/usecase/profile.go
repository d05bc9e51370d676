package usecase

import (
	"context"
	"log/slog"
	"strings"

	"ActivityAggregator/internal/domain"
	"ActivityAggregator/internal/ports"
)

// ProfileSynthesizer maintains the evolving persona profile document.
// With no prior document the whole archive seeds the first draft;
// afterwards only the delta of newly archived articles is sent together
// with the existing document, which the service is instructed to extend
// without losing previously captured information.
type ProfileSynthesizer struct {
	gen    ports.TextGenerator
	logger *slog.Logger
}

// NewProfileSynthesizer wires the generator; a nil generator leaves the
// profile untouched.
func NewProfileSynthesizer(gen ports.TextGenerator, logger *slog.Logger) *ProfileSynthesizer {
	return &ProfileSynthesizer{gen: gen, logger: logger}
}

// Update returns the updated document and whether it changed. Service
// failures are non-fatal: the prior document comes back unchanged.
func (p *ProfileSynthesizer) Update(ctx context.Context, prior string, newArticles, allArticles []domain.NoteArticle) (string, bool) {
	if p.gen == nil || len(newArticles) == 0 {
		return prior, false
	}

	var prompt string
	if prior == "" {
		prompt = bootstrapProfilePrompt(allArticles)
	} else {
		prompt = mergeProfilePrompt(prior, newArticles)
	}

	text, err := p.gen.Generate(ctx, prompt)
	if err != nil {
		p.warn("profile update failed, keeping prior document", "error", err)
		return prior, false
	}

	return strings.TrimSpace(text), true
}

func (p *ProfileSynthesizer) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
