package ports

import (
	"context"
	"time"

	"ActivityAggregator/internal/domain"
)

// ContentSource pulls normalized activity items from one remote source.
// Implementations catch ordinary remote failures at their own boundary
// and degrade to an empty result, so one outage never aborts a run.
type ContentSource interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.ContentItem, error)
}

// RepositoryLister returns lightweight repository summaries for display.
type RepositoryLister interface {
	ListRepositories(ctx context.Context) ([]domain.RepoSummary, error)
}

// ArticleFetcher retrieves full article bodies for feed entries whose
// ids are not yet present in the supplied archive.
type ArticleFetcher interface {
	FetchFullArticles(ctx context.Context, archived map[string]bool) ([]domain.NoteArticle, error)
}

// TextGenerator produces text from a prompt. Rate-limit retries are the
// implementation's responsibility; callers see only the final outcome.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ChatGenerator runs a multi-turn exchange grounded on a system instruction.
type ChatGenerator interface {
	Chat(ctx context.Context, system string, messages []domain.ChatMessage) (string, error)
}

// ArtifactStore persists and reloads the pipeline's output artifacts.
// Load methods treat a missing or corrupt artifact as empty, never as
// an error; each Save fully replaces the prior artifact.
type ArtifactStore interface {
	LoadSummaries() map[string]domain.SummarizedContent
	SaveSummaries(entries []domain.SummarizedContent) error
	LoadArticles() []domain.NoteArticle
	SaveArticles(articles []domain.NoteArticle) error
	SaveImages(items []domain.ContentItem) error
	SaveRepos(repos []domain.RepoSummary) error
	LoadProfile() string
	SaveProfile(doc string) error
	LoadSystemPrompt() string
	SaveRawSnapshot(items []domain.ContentItem) error
}

// Scheduler controls when pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
