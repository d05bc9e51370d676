package domain

import "time"

// Source identifies the remote system an item came from.
type Source string

const (
	SourceGitHub Source = "github"
	SourceNote   Source = "notecom"
)

// Kind classifies a content item within its source.
type Kind string

const (
	KindRepository Kind = "repository"
	KindCommit     Kind = "commit"
	KindArticle    Kind = "article"
)

// ContentItem is a normalized unit of public activity. IDs are derived
// deterministically from the source-native identifier, so the same
// remote object always maps to the same id across runs.
type ContentItem struct {
	ID          string    `json:"id"`
	Source      Source    `json:"source"`
	Kind        Kind      `json:"type"`
	Title       string    `json:"title"`
	Body        string    `json:"content"`
	URL         string    `json:"url"`
	ImageURLs   []string  `json:"imageUrls"`
	PublishedAt time.Time `json:"publishedAt"`
	Metadata    *Metadata `json:"metadata,omitempty"`
}

// Metadata carries source-specific fields. At most one branch is set,
// keyed by the item's source.
type Metadata struct {
	Code    *CodeMetadata    `json:"code,omitempty"`
	Article *ArticleMetadata `json:"article,omitempty"`
}

// CodeMetadata describes repository context for code-activity items.
type CodeMetadata struct {
	Repo     string   `json:"repo,omitempty"`
	Language string   `json:"language,omitempty"`
	Stars    int      `json:"stars,omitempty"`
	Topics   []string `json:"topics,omitempty"`
}

// ArticleMetadata describes feed context for article items.
type ArticleMetadata struct {
	Categories []string `json:"categories"`
}

// SummarizedContent is the persisted, summarized projection of a
// ContentItem. Once computed for an id it is reused verbatim unless the
// cache is explicitly bypassed.
type SummarizedContent struct {
	ID          string    `json:"id"`
	Source      Source    `json:"source"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	URL         string    `json:"url"`
	ImageURLs   []string  `json:"imageUrls"`
	PublishedAt time.Time `json:"publishedAt"`
}

// NoteArticle is a full-text archive entry. Presence of an id in the
// archive means the article was already processed; bodies are never
// re-fetched or altered afterwards.
type NoteArticle struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
}

// RepoSummary is a lightweight repository listing entry for display;
// it is rebuilt on every run and never cached.
type RepoSummary struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Language    string    `json:"language,omitempty"`
	URL         string    `json:"url"`
	PushedAt    time.Time `json:"pushedAt"`
}

// ChatMessage is one turn of the conversational pass-through.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
