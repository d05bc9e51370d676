package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"ActivityAggregator/internal/domain"
	"ActivityAggregator/internal/ports"
)

const (
	summarizedFile   = "summarized.json"
	imagesFile       = "images.json"
	articlesFile     = "articles.json"
	reposFile        = "repos.json"
	profileFile      = "note-prompt.txt"
	systemPromptFile = "system-prompt.txt"
	rawSnapshotFile  = "content-raw.json"
)

// FileStore persists pipeline artifacts as flat files under the content
// directory. A missing or corrupt artifact loads as empty, never as an
// error; every save replaces the prior file with fully computed content.
// Collection artifacts always serialize as JSON arrays, never null.
type FileStore struct {
	contentDir string
	dataDir    string
	logger     *slog.Logger
}

var _ ports.ArtifactStore = (*FileStore)(nil)

// NewFileStore wires the artifact and raw-snapshot directories.
func NewFileStore(contentDir, dataDir string, logger *slog.Logger) *FileStore {
	return &FileStore{contentDir: contentDir, dataDir: dataDir, logger: logger}
}

// LoadSummaries returns the persisted summary collection keyed by id.
func (s *FileStore) LoadSummaries() map[string]domain.SummarizedContent {
	var entries []domain.SummarizedContent
	if err := s.readJSON(filepath.Join(s.contentDir, summarizedFile), &entries); err != nil {
		s.debug("no summary cache", "error", err)
		return map[string]domain.SummarizedContent{}
	}

	cache := make(map[string]domain.SummarizedContent, len(entries))
	for _, entry := range entries {
		cache[entry.ID] = entry
	}
	return cache
}

// SaveSummaries replaces the persisted summary collection.
func (s *FileStore) SaveSummaries(entries []domain.SummarizedContent) error {
	if entries == nil {
		entries = []domain.SummarizedContent{}
	}
	return s.writeJSON(s.contentDir, summarizedFile, entries)
}

// LoadArticles returns the persisted full-text archive.
func (s *FileStore) LoadArticles() []domain.NoteArticle {
	var articles []domain.NoteArticle
	if err := s.readJSON(filepath.Join(s.contentDir, articlesFile), &articles); err != nil {
		s.debug("no article archive", "error", err)
		return nil
	}
	return articles
}

// SaveArticles replaces the persisted full-text archive.
func (s *FileStore) SaveArticles(articles []domain.NoteArticle) error {
	if articles == nil {
		articles = []domain.NoteArticle{}
	}
	return s.writeJSON(s.contentDir, articlesFile, articles)
}

// SaveImages replaces the image projection artifact.
func (s *FileStore) SaveImages(items []domain.ContentItem) error {
	if items == nil {
		items = []domain.ContentItem{}
	}
	return s.writeJSON(s.contentDir, imagesFile, items)
}

// SaveRepos replaces the repository listing artifact.
func (s *FileStore) SaveRepos(repos []domain.RepoSummary) error {
	if repos == nil {
		repos = []domain.RepoSummary{}
	}
	return s.writeJSON(s.contentDir, reposFile, repos)
}

// LoadProfile returns the persona profile document, empty when absent.
func (s *FileStore) LoadProfile() string {
	return s.readText(filepath.Join(s.contentDir, profileFile))
}

// SaveProfile overwrites the persona profile document.
func (s *FileStore) SaveProfile(doc string) error {
	return s.writeText(s.contentDir, profileFile, doc)
}

// LoadSystemPrompt returns the static chat system prompt, empty when absent.
func (s *FileStore) LoadSystemPrompt() string {
	return s.readText(filepath.Join(s.contentDir, systemPromptFile))
}

// SaveRawSnapshot writes the unsummarized merged timeline for debugging.
func (s *FileStore) SaveRawSnapshot(items []domain.ContentItem) error {
	if items == nil {
		items = []domain.ContentItem{}
	}
	return s.writeJSON(s.dataDir, rawSnapshotFile, items)
}

func (s *FileStore) readJSON(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (s *FileStore) writeJSON(dir, name string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (s *FileStore) readText(path string) string {
	raw, err := os.ReadFile(path)
	if err != nil {
		s.debug("no text artifact", "path", path, "error", err)
		return ""
	}
	return string(raw)
}

func (s *FileStore) writeText(dir, name, text string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (s *FileStore) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
