package notecom

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"ActivityAggregator/internal/config"
	"ActivityAggregator/internal/domain"
	"ActivityAggregator/internal/ports"
)

const (
	defaultBaseURL    = "https://note.com"
	defaultFetchDelay = 500 * time.Millisecond

	idPrefix = "notecom-"
)

// Connector reads a note.com user's public RSS feed and maps entries
// into content items. A second mode fetches full article bodies from
// the per-article detail endpoint. Feed failures are logged and degrade
// to an empty result.
type Connector struct {
	parser     *gofeed.Parser
	client     *http.Client
	logger     *slog.Logger
	baseURL    string
	username   string
	fetchDelay time.Duration
}

var _ ports.ContentSource = (*Connector)(nil)
var _ ports.ArticleFetcher = (*Connector)(nil)

// NewConnector wires an HTTP client shared by the feed parser and the
// detail fetches; the inter-request delay defaults to 500ms.
func NewConnector(cfg config.NoteConfig, client *http.Client, logger *slog.Logger) *Connector {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	fetchDelay := cfg.FetchDelay()
	if cfg.FetchDelayMS == 0 {
		fetchDelay = defaultFetchDelay
	}

	parser := gofeed.NewParser()
	parser.Client = client

	return &Connector{
		parser:     parser,
		client:     client,
		logger:     logger,
		baseURL:    baseURL,
		username:   cfg.Username,
		fetchDelay: fetchDelay,
	}
}

// Name identifies the source inside the fan-out.
func (c *Connector) Name() string {
	return string(domain.SourceNote)
}

// Fetch parses the public feed and returns one article item per entry.
func (c *Connector) Fetch(ctx context.Context) ([]domain.ContentItem, error) {
	feed, err := c.parseFeed(ctx)
	if err != nil {
		c.warn("fetch feed failed", "user", c.username, "error", err)
		return nil, nil
	}

	items := make([]domain.ContentItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		items = append(items, c.toContentItem(entry))
	}
	return items, nil
}

// FetchFullArticles fetches full bodies for feed entries missing from
// the supplied archive. Detail fetches run sequentially with a fixed
// delay in between; entries that fail or come back empty are skipped.
func (c *Connector) FetchFullArticles(ctx context.Context, archived map[string]bool) ([]domain.NoteArticle, error) {
	feed, err := c.parseFeed(ctx)
	if err != nil {
		c.warn("fetch feed failed", "user", c.username, "error", err)
		return nil, nil
	}

	var articles []domain.NoteArticle
	attempted := false
	for _, entry := range feed.Items {
		id := entryID(entry)
		if archived[id] {
			continue
		}

		slug := slugFromURL(entry.Link)
		if slug == "" {
			continue
		}

		// Delay between attempts, not successes, so a run of failing
		// fetches still paces its requests.
		if attempted {
			select {
			case <-time.After(c.fetchDelay):
			case <-ctx.Done():
				return articles, nil
			}
		}
		attempted = true

		body, err := c.fetchArticleBody(ctx, slug)
		if err != nil {
			c.warn("fetch article body failed", "slug", slug, "error", err)
			continue
		}
		if body == "" {
			continue
		}

		articles = append(articles, domain.NoteArticle{
			ID:          id,
			Title:       entryTitle(entry),
			Body:        body,
			URL:         entry.Link,
			PublishedAt: entryPublishedAt(entry),
		})
	}
	return articles, nil
}

func (c *Connector) parseFeed(ctx context.Context) (*gofeed.Feed, error) {
	feedURL := fmt.Sprintf("%s/%s/rss", c.baseURL, url.PathEscape(c.username))
	return c.parser.ParseURLWithContext(feedURL, ctx)
}

func (c *Connector) toContentItem(entry *gofeed.Item) domain.ContentItem {
	body := entry.Description
	if body == "" {
		body = entry.Content
	}

	html := entry.Content
	if html == "" {
		html = entry.Description
	}

	categories := entry.Categories
	if categories == nil {
		categories = []string{}
	}

	return domain.ContentItem{
		ID:          entryID(entry),
		Source:      domain.SourceNote,
		Kind:        domain.KindArticle,
		Title:       entryTitle(entry),
		Body:        body,
		URL:         entry.Link,
		ImageURLs:   extractImageURLs(feedThumbnail(entry), html),
		PublishedAt: entryPublishedAt(entry),
		Metadata: &domain.Metadata{
			Article: &domain.ArticleMetadata{Categories: categories},
		},
	}
}

type articleDetail struct {
	Data struct {
		Body string `json:"body"`
	} `json:"data"`
}

func (c *Connector) fetchArticleBody(ctx context.Context, slug string) (string, error) {
	endpoint := fmt.Sprintf("%s/api/v2/notes/%s", c.baseURL, url.PathEscape(slug))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "ActivityAggregator/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("note.com returned %s", resp.Status)
	}

	var detail articleDetail
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return "", fmt.Errorf("decode article: %w", err)
	}

	return stripArticleHTML(detail.Data.Body), nil
}

// entryID derives a stable id from the feed guid, falling back to the link.
func entryID(entry *gofeed.Item) string {
	id := entry.GUID
	if id == "" {
		id = entry.Link
	}
	return idPrefix + id
}

func entryTitle(entry *gofeed.Item) string {
	if entry.Title == "" {
		return "Untitled"
	}
	return entry.Title
}

// entryPublishedAt defaults to the current time only when the feed
// omits a publish date.
func entryPublishedAt(entry *gofeed.Item) time.Time {
	if entry.PublishedParsed != nil {
		return *entry.PublishedParsed
	}
	return time.Now().UTC()
}

// feedThumbnail returns the feed-supplied thumbnail URL, if any.
func feedThumbnail(entry *gofeed.Item) string {
	if entry.Image != nil && entry.Image.URL != "" {
		return entry.Image.URL
	}
	if media, ok := entry.Extensions["media"]; ok {
		for _, ext := range media["thumbnail"] {
			if u := ext.Attrs["url"]; u != "" {
				return u
			}
			if ext.Value != "" {
				return ext.Value
			}
		}
	}
	return ""
}

// extractImageURLs collects image URLs with the thumbnail first, then
// every <img src> found in the content markup, duplicates removed.
func extractImageURLs(thumbnail, html string) []string {
	urls := make([]string, 0, 1)
	seen := map[string]struct{}{}

	add := func(u string) {
		if u == "" {
			return
		}
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}

	add(thumbnail)

	if html != "" {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
			doc.Find("img").Each(func(_ int, img *goquery.Selection) {
				if src, ok := img.Attr("src"); ok {
					add(strings.TrimSpace(src))
				}
			})
		}
	}

	return urls
}

// slugFromURL extracts the content slug from the entry's canonical URL.
func slugFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	slug := path.Base(strings.TrimRight(parsed.Path, "/"))
	if slug == "." || slug == "/" {
		return ""
	}
	return slug
}

func (c *Connector) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
