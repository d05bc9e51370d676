package github

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"ActivityAggregator/internal/config"
	"ActivityAggregator/internal/domain"
	"ActivityAggregator/internal/ports"
)

const (
	defaultAPIURL         = "https://api.github.com"
	defaultReposLimit     = 10
	defaultCommitsPerRepo = 5
)

// Connector fetches a user's recent repositories and commits and maps
// them into content items. Remote failures are logged and degrade to an
// empty result so a GitHub outage never aborts the run.
type Connector struct {
	client         *http.Client
	logger         *slog.Logger
	apiURL         string
	username       string
	token          string
	reposLimit     int
	commitsPerRepo int
}

var _ ports.ContentSource = (*Connector)(nil)
var _ ports.RepositoryLister = (*Connector)(nil)

// NewConnector wires an HTTP client; limits default to 10 repos and 5 commits each.
func NewConnector(cfg config.GitHubConfig, client *http.Client, logger *slog.Logger) *Connector {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}

	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	reposLimit := cfg.ReposLimit
	if reposLimit <= 0 {
		reposLimit = defaultReposLimit
	}
	commitsPerRepo := cfg.CommitsPerRepo
	if commitsPerRepo <= 0 {
		commitsPerRepo = defaultCommitsPerRepo
	}

	return &Connector{
		client:         client,
		logger:         logger,
		apiURL:         apiURL,
		username:       cfg.Username,
		token:          cfg.Token,
		reposLimit:     reposLimit,
		commitsPerRepo: commitsPerRepo,
	}
}

// Name identifies the source inside the fan-out.
func (c *Connector) Name() string {
	return string(domain.SourceGitHub)
}

type repoPayload struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	FullName    string    `json:"full_name"`
	Description string    `json:"description"`
	HTMLURL     string    `json:"html_url"`
	Language    string    `json:"language"`
	Stargazers  int       `json:"stargazers_count"`
	Topics      []string  `json:"topics"`
	PushedAt    time.Time `json:"pushed_at"`
}

type commitPayload struct {
	SHA     string `json:"sha"`
	HTMLURL string `json:"html_url"`
	Commit  struct {
		Message string `json:"message"`
		Author  struct {
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

// Fetch returns one repository item per recently pushed repository and
// one commit item per recent commit, fetched concurrently across repos.
func (c *Connector) Fetch(ctx context.Context) ([]domain.ContentItem, error) {
	repos, err := c.listRepos(ctx)
	if err != nil {
		c.warn("list repositories failed", "user", c.username, "error", err)
		return nil, nil
	}

	items := make([]domain.ContentItem, 0, len(repos)*(c.commitsPerRepo+1))
	for _, repo := range repos {
		items = append(items, repoItem(repo))
	}

	perRepo := make([][]domain.ContentItem, len(repos))
	g, gctx := errgroup.WithContext(ctx)
	for i, repo := range repos {
		g.Go(func() error {
			commits, err := c.listCommits(gctx, repo.FullName)
			if err != nil {
				c.warn("list commits failed", "repo", repo.FullName, "error", err)
				return nil
			}
			mapped := make([]domain.ContentItem, 0, len(commits))
			for _, commit := range commits {
				mapped = append(mapped, commitItem(repo, commit))
			}
			perRepo[i] = mapped
			return nil
		})
	}
	_ = g.Wait()

	for _, mapped := range perRepo {
		items = append(items, mapped...)
	}
	return items, nil
}

// ListRepositories returns the lightweight repo summaries for display.
// It is independent of the commit listing and never cached.
func (c *Connector) ListRepositories(ctx context.Context) ([]domain.RepoSummary, error) {
	repos, err := c.listRepos(ctx)
	if err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}

	summaries := make([]domain.RepoSummary, 0, len(repos))
	for _, repo := range repos {
		summaries = append(summaries, domain.RepoSummary{
			Name:        repo.Name,
			Description: repo.Description,
			Language:    repo.Language,
			URL:         repo.HTMLURL,
			PushedAt:    repo.PushedAt,
		})
	}
	return summaries, nil
}

func (c *Connector) listRepos(ctx context.Context) ([]repoPayload, error) {
	endpoint := fmt.Sprintf("%s/users/%s/repos?sort=pushed&per_page=%d",
		c.apiURL, url.PathEscape(c.username), c.reposLimit)

	var repos []repoPayload
	if err := c.getJSON(ctx, endpoint, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

func (c *Connector) listCommits(ctx context.Context, fullName string) ([]commitPayload, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/commits?per_page=%d", c.apiURL, fullName, c.commitsPerRepo)

	var commits []commitPayload
	if err := c.getJSON(ctx, endpoint, &commits); err != nil {
		return nil, err
	}
	return commits, nil
}

func (c *Connector) getJSON(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "ActivityAggregator/1.0")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github returned %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func repoItem(repo repoPayload) domain.ContentItem {
	return domain.ContentItem{
		ID:          "github-repo-" + strconv.FormatInt(repo.ID, 10),
		Source:      domain.SourceGitHub,
		Kind:        domain.KindRepository,
		Title:       repo.Name,
		Body:        repo.Description,
		URL:         repo.HTMLURL,
		ImageURLs:   []string{},
		PublishedAt: repo.PushedAt,
		Metadata: &domain.Metadata{
			Code: &domain.CodeMetadata{
				Language: repo.Language,
				Stars:    repo.Stargazers,
				Topics:   repo.Topics,
			},
		},
	}
}

func commitItem(repo repoPayload, commit commitPayload) domain.ContentItem {
	return domain.ContentItem{
		ID:          "github-commit-" + commit.SHA,
		Source:      domain.SourceGitHub,
		Kind:        domain.KindCommit,
		Title:       repo.Name,
		Body:        commit.Commit.Message,
		URL:         commit.HTMLURL,
		ImageURLs:   []string{},
		PublishedAt: commit.Commit.Author.Date,
		Metadata: &domain.Metadata{
			Code: &domain.CodeMetadata{
				Repo:     repo.FullName,
				Language: repo.Language,
			},
		},
	}
}

func (c *Connector) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
