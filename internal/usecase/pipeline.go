package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"ActivityAggregator/internal/domain"
	"ActivityAggregator/internal/ports"
	"ActivityAggregator/internal/source"
	"ActivityAggregator/internal/timeline"
)

// PipelineDeps wires all driven adapters into the aggregation pipeline.
type PipelineDeps struct {
	Sources    *source.Fanout
	Repos      ports.RepositoryLister
	Articles   ports.ArticleFetcher
	Summarizer *Summarizer
	Profile    *ProfileSynthesizer
	Store      ports.ArtifactStore
	Logger     *slog.Logger
}

// Pipeline orchestrates one aggregation run: fetch, merge, summarize
// incrementally, extend the article archive, update the persona
// profile, then persist every artifact. Each artifact is computed fully
// in memory before any write, so a failed run leaves prior artifacts
// intact.
type Pipeline struct {
	sources    *source.Fanout
	repos      ports.RepositoryLister
	articles   ports.ArticleFetcher
	summarizer *Summarizer
	profile    *ProfileSynthesizer
	store      ports.ArtifactStore
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		sources:    deps.Sources,
		repos:      deps.Repos,
		articles:   deps.Articles,
		summarizer: deps.Summarizer,
		profile:    deps.Profile,
		store:      deps.Store,
		logger:     deps.Logger,
	}
}

// RunOptions controls a single pipeline run.
type RunOptions struct {
	// NoCache ignores persisted caches and recomputes everything.
	NoCache bool
	// SnapshotRaw additionally writes the unsummarized merged timeline.
	SnapshotRaw bool
}

// RunReport summarizes one run for the trigger response and logs.
type RunReport struct {
	GitHub         int  `json:"github"`
	Note           int  `json:"notecom"`
	Summarized     int  `json:"summarized"`
	Images         int  `json:"images"`
	Repos          int  `json:"repos"`
	Articles       int  `json:"articles"`
	NewArticles    int  `json:"newArticles"`
	ProfileUpdated bool `json:"profileUpdated"`
}

// Run executes one aggregation pass.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (RunReport, error) {
	var report RunReport

	bySource := p.sources.FetchAll(ctx)
	githubItems := bySource[string(domain.SourceGitHub)]
	noteItems := bySource[string(domain.SourceNote)]
	report.GitHub = len(githubItems)
	report.Note = len(noteItems)

	merged := timeline.Merge(githubItems, noteItems)
	p.info("fetched items", "github", len(githubItems), "notecom", len(noteItems))

	if opts.SnapshotRaw {
		if err := p.store.SaveRawSnapshot(merged); err != nil {
			p.warn("save raw snapshot failed", "error", err)
		}
	}

	cache := map[string]domain.SummarizedContent{}
	if !opts.NoCache {
		cache = p.store.LoadSummaries()
	}

	summarized := p.summarizer.Summarize(ctx, merged, cache)

	// Cached entries whose ids were not fetched this run belong to a
	// source that failed this time; keep them so the artifact never
	// loses data to an outage.
	fetched := make(map[string]bool, len(summarized))
	for _, entry := range summarized {
		fetched[entry.ID] = true
	}
	for id, cached := range cache {
		if !fetched[id] {
			summarized = append(summarized, cached)
		}
	}
	timeline.SortSummarized(summarized)
	report.Summarized = len(summarized)

	images := make([]domain.ContentItem, 0)
	for _, item := range merged {
		if len(item.ImageURLs) > 0 {
			images = append(images, item)
		}
	}
	report.Images = len(images)

	var repos []domain.RepoSummary
	if p.repos != nil {
		listed, err := p.repos.ListRepositories(ctx)
		if err != nil {
			p.warn("list repositories failed", "error", err)
		} else {
			repos = listed
		}
	}
	report.Repos = len(repos)

	var archive []domain.NoteArticle
	if !opts.NoCache {
		archive = p.store.LoadArticles()
	}
	archived := make(map[string]bool, len(archive))
	for _, article := range archive {
		archived[article.ID] = true
	}

	var newArticles []domain.NoteArticle
	if p.articles != nil {
		fetchedArticles, err := p.articles.FetchFullArticles(ctx, archived)
		if err != nil {
			p.warn("fetch full articles failed", "error", err)
		} else {
			newArticles = fetchedArticles
		}
	}

	allArticles := append(archive, newArticles...)
	timeline.SortArticles(allArticles)
	report.Articles = len(allArticles)
	report.NewArticles = len(newArticles)

	prior := ""
	if !opts.NoCache {
		prior = p.store.LoadProfile()
	}
	profile, updated := p.profile.Update(ctx, prior, newArticles, allArticles)
	report.ProfileUpdated = updated

	if err := p.store.SaveSummaries(summarized); err != nil {
		return report, fmt.Errorf("save summaries: %w", err)
	}
	if err := p.store.SaveImages(images); err != nil {
		return report, fmt.Errorf("save images: %w", err)
	}
	if err := p.store.SaveArticles(allArticles); err != nil {
		return report, fmt.Errorf("save articles: %w", err)
	}
	if err := p.store.SaveRepos(repos); err != nil {
		return report, fmt.Errorf("save repos: %w", err)
	}
	if updated {
		if err := p.store.SaveProfile(profile); err != nil {
			return report, fmt.Errorf("save profile: %w", err)
		}
	}

	p.info("run complete",
		"summarized", report.Summarized,
		"images", report.Images,
		"articles", report.Articles,
		"new_articles", report.NewArticles,
		"profile_updated", report.ProfileUpdated)

	return report, nil
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
