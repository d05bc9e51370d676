package notecom

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ActivityAggregator/internal/config"
	"ActivityAggregator/internal/domain"
)

const feedTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
<channel>
	<title>alice</title>
	<link>https://note.com/alice</link>
	<item>
		<title>最初の記事</title>
		<link>%[1]s/alice/n/n1a2b3c</link>
		<guid isPermaLink="false">note-n1a2b3c</guid>
		<pubDate>Sun, 02 Mar 2025 10:00:00 +0000</pubDate>
		<category>engineering</category>
		<description><![CDATA[<p>Intro</p><img src="https://img.example/thumb.png"><img src="https://img.example/body.png">]]></description>
		<media:thumbnail>https://img.example/thumb.png</media:thumbnail>
	</item>
	<item>
		<title>二番目の記事</title>
		<link>%[1]s/alice/n/n4d5e6f</link>
		<guid isPermaLink="false">note-n4d5e6f</guid>
		<pubDate>Sat, 01 Mar 2025 10:00:00 +0000</pubDate>
		<description><![CDATA[<p>Short preview</p>]]></description>
	</item>
</channel>
</rss>`

// newNoteTestServer serves the RSS feed and article detail endpoints.
// bodies maps slug to the raw HTML body returned by the detail API.
func newNoteTestServer(t *testing.T, bodies map[string]string, detailHits map[string]int) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	var server *httptest.Server

	mux.HandleFunc("/alice/rss", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, feedTemplate, server.URL)
	})
	mux.HandleFunc("/api/v2/notes/", func(w http.ResponseWriter, r *http.Request) {
		slug := strings.TrimPrefix(r.URL.Path, "/api/v2/notes/")
		if detailHits != nil {
			detailHits[slug]++
		}
		body, ok := bodies[slug]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"data":{"body":%q}}`, body)
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestConnector(t *testing.T, server *httptest.Server) *Connector {
	t.Helper()

	return NewConnector(config.NoteConfig{
		Username:     "alice",
		BaseURL:      server.URL,
		FetchDelayMS: 1,
	}, server.Client(), nil)
}

func TestFetchMapsFeedEntries(t *testing.T) {
	t.Parallel()

	server := newNoteTestServer(t, nil, nil)
	connector := newTestConnector(t, server)

	items, err := connector.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.ID != "notecom-note-n1a2b3c" {
		t.Fatalf("unexpected id: %s", first.ID)
	}
	if first.Source != domain.SourceNote || first.Kind != domain.KindArticle {
		t.Fatalf("unexpected source/kind: %s/%s", first.Source, first.Kind)
	}
	if first.Title != "最初の記事" {
		t.Fatalf("unexpected title: %q", first.Title)
	}
	want := time.Date(2025, time.March, 2, 10, 0, 0, 0, time.UTC)
	if !first.PublishedAt.Equal(want) {
		t.Fatalf("unexpected published time: %s", first.PublishedAt)
	}
	if first.Metadata == nil || first.Metadata.Article == nil {
		t.Fatal("article metadata missing")
	}
	if len(first.Metadata.Article.Categories) != 1 || first.Metadata.Article.Categories[0] != "engineering" {
		t.Fatalf("unexpected categories: %v", first.Metadata.Article.Categories)
	}
}

func TestFetchImageURLsThumbnailFirstDeduped(t *testing.T) {
	t.Parallel()

	server := newNoteTestServer(t, nil, nil)
	connector := newTestConnector(t, server)

	items, err := connector.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The first entry's thumbnail also appears as an <img> in the markup;
	// it must be listed once, ahead of the remaining content image.
	got := items[0].ImageURLs
	want := []string{"https://img.example/thumb.png", "https://img.example/body.png"}
	if len(got) != len(want) {
		t.Fatalf("expected %d image urls, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("image url %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	if len(items[1].ImageURLs) != 0 {
		t.Fatalf("second entry should have no images, got %v", items[1].ImageURLs)
	}
}

func TestFetchDegradesOnFeedError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	connector := newTestConnector(t, server)

	items, err := connector.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch should degrade without error, got %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items on feed error, got %d", len(items))
	}
}

func TestFetchFullArticlesSkipsArchived(t *testing.T) {
	t.Parallel()

	hits := map[string]int{}
	server := newNoteTestServer(t, map[string]string{
		"n4d5e6f": "<p>Second body</p>",
	}, hits)
	connector := newTestConnector(t, server)

	archived := map[string]bool{"notecom-note-n1a2b3c": true}
	articles, err := connector.FetchFullArticles(context.Background(), archived)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 new article, got %d", len(articles))
	}
	if articles[0].ID != "notecom-note-n4d5e6f" {
		t.Fatalf("unexpected article id: %s", articles[0].ID)
	}
	if articles[0].Body != "Second body" {
		t.Fatalf("unexpected article body: %q", articles[0].Body)
	}
	if hits["n1a2b3c"] != 0 {
		t.Fatal("archived article should not be fetched")
	}
	if hits["n4d5e6f"] != 1 {
		t.Fatalf("expected a single detail fetch, got %d", hits["n4d5e6f"])
	}
}

func TestFetchFullArticlesSkipsFailuresAndEmptyBodies(t *testing.T) {
	t.Parallel()

	// First slug has no detail payload (404), second comes back empty.
	server := newNoteTestServer(t, map[string]string{
		"n4d5e6f": "",
	}, nil)
	connector := newTestConnector(t, server)

	articles, err := connector.FetchFullArticles(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(articles) != 0 {
		t.Fatalf("expected no articles, got %d", len(articles))
	}
}

func TestFetchFullArticlesDelaysBetweenFailedAttempts(t *testing.T) {
	t.Parallel()

	// Both detail fetches 404; the pacing delay must still apply
	// between the attempts.
	hits := map[string]int{}
	server := newNoteTestServer(t, nil, hits)
	connector := NewConnector(config.NoteConfig{
		Username:     "alice",
		BaseURL:      server.URL,
		FetchDelayMS: 40,
	}, server.Client(), nil)

	start := time.Now()
	articles, err := connector.FetchFullArticles(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(articles) != 0 {
		t.Fatalf("expected no articles, got %d", len(articles))
	}
	if hits["n1a2b3c"] != 1 || hits["n4d5e6f"] != 1 {
		t.Fatalf("expected one attempt per entry, got %v", hits)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Fatalf("expected at least the fetch delay between attempts, took %s", elapsed)
	}
}

func TestSlugFromURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		rawURL string
		want   string
	}{
		{"https://note.com/alice/n/n1a2b3c", "n1a2b3c"},
		{"https://note.com/alice/n/n1a2b3c/", "n1a2b3c"},
		{"https://note.com/", ""},
	}
	for _, tc := range cases {
		if got := slugFromURL(tc.rawURL); got != tc.want {
			t.Fatalf("slugFromURL(%q) = %q, want %q", tc.rawURL, got, tc.want)
		}
	}
}
