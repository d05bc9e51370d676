package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ActivityAggregator/internal/domain"
)

func noteArticle(id, title, body string, day int) domain.NoteArticle {
	return domain.NoteArticle{
		ID:          id,
		Title:       title,
		Body:        body,
		PublishedAt: time.Date(2025, time.March, day, 0, 0, 0, 0, time.UTC),
	}
}

func TestProfileBootstrapUsesFullArchive(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{reply: "persona v1"}
	synth := NewProfileSynthesizer(gen, nil)

	old := noteArticle("notecom-a", "Old Article", "old body", 1)
	fresh := noteArticle("notecom-b", "New Article", "new body", 2)

	doc, updated := synth.Update(context.Background(),
		"", []domain.NoteArticle{fresh}, []domain.NoteArticle{fresh, old})
	if !updated {
		t.Fatal("expected profile update")
	}
	if doc != "persona v1" {
		t.Fatalf("unexpected document: %q", doc)
	}

	prompt := gen.lastPrompt()
	if !strings.Contains(prompt, "Old Article") || !strings.Contains(prompt, "New Article") {
		t.Fatalf("bootstrap prompt should carry the whole archive, got %q", prompt)
	}
}

func TestProfileMergeSendsOnlyDelta(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{reply: "persona v2"}
	synth := NewProfileSynthesizer(gen, nil)

	old := noteArticle("notecom-a", "Old Article", "old body", 1)
	fresh := noteArticle("notecom-b", "New Article", "new body", 2)

	doc, updated := synth.Update(context.Background(),
		"existing persona", []domain.NoteArticle{fresh}, []domain.NoteArticle{fresh, old})
	if !updated {
		t.Fatal("expected profile update")
	}
	if doc != "persona v2" {
		t.Fatalf("unexpected document: %q", doc)
	}

	prompt := gen.lastPrompt()
	if !strings.Contains(prompt, "existing persona") {
		t.Fatalf("merge prompt should carry the prior document, got %q", prompt)
	}
	if !strings.Contains(prompt, "New Article") {
		t.Fatalf("merge prompt should carry the new article, got %q", prompt)
	}
	if strings.Contains(prompt, "Old Article") {
		t.Fatalf("merge prompt must not resend archived articles, got %q", prompt)
	}
}

func TestProfileNoNewArticles(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{reply: "ignored"}
	synth := NewProfileSynthesizer(gen, nil)

	doc, updated := synth.Update(context.Background(), "existing persona", nil, nil)
	if updated {
		t.Fatal("no new articles should leave the profile untouched")
	}
	if doc != "existing persona" {
		t.Fatalf("prior document should come back unchanged, got %q", doc)
	}
	if gen.calls() != 0 {
		t.Fatalf("generator should not be called, got %d calls", gen.calls())
	}
}

func TestProfileKeepsPriorOnFailure(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{err: errors.New("unavailable")}
	synth := NewProfileSynthesizer(gen, nil)

	fresh := noteArticle("notecom-b", "New Article", "new body", 2)
	doc, updated := synth.Update(context.Background(),
		"existing persona", []domain.NoteArticle{fresh}, []domain.NoteArticle{fresh})
	if updated {
		t.Fatal("failed generation must not report an update")
	}
	if doc != "existing persona" {
		t.Fatalf("prior document should survive the failure, got %q", doc)
	}
}

func TestProfileNilGenerator(t *testing.T) {
	t.Parallel()

	synth := NewProfileSynthesizer(nil, nil)
	fresh := noteArticle("notecom-b", "New Article", "new body", 2)

	doc, updated := synth.Update(context.Background(), "prior", []domain.NoteArticle{fresh}, []domain.NoteArticle{fresh})
	if updated || doc != "prior" {
		t.Fatalf("nil generator should be a no-op, got (%q, %v)", doc, updated)
	}
}
