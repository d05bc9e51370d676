package timeline

import (
	"testing"
	"time"

	"ActivityAggregator/internal/domain"
)

func TestMergeOrdersNewestFirst(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

	github := []domain.ContentItem{
		{ID: "github-commit-a", PublishedAt: base.Add(1 * time.Hour)},
		{ID: "github-commit-b", PublishedAt: base.Add(3 * time.Hour)},
	}
	note := []domain.ContentItem{
		{ID: "notecom-x", PublishedAt: base.Add(2 * time.Hour)},
	}

	merged := Merge(github, note)

	if len(merged) != 3 {
		t.Fatalf("expected 3 items, got %d", len(merged))
	}

	want := []string{"github-commit-b", "notecom-x", "github-commit-a"}
	for i, id := range want {
		if merged[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, merged[i].ID)
		}
	}
}

func TestMergeKeepsInputOrderForTies(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

	first := []domain.ContentItem{{ID: "github-commit-a", PublishedAt: at}}
	second := []domain.ContentItem{{ID: "github-commit-b", PublishedAt: at}}

	merged := Merge(first, second)

	if len(merged) != 2 {
		t.Fatalf("expected 2 items, got %d", len(merged))
	}
	if merged[0].ID != "github-commit-a" || merged[1].ID != "github-commit-b" {
		t.Fatalf("tie order not preserved: %s, %s", merged[0].ID, merged[1].ID)
	}
}

func TestMergeEmptyInputs(t *testing.T) {
	t.Parallel()

	if merged := Merge(nil, nil); len(merged) != 0 {
		t.Fatalf("expected empty merge, got %d items", len(merged))
	}
}
