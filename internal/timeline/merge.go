package timeline

import (
	"sort"

	"ActivityAggregator/internal/domain"
)

// Merge concatenates items from all sources into one timeline ordered
// newest first. The sort is stable, so items with equal timestamps keep
// their concatenation order.
func Merge(groups ...[]domain.ContentItem) []domain.ContentItem {
	var merged []domain.ContentItem
	for _, group := range groups {
		merged = append(merged, group...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].PublishedAt.After(merged[j].PublishedAt)
	})

	return merged
}

// SortSummarized orders summaries newest first, in place.
func SortSummarized(entries []domain.SummarizedContent) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].PublishedAt.After(entries[j].PublishedAt)
	})
}

// SortArticles orders archive entries newest first, in place.
func SortArticles(articles []domain.NoteArticle) {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
}
