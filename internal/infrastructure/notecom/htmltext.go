package notecom

import (
	"html"
	"regexp"
	"strings"
)

var (
	brTagExpr     = regexp.MustCompile(`(?i)<br\s*/?>`)
	closePExpr    = regexp.MustCompile(`(?i)</p>`)
	anyTagExpr    = regexp.MustCompile(`<[^>]+>`)
	blankRunsExpr = regexp.MustCompile(`\n{3,}`)
)

// stripArticleHTML converts an article body to plain text: paragraph
// ends become blank lines, line breaks become newlines, entities are
// decoded, and runs of three or more blank lines collapse to two.
func stripArticleHTML(raw string) string {
	text := brTagExpr.ReplaceAllString(raw, "\n")
	text = closePExpr.ReplaceAllString(text, "\n\n")
	text = anyTagExpr.ReplaceAllString(text, "")
	text = html.UnescapeString(text)
	text = blankRunsExpr.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
