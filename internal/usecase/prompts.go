package usecase

import (
	"fmt"
	"strings"

	"ActivityAggregator/internal/domain"
)

// summaryPrompt asks for a short, abstract-style objective summary.
func summaryPrompt(item domain.ContentItem) string {
	body := item.Body
	if body == "" {
		body = "No content available"
	}

	return fmt.Sprintf(`あなたは簡潔で学術的なスタイルで要約を作成するアシスタントです。
以下のコンテンツを2-3文で要約してください。要約は客観的で情報密度が高く、研究論文のアブストラクトのようなスタイルで書いてください。

タイトル: %s
ソース: %s
内容: %s

要約:`, item.Title, item.Source, body)
}

// bootstrapProfilePrompt seeds the persona profile from the whole
// archive on the first run.
func bootstrapProfilePrompt(articles []domain.NoteArticle) string {
	var sb strings.Builder
	sb.WriteString(`あなたは文章分析の専門家です。以下の記事群を分析し、著者の人物像と文体の特徴をまとめたプロファイルを作成してください。

以下の観点で抽出してください:
- 文体の特徴(文末表現、一人称の選び方、文の構造、比喩の使い方)
- よく使うフレーズや言い回し
- 関心のあるトピック
- 価値観・世界観
- 具体的なエピソードや固有名詞
- ユーモアや自虐の傾向

簡潔な箇条書き中心のドキュメントとして、著者の言語で出力してください。

`)
	writeArticles(&sb, articles)
	return sb.String()
}

// mergeProfilePrompt integrates only the newly archived articles into
// the existing profile, preserving everything previously captured.
func mergeProfilePrompt(existing string, newArticles []domain.NoteArticle) string {
	var sb strings.Builder
	sb.WriteString(`あなたは文章分析の専門家です。既存の著者プロファイルに、新しい記事から得られる情報を統合してください。
既存のプロファイルに含まれる情報はすべて保持したまま、新しい特徴やエピソードを追加・更新してください。
出力は更新後のプロファイル全体のみとしてください。

# 既存のプロファイル
`)
	sb.WriteString(existing)
	sb.WriteString("\n\n# 新しい記事\n")
	writeArticles(&sb, newArticles)
	return sb.String()
}

func writeArticles(sb *strings.Builder, articles []domain.NoteArticle) {
	for _, article := range articles {
		fmt.Fprintf(sb, "## %s (%s)\n%s\n\n", article.Title, article.PublishedAt.Format("2006-01-02"), article.Body)
	}
}
