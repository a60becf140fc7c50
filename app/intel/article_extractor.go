package intel

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
)

// ArticleExtractor reduces a fetched news page to its readable body text.
// Event content is stored as plain text, so the readability output is
// flattened and trimmed rather than kept as HTML.
type ArticleExtractor struct{}

func NewArticleExtractor() *ArticleExtractor {
	return &ArticleExtractor{}
}

// Extract returns the article body of an HTML page as plain text. pageURL
// lets readability resolve relative links while scoring candidate nodes;
// an empty or malformed value is tolerated.
func (e *ArticleExtractor) Extract(data []byte, pageURL string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("page is empty")
	}

	base, _ := url.Parse(pageURL)

	article, err := readability.FromReader(bytes.NewReader(data), base)
	if err != nil {
		return "", fmt.Errorf("readability parse failed: %w", err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return "", fmt.Errorf("page has no readable article body")
	}

	return text, nil
}
