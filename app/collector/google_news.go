package collector

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"
)

const googleNewsSearchURL = "https://news.google.com/rss/search"

var _ Collector = (*GoogleNewsCollector)(nil)

// GoogleNewsCollector searches Google News through its RSS search endpoint.
// Requests share a rate limiter so concurrent jobs cannot hammer the
// upstream service.
type GoogleNewsCollector struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	parser     *gofeed.Parser
	userAgent  string
	baseURL    string
}

func NewGoogleNewsCollector(httpClient *http.Client, requestsPerMinute int, userAgent string) *GoogleNewsCollector {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 30
	}

	return &GoogleNewsCollector{
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1),
		parser:     gofeed.NewParser(),
		userAgent:  userAgent,
		baseURL:    googleNewsSearchURL,
	}
}

func (c *GoogleNewsCollector) Search(ctx context.Context, query string, from time.Time, maxResults int) ([]RawResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	data, err := c.fetch(ctx, c.buildURL(query, from))
	if err != nil {
		return nil, err
	}

	feed, err := c.parser.ParseString(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}

	results := make([]RawResult, 0, len(feed.Items))
	for _, item := range feed.Items {
		if maxResults > 0 && len(results) >= maxResults {
			break
		}

		result := RawResult{
			Title:   item.Title,
			Snippet: stripTags(item.Description),
			URL:     item.Link,
		}

		result.Title, result.Source = splitTitleSource(item.Title)
		if result.Source == "" {
			result.Source = hostOf(item.Link)
		}

		if item.PublishedParsed != nil {
			result.PublishedAt = *item.PublishedParsed
		}

		results = append(results, result)
	}

	slog.Debug("Search completed", "query", query, "results", len(results))

	return results, nil
}

func (c *GoogleNewsCollector) buildURL(query string, from time.Time) string {
	q := query
	if !from.IsZero() {
		q = fmt.Sprintf("%s after:%s", query, from.Format("2006-01-02"))
	}

	params := url.Values{}
	params.Set("q", q)
	params.Set("hl", "en-US")
	params.Set("gl", "US")
	params.Set("ceid", "US:en")

	return c.baseURL + "?" + params.Encode()
}

func (c *GoogleNewsCollector) fetch(ctx context.Context, searchURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch search results: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

// splitTitleSource splits Google News item titles of the form
// "Headline - Publisher" into headline and publisher.
func splitTitleSource(title string) (string, string) {
	idx := strings.LastIndex(title, " - ")
	if idx <= 0 || idx+3 >= len(title) {
		return title, ""
	}
	return strings.TrimSpace(title[:idx]), strings.TrimSpace(title[idx+3:])
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}

// stripTags removes the HTML markup Google News puts in item descriptions,
// leaving plain snippet text.
func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
