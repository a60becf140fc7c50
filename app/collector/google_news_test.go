package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const sampleSearchFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>"Acme Corp" - Google News</title>
<item>
<title>Acme Corp raises $50M Series B - TechCrunch</title>
<link>https://example.com/acme-series-b</link>
<pubDate>Mon, 09 Mar 2026 10:00:00 GMT</pubDate>
<description>&lt;a href="https://example.com/acme-series-b"&gt;Acme Corp raises $50M&lt;/a&gt;</description>
</item>
<item>
<title>Acme opens Berlin office - Reuters</title>
<link>https://example.com/acme-berlin</link>
<pubDate>Tue, 10 Mar 2026 08:00:00 GMT</pubDate>
<description>Acme expands into Europe</description>
</item>
<item>
<title>Untagged headline without publisher</title>
<link>https://www.newssite.example/story</link>
<description>plain text</description>
</item>
</channel>
</rss>`

func newTestCollector(serverURL string, client *http.Client) *GoogleNewsCollector {
	c := NewGoogleNewsCollector(client, 600, "clientpulse-test")
	c.baseURL = serverURL
	return c
}

func TestGoogleNewsCollector_Search(t *testing.T) {
	var requestedURL string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedURL = r.URL.String()
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sampleSearchFeed))
	}))
	defer server.Close()

	c := newTestCollector(server.URL, server.Client())
	results, err := c.Search(context.Background(), "Acme Corp", time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}

	first := results[0]
	if first.Title != "Acme Corp raises $50M Series B" {
		t.Errorf("Expected publisher suffix stripped from title, got %q", first.Title)
	}
	if first.Source != "TechCrunch" {
		t.Errorf("Expected source TechCrunch, got %q", first.Source)
	}
	if first.Snippet != "Acme Corp raises $50M" {
		t.Errorf("Expected HTML stripped from snippet, got %q", first.Snippet)
	}
	if first.PublishedAt.IsZero() {
		t.Error("Expected published timestamp to be parsed")
	}

	third := results[2]
	if third.Source != "newssite.example" {
		t.Errorf("Expected source fallback to URL host, got %q", third.Source)
	}

	if !strings.Contains(requestedURL, "after%3A2026-03-03") {
		t.Errorf("Expected query to carry the after: date filter, got %s", requestedURL)
	}
}

func TestGoogleNewsCollector_Search_MaxResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleSearchFeed))
	}))
	defer server.Close()

	c := newTestCollector(server.URL, server.Client())
	results, err := c.Search(context.Background(), "Acme Corp", time.Time{}, 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(results) != 1 {
		t.Errorf("Expected maxResults to cap output at 1, got %d", len(results))
	}
}

func TestGoogleNewsCollector_Search_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := newTestCollector(server.URL, server.Client())
	if _, err := c.Search(context.Background(), "Acme Corp", time.Time{}, 10); err == nil {
		t.Fatal("Expected error for upstream HTTP failure")
	}
}

func TestSplitTitleSource(t *testing.T) {
	tests := []struct {
		input  string
		title  string
		source string
	}{
		{"Acme raises $50M - TechCrunch", "Acme raises $50M", "TechCrunch"},
		{"Headline with - dash - Bloomberg", "Headline with - dash", "Bloomberg"},
		{"No publisher here", "No publisher here", ""},
	}

	for _, tt := range tests {
		title, source := splitTitleSource(tt.input)
		if title != tt.title || source != tt.source {
			t.Errorf("splitTitleSource(%q) = (%q, %q), want (%q, %q)",
				tt.input, title, source, tt.title, tt.source)
		}
	}
}
