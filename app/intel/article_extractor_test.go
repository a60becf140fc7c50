package intel

import (
	"strings"
	"testing"
)

func TestArticleExtractor_ValidHTML(t *testing.T) {
	extractor := NewArticleExtractor()

	htmlContent := `
	<!DOCTYPE html>
	<html>
	<head>
		<title>Acme Corp Raises Series B</title>
	</head>
	<body>
		<header>
			<h1>Site Header</h1>
			<nav>Navigation</nav>
		</header>
		<main>
			<article>
				<h1>Acme Corp Raises $50M Series B</h1>
				<p>Acme Corp announced today that it has closed a fifty million dollar funding round led by a well known venture firm. The company plans to use the proceeds to expand its engineering organization.</p>
				<p>Founded five years ago, the company has grown to serve hundreds of enterprise customers across three continents, and the latest round brings its total funding to over seventy million dollars.</p>
				<p>Industry analysts see the raise as a signal of continued investor confidence in the sector, despite a broader slowdown in late-stage venture activity over the past year.</p>
			</article>
		</main>
		<aside>
			<div>Advertisement</div>
			<div>Related Links</div>
		</aside>
		<footer>
			<p>Copyright 2026</p>
		</footer>
	</body>
	</html>
	`

	result, err := extractor.Extract([]byte(htmlContent), "https://news.example.com/acme-series-b")

	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}

	if result == "" {
		t.Errorf("Expected non-empty result")
	}

	// Plain text, not markup
	if strings.Contains(result, "<p>") {
		t.Errorf("Expected plain text output, got markup: %q", result)
	}

	// Check that main content is included
	if !strings.Contains(result, "fifty million dollar funding round") {
		t.Errorf("Expected extracted content to contain main article text")
	}

	// Check that non-content elements are likely excluded
	if strings.Contains(result, "Advertisement") {
		t.Errorf("Expected extracted content to exclude advertisement")
	}

	if strings.Contains(result, "Copyright 2026") {
		t.Errorf("Expected extracted content to exclude footer")
	}
}

func TestArticleExtractor_EmptyInput(t *testing.T) {
	extractor := NewArticleExtractor()

	if _, err := extractor.Extract(nil, "https://example.com"); err == nil {
		t.Error("Expected error for empty input")
	}

	if _, err := extractor.Extract([]byte{}, ""); err == nil {
		t.Error("Expected error for empty byte slice")
	}
}

func TestArticleExtractor_NonArticleHTML(t *testing.T) {
	extractor := NewArticleExtractor()

	// A page with no meaningful article body should either error or
	// produce no useful content; it must not panic.
	htmlContent := `<html><body><nav>Just navigation</nav></body></html>`

	result, err := extractor.Extract([]byte(htmlContent), "https://example.com/landing")
	if err == nil && strings.TrimSpace(result) == "" {
		t.Error("Expected error or non-empty result")
	}
}

func TestArticleExtractor_MalformedPageURL(t *testing.T) {
	extractor := NewArticleExtractor()

	htmlContent := `<html><body><article>
	<p>Globex Industries confirmed the acquisition of a regional competitor in a deal
	valued at two hundred million dollars, its largest purchase to date. The combined
	company will operate under the Globex name starting next quarter.</p>
	</article></body></html>`

	if _, err := extractor.Extract([]byte(htmlContent), "://not-a-url"); err != nil {
		t.Errorf("Expected malformed page URL to be tolerated, got: %v", err)
	}
}
