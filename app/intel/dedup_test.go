package intel

import (
	"testing"
)

func TestDeduplicator_Check_ExactURLMatch(t *testing.T) {
	dedup := NewDeduplicator(0.85)

	existing := []Event{
		{ID: "ev-1", Title: "Completely different title", URL: "https://example.com/news/acme-funding/"},
	}
	candidate := Event{
		Title: "Acme raises funding",
		URL:   "HTTPS://EXAMPLE.COM/news/acme-funding",
	}

	decision := dedup.Check(candidate, existing)
	if !decision.IsDuplicate {
		t.Fatal("Expected URL match to be a duplicate despite different titles")
	}
	if decision.MatchedID != "ev-1" {
		t.Errorf("Expected matched ID ev-1, got %q", decision.MatchedID)
	}
}

func TestDeduplicator_Check_ReflexiveOnIdenticalCopy(t *testing.T) {
	dedup := NewDeduplicator(0.85)

	event := Event{ID: "ev-1", Title: "Acme raises Series B", URL: "https://example.com/a"}
	decision := dedup.Check(event, []Event{event})

	if !decision.IsDuplicate {
		t.Error("Expected identical copy to be detected as duplicate")
	}
	if decision.KeepCandidate {
		t.Error("Expected existing event to be kept on an exact relevance tie")
	}
}

func TestDeduplicator_Check_TitleSimilarity(t *testing.T) {
	dedup := NewDeduplicator(0.85)

	existing := []Event{
		{ID: "ev-1", Title: "Acme Corp Raises $50M Series B Funding", URL: "https://a.example.com/1"},
	}

	tests := []struct {
		name      string
		title     string
		duplicate bool
	}{
		{"casing and punctuation variant", "acme corp raises $50m series b funding!", true},
		{"whitespace variant", "  Acme   Corp raises $50M Series B funding ", true},
		{"unrelated title", "Globex opens new research lab in Berlin", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate := Event{Title: tt.title, URL: "https://b.example.com/other"}
			decision := dedup.Check(candidate, existing)
			if decision.IsDuplicate != tt.duplicate {
				t.Errorf("Expected duplicate=%v for %q", tt.duplicate, tt.title)
			}
		})
	}
}

func TestDeduplicator_Check_ResolutionKeepsHigherRelevance(t *testing.T) {
	dedup := NewDeduplicator(0.85)

	existing := []Event{
		{ID: "ev-1", Title: "Acme raises Series B", URL: "https://example.com/a", RelevanceScore: 0.50},
	}

	better := Event{Title: "Acme raises Series B", URL: "https://example.com/a", RelevanceScore: 0.80}
	decision := dedup.Check(better, existing)
	if !decision.IsDuplicate || !decision.KeepCandidate {
		t.Errorf("Expected higher-relevance candidate to be kept, got %+v", decision)
	}

	worse := Event{Title: "Acme raises Series B", URL: "https://example.com/a", RelevanceScore: 0.30}
	decision = dedup.Check(worse, existing)
	if !decision.IsDuplicate || decision.KeepCandidate {
		t.Errorf("Expected lower-relevance candidate to be discarded, got %+v", decision)
	}

	tie := Event{Title: "Acme raises Series B", URL: "https://example.com/a", RelevanceScore: 0.50}
	decision = dedup.Check(tie, existing)
	if !decision.IsDuplicate || decision.KeepCandidate {
		t.Errorf("Expected tie to keep the existing event, got %+v", decision)
	}
}

func TestDeduplicator_Check_NoMatch(t *testing.T) {
	dedup := NewDeduplicator(0.85)

	decision := dedup.Check(Event{Title: "Fresh story", URL: "https://example.com/new"}, nil)
	if decision.IsDuplicate {
		t.Error("Expected no duplicate against empty history")
	}
}

func TestTitleSimilarity_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"acme corp raises series b", "acme corp raises series b funding"},
		{"globex opens lab", "initech ships product"},
		{"", "nonempty title"},
	}

	for _, pair := range pairs {
		ab := TitleSimilarity(pair[0], pair[1])
		ba := TitleSimilarity(pair[1], pair[0])
		if ab != ba {
			t.Errorf("Similarity not symmetric for %q / %q: %.3f vs %.3f", pair[0], pair[1], ab, ba)
		}
	}
}

func TestNormalizeURL_Variants(t *testing.T) {
	tests := []struct {
		a, b string
	}{
		{"https://example.com/path/", "https://example.com/path"},
		{"HTTPS://Example.COM/path", "https://example.com/path"},
		{"https://example.com/path#section", "https://example.com/path"},
	}

	for _, tt := range tests {
		if NormalizeURL(tt.a) != NormalizeURL(tt.b) {
			t.Errorf("Expected %q and %q to normalize equal, got %q vs %q",
				tt.a, tt.b, NormalizeURL(tt.a), NormalizeURL(tt.b))
		}
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Acme Corp Raises $50M!", "acme corp raises 50m"},
		{"  spaced    out   title ", "spaced out title"},
		{"Café Brands Expands", "cafe brands expands"},
	}

	for _, tt := range tests {
		if got := NormalizeTitle(tt.input); got != tt.expected {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
