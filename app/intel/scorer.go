package intel

import (
	"strings"
	"time"
)

// Relevance weights. Each term is capped independently, so the sum is
// bounded to 1.0 by construction.
const (
	weightNameInTitle     = 0.40
	weightNameInSummary   = 0.20
	weightReputableSource = 0.20
	weightRecent          = 0.10
	weightHighValue       = 0.10
)

var highValueCategories = map[Category]bool{
	CategoryFunding:     true,
	CategoryAcquisition: true,
	CategoryPartnership: true,
}

// Scorer computes a 0.0-1.0 relevance score for an (event, entity) pair
// using an additive weighted formula.
type Scorer struct {
	recencyWindow time.Duration
}

// NewScorer creates a scorer with the given recency window for the
// freshness bonus.
func NewScorer(recencyWindow time.Duration) *Scorer {
	return &Scorer{recencyWindow: recencyWindow}
}

// Score returns the relevance of event to the named entity. reputableSources
// holds lower-cased source names that earn the source bonus. Future publish
// timestamps count as age zero rather than being rejected.
func (s *Scorer) Score(event Event, entityName string, reputableSources map[string]bool, now time.Time) float64 {
	score := 0.0

	name := strings.ToLower(strings.TrimSpace(entityName))
	if name != "" {
		// Title match takes precedence; the summary bonus applies only
		// when the name is absent from the title.
		if strings.Contains(strings.ToLower(event.Title), name) {
			score += weightNameInTitle
		} else if strings.Contains(strings.ToLower(event.Summary), name) {
			score += weightNameInSummary
		}
	}

	if reputableSources[strings.ToLower(event.Source)] {
		score += weightReputableSource
	}

	if !event.PublishedAt.IsZero() {
		age := now.Sub(event.PublishedAt)
		if age < 0 {
			age = 0
		}
		if age <= s.recencyWindow {
			score += weightRecent
		}
	}

	if highValueCategories[event.Category] {
		score += weightHighValue
	}

	// Should never trigger with the weights above; kept as a guard.
	if score > 1.0 {
		score = 1.0
	} else if score < 0.0 {
		score = 0.0
	}

	return score
}
