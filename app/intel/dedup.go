package intel

import (
	"strings"
)

// Decision is the outcome of a duplicate check. When IsDuplicate is set,
// KeepCandidate reports whether the candidate strictly improves on the
// matched event; on an exact relevance tie the existing event is kept.
type Decision struct {
	IsDuplicate   bool
	MatchedID     string
	KeepCandidate bool
}

// Deduplicator decides whether a candidate event duplicates one already
// known for the same entity. It only reports the decision; applying it is
// the caller's responsibility. Comparison is entity-scoped: callers pass
// events for a single entity, and cross-entity duplicates are not detected.
type Deduplicator struct {
	similarityThreshold float64
}

func NewDeduplicator(similarityThreshold float64) *Deduplicator {
	return &Deduplicator{similarityThreshold: similarityThreshold}
}

// Check compares candidate against every existing event. An exact
// normalized-URL match is an immediate duplicate; otherwise normalized
// titles with token-set similarity at or above the threshold match.
func (d *Deduplicator) Check(candidate Event, existing []Event) Decision {
	candidateURL := NormalizeURL(candidate.URL)
	candidateTitle := NormalizeTitle(candidate.Title)

	for _, ev := range existing {
		if candidateURL != "" && strings.EqualFold(candidateURL, NormalizeURL(ev.URL)) {
			return d.resolve(candidate, ev)
		}

		if TitleSimilarity(candidateTitle, NormalizeTitle(ev.Title)) >= d.similarityThreshold {
			return d.resolve(candidate, ev)
		}
	}

	return Decision{}
}

func (d *Deduplicator) resolve(candidate, matched Event) Decision {
	return Decision{
		IsDuplicate:   true,
		MatchedID:     matched.ID,
		KeepCandidate: candidate.RelevanceScore > matched.RelevanceScore,
	}
}

// TitleSimilarity computes the token-set Jaccard ratio of two normalized
// titles. It is symmetric. Two empty titles are not considered similar.
func TitleSimilarity(a, b string) float64 {
	tokensA := tokenSet(a)
	tokensB := tokenSet(b)

	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0.0
	}

	intersection := 0
	for token := range tokensA {
		if tokensB[token] {
			intersection++
		}
	}

	union := len(tokensA) + len(tokensB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, token := range strings.Fields(s) {
		set[token] = true
	}
	return set
}
