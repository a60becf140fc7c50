package intel

import (
	"strings"
)

// categoryKeywords is an ordered table: on a hit-count tie the earliest
// declared category wins. Matching is phrase containment on the lower-cased
// title+summary, so "series a" matches inside a longer sentence.
var categoryKeywords = []struct {
	category Category
	keywords []string
}{
	{CategoryFunding, []string{
		"funding", "raises", "raised", "series a", "series b", "series c",
		"seed round", "venture capital", "investment round", "valuation",
	}},
	{CategoryAcquisition, []string{
		"acquisition", "acquires", "acquired", "merger", "merges with",
		"buyout", "takeover", "to acquire",
	}},
	{CategoryLeadership, []string{
		"ceo", "cfo", "cto", "appoints", "names new", "joins as",
		"steps down", "resigns", "new chief", "board of directors",
	}},
	{CategoryProduct, []string{
		"launches", "launch of", "unveils", "releases", "new product",
		"introduces", "rollout", "general availability", "beta",
	}},
	{CategoryPartnership, []string{
		"partnership", "partners with", "teams up", "collaboration",
		"joint venture", "alliance", "collaborates",
	}},
	{CategoryFinancial, []string{
		"earnings", "revenue", "profit", "quarterly results", "fiscal year",
		"ipo", "stock price", "shares", "dividend",
	}},
	{CategoryAward, []string{
		"award", "wins", "winner", "recognized as", "named to", "honored",
		"best places to work", "top 100",
	}},
	{CategoryRegulatory, []string{
		"lawsuit", "settlement", "regulator", "investigation", "antitrust",
		"compliance", "fined", "court ruling", "data breach",
	}},
}

var positiveKeywords = []string{
	"growth", "success", "wins", "record", "strong", "innovative", "award",
	"expands", "milestone", "profit", "surge", "breakthrough", "raises",
	"launches", "partnership", "celebrates", "achievement",
}

var negativeKeywords = []string{
	"lawsuit", "layoffs", "decline", "loss", "investigation", "fraud",
	"bankruptcy", "recall", "breach", "scandal", "fined", "plunge",
	"cuts", "shutdown", "misses", "downturn",
}

const (
	sentimentPositiveThreshold = 0.15
	sentimentNegativeThreshold = -0.15
)

// Classifier assigns an event category and sentiment polarity using keyword
// matching. Classification is a pure function of the input text.
type Classifier struct{}

func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify maps a title and summary to a category, a sentiment label and a
// sentiment score in [-1, 1]. Unmatched text falls back to the "news"
// category with neutral sentiment; classification never fails.
func (c *Classifier) Classify(title, summary string) (Category, Sentiment, float64) {
	text := strings.ToLower(title + " " + summary)

	category := CategoryNews
	bestHits := 0
	for _, entry := range categoryKeywords {
		hits := countHits(text, entry.keywords)
		if hits > bestHits {
			bestHits = hits
			category = entry.category
		}
	}

	posHits := countHits(text, positiveKeywords)
	negHits := countHits(text, negativeKeywords)

	score := float64(posHits-negHits) / float64(max(1, posHits+negHits))
	if score > 1.0 {
		score = 1.0
	} else if score < -1.0 {
		score = -1.0
	}

	sentiment := SentimentNeutral
	if score > sentimentPositiveThreshold {
		sentiment = SentimentPositive
	} else if score < sentimentNegativeThreshold {
		sentiment = SentimentNegative
	}

	return category, sentiment, score
}

func countHits(text string, keywords []string) int {
	hits := 0
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			hits++
		}
	}
	return hits
}
