package intel

import (
	"time"
)

// Category is the event type assigned by the classifier.
type Category string

const (
	CategoryFunding     Category = "funding"
	CategoryAcquisition Category = "acquisition"
	CategoryLeadership  Category = "leadership"
	CategoryProduct     Category = "product"
	CategoryPartnership Category = "partnership"
	CategoryFinancial   Category = "financial"
	CategoryAward       Category = "award"
	CategoryRegulatory  Category = "regulatory"
	CategoryNews        Category = "news"
)

// Sentiment is the polarity label assigned by the classifier.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Event is a raw search result enriched with classification and relevance.
// ID is empty until the event has been persisted.
type Event struct {
	ID             string
	EntityID       string
	Title          string
	Summary        string
	URL            string
	Source         string
	PublishedAt    time.Time
	Category       Category
	Sentiment      Sentiment
	SentimentScore float64
	RelevanceScore float64
	Fingerprint    string
}
