package database

import (
	"time"
)

// Entity is a monitored client registered in the database. Queries and
// aliases live in the YAML client configuration; the database keeps only
// what events and schedules reference.
type Entity struct {
	ID        string // Database UUID
	Slug      string // Configuration identifier derived from filename
	Name      string
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Extraction status values for Event.ExtractionStatus.
const (
	ExtractionPending = "pending"
	ExtractionSuccess = "success"
	ExtractionFailed  = "failed"
	ExtractionSkipped = "skipped"
)

// Event is a classified news event persisted for an entity.
type Event struct {
	ID                 string
	EntityID           string
	Title              string
	Summary            string
	URL                string
	Source             string
	PublishedAt        *time.Time
	Category           string
	Sentiment          string
	SentimentScore     float64
	RelevanceScore     float64
	Fingerprint        string
	Content            string
	ExtractionStatus   string
	ExtractionError    string
	ExtractionAttempts int
	ContentExtractedAt *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
