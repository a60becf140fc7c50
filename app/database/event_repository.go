package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ EventRepository = (*SQLEventRepository)(nil)

type SQLEventRepository struct {
	db *DB
}

func NewEventRepository(db *DB) *SQLEventRepository {
	return &SQLEventRepository{db: db}
}

// Save stores a new event and returns its assigned ID.
func (r *SQLEventRepository) Save(event Event) (string, error) {
	id := uuid.NewString()

	_, err := r.db.Exec(`
		INSERT INTO events (
			id, entity_id, title, summary, url, source, published_at,
			category, sentiment, sentiment_score, relevance_score, fingerprint
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, event.EntityID, event.Title, event.Summary, event.URL, event.Source,
		event.PublishedAt, event.Category, event.Sentiment, event.SentimentScore,
		event.RelevanceScore, event.Fingerprint)
	if err != nil {
		return "", fmt.Errorf("failed to save event: %w", err)
	}

	return id, nil
}

// Supersede overwrites an existing event with a higher-relevance duplicate,
// keeping the original row identity. Extraction state resets so the new
// article body can be fetched.
func (r *SQLEventRepository) Supersede(eventID string, event Event) error {
	result, err := r.db.Exec(`
		UPDATE events
		SET title = ?, summary = ?, url = ?, source = ?, published_at = ?,
		    category = ?, sentiment = ?, sentiment_score = ?, relevance_score = ?,
		    fingerprint = ?, extraction_status = ?, extraction_error = '',
		    extraction_attempts = 0, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, event.Title, event.Summary, event.URL, event.Source, event.PublishedAt,
		event.Category, event.Sentiment, event.SentimentScore, event.RelevanceScore,
		event.Fingerprint, ExtractionPending, eventID)
	if err != nil {
		return fmt.Errorf("failed to supersede event: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check superseded rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("event %s not found", eventID)
	}

	return nil
}

func (r *SQLEventRepository) GetByEntity(entityID string) ([]Event, error) {
	rows, err := r.db.Query(`
		SELECT id, entity_id, title, summary, url, source, published_at,
		       category, sentiment, sentiment_score, relevance_score, fingerprint,
		       content, extraction_status, extraction_error, extraction_attempts,
		       content_extracted_at, created_at, updated_at
		FROM events
		WHERE entity_id = ?
		ORDER BY COALESCE(published_at, created_at) DESC
	`, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (r *SQLEventRepository) GetCount() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM events").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

func (r *SQLEventRepository) CountByCategory() (map[string]int, error) {
	rows, err := r.db.Query("SELECT category, COUNT(*) FROM events GROUP BY category")
	if err != nil {
		return nil, fmt.Errorf("failed to count events by category: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		counts[category] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category counts: %w", err)
	}

	return counts, nil
}

// GetForExtraction returns events whose article body has not been fetched
// yet, limited to those relevant enough to be worth a fetch. Failed events
// come back until their attempt budget runs out.
func (r *SQLEventRepository) GetForExtraction(minRelevance float64, maxAttempts, limit int) ([]Event, error) {
	rows, err := r.db.Query(`
		SELECT id, entity_id, title, summary, url, source, published_at,
		       category, sentiment, sentiment_score, relevance_score, fingerprint,
		       content, extraction_status, extraction_error, extraction_attempts,
		       content_extracted_at, created_at, updated_at
		FROM events
		WHERE extraction_status IN (?, ?)
		  AND relevance_score >= ?
		  AND extraction_attempts < ?
		  AND url != ''
		ORDER BY relevance_score DESC
		LIMIT ?
	`, ExtractionPending, ExtractionFailed, minRelevance, maxAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get events for extraction: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (r *SQLEventRepository) UpdateExtraction(eventID, status, content, errorMessage string, extractedAt *time.Time) error {
	_, err := r.db.Exec(`
		UPDATE events
		SET extraction_status = ?, content = ?, extraction_error = ?,
		    content_extracted_at = ?, extraction_attempts = extraction_attempts + 1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, status, content, errorMessage, extractedAt, eventID)
	if err != nil {
		return fmt.Errorf("failed to update extraction status: %w", err)
	}
	return nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanEvents(rows rowScanner) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var event Event
		err := rows.Scan(
			&event.ID, &event.EntityID, &event.Title, &event.Summary, &event.URL,
			&event.Source, &event.PublishedAt, &event.Category, &event.Sentiment,
			&event.SentimentScore, &event.RelevanceScore, &event.Fingerprint,
			&event.Content, &event.ExtractionStatus, &event.ExtractionError,
			&event.ExtractionAttempts, &event.ContentExtractedAt,
			&event.CreatedAt, &event.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}

	return events, nil
}
