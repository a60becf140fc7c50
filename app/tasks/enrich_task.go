package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/clientpulse/clientpulse/app/database"
	"github.com/clientpulse/clientpulse/app/intel"
	"github.com/clientpulse/clientpulse/app/schedule"
)

const (
	enrichBatchSize    = 20
	enrichMaxAttempts  = 3
	enrichFetchTimeout = 30 * time.Second
)

// EnrichTask fetches the source articles of high-relevance events and
// stores their extracted text. Events are retried on later runs until
// enrichMaxAttempts is reached.
type EnrichTask struct {
	Task
	eventRepo    database.EventRepository
	httpClient   *http.Client
	extractor    *intel.ArticleExtractor
	userAgent    string
	minRelevance float64
}

func NewEnrichTask(run *schedule.JobRun, sched schedule.Schedule, eventRepo database.EventRepository,
	httpClient *http.Client, extractor *intel.ArticleExtractor, userAgent string,
	minRelevance float64) *EnrichTask {
	return &EnrichTask{
		Task:         NewTask(TaskTypeEnrich, run, sched),
		eventRepo:    eventRepo,
		httpClient:   httpClient,
		extractor:    extractor,
		userAgent:    userAgent,
		minRelevance: minRelevance,
	}
}

func (t *EnrichTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	events, err := t.eventRepo.GetForExtraction(t.minRelevance, enrichMaxAttempts, enrichBatchSize)
	if err != nil {
		return fmt.Errorf("failed to get events for content extraction: %w", err)
	}

	if len(events) == 0 {
		slog.Debug("No events need content extraction")
		return nil
	}

	successCount := 0
	errorCount := 0
	skippedCount := 0

	for _, event := range events {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		t.Run.ResultsFound++

		// No URL means no article to fetch; retrying cannot help, so the
		// event is skipped for good rather than failed.
		if event.URL == "" {
			skippedCount++
			if err := t.eventRepo.UpdateExtraction(event.ID, database.ExtractionSkipped, "", "event has no URL", nil); err != nil {
				slog.Error("Failed to update extraction status", "event", event.ID, "error", err)
			}
			continue
		}

		err := t.enrichEvent(ctx, event)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Error("Failed to extract content for event", "event", event.ID, "url", event.URL, "error", err)
			errorCount++

			now := time.Now().UTC()
			if err := t.eventRepo.UpdateExtraction(event.ID, database.ExtractionFailed, "", err.Error(), &now); err != nil {
				slog.Error("Failed to update extraction status", "event", event.ID, "error", err)
			}
		} else {
			successCount++
			t.Run.ResultsNew++
		}
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"duration", t.GetDuration(),
		"success", successCount,
		"errors", errorCount,
		"skipped", skippedCount)

	return nil
}

func (t *EnrichTask) enrichEvent(ctx context.Context, event database.Event) error {
	data, err := t.fetchArticle(ctx, event.URL)
	if err != nil {
		return fmt.Errorf("failed to fetch article: %w", err)
	}

	content, err := t.extractor.Extract(data, event.URL)
	if err != nil {
		return fmt.Errorf("failed to extract content: %w", err)
	}

	now := time.Now().UTC()
	if err := t.eventRepo.UpdateExtraction(event.ID, database.ExtractionSuccess, content, "", &now); err != nil {
		return fmt.Errorf("failed to store extracted content: %w", err)
	}

	slog.Debug("Content extracted successfully", "event", event.ID, "url", event.URL, "content_length", len(content))
	return nil
}

func (t *EnrichTask) fetchArticle(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, enrichFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return nil, fmt.Errorf("content type is not HTML: %s", contentType)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
