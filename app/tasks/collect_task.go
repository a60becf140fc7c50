package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/clientpulse/clientpulse/app/cache"
	"github.com/clientpulse/clientpulse/app/collector"
	"github.com/clientpulse/clientpulse/app/config"
	"github.com/clientpulse/clientpulse/app/database"
	"github.com/clientpulse/clientpulse/app/intel"
	"github.com/clientpulse/clientpulse/app/notify"
	"github.com/clientpulse/clientpulse/app/schedule"
)

// searchSource labels cache entries and event provenance for the news
// search collector.
const searchSource = "google_news"

type CollectTask struct {
	Task
	clientCache      *config.ClientCache
	searchCollector  collector.Collector
	searchCache      *cache.SearchCache
	classifier       *intel.Classifier
	scorer           *intel.Scorer
	deduplicator     *intel.Deduplicator
	notifier         notify.Notifier
	entityRepo       database.EntityRepository
	eventRepo        database.EventRepository
	searchWindow     time.Duration
	maxResults       int
	cacheTTL         time.Duration
	minRelevance     float64
	notifyThreshold  float64
	reputableSources map[string]bool
}

func NewCollectTask(run *schedule.JobRun, sched schedule.Schedule, clientCache *config.ClientCache,
	searchCollector collector.Collector, searchCache *cache.SearchCache, classifier *intel.Classifier,
	scorer *intel.Scorer, deduplicator *intel.Deduplicator, notifier notify.Notifier,
	entityRepo database.EntityRepository, eventRepo database.EventRepository,
	searchWindow time.Duration, maxResults int, cacheTTL time.Duration,
	minRelevance, notifyThreshold float64, reputableSources map[string]bool) *CollectTask {
	return &CollectTask{
		Task:             NewTask(TaskTypeCollect, run, sched),
		clientCache:      clientCache,
		searchCollector:  searchCollector,
		searchCache:      searchCache,
		classifier:       classifier,
		scorer:           scorer,
		deduplicator:     deduplicator,
		notifier:         notifier,
		entityRepo:       entityRepo,
		eventRepo:        eventRepo,
		searchWindow:     searchWindow,
		maxResults:       maxResults,
		cacheTTL:         cacheTTL,
		minRelevance:     minRelevance,
		notifyThreshold:  notifyThreshold,
		reputableSources: reputableSources,
	}
}

// Execute runs one collection cycle over the schedule's entities. A single
// failing entity does not abort the cycle; the run fails only when every
// entity fails, otherwise the failure summary is kept on the completed run.
func (t *CollectTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	clients := t.scopedClients()
	if len(clients) == 0 {
		slog.Debug("No enabled clients in scope, nothing to collect", "schedule", t.Schedule.Name)
		return nil
	}

	var failures []string
	for _, client := range clients {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		found, added, err := t.collectEntity(ctx, client)
		t.Run.EntitiesProcessed++
		t.Run.ResultsFound += found
		t.Run.ResultsNew += added

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Error("Entity collection failed", "client", client.Slug, "error", err)
			failures = append(failures, fmt.Sprintf("%s: %v", client.Slug, err))
		}
	}

	if len(failures) == len(clients) {
		return fmt.Errorf("all entities failed: %s", strings.Join(failures, "; "))
	}
	if len(failures) > 0 {
		t.Run.ErrorMessage = fmt.Sprintf("%d of %d entities failed: %s",
			len(failures), len(clients), strings.Join(failures, "; "))
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"schedule", t.Schedule.Name,
		"duration", t.GetDuration(),
		"entities", t.Run.EntitiesProcessed,
		"found", t.Run.ResultsFound,
		"new", t.Run.ResultsNew,
		"failed_entities", len(failures))

	return nil
}

// scopedClients resolves the schedule's entity scope against the enabled
// clients. An empty scope means every enabled client.
func (t *CollectTask) scopedClients() []*config.Client {
	clients := t.clientCache.GetEnabledClients()
	if len(t.Schedule.EntityScope) == 0 {
		return clients
	}

	scope := make(map[string]bool, len(t.Schedule.EntityScope))
	for _, slug := range t.Schedule.EntityScope {
		scope[slug] = true
	}

	var scoped []*config.Client
	for _, client := range clients {
		if scope[client.Slug] {
			scoped = append(scoped, client)
		}
	}
	return scoped
}

func (t *CollectTask) collectEntity(ctx context.Context, client *config.Client) (int, int, error) {
	entity, err := t.entityRepo.GetBySlug(client.Slug)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load entity: %w", err)
	}
	if entity == nil {
		return 0, 0, fmt.Errorf("entity %q is not registered", client.Slug)
	}

	stored, err := t.eventRepo.GetByEntity(entity.ID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load existing events: %w", err)
	}
	// Snapshot for deduplication; events added during this cycle are
	// appended so results within the cycle also deduplicate.
	existing := make([]intel.Event, 0, len(stored))
	for _, ev := range stored {
		existing = append(existing, toIntelEvent(ev))
	}

	now := time.Now().UTC()
	from := now.Add(-t.searchWindow)
	found := 0
	added := 0

	for _, query := range client.SearchQueries() {
		select {
		case <-ctx.Done():
			return found, added, ctx.Err()
		default:
		}

		results, hit := t.searchCache.Get(query, searchSource)
		if !hit {
			results, err = t.searchCollector.Search(ctx, query, from, t.maxResults)
			if err != nil {
				return found, added, fmt.Errorf("search %q failed: %w", query, err)
			}
			t.searchCache.Put(query, searchSource, results, t.cacheTTL)
		}
		found += len(results)

		for _, raw := range results {
			if strings.TrimSpace(raw.Title) == "" {
				slog.Debug("Skipping result without title", "client", client.Slug, "url", raw.URL)
				continue
			}

			event := t.buildEvent(raw, entity.ID, client, now)
			if event.RelevanceScore < t.minRelevance {
				continue
			}

			decision := t.deduplicator.Check(event, existing)
			if decision.IsDuplicate {
				if decision.KeepCandidate {
					if err := t.eventRepo.Supersede(decision.MatchedID, toDatabaseEvent(event)); err != nil {
						return found, added, fmt.Errorf("failed to supersede event: %w", err)
					}
					event.ID = decision.MatchedID
					for i := range existing {
						if existing[i].ID == decision.MatchedID {
							existing[i] = event
						}
					}
				}
				continue
			}

			id, err := t.eventRepo.Save(toDatabaseEvent(event))
			if err != nil {
				return found, added, fmt.Errorf("failed to save event: %w", err)
			}
			event.ID = id
			existing = append(existing, event)
			added++

			if event.RelevanceScore >= t.notifyThreshold {
				if err := t.notifier.Notify(ctx, client.Name, event); err != nil {
					slog.Warn("Notification failed", "client", client.Slug, "event", event.ID, "error", err)
				}
			}
		}
	}

	return found, added, nil
}

// buildEvent classifies and scores a raw search result. Relevance is the
// best score over the client name and its aliases.
func (t *CollectTask) buildEvent(raw collector.RawResult, entityID string, client *config.Client, now time.Time) intel.Event {
	category, sentiment, sentimentScore := t.classifier.Classify(raw.Title, raw.Snippet)

	event := intel.Event{
		EntityID:       entityID,
		Title:          raw.Title,
		Summary:        raw.Snippet,
		URL:            raw.URL,
		Source:         raw.Source,
		PublishedAt:    raw.PublishedAt,
		Category:       category,
		Sentiment:      sentiment,
		SentimentScore: sentimentScore,
		Fingerprint:    intel.Fingerprint(raw.Title),
	}

	relevance := t.scorer.Score(event, client.Name, t.reputableSources, now)
	for _, alias := range client.Aliases {
		if score := t.scorer.Score(event, alias, t.reputableSources, now); score > relevance {
			relevance = score
		}
	}
	event.RelevanceScore = relevance

	return event
}

func toIntelEvent(ev database.Event) intel.Event {
	event := intel.Event{
		ID:             ev.ID,
		EntityID:       ev.EntityID,
		Title:          ev.Title,
		Summary:        ev.Summary,
		URL:            ev.URL,
		Source:         ev.Source,
		Category:       intel.Category(ev.Category),
		Sentiment:      intel.Sentiment(ev.Sentiment),
		SentimentScore: ev.SentimentScore,
		RelevanceScore: ev.RelevanceScore,
		Fingerprint:    ev.Fingerprint,
	}
	if ev.PublishedAt != nil {
		event.PublishedAt = *ev.PublishedAt
	}
	return event
}

func toDatabaseEvent(event intel.Event) database.Event {
	ev := database.Event{
		ID:             event.ID,
		EntityID:       event.EntityID,
		Title:          event.Title,
		Summary:        event.Summary,
		URL:            event.URL,
		Source:         event.Source,
		Category:       string(event.Category),
		Sentiment:      string(event.Sentiment),
		SentimentScore: event.SentimentScore,
		RelevanceScore: event.RelevanceScore,
		Fingerprint:    event.Fingerprint,
	}
	if !event.PublishedAt.IsZero() {
		published := event.PublishedAt
		ev.PublishedAt = &published
	}
	return ev
}
