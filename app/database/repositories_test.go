package database

import (
	"testing"
	"time"

	"github.com/clientpulse/clientpulse/app/schedule"
	"github.com/google/uuid"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func TestEntityRepository_Upsert(t *testing.T) {
	db := newTestDB(t)
	repo := NewEntityRepository(db)

	id, nameChanged, err := repo.Upsert("acme-corp", "Acme Corp", true)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if id == "" || nameChanged {
		t.Errorf("Expected new entity with no name change, got id=%q changed=%v", id, nameChanged)
	}

	// Second upsert with a renamed client updates in place.
	id2, nameChanged, err := repo.Upsert("acme-corp", "Acme Corporation", true)
	if err != nil {
		t.Fatalf("Second upsert failed: %v", err)
	}
	if id2 != id {
		t.Errorf("Expected stable entity ID, got %q then %q", id, id2)
	}
	if !nameChanged {
		t.Error("Expected name change to be reported")
	}

	count, err := repo.GetCount()
	if err != nil {
		t.Fatalf("GetCount failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 entity, got %d", count)
	}
}

func TestEventRepository_SaveAndGetByEntity(t *testing.T) {
	db := newTestDB(t)
	entityRepo := NewEntityRepository(db)
	eventRepo := NewEventRepository(db)

	entityID, _, err := entityRepo.Upsert("acme-corp", "Acme Corp", true)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	published := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	eventID, err := eventRepo.Save(Event{
		EntityID:       entityID,
		Title:          "Acme Corp raises $50M Series B",
		Summary:        "Led by a venture firm",
		URL:            "https://example.com/acme",
		Source:         "TechCrunch",
		PublishedAt:    &published,
		Category:       "funding",
		Sentiment:      "positive",
		SentimentScore: 1.0,
		RelevanceScore: 0.8,
		Fingerprint:    "abc123",
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if eventID == "" {
		t.Fatal("Expected assigned event ID")
	}

	events, err := eventRepo.GetByEntity(entityID)
	if err != nil {
		t.Fatalf("GetByEntity failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}

	event := events[0]
	if event.ID != eventID || event.Category != "funding" || event.RelevanceScore != 0.8 {
		t.Errorf("Unexpected event row: %+v", event)
	}
	if event.ExtractionStatus != ExtractionPending {
		t.Errorf("Expected new event pending extraction, got %q", event.ExtractionStatus)
	}
}

func TestEventRepository_Supersede(t *testing.T) {
	db := newTestDB(t)
	entityRepo := NewEntityRepository(db)
	eventRepo := NewEventRepository(db)

	entityID, _, _ := entityRepo.Upsert("acme-corp", "Acme Corp", true)

	eventID, err := eventRepo.Save(Event{
		EntityID: entityID, Title: "Acme raises Series B", URL: "https://example.com/a",
		Category: "funding", Sentiment: "neutral", RelevanceScore: 0.5,
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	err = eventRepo.Supersede(eventID, Event{
		Title: "Acme Corp raises $50M Series B", URL: "https://example.com/a",
		Source: "TechCrunch", Category: "funding", Sentiment: "positive",
		RelevanceScore: 0.8, Fingerprint: "f2",
	})
	if err != nil {
		t.Fatalf("Supersede failed: %v", err)
	}

	events, _ := eventRepo.GetByEntity(entityID)
	if len(events) != 1 {
		t.Fatalf("Expected supersede to keep a single row, got %d", len(events))
	}
	if events[0].RelevanceScore != 0.8 || events[0].Source != "TechCrunch" {
		t.Errorf("Expected updated content, got %+v", events[0])
	}

	if err := eventRepo.Supersede("missing-id", Event{}); err == nil {
		t.Error("Expected error superseding unknown event")
	}
}

func TestEventRepository_GetForExtraction(t *testing.T) {
	db := newTestDB(t)
	entityRepo := NewEntityRepository(db)
	eventRepo := NewEventRepository(db)

	entityID, _, _ := entityRepo.Upsert("acme-corp", "Acme Corp", true)

	highID, _ := eventRepo.Save(Event{EntityID: entityID, Title: "high", URL: "https://e.com/1", Category: "funding", Sentiment: "neutral", RelevanceScore: 0.9})
	eventRepo.Save(Event{EntityID: entityID, Title: "low", URL: "https://e.com/2", Category: "news", Sentiment: "neutral", RelevanceScore: 0.2})

	due, err := eventRepo.GetForExtraction(0.7, 3, 10)
	if err != nil {
		t.Fatalf("GetForExtraction failed: %v", err)
	}
	if len(due) != 1 || due[0].ID != highID {
		t.Fatalf("Expected only the high-relevance event, got %+v", due)
	}

	now := time.Now().UTC()
	if err := eventRepo.UpdateExtraction(highID, ExtractionSuccess, "article body", "", &now); err != nil {
		t.Fatalf("UpdateExtraction failed: %v", err)
	}

	due, _ = eventRepo.GetForExtraction(0.7, 3, 10)
	if len(due) != 0 {
		t.Errorf("Expected no events pending after success, got %d", len(due))
	}

	events, _ := eventRepo.GetByEntity(entityID)
	for _, event := range events {
		if event.ID == highID {
			if event.Content != "article body" || event.ExtractionAttempts != 1 {
				t.Errorf("Expected extracted content and attempt count, got %+v", event)
			}
		}
	}
}

func TestScheduleRepository_CreateGetDue(t *testing.T) {
	db := newTestDB(t)
	repo := NewScheduleRepository(db)

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	dueSchedule := schedule.Schedule{
		ID:          uuid.NewString(),
		Name:        "morning collection",
		JobType:     "collect",
		Config:      schedule.Config{Type: schedule.TypeDaily, HourOfDay: 8},
		IsActive:    true,
		EntityScope: []string{"acme-corp", "globex"},
		NextRunAt:   &past,
	}
	notDue := schedule.Schedule{
		ID:        uuid.NewString(),
		Name:      "evening collection",
		JobType:   "collect",
		Config:    schedule.Config{Type: schedule.TypeDaily, HourOfDay: 18},
		IsActive:  true,
		NextRunAt: &future,
	}
	inactive := schedule.Schedule{
		ID:      uuid.NewString(),
		Name:    "paused collection",
		JobType: "collect",
		Config:  schedule.Config{Type: schedule.TypeDaily, HourOfDay: 8},
	}

	for _, s := range []schedule.Schedule{dueSchedule, notDue, inactive} {
		if err := repo.Create(s); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	due, err := repo.GetDue(now)
	if err != nil {
		t.Fatalf("GetDue failed: %v", err)
	}
	if len(due) != 1 || due[0].ID != dueSchedule.ID {
		t.Fatalf("Expected only the past-due schedule, got %+v", due)
	}
	if len(due[0].EntityScope) != 2 || due[0].EntityScope[0] != "acme-corp" {
		t.Errorf("Expected entity scope round-trip, got %v", due[0].EntityScope)
	}
	if due[0].Config.Type != schedule.TypeDaily || due[0].Config.HourOfDay != 8 {
		t.Errorf("Expected config round-trip, got %+v", due[0].Config)
	}

	// Reschedule past the horizon and verify it is no longer due.
	due[0].LastRunAt = &now
	due[0].NextRunAt = &future
	if err := repo.Update(due[0]); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	due, _ = repo.GetDue(now)
	if len(due) != 0 {
		t.Errorf("Expected no due schedules after update, got %d", len(due))
	}
}

func TestJobRunRepository_Lifecycle(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRunRepository(db)

	created := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	run := schedule.NewJobRun(uuid.NewString(), "sched-1", "collect", created)

	if err := repo.Create(run); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	run.MarkRunning(created.Add(time.Second))
	run.EntitiesProcessed = 3
	run.ResultsFound = 12
	run.ResultsNew = 4
	run.MarkCompleted(created.Add(31 * time.Second))

	if err := repo.Update(run); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	stored, err := repo.Get(run.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored == nil {
		t.Fatal("Expected stored run")
	}
	if stored.Status != schedule.StatusCompleted || stored.DurationSeconds != 30 {
		t.Errorf("Unexpected stored run: %+v", stored)
	}
	if stored.ResultsFound != 12 || stored.ResultsNew != 4 {
		t.Errorf("Expected metrics round-trip, got %+v", stored)
	}

	runs, err := repo.List(10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("Expected 1 run, got %d", len(runs))
	}

	counts, err := repo.CountByStatus()
	if err != nil {
		t.Fatalf("CountByStatus failed: %v", err)
	}
	if counts["completed"] != 1 {
		t.Errorf("Expected 1 completed run, got %v", counts)
	}

	if err := repo.Delete(run.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := repo.Delete(run.ID); err == nil {
		t.Error("Expected error deleting missing run")
	}
}
