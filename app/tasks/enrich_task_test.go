package tasks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/clientpulse/clientpulse/app/database"
	"github.com/clientpulse/clientpulse/app/intel"
	"github.com/clientpulse/clientpulse/app/schedule"
)

type extractionCall struct {
	eventID string
	status  string
	content string
	message string
}

type mockEnrichEventRepo struct {
	mockEventRepo
	pending     []database.Event
	extractions []extractionCall
}

func (m *mockEnrichEventRepo) GetForExtraction(minRelevance float64, maxAttempts, limit int) ([]database.Event, error) {
	return m.pending, nil
}

func (m *mockEnrichEventRepo) UpdateExtraction(eventID, status, content, errorMessage string, extractedAt *time.Time) error {
	m.extractions = append(m.extractions, extractionCall{eventID, status, content, errorMessage})
	return nil
}

const sampleArticleHTML = `<!DOCTYPE html>
<html>
<head><title>Acme Corp raises $50M</title></head>
<body>
	<nav>Home | About | Contact</nav>
	<article>
		<h1>Acme Corp raises $50M Series B</h1>
		<p>Acme Corp announced today that it has closed a fifty million dollar Series B round led by a well known venture firm. The company plans to use the proceeds to expand its engineering team and accelerate international growth.</p>
		<p>Founded five years ago, Acme has grown to serve hundreds of enterprise customers across three continents. The latest round brings total funding to over seventy million dollars.</p>
	</article>
	<footer>Copyright 2026</footer>
</body>
</html>`

func newEnrichTask(repo database.EventRepository) (*EnrichTask, *schedule.JobRun) {
	sched := schedule.Schedule{ID: "sched-1", Name: "enrichment", JobType: string(TaskTypeEnrich)}
	run := schedule.NewJobRun("run-1", sched.ID, sched.JobType, time.Now().UTC())

	task := NewEnrichTask(run, sched, repo, http.DefaultClient, intel.NewArticleExtractor(), "test-agent/1.0", 0.7)
	return task, run
}

func TestEnrichTaskExtractsContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test-agent/1.0" {
			t.Errorf("Expected configured user agent, got %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(sampleArticleHTML))
	}))
	defer server.Close()

	repo := &mockEnrichEventRepo{pending: []database.Event{
		{ID: "event-1", URL: server.URL + "/article", RelevanceScore: 0.8},
	}}

	task, run := newEnrichTask(repo)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(repo.extractions) != 1 {
		t.Fatalf("Expected 1 extraction update, got %d", len(repo.extractions))
	}
	call := repo.extractions[0]
	if call.eventID != "event-1" || call.status != database.ExtractionSuccess {
		t.Errorf("Unexpected extraction call: %+v", call)
	}
	if !strings.Contains(call.content, "Series B round") {
		t.Errorf("Expected article body in extracted content, got %q", call.content)
	}
	if strings.Contains(call.content, "Home | About") {
		t.Errorf("Expected navigation chrome to be stripped, got %q", call.content)
	}

	if run.ResultsFound != 1 || run.ResultsNew != 1 {
		t.Errorf("Expected run metrics 1/1, got found=%d new=%d", run.ResultsFound, run.ResultsNew)
	}
}

func TestEnrichTaskRecordsFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/pdf":
			w.Header().Set("Content-Type", "application/pdf")
			w.Write([]byte("%PDF-1.4"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	repo := &mockEnrichEventRepo{pending: []database.Event{
		{ID: "event-1", URL: server.URL + "/pdf", RelevanceScore: 0.8},
		{ID: "event-2", URL: server.URL + "/gone", RelevanceScore: 0.9},
	}}

	task, run := newEnrichTask(repo)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(repo.extractions) != 2 {
		t.Fatalf("Expected 2 extraction updates, got %d", len(repo.extractions))
	}
	for _, call := range repo.extractions {
		if call.status != database.ExtractionFailed {
			t.Errorf("Expected failed status for %s, got %q", call.eventID, call.status)
		}
		if call.message == "" {
			t.Errorf("Expected error message for %s", call.eventID)
		}
	}

	if run.ResultsNew != 0 {
		t.Errorf("Expected no successful extractions, got %d", run.ResultsNew)
	}
}

func TestEnrichTaskSkipsEventsWithoutURL(t *testing.T) {
	repo := &mockEnrichEventRepo{pending: []database.Event{
		{ID: "event-1", URL: "", RelevanceScore: 0.9},
	}}

	task, run := newEnrichTask(repo)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(repo.extractions) != 1 {
		t.Fatalf("Expected 1 extraction update, got %d", len(repo.extractions))
	}
	call := repo.extractions[0]
	if call.status != database.ExtractionSkipped {
		t.Errorf("Expected skipped status, got %q", call.status)
	}
	if call.message == "" {
		t.Error("Expected skip reason to be recorded")
	}

	if run.ResultsNew != 0 {
		t.Errorf("Expected no successful extractions, got %d", run.ResultsNew)
	}
}

func TestEnrichTaskNoPendingEvents(t *testing.T) {
	repo := &mockEnrichEventRepo{}
	task, run := newEnrichTask(repo)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if run.ResultsFound != 0 {
		t.Errorf("Expected no work, got found=%d", run.ResultsFound)
	}
}
