package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clientpulse/clientpulse/app/cache"
	"github.com/clientpulse/clientpulse/app/cfg"
	"github.com/clientpulse/clientpulse/app/collector"
	"github.com/clientpulse/clientpulse/app/config"
	"github.com/clientpulse/clientpulse/app/database"
	"github.com/clientpulse/clientpulse/app/intel"
	"github.com/clientpulse/clientpulse/app/notify"
	"github.com/clientpulse/clientpulse/app/schedule"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	clientCache      *config.ClientCache
	searchCollector  collector.Collector
	searchCache      *cache.SearchCache
	engine           *schedule.Engine
	classifier       *intel.Classifier
	scorer           *intel.Scorer
	deduplicator     *intel.Deduplicator
	articleExtractor *intel.ArticleExtractor
	notifier         notify.Notifier
	entityRepo       database.EntityRepository
	eventRepo        database.EventRepository
	scheduleRepo     database.ScheduleRepository
	runRepo          database.JobRunRepository
	httpClient       *http.Client
	userAgent        string
	interval         time.Duration
	workerCount      int
	jobTimeout       time.Duration
	searchWindow     time.Duration
	maxResults       int
	cacheTTL         time.Duration
	minRelevance     float64
	notifyThreshold  float64
	reputableSources map[string]bool
	ctx              context.Context
	cancel           context.CancelFunc
	wg               sync.WaitGroup
	taskQueue        chan TaskInterface

	mu      sync.Mutex
	active  map[string]string             // schedule ID -> run ID queued or running
	cancels map[string]context.CancelFunc // run ID -> job cancel
}

func NewScheduler(clientCache *config.ClientCache, searchCollector collector.Collector,
	searchCache *cache.SearchCache, engine *schedule.Engine, classifier *intel.Classifier,
	scorer *intel.Scorer, deduplicator *intel.Deduplicator, articleExtractor *intel.ArticleExtractor,
	notifier notify.Notifier, entityRepo database.EntityRepository, eventRepo database.EventRepository,
	scheduleRepo database.ScheduleRepository, runRepo database.JobRunRepository,
	httpClient *http.Client) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		clientCache:      clientCache,
		searchCollector:  searchCollector,
		searchCache:      searchCache,
		engine:           engine,
		classifier:       classifier,
		scorer:           scorer,
		deduplicator:     deduplicator,
		articleExtractor: articleExtractor,
		notifier:         notifier,
		entityRepo:       entityRepo,
		eventRepo:        eventRepo,
		scheduleRepo:     scheduleRepo,
		runRepo:          runRepo,
		httpClient:       httpClient,
		userAgent:        cfg.UserAgent,
		interval:         time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount:      cfg.WorkerCount,
		jobTimeout:       cfg.JobTimeout(),
		searchWindow:     time.Duration(cfg.SearchWindowDays) * 24 * time.Hour,
		maxResults:       cfg.MaxResultsPerQuery,
		cacheTTL:         cfg.CacheTTL(),
		minRelevance:     cfg.MinRelevance,
		notifyThreshold:  cfg.NotifyThreshold,
		reputableSources: cfg.ReputableSourceSet(),
		ctx:              ctx,
		cancel:           cancel,
		taskQueue:        make(chan TaskInterface, 300),
		active:           make(map[string]string),
		cancels:          make(map[string]context.CancelFunc),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.tick()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	// Checked before the select: once Stop cancels the context the queue
	// may already be closed, and the select could still pick the send.
	if err := s.ctx.Err(); err != nil {
		return err
	}

	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// TriggerNow dispatches a schedule immediately, regardless of its next-run
// time or active flag. This is the only way manual schedules run.
func (s *Scheduler) TriggerNow(scheduleID string) (string, error) {
	sched, err := s.scheduleRepo.Get(scheduleID)
	if err != nil {
		return "", fmt.Errorf("failed to load schedule: %w", err)
	}
	if sched == nil {
		return "", fmt.Errorf("schedule %s not found", scheduleID)
	}

	return s.dispatch(*sched)
}

// CancelRun aborts a running job by cancelling its context. The run is
// marked failed by the worker that owns it.
func (s *Scheduler) CancelRun(runID string) error {
	s.mu.Lock()
	cancel, ok := s.cancels[runID]
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("run %s is not running", runID)
	}

	cancel()
	return nil
}

func (s *Scheduler) tick() {
	if removed := s.searchCache.CleanupExpired(); removed > 0 {
		slog.Debug("Expired search cache entries removed", "count", removed)
	}

	now := time.Now().UTC()
	due, err := s.scheduleRepo.GetDue(now)
	if err != nil {
		slog.Error("Failed to query due schedules", "error", err)
		return
	}

	for _, sched := range due {
		if _, err := s.dispatch(sched); err != nil {
			slog.Warn("Failed to dispatch schedule", "schedule", sched.Name, "error", err)
		}
	}
}

// dispatch creates a pending ledger run for the schedule and queues its
// task. At most one run per schedule may be queued or running at a time;
// an overlapping occurrence is rejected, not queued behind the active run.
func (s *Scheduler) dispatch(sched schedule.Schedule) (string, error) {
	s.mu.Lock()
	if runID, ok := s.active[sched.ID]; ok {
		s.mu.Unlock()
		return "", fmt.Errorf("schedule already has active run %s", runID)
	}
	run := schedule.NewJobRun(uuid.NewString(), sched.ID, sched.JobType, time.Now().UTC())
	s.active[sched.ID] = run.ID
	s.mu.Unlock()

	release := func() {
		s.mu.Lock()
		delete(s.active, sched.ID)
		s.mu.Unlock()
	}

	task, err := s.buildTask(run, sched)
	if err != nil {
		release()
		return "", err
	}

	if err := s.runRepo.Create(run); err != nil {
		release()
		return "", fmt.Errorf("failed to create job run: %w", err)
	}

	if err := s.EnqueueTask(task); err != nil {
		// The run never started; remove it from the ledger.
		if delErr := s.runRepo.Delete(run.ID); delErr != nil {
			slog.Error("Failed to remove unqueued job run", "run", run.ID, "error", delErr)
		}
		release()
		return "", err
	}

	return run.ID, nil
}

func (s *Scheduler) buildTask(run *schedule.JobRun, sched schedule.Schedule) (TaskInterface, error) {
	switch TaskType(sched.JobType) {
	case TaskTypeCollect:
		return NewCollectTask(run, sched, s.clientCache, s.searchCollector, s.searchCache,
			s.classifier, s.scorer, s.deduplicator, s.notifier, s.entityRepo, s.eventRepo,
			s.searchWindow, s.maxResults, s.cacheTTL, s.minRelevance, s.notifyThreshold,
			s.reputableSources), nil
	case TaskTypeEnrich:
		return NewEnrichTask(run, sched, s.eventRepo, s.httpClient, s.articleExtractor,
			s.userAgent, s.minRelevance), nil
	default:
		return nil, fmt.Errorf("unknown job type %q", sched.JobType)
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()
	run := task.GetRun()
	sched := task.GetSchedule()

	jobCtx, cancelJob := context.WithTimeout(s.ctx, s.jobTimeout)
	s.mu.Lock()
	s.cancels[run.ID] = cancelJob
	s.mu.Unlock()

	defer func() {
		cancelJob()
		s.mu.Lock()
		delete(s.cancels, run.ID)
		delete(s.active, sched.ID)
		s.mu.Unlock()
	}()

	run.MarkRunning(time.Now().UTC())
	if err := s.runRepo.Update(run); err != nil {
		slog.Error("Failed to persist job run start", "run", run.ID, "error", err)
	}

	err := s.runTask(jobCtx, task)

	finished := time.Now().UTC()
	if err != nil {
		message := err.Error()
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			message = fmt.Sprintf("timed out after %s", s.jobTimeout)
		case errors.Is(err, context.Canceled) && s.ctx.Err() == nil:
			message = "cancelled"
		}
		run.MarkFailed(finished, message)
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "run", run.ID, "error", err)
	} else {
		run.MarkCompleted(finished)
	}

	if err := s.runRepo.Update(run); err != nil {
		slog.Error("Failed to persist job run result", "run", run.ID, "error", err)
	}

	s.reschedule(sched.ID, finished)
}

// runTask isolates task panics at the job boundary so a bug in one job
// surfaces as a failed run instead of crashing the worker pool.
func (s *Scheduler) runTask(ctx context.Context, task TaskInterface) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return task.Execute(ctx)
}

// reschedule re-reads the schedule before computing its next run; the API
// may have modified it while the job was executing.
func (s *Scheduler) reschedule(scheduleID string, ranAt time.Time) {
	sched, err := s.scheduleRepo.Get(scheduleID)
	if err != nil {
		slog.Error("Failed to reload schedule after run", "schedule", scheduleID, "error", err)
		return
	}
	if sched == nil {
		slog.Warn("Schedule removed while its run was executing", "schedule", scheduleID)
		return
	}

	if err := s.engine.Reschedule(sched, ranAt); err != nil {
		slog.Error("Failed to compute next run", "schedule", sched.Name, "error", err)
		return
	}

	if err := s.scheduleRepo.Update(*sched); err != nil {
		slog.Error("Failed to persist next run", "schedule", sched.Name, "error", err)
	}
}
