package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clientpulse/clientpulse/app/cache"
	"github.com/clientpulse/clientpulse/app/config"
	"github.com/clientpulse/clientpulse/app/database"
	"github.com/clientpulse/clientpulse/app/schedule"
	"github.com/clientpulse/clientpulse/app/tasks"
)

func NewHandler(clientCache *config.ClientCache, entityRepo database.EntityRepository,
	eventRepo database.EventRepository, scheduleRepo database.ScheduleRepository,
	runRepo database.JobRunRepository, engine *schedule.Engine, searchCache *cache.SearchCache,
	scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		clientCache:  clientCache,
		entityRepo:   entityRepo,
		eventRepo:    eventRepo,
		scheduleRepo: scheduleRepo,
		runRepo:      runRepo,
		engine:       engine,
		searchCache:  searchCache,
		scheduler:    scheduler,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if entityCount, err := h.entityRepo.GetCount(); err == nil {
		health["entities"] = entityCount
	}

	health["loaded_configurations"] = h.clientCache.GetClientCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"cache_entries":         h.searchCache.Len(),
		"loaded_configurations": h.clientCache.GetClientCount(),
	}

	if entityCount, err := h.entityRepo.GetCount(); err == nil {
		stats["entities"] = entityCount
	}
	if eventCount, err := h.eventRepo.GetCount(); err == nil {
		stats["events"] = eventCount
	}
	if byCategory, err := h.eventRepo.CountByCategory(); err == nil {
		stats["events_by_category"] = byCategory
	}
	if byStatus, err := h.runRepo.CountByStatus(); err == nil {
		stats["runs_by_status"] = byStatus
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) APIListEntities(c *gin.Context) {
	clients := h.clientCache.GetClients()

	entities := make([]map[string]interface{}, 0, len(clients))
	for _, client := range clients {
		entityInfo := map[string]interface{}{
			"slug":    client.Slug,
			"name":    client.Name,
			"aliases": client.Aliases,
			"enabled": client.Settings.Enabled,
			"queries": client.SearchQueries(),
		}

		if entity, err := h.entityRepo.GetBySlug(client.Slug); err == nil && entity != nil {
			entityInfo["id"] = entity.ID
			entityInfo["created_at"] = entity.CreatedAt
			entityInfo["updated_at"] = entity.UpdatedAt
		}

		entities = append(entities, entityInfo)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"entities": entities,
		"total":    len(entities),
	})
}

func (h *Handler) APIGetEntityEvents(c *gin.Context) {
	slug := c.Param("slug")

	entity, err := h.entityRepo.GetBySlug(slug)
	if err != nil {
		slog.Error("Database error", "operation", "get_entity", "slug", slug, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if entity == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Entity not found"})
		return
	}

	events, err := h.eventRepo.GetByEntity(entity.ID)
	if err != nil {
		slog.Error("Database error", "operation", "get_events", "slug", slug, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	eventList := make([]map[string]interface{}, 0, len(events))
	for _, event := range events {
		eventList = append(eventList, eventResponse(event))
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"entity": gin.H{
			"id":   entity.ID,
			"slug": entity.Slug,
			"name": entity.Name,
		},
		"events": eventList,
		"total":  len(eventList),
	})
}

func (h *Handler) APIListSchedules(c *gin.Context) {
	schedules, err := h.scheduleRepo.GetAll()
	if err != nil {
		slog.Error("Database error", "operation", "list_schedules", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	scheduleList := make([]map[string]interface{}, 0, len(schedules))
	for _, s := range schedules {
		scheduleList = append(scheduleList, scheduleResponse(s))
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"schedules": scheduleList,
		"total":     len(scheduleList),
	})
}

func (h *Handler) APICreateSchedule(c *gin.Context) {
	var req CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if req.JobType != string(tasks.TaskTypeCollect) && req.JobType != string(tasks.TaskTypeEnrich) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown job type", "details": req.JobType})
		return
	}

	cfg := schedule.Config{
		Type:         schedule.Type(req.Type),
		MinuteOfHour: req.MinuteOfHour,
		HourOfDay:    req.HourOfDay,
		DayOfWeek:    time.Weekday(req.DayOfWeek),
		DayOfMonth:   req.DayOfMonth,
		CronExpr:     req.CronExpr,
	}
	if err := cfg.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid schedule config", "details": err.Error()})
		return
	}

	now := time.Now().UTC()
	sched := schedule.Schedule{
		ID:          uuid.NewString(),
		Name:        req.Name,
		JobType:     req.JobType,
		Config:      cfg,
		EntityScope: req.EntityScope,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if req.Active {
		if err := h.engine.Activate(&sched); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to compute next run", "details": err.Error()})
			return
		}
	}

	if err := h.scheduleRepo.Create(sched); err != nil {
		slog.Error("Database error", "operation", "create_schedule", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusCreated, scheduleResponse(sched))
}

func (h *Handler) APIGetSchedule(c *gin.Context) {
	sched, ok := h.loadSchedule(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, scheduleResponse(*sched))
}

func (h *Handler) APIActivateSchedule(c *gin.Context) {
	sched, ok := h.loadSchedule(c)
	if !ok {
		return
	}

	if err := h.engine.Activate(sched); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to compute next run", "details": err.Error()})
		return
	}
	sched.UpdatedAt = time.Now().UTC()

	if err := h.scheduleRepo.Update(*sched); err != nil {
		slog.Error("Database error", "operation", "activate_schedule", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, scheduleResponse(*sched))
}

func (h *Handler) APIDeactivateSchedule(c *gin.Context) {
	sched, ok := h.loadSchedule(c)
	if !ok {
		return
	}

	h.engine.Deactivate(sched)
	sched.UpdatedAt = time.Now().UTC()

	if err := h.scheduleRepo.Update(*sched); err != nil {
		slog.Error("Database error", "operation", "deactivate_schedule", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, scheduleResponse(*sched))
}

func (h *Handler) APITriggerSchedule(c *gin.Context) {
	sched, ok := h.loadSchedule(c)
	if !ok {
		return
	}

	runID, err := h.scheduler.TriggerNow(sched.ID)
	if err != nil {
		slog.Error("Failed to trigger schedule", "schedule", sched.Name, "error", err)
		c.JSON(http.StatusConflict, gin.H{"error": "Failed to trigger schedule", "details": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"run_id":  runID,
		"schedule": gin.H{
			"id":   sched.ID,
			"name": sched.Name,
		},
	})
}

func (h *Handler) APIListRuns(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	runs, err := h.runRepo.List(limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_runs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	runList := make([]map[string]interface{}, 0, len(runs))
	for _, run := range runs {
		runList = append(runList, runResponse(run))
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"runs":  runList,
		"total": len(runList),
	})
}

func (h *Handler) APIGetRun(c *gin.Context) {
	run, ok := h.loadRun(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, runResponse(*run))
}

func (h *Handler) APIDeleteRun(c *gin.Context) {
	run, ok := h.loadRun(c)
	if !ok {
		return
	}

	// Active runs must be cancelled first; the ledger only forgets
	// finished history.
	if !run.Status.IsTerminal() {
		c.JSON(http.StatusConflict, gin.H{
			"error":  "Run is still active",
			"status": string(run.Status),
		})
		return
	}

	if err := h.runRepo.Delete(run.ID); err != nil {
		slog.Error("Database error", "operation", "delete_run", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) APICancelRun(c *gin.Context) {
	run, ok := h.loadRun(c)
	if !ok {
		return
	}

	if err := h.scheduler.CancelRun(run.ID); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Failed to cancel run", "details": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"success": true, "run_id": run.ID})
}

func (h *Handler) loadSchedule(c *gin.Context) (*schedule.Schedule, bool) {
	id := c.Param("id")

	sched, err := h.scheduleRepo.Get(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_schedule", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return nil, false
	}
	if sched == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Schedule not found"})
		return nil, false
	}

	return sched, true
}

func (h *Handler) loadRun(c *gin.Context) (*schedule.JobRun, bool) {
	id := c.Param("id")

	run, err := h.runRepo.Get(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_run", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return nil, false
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return nil, false
	}

	return run, true
}

func scheduleResponse(s schedule.Schedule) map[string]interface{} {
	return map[string]interface{}{
		"id":           s.ID,
		"name":         s.Name,
		"job_type":     s.JobType,
		"config":       s.Config,
		"is_active":    s.IsActive,
		"entity_scope": s.EntityScope,
		"last_run_at":  s.LastRunAt,
		"next_run_at":  s.NextRunAt,
		"created_at":   s.CreatedAt,
		"updated_at":   s.UpdatedAt,
	}
}

func runResponse(r schedule.JobRun) map[string]interface{} {
	return map[string]interface{}{
		"id":                 r.ID,
		"schedule_id":        r.ScheduleID,
		"job_type":           r.JobType,
		"status":             string(r.Status),
		"started_at":         r.StartedAt,
		"finished_at":        r.FinishedAt,
		"duration_seconds":   r.DurationSeconds,
		"entities_processed": r.EntitiesProcessed,
		"results_found":      r.ResultsFound,
		"results_new":        r.ResultsNew,
		"error_message":      r.ErrorMessage,
		"created_at":         r.CreatedAt,
	}
}

func eventResponse(e database.Event) map[string]interface{} {
	return map[string]interface{}{
		"id":                e.ID,
		"title":             e.Title,
		"summary":           e.Summary,
		"url":               e.URL,
		"source":            e.Source,
		"published_at":      e.PublishedAt,
		"category":          e.Category,
		"sentiment":         e.Sentiment,
		"sentiment_score":   e.SentimentScore,
		"relevance_score":   e.RelevanceScore,
		"extraction_status": e.ExtractionStatus,
		"created_at":        e.CreatedAt,
	}
}
