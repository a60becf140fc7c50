package api

import (
	"github.com/clientpulse/clientpulse/app/cache"
	"github.com/clientpulse/clientpulse/app/config"
	"github.com/clientpulse/clientpulse/app/database"
	"github.com/clientpulse/clientpulse/app/schedule"
	"github.com/clientpulse/clientpulse/app/tasks"
)

type Handler struct {
	clientCache  *config.ClientCache
	entityRepo   database.EntityRepository
	eventRepo    database.EventRepository
	scheduleRepo database.ScheduleRepository
	runRepo      database.JobRunRepository
	engine       *schedule.Engine
	searchCache  *cache.SearchCache
	scheduler    tasks.TaskSchedulerInterface
}

// CreateScheduleRequest is the POST /api/schedules payload. Timing fields
// beyond the ones the type uses must be left at their zero values.
type CreateScheduleRequest struct {
	Name         string   `json:"name" binding:"required"`
	JobType      string   `json:"job_type" binding:"required"`
	Type         string   `json:"type" binding:"required"`
	MinuteOfHour int      `json:"minute_of_hour"`
	HourOfDay    int      `json:"hour_of_day"`
	DayOfWeek    int      `json:"day_of_week"`
	DayOfMonth   int      `json:"day_of_month"`
	CronExpr     string   `json:"cron_expr"`
	EntityScope  []string `json:"entity_scope"`
	Active       bool     `json:"active"`
}
