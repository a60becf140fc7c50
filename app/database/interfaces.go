package database

import (
	"time"

	"github.com/clientpulse/clientpulse/app/schedule"
)

type EntityRepository interface {
	Upsert(slug, name string, enabled bool) (string, bool, error)
	GetBySlug(slug string) (*Entity, error)
	GetAll() ([]Entity, error)
	GetCount() (int, error)
}

type EventRepository interface {
	Save(event Event) (string, error)
	GetByEntity(entityID string) ([]Event, error)
	Supersede(eventID string, event Event) error
	GetCount() (int, error)
	CountByCategory() (map[string]int, error)

	GetForExtraction(minRelevance float64, maxAttempts, limit int) ([]Event, error)
	UpdateExtraction(eventID, status, content, errorMessage string, extractedAt *time.Time) error
}

type ScheduleRepository interface {
	Create(s schedule.Schedule) error
	Get(id string) (*schedule.Schedule, error)
	GetAll() ([]schedule.Schedule, error)
	GetDue(now time.Time) ([]schedule.Schedule, error)
	Update(s schedule.Schedule) error
}

type JobRunRepository interface {
	Create(run *schedule.JobRun) error
	Update(run *schedule.JobRun) error
	Get(id string) (*schedule.JobRun, error)
	List(limit int) ([]schedule.JobRun, error)
	Delete(id string) error
	CountByStatus() (map[string]int, error)
}
