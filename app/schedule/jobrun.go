package schedule

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a job run. The state machine is
// strictly forward: pending -> running -> completed | failed.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether the status permits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo reports whether moving from s to target is legal.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusRunning
	case StatusRunning:
		return target == StatusCompleted || target == StatusFailed
	default:
		return false
	}
}

// JobRun records one execution of a schedule, with its metrics and error
// text. A run is immutable once its status is terminal.
type JobRun struct {
	ID                string
	ScheduleID        string
	JobType           string
	Status            Status
	StartedAt         *time.Time
	FinishedAt        *time.Time
	DurationSeconds   int
	EntitiesProcessed int
	ResultsFound      int
	ResultsNew        int
	ErrorMessage      string
	CreatedAt         time.Time
}

// NewJobRun creates a pending run for the given schedule.
func NewJobRun(id, scheduleID, jobType string, now time.Time) *JobRun {
	return &JobRun{
		ID:         id,
		ScheduleID: scheduleID,
		JobType:    jobType,
		Status:     StatusPending,
		CreatedAt:  now,
	}
}

// transition enforces the state machine. An illegal transition is a logic
// bug in the caller, so it panics instead of being silently clamped; the
// task worker recovers at the job boundary.
func (r *JobRun) transition(target Status) {
	if !r.Status.CanTransitionTo(target) {
		panic(fmt.Sprintf("illegal job run transition %s -> %s (run %s)", r.Status, target, r.ID))
	}
	r.Status = target
}

// MarkRunning moves the run to running and stamps its start time.
func (r *JobRun) MarkRunning(now time.Time) {
	r.transition(StatusRunning)
	r.StartedAt = &now
}

// MarkCompleted moves the run to completed and records its duration.
func (r *JobRun) MarkCompleted(now time.Time) {
	r.transition(StatusCompleted)
	r.finish(now)
}

// MarkFailed moves the run to failed. The error message must be non-empty.
func (r *JobRun) MarkFailed(now time.Time, errorMessage string) {
	if errorMessage == "" {
		panic(fmt.Sprintf("failed job run %s requires an error message", r.ID))
	}
	r.transition(StatusFailed)
	r.finish(now)
	r.ErrorMessage = errorMessage
}

func (r *JobRun) finish(now time.Time) {
	r.FinishedAt = &now
	if r.StartedAt != nil {
		r.DurationSeconds = int(now.Sub(*r.StartedAt) / time.Second)
	}
}
