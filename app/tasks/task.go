package tasks

import (
	"context"
	"time"

	"github.com/clientpulse/clientpulse/app/schedule"
)

type TaskType string

const (
	TaskTypeCollect TaskType = "collect"
	TaskTypeEnrich  TaskType = "enrich"
)

type TaskInterface interface {
	Execute(ctx context.Context) error
	GetID() string
	GetType() TaskType
	GetRun() *schedule.JobRun
	GetSchedule() schedule.Schedule
	Start()
	GetDuration() time.Duration
}

// Task carries what every job execution needs: the schedule that fired it
// and the ledger run tracking it. The run is created pending before the
// task is enqueued and moved through its lifecycle by the scheduler.
type Task struct {
	ID        string
	Type      TaskType
	Run       *schedule.JobRun
	Schedule  schedule.Schedule
	StartedAt *time.Time
}

func (t *Task) GetID() string {
	return t.ID
}

func (t *Task) GetType() TaskType {
	return t.Type
}

func (t *Task) GetRun() *schedule.JobRun {
	return t.Run
}

func (t *Task) GetSchedule() schedule.Schedule {
	return t.Schedule
}

func (t *Task) Start() {
	now := time.Now()
	t.StartedAt = &now
}

func (t *Task) GetDuration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	return time.Since(*t.StartedAt)
}

func NewTask(taskType TaskType, run *schedule.JobRun, sched schedule.Schedule) Task {
	return Task{
		ID:       run.ID,
		Type:     taskType,
		Run:      run,
		Schedule: sched,
	}
}
