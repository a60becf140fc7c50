package tasks

// TaskSchedulerInterface defines the interface for background job
// management. The scheduler owns the worker pool, polls for due schedules,
// and maintains the job run ledger; the API layer uses TriggerNow and
// CancelRun for on-demand control.
// Example usage:
//
//	scheduler := NewScheduler(clientCache, searchCollector, searchCache, engine, ...)
//	scheduler.Start()
//	defer scheduler.Stop()
//	runID, err := scheduler.TriggerNow(scheduleID)
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	TriggerNow(scheduleID string) (string, error)
	CancelRun(runID string) error
}
