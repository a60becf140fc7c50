package schedule

import (
	"fmt"
	"time"
)

// Engine computes next-run timestamps for schedules. The next run is
// re-derived from the current time on every completion, never by adding an
// interval to the previous next-run, so late executions do not drift.
type Engine struct {
	clock Clock
}

func NewEngine(clock Clock) *Engine {
	return &Engine{clock: clock}
}

// NextRun returns the first occurrence of the schedule at or after now, or
// nil for manual schedules. The config must already be validated.
func (e *Engine) NextRun(cfg Config, now time.Time) (*time.Time, error) {
	switch cfg.Type {
	case TypeManual:
		return nil, nil

	case TypeHourly:
		next := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), cfg.MinuteOfHour, 0, 0, now.Location())
		if next.Before(now) {
			next = next.Add(time.Hour)
		}
		return &next, nil

	case TypeDaily:
		next := time.Date(now.Year(), now.Month(), now.Day(), cfg.HourOfDay, 0, 0, 0, now.Location())
		if next.Before(now) {
			next = next.AddDate(0, 0, 1)
		}
		return &next, nil

	case TypeWeekly:
		next := time.Date(now.Year(), now.Month(), now.Day(), cfg.HourOfDay, 0, 0, 0, now.Location())
		daysAhead := (int(cfg.DayOfWeek) - int(next.Weekday()) + 7) % 7
		next = next.AddDate(0, 0, daysAhead)
		if next.Before(now) {
			next = next.AddDate(0, 0, 7)
		}
		return &next, nil

	case TypeMonthly:
		next := monthlyOccurrence(now.Year(), now.Month(), cfg.DayOfMonth, cfg.HourOfDay, now.Location())
		if next.Before(now) {
			next = monthlyOccurrence(now.Year(), now.Month()+1, cfg.DayOfMonth, cfg.HourOfDay, now.Location())
		}
		return &next, nil

	case TypeCustom:
		spec, err := cronParser.Parse(cfg.CronExpr)
		if err != nil {
			return nil, fmt.Errorf("invalid cron expression %q: %w", cfg.CronExpr, err)
		}
		// cron's Next is strictly after its argument; back off one second
		// so an occurrence exactly at now still counts.
		next := spec.Next(now.Add(-time.Second))
		return &next, nil

	default:
		return nil, fmt.Errorf("unknown schedule type %q", cfg.Type)
	}
}

// monthlyOccurrence places day-of-month in the given month, clamping to the
// month's last day when the target day does not exist (e.g. the 31st in
// April runs on the 30th rather than being skipped).
func monthlyOccurrence(year int, month time.Month, day, hour int, loc *time.Location) time.Time {
	if last := lastDayOfMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, hour, 0, 0, 0, loc)
}

func lastDayOfMonth(year int, month time.Month) int {
	// Day 0 of the following month normalizes to this month's last day.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Reschedule records a completed run: LastRunAt is set and NextRunAt is
// recomputed from now, or cleared when the schedule is inactive or manual.
func (e *Engine) Reschedule(s *Schedule, ranAt time.Time) error {
	s.LastRunAt = &ranAt

	if !s.IsActive || s.Config.Type == TypeManual {
		s.NextRunAt = nil
		return nil
	}

	// Derive from just after the run so an occurrence matching ranAt
	// exactly does not immediately re-fire.
	next, err := e.NextRun(s.Config, ranAt.Add(time.Second))
	if err != nil {
		return err
	}
	s.NextRunAt = next

	return nil
}

// Activate enables the schedule and derives its next run from now.
func (e *Engine) Activate(s *Schedule) error {
	s.IsActive = true

	next, err := e.NextRun(s.Config, e.clock.Now())
	if err != nil {
		return err
	}
	s.NextRunAt = next

	return nil
}

// Deactivate disables the schedule and clears its next run.
func (e *Engine) Deactivate(s *Schedule) {
	s.IsActive = false
	s.NextRunAt = nil
}
