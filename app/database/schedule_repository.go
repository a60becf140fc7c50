package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/clientpulse/clientpulse/app/schedule"
)

var _ ScheduleRepository = (*SQLScheduleRepository)(nil)

type SQLScheduleRepository struct {
	db *DB
}

func NewScheduleRepository(db *DB) *SQLScheduleRepository {
	return &SQLScheduleRepository{db: db}
}

func (r *SQLScheduleRepository) Create(s schedule.Schedule) error {
	_, err := r.db.Exec(`
		INSERT INTO schedules (
			id, name, job_type, schedule_type, minute_of_hour, hour_of_day,
			day_of_week, day_of_month, cron_expr, is_active, entity_scope,
			last_run_at, next_run_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.Name, s.JobType, string(s.Config.Type), s.Config.MinuteOfHour,
		s.Config.HourOfDay, int(s.Config.DayOfWeek), s.Config.DayOfMonth,
		s.Config.CronExpr, s.IsActive, strings.Join(s.EntityScope, ","),
		s.LastRunAt, s.NextRunAt)
	if err != nil {
		return fmt.Errorf("failed to create schedule: %w", err)
	}
	return nil
}

func (r *SQLScheduleRepository) Get(id string) (*schedule.Schedule, error) {
	row := r.db.QueryRow(scheduleSelect+" WHERE id = ?", id)

	s, err := scanSchedule(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return s, nil
}

func (r *SQLScheduleRepository) GetAll() ([]schedule.Schedule, error) {
	rows, err := r.db.Query(scheduleSelect + " ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer rows.Close()

	return collectSchedules(rows)
}

// GetDue returns every active schedule whose next run is at or before now.
func (r *SQLScheduleRepository) GetDue(now time.Time) ([]schedule.Schedule, error) {
	rows, err := r.db.Query(scheduleSelect+`
		WHERE is_active = 1 AND next_run_at IS NOT NULL AND next_run_at <= ?
		ORDER BY next_run_at
	`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get due schedules: %w", err)
	}
	defer rows.Close()

	return collectSchedules(rows)
}

func (r *SQLScheduleRepository) Update(s schedule.Schedule) error {
	result, err := r.db.Exec(`
		UPDATE schedules
		SET name = ?, schedule_type = ?, minute_of_hour = ?, hour_of_day = ?,
		    day_of_week = ?, day_of_month = ?, cron_expr = ?, is_active = ?,
		    entity_scope = ?, last_run_at = ?, next_run_at = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, s.Name, string(s.Config.Type), s.Config.MinuteOfHour, s.Config.HourOfDay,
		int(s.Config.DayOfWeek), s.Config.DayOfMonth, s.Config.CronExpr,
		s.IsActive, strings.Join(s.EntityScope, ","), s.LastRunAt, s.NextRunAt, s.ID)
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("schedule %s not found", s.ID)
	}

	return nil
}

const scheduleSelect = `
	SELECT id, name, job_type, schedule_type, minute_of_hour, hour_of_day,
	       day_of_week, day_of_month, cron_expr, is_active, entity_scope,
	       last_run_at, next_run_at, created_at, updated_at
	FROM schedules`

type scanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row scanner) (*schedule.Schedule, error) {
	var s schedule.Schedule
	var scheduleType, entityScope string
	var dayOfWeek int
	var lastRunAt, nextRunAt sql.NullTime

	err := row.Scan(&s.ID, &s.Name, &s.JobType, &scheduleType, &s.Config.MinuteOfHour,
		&s.Config.HourOfDay, &dayOfWeek, &s.Config.DayOfMonth, &s.Config.CronExpr,
		&s.IsActive, &entityScope, &lastRunAt, &nextRunAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}

	s.Config.Type = schedule.Type(scheduleType)
	s.Config.DayOfWeek = time.Weekday(dayOfWeek)
	if entityScope != "" {
		s.EntityScope = strings.Split(entityScope, ",")
	}
	if lastRunAt.Valid {
		s.LastRunAt = &lastRunAt.Time
	}
	if nextRunAt.Valid {
		s.NextRunAt = &nextRunAt.Time
	}

	return &s, nil
}

func collectSchedules(rows *sql.Rows) ([]schedule.Schedule, error) {
	var schedules []schedule.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule row: %w", err)
		}
		schedules = append(schedules, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedule rows: %w", err)
	}

	return schedules, nil
}
