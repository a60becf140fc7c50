package database

import (
	"database/sql"
	"fmt"

	"github.com/clientpulse/clientpulse/app/schedule"
)

var _ JobRunRepository = (*SQLJobRunRepository)(nil)

type SQLJobRunRepository struct {
	db *DB
}

func NewJobRunRepository(db *DB) *SQLJobRunRepository {
	return &SQLJobRunRepository{db: db}
}

func (r *SQLJobRunRepository) Create(run *schedule.JobRun) error {
	_, err := r.db.Exec(`
		INSERT INTO job_runs (
			id, schedule_id, job_type, status, started_at, finished_at,
			duration_seconds, entities_processed, results_found, results_new,
			error_message, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.ScheduleID, run.JobType, string(run.Status), run.StartedAt,
		run.FinishedAt, run.DurationSeconds, run.EntitiesProcessed,
		run.ResultsFound, run.ResultsNew, run.ErrorMessage, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create job run: %w", err)
	}
	return nil
}

func (r *SQLJobRunRepository) Update(run *schedule.JobRun) error {
	result, err := r.db.Exec(`
		UPDATE job_runs
		SET status = ?, started_at = ?, finished_at = ?, duration_seconds = ?,
		    entities_processed = ?, results_found = ?, results_new = ?,
		    error_message = ?
		WHERE id = ?
	`, string(run.Status), run.StartedAt, run.FinishedAt, run.DurationSeconds,
		run.EntitiesProcessed, run.ResultsFound, run.ResultsNew,
		run.ErrorMessage, run.ID)
	if err != nil {
		return fmt.Errorf("failed to update job run: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job run %s not found", run.ID)
	}

	return nil
}

func (r *SQLJobRunRepository) Get(id string) (*schedule.JobRun, error) {
	row := r.db.QueryRow(jobRunSelect+" WHERE id = ?", id)

	run, err := scanJobRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job run: %w", err)
	}
	return run, nil
}

func (r *SQLJobRunRepository) List(limit int) ([]schedule.JobRun, error) {
	rows, err := r.db.Query(jobRunSelect+" ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list job runs: %w", err)
	}
	defer rows.Close()

	var runs []schedule.JobRun
	for rows.Next() {
		run, err := scanJobRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job run row: %w", err)
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job run rows: %w", err)
	}

	return runs, nil
}

func (r *SQLJobRunRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM job_runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete job run: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job run %s not found", id)
	}

	return nil
}

func (r *SQLJobRunRepository) CountByStatus() (map[string]int, error) {
	rows, err := r.db.Query("SELECT status, COUNT(*) FROM job_runs GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to count job runs: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}

	return counts, nil
}

const jobRunSelect = `
	SELECT id, schedule_id, job_type, status, started_at, finished_at,
	       duration_seconds, entities_processed, results_found, results_new,
	       error_message, created_at
	FROM job_runs`

func scanJobRun(row scanner) (*schedule.JobRun, error) {
	var run schedule.JobRun
	var status string
	var startedAt, finishedAt sql.NullTime

	err := row.Scan(&run.ID, &run.ScheduleID, &run.JobType, &status, &startedAt,
		&finishedAt, &run.DurationSeconds, &run.EntitiesProcessed,
		&run.ResultsFound, &run.ResultsNew, &run.ErrorMessage, &run.CreatedAt)
	if err != nil {
		return nil, err
	}

	run.Status = schedule.Status(status)
	if startedAt.Valid {
		run.StartedAt = &startedAt.Time
	}
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}

	return &run, nil
}
