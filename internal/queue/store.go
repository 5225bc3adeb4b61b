package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"forge/internal/config"
)

// Store manages queue persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the queue database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.QueueDBPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// NewJobParams carries the fields recorded when a job is enqueued.
type NewJobParams struct {
	SourcePath       string
	OutputDir        string
	PresetName       string
	SettingsJSON     string
	SourceSize       int64
	SourceDurationMS int64
}

// NewJob appends a Pending job to the queue.
func (s *Store) NewJob(ctx context.Context, params NewJobParams) (*Job, error) {
	if strings.TrimSpace(params.SourcePath) == "" {
		return nil, errors.New("source path is required")
	}
	if strings.TrimSpace(params.OutputDir) == "" {
		return nil, errors.New("output directory is required")
	}
	if strings.TrimSpace(params.SettingsJSON) == "" {
		return nil, errors.New("settings are required")
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO queue_jobs (
            source_path, output_dir, preset_name, settings_json, status,
            source_size, source_duration_ms, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		params.SourcePath,
		params.OutputDir,
		nullableString(params.PresetName),
		params.SettingsJSON,
		StatusPending,
		params.SourceSize,
		params.SourceDurationMS,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a queue job by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM queue_jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// Update persists changes to an existing queue job.
func (s *Store) Update(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job is nil")
	}
	job.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE queue_jobs
         SET run_id = ?, source_path = ?, output_dir = ?, output_path = ?,
             preset_name = ?, settings_json = ?, status = ?, exit_code = ?,
             error_message = ?, log_tail = ?, progress_percent = ?,
             progress_message = ?, source_size = ?, source_duration_ms = ?,
             updated_at = ?, started_at = ?, finished_at = ?
         WHERE id = ?`,
		nullableString(job.RunID),
		job.SourcePath,
		job.OutputDir,
		nullableString(job.OutputPath),
		nullableString(job.PresetName),
		job.SettingsJSON,
		job.Status,
		job.ExitCode,
		nullableString(job.ErrorMessage),
		nullableString(job.LogTail),
		job.ProgressPercent,
		nullableString(job.ProgressMessage),
		job.SourceSize,
		job.SourceDurationMS,
		job.UpdatedAt.Format(time.RFC3339Nano),
		nullableTime(job.StartedAt),
		nullableTime(job.FinishedAt),
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

// List returns every job ordered by enqueue order.
func (s *Store) List(ctx context.Context) ([]*Job, error) {
	return s.queryJobs(ctx, `SELECT `+jobColumns+` FROM queue_jobs ORDER BY id`)
}

// JobsByStatus returns jobs matching a status in enqueue order.
func (s *Store) JobsByStatus(ctx context.Context, status Status) ([]*Job, error) {
	return s.queryJobs(ctx, `SELECT `+jobColumns+` FROM queue_jobs WHERE status = ? ORDER BY id`, status)
}

// ClaimNextPending atomically marks the oldest Pending job as Running on
// behalf of the given run and returns it. Returns nil when nothing is
// pending.
func (s *Store) ClaimNextPending(ctx context.Context, runID string) (*Job, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin claim tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `SELECT id FROM queue_jobs WHERE status = ? ORDER BY id LIMIT 1`, StatusPending)
	var id int64
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select pending job: %w", err)
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	res, err := tx.ExecContext(
		ctx,
		`UPDATE queue_jobs
         SET status = ?, run_id = ?, started_at = ?, updated_at = ?,
             progress_percent = 0, progress_message = 'Starting', error_message = NULL
         WHERE id = ? AND status = ?`,
		StatusRunning, runID, timestamp, timestamp, id, StatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("claim rows affected: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit claim: %w", err)
	}

	return s.GetByID(ctx, id)
}

// ResetStuckRunning returns jobs left Running by an interrupted process to
// Pending so a later run can pick them up again.
func (s *Store) ResetStuckRunning(ctx context.Context) (int64, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE queue_jobs
         SET status = ?, run_id = NULL, started_at = NULL, updated_at = ?,
             progress_percent = 0, progress_message = NULL
         WHERE status = ?`,
		StatusPending, timestamp, StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck jobs: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset rows affected: %w", err)
	}
	return count, nil
}

// Clear removes finished and pending jobs. Running jobs are preserved unless
// all is set.
func (s *Store) Clear(ctx context.Context, all bool) (int64, error) {
	query := `DELETE FROM queue_jobs WHERE status != ?`
	args := []any{StatusRunning}
	if all {
		query = `DELETE FROM queue_jobs`
		args = nil
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear rows affected: %w", err)
	}
	return count, nil
}

// Health aggregates job counts per lifecycle state.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM queue_jobs GROUP BY status`)
	if err != nil {
		return HealthSummary{}, fmt.Errorf("query health: %w", err)
	}
	defer rows.Close()

	var summary HealthSummary
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return HealthSummary{}, fmt.Errorf("scan health row: %w", err)
		}
		summary.Total += count
		switch status {
		case StatusPending:
			summary.Pending = count
		case StatusRunning:
			summary.Running = count
		case StatusCompleted:
			summary.Completed = count
		case StatusFailed:
			summary.Failed = count
		case StatusCancelled:
			summary.Cancelled = count
		}
	}
	if err := rows.Err(); err != nil {
		return HealthSummary{}, fmt.Errorf("iterate health rows: %w", err)
	}
	return summary, nil
}

func (s *Store) queryJobs(ctx context.Context, query string, args ...any) ([]*Job, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}
