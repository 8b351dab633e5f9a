package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no job has the requested ID.
	ErrNotFound = errors.New("job not found")
	// ErrFinished is returned when a transition targets a job in a terminal state.
	ErrFinished = errors.New("job already finished")
)

const jobColumns = `id, source_name, status, progress_message, style, cue_count, dropped_count,
    clipped_count, captions_available, fps, duration_frames, error_message,
    created_at, updated_at, finished_at`

// Create inserts a pending job and returns it with a fresh UUID.
func (s *Store) Create(ctx context.Context, sourceName, style string) (*Job, error) {
	id := uuid.NewString()
	timestamp := now()
	sourceName = strings.TrimSpace(sourceName)
	if sourceName == "" {
		sourceName = "upload"
	}

	_, err := s.exec(ctx,
		`INSERT INTO jobs (id, source_name, status, style, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		id, sourceName, StatusPending, nullableString(style), timestamp, timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return s.Get(ctx, id)
}

// UpdateStage moves an unfinished job to a processing status.
func (s *Store) UpdateStage(ctx context.Context, id string, status Status, message string) error {
	if !IsProcessingStatus(status) {
		return fmt.Errorf("update stage: %q is not a processing status", status)
	}
	return s.transition(ctx, id,
		`UPDATE jobs SET status = ?, progress_message = ?, updated_at = ?
         WHERE id = ? AND status IN (`+makePlaceholders(len(processingStatuses))+`)`,
		status, nullableString(message), now(), id,
	)
}

// Complete records the caption outcome. The job ends as completed when
// captions are available, otherwise as no_captions.
func (s *Store) Complete(ctx context.Context, id string, outcome Outcome) error {
	status := StatusCompleted
	if !outcome.CaptionsAvailable {
		status = StatusNoCaptions
	}
	timestamp := now()
	return s.transition(ctx, id,
		`UPDATE jobs SET status = ?, progress_message = NULL, cue_count = ?, dropped_count = ?,
             clipped_count = ?, captions_available = ?, fps = ?, duration_frames = ?,
             error_message = ?, updated_at = ?, finished_at = ?
         WHERE id = ? AND status IN (`+makePlaceholders(len(processingStatuses))+`)`,
		status, outcome.CueCount, outcome.DroppedCount, outcome.ClippedCount,
		boolToInt(outcome.CaptionsAvailable), outcome.FPS, outcome.DurationFrames,
		nullableString(outcome.Message), timestamp, timestamp, id,
	)
}

// Fail ends an unfinished job with a failure status and message.
func (s *Store) Fail(ctx context.Context, id string, status Status, message string) error {
	if !IsFailureStatus(status) {
		return fmt.Errorf("fail job: %q is not a failure status", status)
	}
	timestamp := now()
	return s.transition(ctx, id,
		`UPDATE jobs SET status = ?, progress_message = NULL, error_message = ?, updated_at = ?, finished_at = ?
         WHERE id = ? AND status IN (`+makePlaceholders(len(processingStatuses))+`)`,
		status, nullableString(message), timestamp, timestamp, id,
	)
}

// transition runs an update guarded by the processing-status list and
// distinguishes missing jobs from finished ones.
func (s *Store) transition(ctx context.Context, id string, query string, args ...any) error {
	args = append(args, processingArgs()...)
	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update job %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", ErrFinished, id)
}

// Get fetches a job by ID. It returns ErrNotFound when absent.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	ctx = orBackground(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return job, nil
}

// ListOptions filters List results.
type ListOptions struct {
	Statuses []Status
	// Limit caps the number of rows; zero means no limit.
	Limit int
}

// List returns jobs newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]*Job, error) {
	ctx = orBackground(ctx)
	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := make([]any, 0, len(opts.Statuses)+1)
	if len(opts.Statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(opts.Statuses)) + `)`
		for _, status := range opts.Statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY created_at DESC, id`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
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
	return jobs, rows.Err()
}

// Stats returns a count of jobs grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	ctx = orBackground(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// FailInterrupted marks every unfinished job as failed. The server calls it on
// startup so jobs orphaned by a crash do not stay in flight forever.
func (s *Store) FailInterrupted(ctx context.Context) (int64, error) {
	timestamp := now()
	args := []any{StatusFailed, InterruptedReason, timestamp, timestamp}
	args = append(args, processingArgs()...)
	res, err := s.exec(ctx,
		`UPDATE jobs SET status = ?, progress_message = NULL, error_message = ?, updated_at = ?, finished_at = ?
         WHERE status IN (`+makePlaceholders(len(processingStatuses))+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("fail interrupted jobs: %w", err)
	}
	return res.RowsAffected()
}

func processingArgs() []any {
	args := make([]any, 0, len(processingStatuses))
	for _, status := range allStatuses {
		if IsProcessingStatus(status) {
			args = append(args, status)
		}
	}
	return args
}

// timestampLayout keeps a fixed fraction width so stored timestamps sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

func now() string {
	return time.Now().UTC().Format(timestampLayout)
}
