package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/unanetx/internal/models"
	"github.com/desertthunder/unanetx/internal/shared"
)

const defaultListLimit = 20

// RunRepository implements [models.Repository] for [models.Run] persistence.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new [RunRepository] with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new run with generated ID and sequence
func (r *RunRepository) Create(run *models.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO runs (
			id, sequence, job, status, baseline_rows, override_rows,
			updated_rows, changed_rows, message, started_at, finished_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		string(run.Job),
		string(run.Status),
		run.BaselineRows,
		run.OverrideRows,
		run.UpdatedRows,
		run.ChangedRows,
		run.Message,
		run.StartedAt,
		nullTime(run.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	run.ID = id
	run.Sequence = sequence
	return nil
}

// Get retrieves a run by ID
func (r *RunRepository) Get(id string) (*models.Run, error) {
	query := `
		SELECT id, sequence, job, status, baseline_rows, override_rows,
			updated_rows, changed_rows, message, started_at, finished_at
		FROM runs
		WHERE id = ?
	`

	run, err := scanRun(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: run %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	return run, nil
}

// Update stores the status, counts and finish time of an existing run
func (r *RunRepository) Update(run *models.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		UPDATE runs
		SET status = ?, baseline_rows = ?, override_rows = ?, updated_rows = ?,
			changed_rows = ?, message = ?, finished_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		string(run.Status),
		run.BaselineRows,
		run.OverrideRows,
		run.UpdatedRows,
		run.ChangedRows,
		run.Message,
		nullTime(run.FinishedAt),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: run %s", shared.ErrNotFound, run.ID)
	}

	return nil
}

// List retrieves runs matching criteria, newest first
func (r *RunRepository) List(criteria map[string]any) ([]*models.Run, error) {
	var (
		where []string
		args  []any
	)
	limit := defaultListLimit

	for key, value := range criteria {
		switch key {
		case "job", "status":
			where = append(where, key+" = ?")
			args = append(args, fmt.Sprint(value))
		case "limit":
			n, ok := value.(int)
			if !ok {
				return nil, fmt.Errorf("%w: limit must be an int, got %T", shared.ErrInvalidArgument, value)
			}
			if n > 0 {
				limit = n
			}
		default:
			return nil, fmt.Errorf("%w: unknown criteria %q", shared.ErrInvalidArgument, key)
		}
	}

	query := `
		SELECT id, sequence, job, status, baseline_rows, override_rows,
			updated_rows, changed_rows, message, started_at, finished_at
		FROM runs
	`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY sequence DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*models.Run, error) {
	var (
		run        models.Run
		job        string
		status     string
		finishedAt sql.NullTime
	)

	err := s.Scan(
		&run.ID,
		&run.Sequence,
		&job,
		&status,
		&run.BaselineRows,
		&run.OverrideRows,
		&run.UpdatedRows,
		&run.ChangedRows,
		&run.Message,
		&run.StartedAt,
		&finishedAt,
	)
	if err != nil {
		return nil, err
	}

	run.Job = models.Job(job)
	run.Status = models.RunStatus(status)
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	return &run, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
