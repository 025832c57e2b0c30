package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	lights "wiz-fleet/internal/lights/domain"
)

// RunRepository is a Postgres implementation of the fleet run history.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository constructs a repository.
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Save inserts a run. Saving the same id twice is a no-op.
func (r *RunRepository) Save(ctx context.Context, run *lights.Run) error {
	if r == nil || r.db == nil {
		return errors.New("run repo: nil db")
	}
	if run == nil || run.ID == "" {
		return errors.New("run repo: invalid run")
	}
	command, err := json.Marshal(run.Command)
	if err != nil {
		return err
	}
	outcomes := run.Outcomes
	if outcomes == nil {
		outcomes = []lights.Outcome{}
	}
	results, err := json.Marshal(outcomes)
	if err != nil {
		return err
	}
	succeeded, unreached := lights.Result{Outcomes: outcomes}.Counts()
	_, err = r.db.ExecContext(ctx, `
INSERT INTO fleet_runs (
	run_id, operation, command, status, device_count, succeeded_count, unreached_count,
	outcomes, started_at, finished_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
)
ON CONFLICT (run_id) DO NOTHING`,
		run.ID, run.Operation, command, run.Status, len(outcomes), succeeded, unreached,
		results, run.StartedAt, run.FinishedAt)
	return err
}

// List returns up to limit runs, newest first.
func (r *RunRepository) List(ctx context.Context, limit int) ([]lights.Run, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("run repo: nil db")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT run_id, operation, command, status, outcomes, started_at, finished_at
FROM fleet_runs
ORDER BY started_at DESC, run_id DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []lights.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*lights.Run, error) {
	var run lights.Run
	var command []byte
	var outcomes []byte
	if err := row.Scan(
		&run.ID,
		&run.Operation,
		&command,
		&run.Status,
		&outcomes,
		&run.StartedAt,
		&run.FinishedAt,
	); err != nil {
		return nil, err
	}
	if len(command) > 0 {
		if err := json.Unmarshal(command, &run.Command); err != nil {
			return nil, err
		}
	}
	if len(outcomes) > 0 {
		if err := json.Unmarshal(outcomes, &run.Outcomes); err != nil {
			return nil, err
		}
	}
	run.StartedAt = run.StartedAt.UTC()
	run.FinishedAt = run.FinishedAt.UTC()
	return &run, nil
}
