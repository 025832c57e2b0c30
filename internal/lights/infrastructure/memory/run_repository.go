package memory

import (
	"context"
	"errors"
	"slices"
	"sync"

	lights "wiz-fleet/internal/lights/domain"
)

const defaultCapacity = 500

// RunRepository keeps the most recent fleet runs in memory. It backs the
// server when no database is configured and the tests.
type RunRepository struct {
	mu       sync.RWMutex
	capacity int
	runs     []lights.Run
}

// NewRunRepository constructs a repository holding at most capacity runs.
// A non-positive capacity selects the default.
func NewRunRepository(capacity int) *RunRepository {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &RunRepository{capacity: capacity}
}

// Save stores a copy of run, evicting the oldest run when full.
func (r *RunRepository) Save(ctx context.Context, run *lights.Run) error {
	_ = ctx
	if run == nil {
		return errors.New("run repo: nil run")
	}
	if run.ID == "" {
		return errors.New("run repo: empty id")
	}
	stored := *run
	stored.Outcomes = slices.Clone(run.Outcomes)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, stored)
	if over := len(r.runs) - r.capacity; over > 0 {
		r.runs = slices.Delete(r.runs, 0, over)
	}
	return nil
}

// List returns up to limit runs, newest first.
func (r *RunRepository) List(ctx context.Context, limit int) ([]lights.Run, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > len(r.runs) {
		limit = len(r.runs)
	}
	out := make([]lights.Run, 0, limit)
	for i := len(r.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.runs[i])
	}
	return out, nil
}
