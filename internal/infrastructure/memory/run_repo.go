package memory

import (
	"context"

	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
	"github.com/google/uuid"
)

type runRepo struct {
	store *Store
}

func (r *runRepo) CreateRun(ctx context.Context, run *domain.ReconciliationRun) error {
	defer r.store.lock()()
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	cp := *run
	r.store.state.runs = append(r.store.state.runs, &cp)
	return nil
}

// LastRun returns nil when no run was recorded yet.
func (r *runRepo) LastRun(ctx context.Context) (*domain.ReconciliationRun, error) {
	defer r.store.lock()()
	runs := r.store.state.runs
	if len(runs) == 0 {
		return nil, nil
	}
	cp := *runs[len(runs)-1]
	return &cp, nil
}
