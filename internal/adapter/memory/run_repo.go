package memory

import (
	"context"
	"sync"

	"github.com/user/bookmark-service/internal/entity"
	"github.com/user/bookmark-service/internal/repository"
)

// RunRepo keeps analysis runs in memory. Runs are stored as copies so
// callers cannot mutate what is held.
type RunRepo struct {
	mu     sync.RWMutex
	runs   map[string]entity.AnalysisRun
	latest string
}

var _ repository.AnalysisRunRepository = (*RunRepo)(nil)

func NewRunRepo() *RunRepo {
	return &RunRepo{runs: make(map[string]entity.AnalysisRun)}
}

func (r *RunRepo) Save(_ context.Context, run *entity.AnalysisRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *run
	stored.Results = append([]entity.AnalysisResult(nil), run.Results...)
	r.runs[run.ID] = stored

	if cur, ok := r.runs[r.latest]; !ok || !run.StartedAt.Before(cur.StartedAt) {
		r.latest = run.ID
	}
	return nil
}

func (r *RunRepo) FindByID(_ context.Context, id string) (*entity.AnalysisRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.get(id)
}

func (r *RunRepo) FindLatest(_ context.Context) (*entity.AnalysisRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.get(r.latest)
}

func (r *RunRepo) get(id string) (*entity.AnalysisRun, error) {
	run, ok := r.runs[id]
	if !ok {
		return nil, repository.ErrRunNotFound
	}
	run.Results = append([]entity.AnalysisResult(nil), run.Results...)
	return &run, nil
}
