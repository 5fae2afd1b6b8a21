package repository

import (
	"context"
	"errors"

	"github.com/user/bookmark-service/internal/entity"
)

var ErrRunNotFound = errors.New("analysis run not found")

// AnalysisRunRepository stores analysis runs together with their ordered results.
type AnalysisRunRepository interface {
	// Save stores the run. If a run with the same ID exists, it is replaced.
	Save(ctx context.Context, run *entity.AnalysisRun) error
	FindByID(ctx context.Context, id string) (*entity.AnalysisRun, error)
	// FindLatest returns the most recently started run.
	FindLatest(ctx context.Context) (*entity.AnalysisRun, error)
}
