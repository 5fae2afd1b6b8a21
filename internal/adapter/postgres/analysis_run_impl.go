package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/bookmark-service/internal/entity"
	"github.com/user/bookmark-service/internal/repository"
)

// RunRepoImpl provides a concrete implementation for the AnalysisRunRepository interface using PostgreSQL.
type RunRepoImpl struct {
	db *pgxpool.Pool
}

var _ repository.AnalysisRunRepository = (*RunRepoImpl)(nil)

// NewRunRepo creates a new instance of RunRepoImpl.
func NewRunRepo(db *pgxpool.Pool) *RunRepoImpl {
	return &RunRepoImpl{db: db}
}

// Save stores or updates a run and replaces its results in one transaction.
func (r *RunRepoImpl) Save(ctx context.Context, run *entity.AnalysisRun) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO analysis_runs (id, trigger, status, started_at, finished_at, error, leaves, uniques, duplicates, broken)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			finished_at = EXCLUDED.finished_at,
			error = EXCLUDED.error,
			leaves = EXCLUDED.leaves,
			uniques = EXCLUDED.uniques,
			duplicates = EXCLUDED.duplicates,
			broken = EXCLUDED.broken;
	`
	_, err = tx.Exec(ctx, query,
		run.ID,
		string(run.Trigger),
		string(run.Status),
		run.StartedAt,
		run.FinishedAt,
		run.Error,
		run.Summary.Leaves,
		run.Summary.Unique,
		run.Summary.Duplicates,
		run.Summary.Broken,
	)
	if err != nil {
		return fmt.Errorf("upsert run %s: %w", run.ID, err)
	}

	if err := saveResults(ctx, tx, run.ID, run.Results); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// FindByID retrieves a run and its ordered results.
func (r *RunRepoImpl) FindByID(ctx context.Context, id string) (*entity.AnalysisRun, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

// FindLatest retrieves the run with the most recent start time.
func (r *RunRepoImpl) FindLatest(ctx context.Context) (*entity.AnalysisRun, error) {
	return r.findOne(ctx, `ORDER BY started_at DESC LIMIT 1`)
}

func (r *RunRepoImpl) findOne(ctx context.Context, clause string, args ...any) (*entity.AnalysisRun, error) {
	query := `
		SELECT id, trigger, status, started_at, finished_at, error, leaves, uniques, duplicates, broken
		FROM analysis_runs
	` + clause
	row := r.db.QueryRow(ctx, query, args...)

	var run entity.AnalysisRun
	var trigger, status string
	err := row.Scan(
		&run.ID,
		&trigger,
		&status,
		&run.StartedAt,
		&run.FinishedAt,
		&run.Error,
		&run.Summary.Leaves,
		&run.Summary.Unique,
		&run.Summary.Duplicates,
		&run.Summary.Broken,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	run.Trigger = entity.Trigger(trigger)
	run.Status = entity.RunStatus(status)

	run.Results, err = loadResults(ctx, r.db, run.ID)
	if err != nil {
		return nil, err
	}
	return &run, nil
}
