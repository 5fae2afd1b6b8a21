package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/user/bookmark-service/internal/entity"
	"github.com/user/bookmark-service/internal/repository"
	"github.com/user/bookmark-service/pkg/metrics"
	"go.uber.org/zap"
)

var (
	ErrUnknownAction = errors.New("unknown message action")
	ErrRunCanceled   = errors.New("analysis run canceled")
	ErrRunNotFound   = repository.ErrRunNotFound
	ErrInvalidFilter = errors.New("invalid result filter")
	ErrNoProvider    = errors.New("no bookmark tree provider configured")

	errRunSuperseded = errors.New("superseded by a newer run")
)

// Result filters accepted by RunResults.
const (
	FilterAll       = ""
	FilterDuplicate = "duplicate"
	FilterBroken    = "broken"
)

// RunManager starts analysis runs from the supported triggers and serves
// their stored results.
type RunManager interface {
	OnInstalled(ctx context.Context) (*entity.AnalysisRun, error)
	HandleMessage(ctx context.Context, msg entity.Message) (*entity.AnalysisRun, error)
	AnalyzeTree(ctx context.Context, trigger entity.Trigger, root *entity.BookmarkNode) (*entity.AnalysisRun, error)
	GetRun(ctx context.Context, id string) (*entity.AnalysisRun, error)
	LatestRun(ctx context.Context) (*entity.AnalysisRun, error)
	RunResults(ctx context.Context, id, filter string) ([]entity.AnalysisResult, error)
}

type runManagerUseCase struct {
	provider    repository.BookmarkTreeProvider
	seenFactory repository.SeenSetFactory
	runRepo     repository.AnalysisRunRepository
	analyzer    Analyzer
	logger      *zap.Logger

	mu        sync.Mutex
	cancelRun context.CancelCauseFunc
	runSeq    uint64
}

// NewRunManager creates a new RunManager use case. provider may be nil when
// trees only arrive inline.
func NewRunManager(
	provider repository.BookmarkTreeProvider,
	seenFactory repository.SeenSetFactory,
	runRepo repository.AnalysisRunRepository,
	analyzer Analyzer,
	logger *zap.Logger,
) RunManager {
	return &runManagerUseCase{
		provider:    provider,
		seenFactory: seenFactory,
		runRepo:     runRepo,
		analyzer:    analyzer,
		logger:      logger,
	}
}

// ValidateMessage reports ErrUnknownAction for anything but analyzeBookmarks.
func ValidateMessage(msg entity.Message) error {
	if msg.Action != entity.ActionAnalyzeBookmarks {
		return fmt.Errorf("%w: %q", ErrUnknownAction, msg.Action)
	}
	return nil
}

func (uc *runManagerUseCase) OnInstalled(ctx context.Context) (*entity.AnalysisRun, error) {
	return uc.analyzeProvidedTree(ctx, entity.TriggerInstalled)
}

func (uc *runManagerUseCase) HandleMessage(ctx context.Context, msg entity.Message) (*entity.AnalysisRun, error) {
	if err := ValidateMessage(msg); err != nil {
		return nil, err
	}
	return uc.analyzeProvidedTree(ctx, entity.TriggerMessage)
}

func (uc *runManagerUseCase) analyzeProvidedTree(ctx context.Context, trigger entity.Trigger) (*entity.AnalysisRun, error) {
	if uc.provider == nil {
		return nil, ErrNoProvider
	}
	root, err := uc.provider.GetTree(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmark tree: %w", err)
	}
	return uc.AnalyzeTree(ctx, trigger, root)
}

// AnalyzeTree runs one analysis. Starting a run cancels the one in flight, if any.
func (uc *runManagerUseCase) AnalyzeTree(ctx context.Context, trigger entity.Trigger, root *entity.BookmarkNode) (*entity.AnalysisRun, error) {
	runCtx, release := uc.claim(ctx)
	defer release()

	run := &entity.AnalysisRun{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		Status:    entity.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	logger := uc.logger.With(zap.String("run_id", run.ID), zap.String("trigger", string(trigger)))
	logger.Info("Starting bookmark analysis", zap.Int("leaves", entity.CountLeaves(root)))

	if err := uc.runRepo.Save(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}

	results, runErr := uc.analyze(runCtx, run.ID, root)
	cause := context.Cause(runCtx)
	uc.finish(run, results, runErr, cause)

	// The run record is written even when the caller's context is gone.
	if err := uc.runRepo.Save(context.WithoutCancel(ctx), run); err != nil {
		return nil, fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}

	duration := run.FinishedAt.Sub(run.StartedAt)
	metrics.AnalysisRunsTotal.WithLabelValues(string(trigger), string(run.Status)).Inc()
	metrics.AnalysisRunDuration.Observe(duration.Seconds())

	switch run.Status {
	case entity.RunStatusCompleted:
		logger.Info("Bookmark analysis completed",
			zap.Int("unique", run.Summary.Unique),
			zap.Int("duplicates", run.Summary.Duplicates),
			zap.Int("broken", run.Summary.Broken),
			zap.Duration("duration", duration),
		)
		return run, nil
	case entity.RunStatusCanceled:
		logger.Warn("Bookmark analysis canceled", zap.String("reason", run.Error))
		if cause == nil {
			cause = runErr
		}
		return run, fmt.Errorf("%w: %w", ErrRunCanceled, cause)
	default:
		logger.Error("Bookmark analysis failed", zap.Error(runErr))
		return run, fmt.Errorf("analysis run %s failed: %w", run.ID, runErr)
	}
}

func (uc *runManagerUseCase) analyze(ctx context.Context, runID string, root *entity.BookmarkNode) ([]entity.AnalysisResult, error) {
	seen, err := uc.seenFactory.NewSeenSet(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to create seen set: %w", err)
	}
	defer func() {
		if err := seen.Close(context.WithoutCancel(ctx)); err != nil {
			uc.logger.Warn("Failed to close seen set", zap.String("run_id", runID), zap.Error(err))
		}
	}()
	return uc.analyzer.Analyze(ctx, root, seen)
}

func (uc *runManagerUseCase) finish(run *entity.AnalysisRun, results []entity.AnalysisResult, runErr, cause error) {
	finished := time.Now().UTC()
	run.FinishedAt = &finished

	switch {
	case runErr == nil:
		run.Status = entity.RunStatusCompleted
		run.Results = results
		run.Summary = entity.Summarize(results)
	case errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded):
		run.Status = entity.RunStatusCanceled
		run.Error = runErr.Error()
		if cause != nil {
			run.Error = cause.Error()
		}
	default:
		run.Status = entity.RunStatusFailed
		run.Error = runErr.Error()
	}
}

// claim makes the caller the active run, canceling the previous one. The
// returned release must be called when the run ends.
func (uc *runManagerUseCase) claim(ctx context.Context) (context.Context, func()) {
	runCtx, cancel := context.WithCancelCause(ctx)

	uc.mu.Lock()
	if uc.cancelRun != nil {
		uc.cancelRun(errRunSuperseded)
	}
	uc.runSeq++
	seq := uc.runSeq
	uc.cancelRun = cancel
	uc.mu.Unlock()

	return runCtx, func() {
		uc.mu.Lock()
		if uc.runSeq == seq {
			uc.cancelRun = nil
		}
		uc.mu.Unlock()
		cancel(nil)
	}
}

func (uc *runManagerUseCase) GetRun(ctx context.Context, id string) (*entity.AnalysisRun, error) {
	return uc.runRepo.FindByID(ctx, id)
}

func (uc *runManagerUseCase) LatestRun(ctx context.Context) (*entity.AnalysisRun, error) {
	return uc.runRepo.FindLatest(ctx)
}

func (uc *runManagerUseCase) RunResults(ctx context.Context, id, filter string) ([]entity.AnalysisResult, error) {
	run, err := uc.runRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FilterResults(run.Results, filter)
}

// FilterResults keeps the results matching filter, preserving order.
func FilterResults(results []entity.AnalysisResult, filter string) ([]entity.AnalysisResult, error) {
	var keep func(entity.AnalysisResult) bool
	switch filter {
	case FilterAll:
		return results, nil
	case FilterDuplicate:
		keep = func(r entity.AnalysisResult) bool { return r.Duplicate }
	case FilterBroken:
		keep = entity.AnalysisResult.IsBroken
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidFilter, filter)
	}

	out := []entity.AnalysisResult{}
	for _, r := range results {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out, nil
}
