package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/user/bookmark-service/internal/entity"
	"github.com/user/bookmark-service/internal/repository"
	"github.com/user/bookmark-service/pkg/metrics"
	"go.uber.org/zap"
)

// TriggerListener consumes analysis trigger messages from the queue.
type TriggerListener interface {
	// ProcessTriggerFromQueue pops one message and starts the run it asks
	// for without waiting for it. An empty queue is not an error.
	ProcessTriggerFromQueue(ctx context.Context) error
	// Listen processes messages until ctx is done, then waits for the runs it started.
	Listen(ctx context.Context)
}

type triggerUseCase struct {
	queue     repository.TriggerQueue
	runs      RunManager
	retryWait time.Duration
	logger    *zap.Logger
	wg        sync.WaitGroup
}

// NewTriggerListener creates a listener. retryWait is the pause after a
// queue error before polling again.
func NewTriggerListener(queue repository.TriggerQueue, runs RunManager, retryWait time.Duration, logger *zap.Logger) TriggerListener {
	return &triggerUseCase{
		queue:     queue,
		runs:      runs,
		retryWait: retryWait,
		logger:    logger,
	}
}

func (uc *triggerUseCase) ProcessTriggerFromQueue(ctx context.Context) error {
	msg, err := uc.queue.Pop(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrQueueEmpty) {
			// Queue is empty, which is a normal state.
			return nil
		}
		return fmt.Errorf("failed to pop trigger from queue: %w", err)
	}

	if size, err := uc.queue.Size(ctx); err == nil {
		metrics.TriggerQueueDepth.Set(float64(size))
	}

	uc.logger.Info("Processing trigger from queue", zap.String("action", msg.Action))

	// Runs execute in the background so a newer message can supersede them.
	uc.wg.Add(1)
	go func(msg entity.Message) {
		defer uc.wg.Done()
		_, err := uc.runs.HandleMessage(ctx, msg)
		switch {
		case err == nil:
		case errors.Is(err, ErrRunCanceled):
			uc.logger.Info("Triggered run was canceled", zap.Error(err))
		default:
			uc.logger.Error("Triggered run failed", zap.String("action", msg.Action), zap.Error(err))
		}
	}(msg)
	return nil
}

func (uc *triggerUseCase) Listen(ctx context.Context) {
	defer uc.wg.Wait()
	for ctx.Err() == nil {
		if err := uc.ProcessTriggerFromQueue(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			uc.logger.Error("Trigger listener error", zap.Error(err))
			select {
			case <-time.After(uc.retryWait):
			case <-ctx.Done():
			}
		}
	}
}
