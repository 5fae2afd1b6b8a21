package repository

import (
	"context"
	"errors"

	"github.com/user/bookmark-service/internal/entity"
)

// ErrQueueEmpty is returned by Pop when no message arrived within its wait window.
var ErrQueueEmpty = errors.New("trigger queue is empty")

// TriggerQueue is a FIFO of analysis trigger messages.
type TriggerQueue interface {
	Push(ctx context.Context, msg entity.Message) error
	// Pop removes and returns the oldest message, waiting briefly when the
	// queue is empty.
	Pop(ctx context.Context) (entity.Message, error)
	Size(ctx context.Context) (int64, error)
}
