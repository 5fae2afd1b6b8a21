package memory

import (
	"context"
	"errors"
	"time"

	"github.com/user/bookmark-service/internal/entity"
	"github.com/user/bookmark-service/internal/repository"
)

var ErrQueueFull = errors.New("trigger queue is full")

// Queue is a bounded channel-backed TriggerQueue.
type Queue struct {
	ch      chan entity.Message
	popWait time.Duration
}

var _ repository.TriggerQueue = (*Queue)(nil)

// NewQueue creates a queue holding up to capacity messages. Pop waits up to
// popWait for a message before returning repository.ErrQueueEmpty.
func NewQueue(capacity int, popWait time.Duration) *Queue {
	return &Queue{ch: make(chan entity.Message, capacity), popWait: popWait}
}

func (q *Queue) Push(_ context.Context, msg entity.Message) error {
	select {
	case q.ch <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *Queue) Pop(ctx context.Context) (entity.Message, error) {
	select {
	case msg := <-q.ch:
		return msg, nil
	default:
	}

	timer := time.NewTimer(q.popWait)
	defer timer.Stop()

	select {
	case msg := <-q.ch:
		return msg, nil
	case <-timer.C:
		return entity.Message{}, repository.ErrQueueEmpty
	case <-ctx.Done():
		return entity.Message{}, ctx.Err()
	}
}

func (q *Queue) Size(context.Context) (int64, error) {
	return int64(len(q.ch)), nil
}
