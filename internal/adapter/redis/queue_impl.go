package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/user/bookmark-service/internal/entity"
	"github.com/user/bookmark-service/internal/repository"
)

const triggerQueueKey = "bookmarks:triggers"

// QueueRepoImpl is a TriggerQueue on a Redis list.
type QueueRepoImpl struct {
	client  *redis.Client
	popWait time.Duration
}

var _ repository.TriggerQueue = (*QueueRepoImpl)(nil)

// NewQueueRepo creates a new instance of QueueRepoImpl. Pop blocks for up to
// popWait waiting for a message.
func NewQueueRepo(client *redis.Client, popWait time.Duration) *QueueRepoImpl {
	return &QueueRepoImpl{client: client, popWait: popWait}
}

// Push adds a message to the left side of the list.
func (r *QueueRepoImpl) Push(ctx context.Context, msg entity.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return r.client.LPush(ctx, triggerQueueKey, payload).Err()
}

// Pop removes and returns a message from the right side of the list.
func (r *QueueRepoImpl) Pop(ctx context.Context) (entity.Message, error) {
	res, err := r.client.BRPop(ctx, r.popWait, triggerQueueKey).Result()
	if errors.Is(err, redis.Nil) {
		return entity.Message{}, repository.ErrQueueEmpty
	}
	if err != nil {
		return entity.Message{}, err
	}

	// BRPOP replies with the key followed by the value
	var msg entity.Message
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		return entity.Message{}, fmt.Errorf("decode trigger message: %w", err)
	}
	return msg, nil
}

// Size returns the current number of items in the queue.
func (r *QueueRepoImpl) Size(ctx context.Context) (int64, error) {
	return r.client.LLen(ctx, triggerQueueKey).Result()
}
