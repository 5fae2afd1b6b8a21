package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/user/bookmark-service/internal/repository"
	"github.com/user/bookmark-service/pkg/utils"
)

const seenSetPrefix = "seen:"

// SeenSetFactory provides SeenSets backed by one Redis SET per analysis run,
// so several service replicas can share a run's deduplication state.
type SeenSetFactory struct {
	client *redis.Client
	ttl    time.Duration
}

var _ repository.SeenSetFactory = (*SeenSetFactory)(nil)

// NewSeenSetFactory creates a factory. Each run's set expires after ttl even
// if the run never closes it.
func NewSeenSetFactory(client *redis.Client, ttl time.Duration) *SeenSetFactory {
	return &SeenSetFactory{client: client, ttl: ttl}
}

func (f *SeenSetFactory) NewSeenSet(ctx context.Context, runID string) (repository.SeenSet, error) {
	s := &SeenSet{client: f.client, key: seenSetPrefix + runID, ttl: f.ttl}
	// A reused run ID must not inherit stale members.
	if err := f.client.Del(ctx, s.key).Err(); err != nil {
		return nil, fmt.Errorf("reset seen set %s: %w", s.key, err)
	}
	return s, nil
}

type SeenSet struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// Add relies on SADD reporting how many members were new, which makes the
// check and the insert one atomic step. Members are hashed to bound their size.
func (s *SeenSet) Add(ctx context.Context, key string) (bool, error) {
	var added *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		added = pipe.SAdd(ctx, s.key, utils.HashURL(key))
		if s.ttl > 0 {
			pipe.Expire(ctx, s.key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("add to seen set: %w", err)
	}
	return added.Val() == 1, nil
}

func (s *SeenSet) Close(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}
