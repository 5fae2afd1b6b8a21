package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/bookmark-service/internal/entity"
	"github.com/user/bookmark-service/internal/repository"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestSeenSet_Add(t *testing.T) {
	mr, client := setupRedis(t)
	ctx := context.Background()

	set, err := NewSeenSetFactory(client, time.Hour).NewSeenSet(ctx, "run-1")
	require.NoError(t, err)

	added, err := set.Add(ctx, "https://a.com")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = set.Add(ctx, "https://a.com")
	require.NoError(t, err)
	assert.False(t, added)

	added, err = set.Add(ctx, "https://b.com")
	require.NoError(t, err)
	assert.True(t, added)

	members, err := mr.SMembers("seen:run-1")
	require.NoError(t, err)
	assert.Len(t, members, 2)
	assert.Equal(t, time.Hour, mr.TTL("seen:run-1"))

	require.NoError(t, set.Close(ctx))
	assert.False(t, mr.Exists("seen:run-1"))
}

func TestSeenSet_RunsAreIsolated(t *testing.T) {
	_, client := setupRedis(t)
	ctx := context.Background()
	f := NewSeenSetFactory(client, 0)

	first, err := f.NewSeenSet(ctx, "run-1")
	require.NoError(t, err)
	_, err = first.Add(ctx, "https://a.com")
	require.NoError(t, err)

	second, err := f.NewSeenSet(ctx, "run-2")
	require.NoError(t, err)
	added, err := second.Add(ctx, "https://a.com")
	require.NoError(t, err)
	assert.True(t, added)

	// Reopening a run starts from an empty set
	again, err := f.NewSeenSet(ctx, "run-1")
	require.NoError(t, err)
	added, err = again.Add(ctx, "https://a.com")
	require.NoError(t, err)
	assert.True(t, added)
}

func TestSeenSet_BackendFailure(t *testing.T) {
	mr, client := setupRedis(t)
	ctx := context.Background()

	set, err := NewSeenSetFactory(client, 0).NewSeenSet(ctx, "run-1")
	require.NoError(t, err)

	mr.SetError("boom")
	_, err = set.Add(ctx, "https://a.com")
	assert.Error(t, err)
}

func TestQueueRepo(t *testing.T) {
	_, client := setupRedis(t)
	ctx := context.Background()
	q := NewQueueRepo(client, time.Second)

	require.NoError(t, q.Push(ctx, entity.Message{Action: entity.ActionAnalyzeBookmarks}))
	require.NoError(t, q.Push(ctx, entity.Message{Action: "other"}))

	size, err := q.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), size)

	msg, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.ActionAnalyzeBookmarks, msg.Action)

	msg, err = q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "other", msg.Action)

	_, err = q.Pop(ctx)
	assert.ErrorIs(t, err, repository.ErrQueueEmpty)
}

func TestQueueRepo_MalformedPayload(t *testing.T) {
	mr, client := setupRedis(t)
	_, err := mr.Lpush(triggerQueueKey, "not json")
	require.NoError(t, err)

	_, err = NewQueueRepo(client, time.Second).Pop(context.Background())
	assert.Error(t, err)
}
