package bootstrap

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/bookmark-service/internal/adapter/httpfetch"
	"github.com/user/bookmark-service/internal/adapter/memory"
	redis_adapter "github.com/user/bookmark-service/internal/adapter/redis"
	"github.com/user/bookmark-service/pkg/config"
	"go.uber.org/zap"
)

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	return cfg
}

func TestNewStores_InMemoryByDefault(t *testing.T) {
	s, err := NewStores(context.Background(), defaultConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	assert.IsType(t, &memory.RunRepo{}, s.Runs)
	assert.IsType(t, memory.SeenSetFactory{}, s.SeenSets)
	assert.IsType(t, &memory.Queue{}, s.Queue)
	assert.Nil(t, s.Postgres)
	assert.Nil(t, s.Redis)
}

func TestNewStores_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := defaultConfig(t)
	cfg.RedisAddr = mr.Addr()

	s, err := NewStores(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	assert.IsType(t, &redis_adapter.SeenSetFactory{}, s.SeenSets)
	assert.IsType(t, &redis_adapter.QueueRepoImpl{}, s.Queue)
	assert.NotNil(t, s.Redis)
}

func TestNewStores_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := defaultConfig(t)
	cfg.RedisAddr = addr

	_, err := NewStores(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestNewFetcher_HTTPMode(t *testing.T) {
	f, release, err := NewFetcher(defaultConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer release()
	assert.IsType(t, &httpfetch.Fetcher{}, f)
}
