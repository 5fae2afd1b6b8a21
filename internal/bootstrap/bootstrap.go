// Package bootstrap builds the adapters selected by configuration. Both the
// service and the CLI wire through it.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/user/bookmark-service/internal/adapter/chromedp_fetcher"
	"github.com/user/bookmark-service/internal/adapter/httpfetch"
	"github.com/user/bookmark-service/internal/adapter/memory"
	"github.com/user/bookmark-service/internal/adapter/postgres"
	redis_adapter "github.com/user/bookmark-service/internal/adapter/redis"
	"github.com/user/bookmark-service/internal/repository"
	"github.com/user/bookmark-service/pkg/config"
	"go.uber.org/zap"
)

const (
	triggerQueueCapacity = 16
	triggerPopWait       = time.Second
)

// NewFetcher returns the fetcher for cfg.FetchMode and a function releasing it.
func NewFetcher(cfg *config.Config, logger *zap.Logger) (repository.MetadataFetcher, func(), error) {
	switch cfg.FetchMode {
	case config.FetchModeBrowser:
		f, err := chromedp_fetcher.NewChromedpFetcher(cfg.FetchTimeout(), cfg.UserAgent, logger)
		if err != nil {
			return nil, nil, err
		}
		return f, f.Close, nil
	default:
		f := httpfetch.NewFetcher(nil, httpfetch.Options{
			Timeout:      cfg.FetchTimeout(),
			UserAgent:    cfg.UserAgent,
			MaxBodyBytes: cfg.MaxBodyBytes,
			PerHostRate:  cfg.PerHostRate,
		}, logger)
		return f, func() {}, nil
	}
}

// Stores holds the storage-backed adapters. Without Postgres or Redis
// configured, the in-memory adapters stand in.
type Stores struct {
	Runs     repository.AnalysisRunRepository
	SeenSets repository.SeenSetFactory
	Queue    repository.TriggerQueue
	Postgres *pgxpool.Pool
	Redis    *redis.Client
	closers  []func()
}

func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// NewStores connects to the configured backends.
func NewStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stores, error) {
	s := &Stores{
		Runs:     memory.NewRunRepo(),
		SeenSets: memory.SeenSetFactory{},
		Queue:    memory.NewQueue(triggerQueueCapacity, triggerPopWait),
	}

	if cfg.PostgresURL != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("unable to connect to database: %w", err)
		}
		s.closers = append(s.closers, pool.Close)
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			s.Close()
			return nil, fmt.Errorf("unable to create schema: %w", err)
		}
		s.Postgres = pool
		s.Runs = postgres.NewRunRepo(pool)
		logger.Info("PostgreSQL connection pool established")
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		s.closers = append(s.closers, func() { _ = rdb.Close() })
		if err := rdb.Ping(ctx).Err(); err != nil {
			s.Close()
			return nil, fmt.Errorf("unable to connect to redis: %w", err)
		}
		s.Redis = rdb
		s.SeenSets = redis_adapter.NewSeenSetFactory(rdb, cfg.SeenTTL())
		s.Queue = redis_adapter.NewQueueRepo(rdb, triggerPopWait)
		logger.Info("Redis connection established")
	}

	return s, nil
}
