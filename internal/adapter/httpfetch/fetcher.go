package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/user/bookmark-service/internal/adapter/extractor"
	"github.com/user/bookmark-service/internal/entity"
	"github.com/user/bookmark-service/internal/repository"
	"github.com/user/bookmark-service/pkg/metrics"
	"go.uber.org/zap"
)

const mode = "http"

type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	// PerHostRate limits requests per second to any single host. Zero disables it.
	PerHostRate float64
}

// Fetcher retrieves pages with a plain HTTP GET.
type Fetcher struct {
	client   *http.Client
	opts     Options
	limiters *hostLimiters
	logger   *zap.Logger
}

var _ repository.MetadataFetcher = (*Fetcher)(nil)

// NewFetcher creates a fetcher. A nil client means http.DefaultClient.
func NewFetcher(client *http.Client, opts Options, logger *zap.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{
		client:   client,
		opts:     opts,
		limiters: newHostLimiters(opts.PerHostRate),
		logger:   logger,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) entity.FetchOutcome {
	start := time.Now()
	meta, err := f.fetch(ctx, url)
	metrics.ObserveFetch(mode, err != nil, time.Since(start).Seconds())
	if err != nil {
		f.logger.Debug("bookmark is broken", zap.String("url", url), zap.Error(err))
		return entity.Broken()
	}
	return entity.Enriched(meta)
}

func (f *Fetcher) fetch(ctx context.Context, url string) (entity.PageMetadata, error) {
	if f.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return entity.PageMetadata{}, fmt.Errorf("build request: %w", err)
	}
	if f.opts.UserAgent != "" {
		req.Header.Set("User-Agent", f.opts.UserAgent)
	}
	if err := f.limiters.wait(ctx, req.URL.Host); err != nil {
		return entity.PageMetadata{}, fmt.Errorf("rate limit: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return entity.PageMetadata{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return entity.PageMetadata{}, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if f.opts.MaxBodyBytes > 0 {
		body = io.LimitReader(resp.Body, f.opts.MaxBodyBytes)
	}
	meta, err := extractor.ExtractMetadata(body)
	if err != nil {
		return entity.PageMetadata{}, fmt.Errorf("parse body: %w", err)
	}
	return meta, nil
}
