package chromedp_fetcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/user/bookmark-service/internal/adapter/extractor"
	"github.com/user/bookmark-service/internal/entity"
	"github.com/user/bookmark-service/internal/repository"
	"github.com/user/bookmark-service/pkg/metrics"
	"go.uber.org/zap"
)

const mode = "browser"

// ChromedpFetcher loads pages in a shared headless Chrome, one tab per fetch.
type ChromedpFetcher struct {
	browserCtx  context.Context
	cancelAlloc context.CancelFunc
	timeout     time.Duration
	logger      *zap.Logger
}

var _ repository.MetadataFetcher = (*ChromedpFetcher)(nil)

// NewChromedpFetcher launches the browser. The user agent is only
// overridden when userAgent is non-empty.
func NewChromedpFetcher(pageLoadTimeout time.Duration, userAgent string, logger *zap.Logger) (*ChromedpFetcher, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if userAgent != "" {
		opts = append(opts, chromedp.UserAgent(userAgent))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(logger.Sugar().Debugf))

	// Running an empty task starts Chrome, so tabs opened later share it.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	return &ChromedpFetcher{
		browserCtx: browserCtx,
		cancelAlloc: func() {
			cancelBrowser()
			cancelAlloc()
		},
		timeout: pageLoadTimeout,
		logger:  logger,
	}, nil
}

// Close shuts the browser down.
func (c *ChromedpFetcher) Close() {
	c.cancelAlloc()
}

func (c *ChromedpFetcher) Fetch(ctx context.Context, url string) entity.FetchOutcome {
	start := time.Now()
	meta, err := c.fetch(ctx, url)
	metrics.ObserveFetch(mode, err != nil, time.Since(start).Seconds())
	if err != nil {
		c.logger.Debug("bookmark is broken", zap.String("url", url), zap.Error(err))
		return entity.Broken()
	}
	return entity.Enriched(meta)
}

func (c *ChromedpFetcher) fetch(ctx context.Context, url string) (entity.PageMetadata, error) {
	// Create a new tab in the shared browser
	taskCtx, cancel := chromedp.NewContext(c.browserCtx)
	defer cancel()

	// The tab lives under the browser context, so the caller's cancellation has to be joined in.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if c.timeout > 0 {
		var cancelTimeout context.CancelFunc
		taskCtx, cancelTimeout = context.WithTimeout(taskCtx, c.timeout)
		defer cancelTimeout()
	}

	status := &documentStatus{}
	chromedp.ListenTarget(taskCtx, func(ev interface{}) {
		if e, ok := ev.(*network.EventResponseReceived); ok && e.Type == network.ResourceTypeDocument {
			status.record(e.Response.Status)
		}
	})

	var html string
	err := chromedp.Run(taskCtx,
		network.Enable(),
		chromedp.Navigate(url),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return entity.PageMetadata{}, err
	}

	code := status.get()
	if code < 200 || code > 299 {
		return entity.PageMetadata{}, fmt.Errorf("unexpected status code %d", code)
	}

	return extractor.ExtractMetadataFromString(html)
}

// documentStatus keeps the status of the first document response, which is
// the top-level page; later ones belong to iframes.
type documentStatus struct {
	mu   sync.Mutex
	code int64
}

func (d *documentStatus) record(code int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.code == 0 {
		d.code = code
	}
}

func (d *documentStatus) get() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.code
}
