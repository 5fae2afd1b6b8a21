package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/user/bookmark-service/internal/entity"
	"github.com/user/bookmark-service/internal/repository"
)

// fakeFetcher enriches every URL with its own address as title unless an
// outcome is configured for it.
type fakeFetcher struct {
	mu       sync.Mutex
	calls    map[string]int
	outcomes map[string]entity.FetchOutcome
	delay    func(url string) time.Duration

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{calls: map[string]int{}, outcomes: map[string]entity.FetchOutcome{}}
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) entity.FetchOutcome {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxInFlight.Load()
		if n <= cur || f.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls[url]++
	outcome, ok := f.outcomes[url]
	f.mu.Unlock()

	if f.delay != nil {
		select {
		case <-time.After(f.delay(url)):
		case <-ctx.Done():
			return entity.Broken()
		}
	}
	if !ok {
		outcome = entity.Enriched(entity.PageMetadata{Title: url})
	}
	return outcome
}

func (f *fakeFetcher) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

type failingSeenSet struct{ err error }

func (s failingSeenSet) Add(context.Context, string) (bool, error) { return false, s.err }
func (s failingSeenSet) Close(context.Context) error               { return nil }

var errBackend = errors.New("backend down")

// staticProvider serves a fixed tree.
type staticProvider struct {
	root *entity.BookmarkNode
	err  error
}

func (p staticProvider) GetTree(context.Context) (*entity.BookmarkNode, error) {
	return p.root, p.err
}

var (
	_ repository.MetadataFetcher      = (*fakeFetcher)(nil)
	_ repository.SeenSet              = failingSeenSet{}
	_ repository.BookmarkTreeProvider = staticProvider{}
)

func leaf(url string) *entity.BookmarkNode {
	return &entity.BookmarkNode{URL: url}
}

func folder(children ...*entity.BookmarkNode) *entity.BookmarkNode {
	return &entity.BookmarkNode{Children: children}
}
