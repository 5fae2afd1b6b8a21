package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/bookmark-service/internal/adapter/memory"
	"github.com/user/bookmark-service/internal/entity"
	"go.uber.org/zap"
)

func analyze(t *testing.T, f *fakeFetcher, concurrency int, root *entity.BookmarkNode) []entity.AnalysisResult {
	t.Helper()
	results, err := NewAnalyzer(f, concurrency, zap.NewNop()).Analyze(context.Background(), root, memory.NewSeenSet())
	require.NoError(t, err)
	return results
}

func TestAnalyze_EndToEnd(t *testing.T) {
	f := newFakeFetcher()
	f.outcomes["https://b.com"] = entity.Broken()
	root := folder(leaf("http://www.a.com/"), leaf("https://a.com"), leaf("https://b.com"))

	results := analyze(t, f, 4, root)

	require.Len(t, results, 3)
	assert.False(t, results[0].Duplicate)
	assert.Equal(t, "http://www.a.com/", results[0].Outcome.Metadata.Title)
	assert.True(t, results[1].Duplicate)
	assert.Nil(t, results[1].Outcome)
	assert.True(t, results[2].IsBroken())

	assert.Equal(t, 1, f.calls["http://www.a.com/"])
	assert.Zero(t, f.calls["https://a.com"])

	out, err := json.Marshal(results)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"url":"http://www.a.com/","title":"http://www.a.com/","description":"","keywords":"","broken":false},
		{"url":"https://a.com","duplicate":true},
		{"url":"https://b.com","broken":true}
	]`, string(out))
}

func TestAnalyze_PreservesTraversalOrder(t *testing.T) {
	f := newFakeFetcher()
	// Earlier leaves finish last
	f.delay = func(url string) time.Duration {
		var i int
		_, _ = fmt.Sscanf(url, "https://site%d.example", &i)
		return time.Duration(20-i) * time.Millisecond
	}
	root := folder(
		leaf("https://site0.example"),
		folder(leaf("https://site1.example"), folder(leaf("https://site2.example")), leaf("https://site3.example")),
		leaf("https://site4.example"),
		folder(),
		folder(folder(leaf("https://site5.example"))),
	)

	results := analyze(t, f, 8, root)

	require.Len(t, results, 6)
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("https://site%d.example", i), r.Bookmark.URL)
		assert.Equal(t, r.Bookmark.URL, r.Outcome.Metadata.Title)
	}
}

func TestAnalyze_ResultCountEqualsLeafCount(t *testing.T) {
	root := folder(
		leaf("https://a.com"),
		&entity.BookmarkNode{ID: "empty"},
		nil,
		folder(&entity.BookmarkNode{Title: "no url"}, leaf("https://b.com")),
		// A URL makes the node a leaf; its children are not visited.
		&entity.BookmarkNode{URL: "https://c.com", Children: []*entity.BookmarkNode{leaf("https://hidden.com")}},
	)

	results := analyze(t, newFakeFetcher(), 2, root)

	require.Len(t, results, entity.CountLeaves(root))
	require.Len(t, results, 3)
	assert.Equal(t, "https://c.com", results[2].Bookmark.URL)
	assert.Nil(t, results[2].Bookmark.Children)
}

func TestAnalyze_EmptyTrees(t *testing.T) {
	for name, root := range map[string]*entity.BookmarkNode{
		"nil":          nil,
		"bare node":    {},
		"empty folder": folder(folder(), folder(folder())),
	} {
		t.Run(name, func(t *testing.T) {
			results := analyze(t, newFakeFetcher(), 1, root)
			assert.Empty(t, results)
		})
	}
}

func TestAnalyze_FirstOccurrenceIsEnrichedEvenWhenBroken(t *testing.T) {
	f := newFakeFetcher()
	f.outcomes["http://dead.example/"] = entity.Broken()
	root := folder(
		folder(leaf("http://dead.example/")),
		leaf("https://www.dead.example#top"),
		leaf("https://dead.example"),
	)

	results := analyze(t, f, 3, root)

	require.Len(t, results, 3)
	assert.True(t, results[0].IsBroken())
	assert.False(t, results[0].Duplicate)
	assert.True(t, results[1].Duplicate)
	assert.True(t, results[2].Duplicate)
	assert.Equal(t, 1, f.totalCalls())
}

func TestAnalyze_AtMostOneFetchPerKey(t *testing.T) {
	f := newFakeFetcher()
	f.delay = func(string) time.Duration { return time.Millisecond }

	var children []*entity.BookmarkNode
	for i := 0; i < 200; i++ {
		children = append(children, leaf(fmt.Sprintf("http://www.site%d.example/", i%10)))
		children = append(children, leaf(fmt.Sprintf("https://site%d.example#frag", i%10)))
	}

	results := analyze(t, f, 8, folder(children...))

	require.Len(t, results, 400)
	assert.Equal(t, 10, f.totalCalls())
	for url, n := range f.calls {
		assert.Equal(t, 1, n, url)
	}
	for i, r := range results {
		firstSeen := i%2 == 0 && i < 20
		assert.Equal(t, !firstSeen, r.Duplicate, "position %d", i)
	}
}

func TestAnalyze_RespectsConcurrencyLimit(t *testing.T) {
	f := newFakeFetcher()
	f.delay = func(string) time.Duration { return 5 * time.Millisecond }

	var children []*entity.BookmarkNode
	for i := 0; i < 30; i++ {
		children = append(children, leaf(fmt.Sprintf("https://site%d.example", i)))
	}

	analyze(t, f, 3, folder(children...))

	assert.LessOrEqual(t, f.maxInFlight.Load(), int32(3))
	assert.Equal(t, 30, f.totalCalls())
}

func TestAnalyze_SequentialWithConcurrencyOne(t *testing.T) {
	f := newFakeFetcher()
	f.delay = func(string) time.Duration { return time.Millisecond }
	root := folder(leaf("https://a.com"), leaf("https://b.com"), leaf("https://c.com"))

	analyze(t, f, 0, root)

	assert.Equal(t, int32(1), f.maxInFlight.Load())
}

func TestAnalyze_DeepTree(t *testing.T) {
	const depth = 100_000
	root := leaf("https://bottom.example")
	for i := 0; i < depth; i++ {
		root = folder(root)
	}

	results := analyze(t, newFakeFetcher(), 1, root)

	require.Len(t, results, 1)
	assert.Equal(t, "https://bottom.example", results[0].Bookmark.URL)
}

func TestAnalyze_Canceled(t *testing.T) {
	f := newFakeFetcher()
	f.delay = func(string) time.Duration { return time.Minute }

	var children []*entity.BookmarkNode
	for i := 0; i < 10; i++ {
		children = append(children, leaf(fmt.Sprintf("https://site%d.example", i)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	results, err := NewAnalyzer(f, 2, zap.NewNop()).Analyze(ctx, folder(children...), memory.NewSeenSet())

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, results)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestAnalyze_SeenSetFailure(t *testing.T) {
	_, err := NewAnalyzer(newFakeFetcher(), 1, zap.NewNop()).
		Analyze(context.Background(), folder(leaf("https://a.com")), failingSeenSet{err: errBackend})

	assert.ErrorIs(t, err, errBackend)
}

func TestAnalyze_MalformedURLsAreFetchedAsIs(t *testing.T) {
	f := newFakeFetcher()
	f.outcomes["javascript:void(0)"] = entity.Broken()
	root := folder(leaf("javascript:void(0)"), leaf("javascript:void(0)"), leaf("not a url"))

	results := analyze(t, f, 1, root)

	require.Len(t, results, 3)
	assert.True(t, results[0].IsBroken())
	assert.True(t, results[1].Duplicate)
	assert.False(t, results[2].Duplicate)
	assert.Equal(t, 1, f.calls["not a url"])
}
