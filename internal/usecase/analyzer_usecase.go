package usecase

import (
	"context"
	"fmt"

	"github.com/user/bookmark-service/internal/entity"
	"github.com/user/bookmark-service/internal/repository"
	"github.com/user/bookmark-service/pkg/metrics"
	"github.com/user/bookmark-service/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Analyzer walks a bookmark tree and produces one result per leaf.
type Analyzer interface {
	// Analyze returns results in depth-first, left-to-right leaf order. The
	// first leaf with a given normalized URL is fetched; later ones are
	// marked duplicate. Only cancellation and SeenSet failures are errors.
	Analyze(ctx context.Context, root *entity.BookmarkNode, seen repository.SeenSet) ([]entity.AnalysisResult, error)
}

type analyzerUseCase struct {
	fetcher     repository.MetadataFetcher
	concurrency int
	logger      *zap.Logger
}

// NewAnalyzer creates an analyzer running at most concurrency fetches at once.
func NewAnalyzer(fetcher repository.MetadataFetcher, concurrency int, logger *zap.Logger) Analyzer {
	return &analyzerUseCase{
		fetcher:     fetcher,
		concurrency: max(concurrency, 1),
		logger:      logger,
	}
}

func (uc *analyzerUseCase) Analyze(ctx context.Context, root *entity.BookmarkNode, seen repository.SeenSet) ([]entity.AnalysisResult, error) {
	leaves := collectLeaves(root)
	results := make([]entity.AnalysisResult, len(leaves))

	var g errgroup.Group
	g.SetLimit(uc.concurrency)

	// Classification stays sequential so the first leaf in traversal order
	// always wins the SeenSet; only the fetches fan out.
	for i, leaf := range leaves {
		if err := ctx.Err(); err != nil {
			_ = g.Wait()
			return nil, err
		}

		added, err := seen.Add(ctx, utils.NormalizeURL(leaf.URL))
		if err != nil {
			_ = g.Wait()
			return nil, fmt.Errorf("classify %q: %w", leaf.URL, err)
		}
		if !added {
			metrics.BookmarksClassifiedTotal.WithLabelValues("duplicate").Inc()
			uc.logger.Debug("duplicate bookmark", zap.String("url", leaf.URL), zap.Int("position", i))
			results[i] = entity.NewDuplicateResult(leaf)
			continue
		}

		metrics.BookmarksClassifiedTotal.WithLabelValues("unique").Inc()
		g.Go(func() error {
			results[i] = entity.NewEnrichedResult(leaf, uc.fetcher.Fetch(ctx, leaf.URL))
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// collectLeaves enumerates leaves depth-first, left to right, with an
// explicit stack so tree depth never grows the call stack.
func collectLeaves(root *entity.BookmarkNode) []*entity.BookmarkNode {
	var leaves []*entity.BookmarkNode
	stack := []*entity.BookmarkNode{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch n.Kind() {
		case entity.NodeLeaf:
			leaves = append(leaves, n)
		case entity.NodeFolder:
			for i := len(n.Children) - 1; i >= 0; i-- {
				stack = append(stack, n.Children[i])
			}
		}
	}
	return leaves
}
