package repository

import (
	"context"

	"github.com/user/bookmark-service/internal/entity"
)

// MetadataFetcher defines the contract for retrieving a bookmarked page and
// extracting its metadata.
type MetadataFetcher interface {
	// Fetch never returns an error: every failure mode (network error,
	// non-2xx status, timeout, unparseable body) is reported as a broken
	// outcome.
	Fetch(ctx context.Context, url string) entity.FetchOutcome
}
