package repository

import "context"

// SeenSet records the normalized URLs already encountered during one analysis run.
type SeenSet interface {
	// Add inserts key and reports whether it was absent before the call.
	// The check and the insert are a single atomic step.
	Add(ctx context.Context, key string) (bool, error)
	// Close releases the set. It is called once the run is over.
	Close(ctx context.Context) error
}

// SeenSetFactory creates a fresh, empty SeenSet scoped to one run.
type SeenSetFactory interface {
	NewSeenSet(ctx context.Context, runID string) (SeenSet, error)
}
