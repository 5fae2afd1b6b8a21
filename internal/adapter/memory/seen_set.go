package memory

import (
	"context"
	"sync"

	"github.com/user/bookmark-service/internal/repository"
)

// SeenSet is a mutex-guarded in-process SeenSet.
type SeenSet struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

var _ repository.SeenSet = (*SeenSet)(nil)

func NewSeenSet() *SeenSet {
	return &SeenSet{keys: make(map[string]struct{})}
}

func (s *SeenSet) Add(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key]; ok {
		return false, nil
	}
	s.keys[key] = struct{}{}
	return true, nil
}

func (s *SeenSet) Close(context.Context) error {
	s.mu.Lock()
	s.keys = make(map[string]struct{})
	s.mu.Unlock()
	return nil
}

// SeenSetFactory creates a fresh in-memory set for every run.
type SeenSetFactory struct{}

func (SeenSetFactory) NewSeenSet(context.Context, string) (repository.SeenSet, error) {
	return NewSeenSet(), nil
}
