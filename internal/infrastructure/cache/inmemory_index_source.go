package cache

import (
	"context"
	"sync"

	appfinancing "github.com/loanbook/backend/internal/application/financing"
)

// InMemoryIndexSource implements IndexSource using an in-memory map.
// This is suitable for single-instance deployments and testing.
type InMemoryIndexSource struct {
	mu     sync.RWMutex
	latest map[string]appfinancing.IndexValue
}

// NewInMemoryIndexSource creates a new in-memory index source
func NewInMemoryIndexSource() *InMemoryIndexSource {
	return &InMemoryIndexSource{
		latest: make(map[string]appfinancing.IndexValue),
	}
}

// Latest returns the most recent stored value for an index code,
// or nil when no value has been stored yet
func (s *InMemoryIndexSource) Latest(ctx context.Context, code string) (*appfinancing.IndexValue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.latest[code]
	if !ok {
		return nil, nil
	}
	return &value, nil
}

// Store records an externally supplied index value, replacing any earlier
// value for the same code
func (s *InMemoryIndexSource) Store(ctx context.Context, value appfinancing.IndexValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest[value.Code] = value
	return nil
}

// Ensure InMemoryIndexSource implements IndexSource
var _ appfinancing.IndexSource = (*InMemoryIndexSource)(nil)
