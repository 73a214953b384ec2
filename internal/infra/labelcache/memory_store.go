package labelcache

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/emotion-api/internal/domain/emotion"
)

type cachedLabel struct {
	label     string
	expiresAt time.Time
}

// MemoryStore is an in-memory implementation of the label cache for
// tests/dev and as the fallback when Valkey is unavailable.
type MemoryStore struct {
	mu     sync.RWMutex
	labels map[string]cachedLabel
}

// NewMemoryStore constructs a store backed by process memory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{labels: make(map[string]cachedLabel)}
}

// GetLabel implements emotion.Store.
func (s *MemoryStore) GetLabel(_ context.Context, sentence string) (string, bool, error) {
	s.mu.RLock()
	record, ok := s.labels[sentence]
	s.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if hasExpired(record.expiresAt) {
		s.mu.Lock()
		delete(s.labels, sentence)
		s.mu.Unlock()
		return "", false, nil
	}
	return record.label, true, nil
}

// SaveLabel caches the label with optional TTL.
func (s *MemoryStore) SaveLabel(_ context.Context, sentence, label string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp := time.Time{}
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	s.labels[sentence] = cachedLabel{label: label, expiresAt: exp}
	return nil
}

func hasExpired(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return ts.Before(time.Now())
}

var _ emotion.Store = (*MemoryStore)(nil)
