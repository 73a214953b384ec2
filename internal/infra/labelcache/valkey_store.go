package labelcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/emotion-api/internal/domain/emotion"
)

// ValkeyStore caches labels in a Valkey-compatible database so multiple
// service replicas share one cache.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "emotion"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

// GetLabel implements emotion.Store.
func (s *ValkeyStore) GetLabel(ctx context.Context, sentence string) (string, bool, error) {
	cmd := s.client.B().Get().Key(s.labelKey(sentence)).Build()
	label, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return label, true, nil
}

// SaveLabel caches the label with optional TTL.
func (s *ValkeyStore) SaveLabel(ctx context.Context, sentence, label string, ttl time.Duration) error {
	builder := s.client.B().Set().Key(s.labelKey(sentence)).Value(label)
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

// labelKey hashes the sentence so arbitrary user text never appears as a
// raw key.
func (s *ValkeyStore) labelKey(sentence string) string {
	digest := sha256.Sum256([]byte(sentence))
	return s.prefix + ":label:" + hex.EncodeToString(digest[:])
}

var _ emotion.Store = (*ValkeyStore)(nil)
