package emotion

import (
	"context"
	"time"
)

// Store caches resolved labels keyed by the exact sentence. Implementations
// must be safe for concurrent use; they hold no per-call state.
type Store interface {
	GetLabel(ctx context.Context, sentence string) (string, bool, error)
	SaveLabel(ctx context.Context, sentence, label string, ttl time.Duration) error
}
