package labelcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, hit, err := store.GetLabel(ctx, "i miss my dog")
	require.NoError(t, err)
	require.False(t, hit)

	require.NoError(t, store.SaveLabel(ctx, "i miss my dog", "sadness", time.Hour))

	label, hit, err := store.GetLabel(ctx, "i miss my dog")
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, "sadness", label)
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.SaveLabel(ctx, "hello", "joy", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, hit, err := store.GetLabel(ctx, "hello")
	require.NoError(t, err)
	require.False(t, hit)
}

func TestMemoryStoreZeroTTLNeverExpires(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.SaveLabel(ctx, "hello", "joy", 0))

	label, hit, err := store.GetLabel(ctx, "hello")
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, "joy", label)
}

func TestMemoryStoreOverwrite(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.SaveLabel(ctx, "hello", "joy", time.Hour))
	require.NoError(t, store.SaveLabel(ctx, "hello", "love", time.Hour))

	label, _, err := store.GetLabel(ctx, "hello")
	require.NoError(t, err)
	require.Equal(t, "love", label)
}
