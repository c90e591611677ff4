package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiredStore_MarkFiredOnce(t *testing.T) {
	store := NewFiredStore()
	ctx := context.Background()

	first, err := store.MarkFired(ctx, "quiz:q1:start")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := store.MarkFired(ctx, "quiz:q1:start")
	require.NoError(t, err)
	assert.False(t, again, "second mark must report already fired")
}

func TestFiredStore_ClearRearms(t *testing.T) {
	store := NewFiredStore()
	ctx := context.Background()

	_, err := store.MarkFired(ctx, "quiz:q1:end")
	require.NoError(t, err)
	require.NoError(t, store.Clear(ctx, "quiz:q1:end"))

	first, err := store.MarkFired(ctx, "quiz:q1:end")
	require.NoError(t, err)
	assert.True(t, first, "cleared slot must fire again")
}

func TestFiredStore_SlotsAreIndependent(t *testing.T) {
	store := NewFiredStore()
	ctx := context.Background()

	_, err := store.MarkFired(ctx, "quiz:q1:start")
	require.NoError(t, err)

	first, err := store.MarkFired(ctx, "quiz:q1:end")
	require.NoError(t, err)
	assert.True(t, first)
}

func TestFiredStore_ConcurrentMarks(t *testing.T) {
	store := NewFiredStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	firsts := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			first, err := store.MarkFired(ctx, "live:lc1:start")
			require.NoError(t, err)
			if first {
				mu.Lock()
				firsts++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, firsts, "exactly one caller wins the slot")
}

func TestFiredStore_RespectsContext(t *testing.T) {
	store := NewFiredStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.MarkFired(ctx, "quiz:q1:start")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.Clear(ctx, "quiz:q1:start"), context.Canceled)
}
