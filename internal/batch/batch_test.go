package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunPreservesInputOrder(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}

	results := Run(context.Background(), items, 2, 0, func(ctx context.Context, item string) error {
		return nil
	})

	require.Len(t, results, 5)
	for i, r := range results {
		assert.Equal(t, items[i], r.Item)
		assert.NoError(t, r.Err)
	}
}

func TestRunCapturesErrorsPerItem(t *testing.T) {
	items := []int{1, 2, 3, 4}
	boom := errors.New("boom")

	results := Run(context.Background(), items, 2, 0, func(ctx context.Context, item int) error {
		if item%2 == 0 {
			return fmt.Errorf("item %d: %w", item, boom)
		}
		return nil
	})

	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, boom)
	assert.NoError(t, results[2].Err)
	assert.ErrorIs(t, results[3].Err, boom)
	assert.Equal(t, 2, Failed(results))
}

func TestRunGroupConcurrency(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6}

	var mu sync.Mutex
	var active, peak int

	Run(context.Background(), items, 3, 0, func(ctx context.Context, item int) error {
		mu.Lock()
		active++
		if active > peak {
			peak = active
		}
		mu.Unlock()

		time.Sleep(20 * time.Millisecond)

		mu.Lock()
		active--
		mu.Unlock()
		return nil
	})

	// Concurrency reaches the group size but never exceeds it.
	assert.Equal(t, 3, peak)
}

func TestRunDelayBetweenGroups(t *testing.T) {
	items := []int{1, 2, 3, 4}
	delay := 50 * time.Millisecond

	start := time.Now()
	Run(context.Background(), items, 2, delay, func(ctx context.Context, item int) error {
		return nil
	})
	elapsed := time.Since(start)

	// Two groups, one inter-group delay, none after the last.
	assert.GreaterOrEqual(t, elapsed, delay)
	assert.Less(t, elapsed, 2*delay)
}

func TestRunNoDelayAfterLastGroup(t *testing.T) {
	items := []int{1, 2}

	start := time.Now()
	Run(context.Background(), items, 2, 500*time.Millisecond, func(ctx context.Context, item int) error {
		return nil
	})

	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestRunCancellationMarksRemaining(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6}
	ctx, cancel := context.WithCancel(context.Background())

	var processed atomic.Int32
	results := Run(ctx, items, 2, time.Second, func(ctx context.Context, item int) error {
		processed.Add(1)
		if item == 2 {
			cancel()
		}
		return nil
	})

	// The first group ran; cancellation during the inter-group delay
	// marks everything after it.
	assert.Equal(t, int32(2), processed.Load())
	for i := 0; i < 2; i++ {
		assert.NoError(t, results[i].Err)
	}
	for i := 2; i < 6; i++ {
		assert.ErrorIs(t, results[i].Err, context.Canceled)
	}
}

func TestRunEmptyItems(t *testing.T) {
	results := Run(context.Background(), nil, 5, time.Second, func(ctx context.Context, item string) error {
		t.Fatal("worker must not run")
		return nil
	})
	assert.Empty(t, results)
}

func TestRunZeroSizeDefaultsToSequential(t *testing.T) {
	items := []int{1, 2, 3}

	var mu sync.Mutex
	var active, peak int

	results := Run(context.Background(), items, 0, 0, func(ctx context.Context, item int) error {
		mu.Lock()
		active++
		if active > peak {
			peak = active
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		active--
		mu.Unlock()
		return nil
	})

	assert.Len(t, results, 3)
	assert.Equal(t, 1, peak)
}
