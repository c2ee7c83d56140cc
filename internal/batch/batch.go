// Package batch provides the throttling primitive used for outbound
// collection calls and notification fan-out: work runs in fixed-size
// groups with a pause between groups, keeping call rates inside
// provider quotas.
package batch

import (
	"context"
	"sync"
	"time"
)

// Result is the per-item outcome of a Run. Err is nil on success.
type Result[T any] struct {
	Item T
	Err  error
}

// Run partitions items into consecutive groups of at most size and
// processes each group's items concurrently via worker. The next group
// starts only after every outcome in the current group has landed,
// followed by a delay (skipped after the final group).
//
// Worker errors are captured per item and never abort the run. Results
// are returned in input order regardless of completion order. If ctx
// is cancelled, unprocessed items carry ctx.Err().
func Run[T any](ctx context.Context, items []T, size int, delay time.Duration, worker func(context.Context, T) error) []Result[T] {
	results := make([]Result[T], len(items))
	for i := range items {
		results[i].Item = items[i]
	}
	if len(items) == 0 {
		return results
	}
	if size <= 0 {
		size = 1
	}

	for start := 0; start < len(items); start += size {
		if err := ctx.Err(); err != nil {
			for i := start; i < len(items); i++ {
				results[i].Err = err
			}
			return results
		}

		end := start + size
		if end > len(items) {
			end = len(items)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i].Err = worker(ctx, items[i])
			}(i)
		}
		wg.Wait()

		// Throttle before the next group; nothing to wait for after the last.
		if end < len(items) && delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				for i := end; i < len(items); i++ {
					results[i].Err = ctx.Err()
				}
				return results
			case <-timer.C:
			}
		}
	}

	return results
}

// Failed counts the results carrying an error.
func Failed[T any](results []Result[T]) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
