// Package executor runs independent per-sample tasks with a concurrency
// ceiling.
//
// Tasks are partitioned into consecutive chunks of the ceiling's size; every
// task in a chunk runs concurrently and the whole chunk drains before the
// next one starts. This batch-barrier model costs tail latency when task
// durations are uneven, since one slow task idles the rest of its chunk's
// slots; a sliding window would reclaim them, at the price of tracking
// every in-flight task individually. The callers here issue short,
// similar-duration calls, so the barrier's simpler accounting wins.
package executor

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// RunBounded applies fn to every item with at most `concurrency` tasks in
// flight. Results are index-stable: out[i] is fn's result for items[i],
// regardless of completion order.
//
// fn must be total — it converts its own failures into an errored result
// value rather than panicking, so one bad item cannot starve its siblings.
//
// Cancellation is checked at chunk boundaries: chunks already completed keep
// their results, no further chunk starts, and the context error is returned
// alongside the partially filled result slice (unprocessed slots hold R's
// zero value).
func RunBounded[T, R any](ctx context.Context, items []T, fn func(context.Context, T) R, concurrency int) ([]R, error) {
	if concurrency <= 0 {
		concurrency = 1
	}

	results := make([]R, len(items))
	for start := 0; start < len(items); start += concurrency {
		if err := ctx.Err(); err != nil {
			log.Warn().
				Int("completed", start).
				Int("total", len(items)).
				Msg("Cancelled between chunks, keeping completed results")
			return results, err
		}

		end := start + concurrency
		if end > len(items) {
			end = len(items)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				results[idx] = fn(ctx, items[idx])
			}(i)
		}
		wg.Wait()

		log.Debug().
			Int("chunk_start", start).
			Int("chunk_end", end).
			Int("total", len(items)).
			Msg("Chunk complete")
	}
	return results, nil
}
