package workpool

import (
	"context"
	"sync"
)

// DefaultWidth is the default number of concurrent workers for transfer paths.
const DefaultWidth = 5

// Result holds the outcome of one item processed by Map.
type Result[R any] struct {
	Index int
	Value R
	Err   error
}

// Map runs fn over items with at most width concurrent invocations and returns
// one Result per item, in input order. Unlike chunked dispatch, a free worker
// slot is refilled as soon as any item finishes, so throughput never drains to
// zero between chunks.
//
// Cancellation granularity is the single item: once ctx is done no further
// items are dispatched and the remaining ones are marked with ctx.Err(), but
// items already in flight run to completion or failure before Map returns.
// Each worker writes only its own result slot, so callers can assemble shared
// structures single-threaded from the returned slice without locking.
func Map[T, R any](ctx context.Context, width int, items []T, fn func(context.Context, T) (R, error)) []Result[R] {
	if width <= 0 {
		width = DefaultWidth
	}

	results := make([]Result[R], len(items))
	sem := make(chan struct{}, width)
	var wg sync.WaitGroup

	for i := range items {
		if err := ctx.Err(); err != nil {
			for j := i; j < len(items); j++ {
				results[j] = Result[R]{Index: j, Err: err}
			}
			break
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			value, err := fn(ctx, items[idx])
			results[idx] = Result[R]{Index: idx, Value: value, Err: err}
		}(i)
	}

	wg.Wait()
	return results
}
