// Package batch fans work out over a bounded number of goroutines.
package batch

import (
	"context"
	"fmt"
	"sync"
)

// DefaultLimit is used when Run is given a non-positive limit.
const DefaultLimit = 6

// Result pairs an input item with what its worker produced.
type Result[T, R any] struct {
	Item  T
	Value R
	Err   error
}

// Run calls worker for every item with at most limit calls in flight.
// Results arrive in completion order. A failing or panicking worker only
// affects its own item; items still waiting when ctx is cancelled get ctx.Err().
func Run[T, R any](ctx context.Context, items []T, limit int, worker func(context.Context, T) (R, error)) []Result[T, R] {
	if limit <= 0 {
		limit = DefaultLimit
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, limit)
	resultsCh := make(chan Result[T, R], len(items))

	for _, item := range items {
		wg.Add(1)
		go func(it T) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
			case <-ctx.Done():
				resultsCh <- Result[T, R]{Item: it, Err: ctx.Err()}
				return
			}
			defer func() { <-semaphore }()

			resultsCh <- call(ctx, it, worker)
		}(item)
	}

	wg.Wait()
	close(resultsCh)

	results := make([]Result[T, R], 0, len(items))
	for r := range resultsCh {
		results = append(results, r)
	}
	return results
}

func call[T, R any](ctx context.Context, item T, worker func(context.Context, T) (R, error)) (res Result[T, R]) {
	res.Item = item
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("worker panic: %v", r)
		}
	}()
	res.Value, res.Err = worker(ctx, item)
	return res
}
