// Package workpool runs independent, self-timed tasks with bounded fan-out.
//
// Each call owns its own pool: nothing is shared between concurrent calls, so
// several discoveries or scans can run side by side. Results are gathered in
// completion order; callers that need a stable order sort afterwards.
package workpool

import (
	"context"
	"fmt"

	syncutil "github.com/projectdiscovery/utils/sync"
)

// Map calls fn for every item with at most size calls in flight and returns
// one result per item in completion order.
//
// Tasks are expected to bound themselves with their own timeouts. A cancelled
// context does not skip items; it is passed through so each task can fail
// fast and still report a result.
func Map[T, R any](ctx context.Context, size int, items []T, fn func(context.Context, T) R) ([]R, error) {
	if len(items) == 0 {
		return []R{}, nil
	}
	if size <= 0 {
		size = 1
	}
	if size > len(items) {
		size = len(items)
	}

	awg, err := syncutil.New(syncutil.WithSize(size))
	if err != nil {
		return nil, fmt.Errorf("failed to create adaptive waitgroup: %w", err)
	}

	results := make(chan R, len(items))
	for _, item := range items {
		awg.Add()
		go func(item T) {
			defer awg.Done()
			results <- fn(ctx, item)
		}(item)
	}
	awg.Wait()
	close(results)

	collected := make([]R, 0, len(items))
	for result := range results {
		collected = append(collected, result)
	}
	return collected, nil
}

// Each is Map for tasks that report through side effects only
func Each[T any](ctx context.Context, size int, items []T, fn func(context.Context, T)) error {
	_, err := Map(ctx, size, items, func(ctx context.Context, item T) struct{} {
		fn(ctx, item)
		return struct{}{}
	})
	return err
}
