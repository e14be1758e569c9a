// Package pool provides the bounded-concurrency primitive tree operations
// use to throttle their fan-out over directory children.
package pool

import (
	"context"
	"sync"
	"sync/atomic"
)

// Task is one zero-argument unit of deferred work.
type Task func(ctx context.Context) error

// Result pairs a task's position in the input sequence with its outcome.
type Result struct {
	Index int
	Err   error
}

// Run drains tasks with at most limit in flight. It spawns
// min(limit, len(tasks)) workers; each worker repeatedly claims the next
// unclaimed task through a shared index cursor and awaits it before claiming
// another. A task's failure never stops other workers from claiming
// subsequent tasks; all outcomes are settled and returned in input order.
// Zero tasks returns immediately with no workers spawned.
func Run(ctx context.Context, limit int, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}
	if limit < 1 {
		limit = 1
	}
	if limit > len(tasks) {
		limit = len(tasks)
	}

	results := make([]Result, len(tasks))
	var cursor atomic.Int64

	var wg sync.WaitGroup
	wg.Add(limit)
	for range limit {
		go func() {
			defer wg.Done()
			for {
				i := int(cursor.Add(1)) - 1
				if i >= len(tasks) {
					return
				}
				results[i] = Result{Index: i, Err: tasks[i](ctx)}
			}
		}()
	}
	wg.Wait()

	return results
}

// Failed filters results down to the ones that carry an error.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}
