package monitor

import (
	"context"
	"sync"
)

type refreshResult struct {
	linkID string
	err    error
}

// runWorkers feeds ids to workerCount goroutines running fn and streams back one result per id
// that was dispatched. Dispatch stops once ctx is cancelled; the result channel is closed
// when every worker has exited.
func runWorkers(ctx context.Context, workerCount int, ids []string, fn func(context.Context, string) error) <-chan refreshResult {
	jobs := make(chan string)
	results := make(chan refreshResult, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Each worker exits when jobs is closed
			for id := range jobs {
				results <- refreshResult{linkID: id, err: fn(ctx, id)}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, id := range ids {
			select {
			case <-ctx.Done():
				return
			case jobs <- id:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}
