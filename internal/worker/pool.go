package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

// Pool executes a fixed set of jobs on a bounded number of workers
type Pool struct {
	workers int
	ctx     context.Context
}

// NewPool creates a new worker pool with the specified number of workers.
// Cancelling parent stops workers from picking up further jobs.
func NewPool(parent context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{workers: workers, ctx: parent}
}

// Run executes every job and returns once all workers have exited. results[i]
// belongs to jobs[i]; it is nil when the job never started because the
// parent context was cancelled.
func (p *Pool) Run(jobs []Job) []Result {
	results := make([]Result, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	queue := make(chan int)
	var wg sync.WaitGroup

	workers := p.workers
	if workers > len(jobs) {
		workers = len(jobs)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range queue {
				// each index is owned by exactly one worker
				results[i] = jobs[i].Execute(p.ctx)
			}
		}()
	}

feed:
	for i := range jobs {
		select {
		case <-p.ctx.Done():
			break feed
		case queue <- i:
		}
	}
	close(queue)
	wg.Wait()

	return results
}
