package worker

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"showtime-cards/pkg/logger"
)

// Pool runs independent jobs on a fixed number of goroutines.
type Pool struct {
	name        string
	workerCount int
}

// NewPool creates a pool. workerCount <= 0 is coerced to 1.
func NewPool(name string, workerCount int) *Pool {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &Pool{name: name, workerCount: workerCount}
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.workerCount
}

// Result is the outcome of one job. Index is the job's position in the input.
type Result[J any, R any] struct {
	Index    int
	Job      J
	Value    R
	Err      error
	WorkerID int
}

// Stats summarises a Run.
type Stats struct {
	Succeeded int
	Failed    int
}

// Run distributes jobs to the pool's workers and hands every result to
// handle. handle is only ever called from the goroutine that called Run, so it
// may write to state that is not safe for concurrent use. A panicking job is
// recovered and reported as that job's error.
func Run[J any, R any](ctx context.Context, p *Pool, jobs []J, fn func(context.Context, J) (R, error), handle func(Result[J, R])) Stats {
	var stats Stats
	if len(jobs) == 0 {
		return stats
	}

	type job struct {
		index int
		value J
	}

	// Create job channel
	jobChan := make(chan job, len(jobs))
	for i, j := range jobs {
		jobChan <- job{index: i, value: j}
	}
	close(jobChan)

	// Results channel to collect success/error from workers (no contention)
	resultsChan := make(chan Result[J, R], len(jobs))

	workers := p.workerCount
	if workers > len(jobs) {
		workers = len(jobs)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for j := range jobChan {
				res := Result[J, R]{Index: j.index, Job: j.value, WorkerID: workerID}
				if err := ctx.Err(); err != nil {
					res.Err = err
				} else {
					res.Value, res.Err = runJob(ctx, fn, j.value)
				}
				resultsChan <- res
			}
		}(i)
	}

	// Close results channel when all workers finish
	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	// Aggregate results on the calling goroutine
	for res := range resultsChan {
		if res.Err != nil {
			stats.Failed++
		} else {
			stats.Succeeded++
		}
		if handle != nil {
			handle(res)
		}
	}

	logger.WithField("pool", p.name).Debugf("Completed: %d successful, %d errors (total: %d)", stats.Succeeded, stats.Failed, len(jobs))
	return stats
}

func runJob[J any, R any](ctx context.Context, fn func(context.Context, J) (R, error), j J) (value R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v\n%s", r, debug.Stack())
		}
	}()
	return fn(ctx, j)
}
