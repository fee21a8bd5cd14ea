package engine

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"strategy-engine/services/dsl"
	"strategy-engine/services/marketdata"
)

// SweepJob is one independent run inside a parameter sweep.
type SweepJob struct {
	Name     string
	Strategy *dsl.Strategy
	Candles  []marketdata.Candle
	Config   RunConfig
}

// SweepResult pairs a job with its outcome.
type SweepResult struct {
	Name   string
	Result *Result
	Err    error
}

// RunSweep executes independent jobs in parallel over a worker pool. Each
// job owns an isolated run state; the only shared structure is the
// read-mostly indicator cache, which is safe under concurrent access.
// Results are returned in job order.
func (e *Engine) RunSweep(ctx context.Context, jobs []SweepJob, workers int) []SweepResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	e.logger.Info("starting sweep",
		zap.Int("jobs", len(jobs)),
		zap.Int("workers", workers),
	)

	jobChan := make(chan int, len(jobs))
	results := make([]SweepResult, len(jobs))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				job := jobs[idx]
				res, err := e.Run(ctx, job.Strategy, job.Candles, job.Config)
				results[idx] = SweepResult{Name: job.Name, Result: res, Err: err}
			}
		}()
	}
	for idx := range jobs {
		jobChan <- idx
	}
	close(jobChan)
	wg.Wait()

	return results
}
