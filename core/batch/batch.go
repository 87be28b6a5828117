package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrNoReplicates indicates a run request for fewer than one replicate
var ErrNoReplicates = errors.New("replicate count must be positive")

// Task generates one replicate. The seed is unique to the replicate and
// derived from the run's base seed.
type Task func(rep int, seed uint64) error

// Config drives runner construction
type Config struct {
	// Workers bounds concurrent replicates; values below one use the
	// number of CPUs
	Workers int

	// Logger receives structured progress output; nil uses slog.Default
	Logger *slog.Logger
}

// DefaultConfig returns a runner configuration sized to the host
func DefaultConfig() Config {
	return Config{Workers: runtime.NumCPU()}
}

// Runner fans replicate generation out over a bounded worker set
type Runner struct {
	workers int
	log     *slog.Logger

	completed atomic.Int64
	failed    atomic.Int64
}

// Stats reports replicate outcomes across all runs of a Runner
type Stats struct {
	Completed int64
	Failed    int64
}

// New creates a runner from cfg
func New(cfg Config) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Runner{workers: cfg.Workers, log: log}
}

// Stats returns the cumulative outcome counters
func (r *Runner) Stats() Stats {
	return Stats{
		Completed: r.completed.Load(),
		Failed:    r.failed.Load(),
	}
}

// Run executes task for replicates zero through replicates-1, seeding each
// with baseSeed plus its index. Every replicate runs even when an earlier
// one fails; the first failure is returned after the set drains. Context
// cancellation stops feeding new replicates and returns the context error.
func (r *Runner) Run(ctx context.Context, replicates int, baseSeed uint64, task Task) error {
	if replicates < 1 {
		return fmt.Errorf("replicates %d: %w", replicates, ErrNoReplicates)
	}

	workers := r.workers
	if workers > replicates {
		workers = replicates
	}
	r.log.Debug("running replicates",
		slog.Int("replicates", replicates),
		slog.Int("workers", workers),
		slog.Uint64("base_seed", baseSeed))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	jobs := make(chan int)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rep := range jobs {
				if ctx.Err() != nil {
					return
				}
				if err := task(rep, baseSeed+uint64(rep)); err != nil {
					r.failed.Add(1)
					mu.Lock()
					if firstErr == nil {
						firstErr = fmt.Errorf("replicate %d: %w", rep, err)
					}
					mu.Unlock()
					continue
				}
				r.completed.Add(1)
			}
		}()
	}

send:
	for rep := 0; rep < replicates; rep++ {
		select {
		case <-ctx.Done():
			break send
		case jobs <- rep:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	return firstErr
}
