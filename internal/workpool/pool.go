// Package workpool provides a bounded pool for fanning out short, independent
// tasks (OCR bands, image crops) while keeping their results in input order.
package workpool

import (
	"context"
	"runtime"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Config configures a Pool.
type Config struct {
	Size   int
	Logger *zap.Logger
}

// Pool limits how many tasks run at once across every caller sharing it.
// A single Pool is safe for concurrent use.
type Pool struct {
	size   int
	sem    *semaphore.Weighted
	logger *zap.SugaredLogger

	inflight atomic.Int64
	// observe is called with the number of in-flight tasks after each change.
	observe func(inFlight float64)
}

// New creates a pool. A non-positive size defaults to runtime.NumCPU().
func New(cfg Config) *Pool {
	if cfg.Size <= 0 {
		cfg.Size = runtime.NumCPU()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Pool{
		size:   cfg.Size,
		sem:    semaphore.NewWeighted(int64(cfg.Size)),
		logger: cfg.Logger.Sugar(),
	}
}

// Size returns the maximum number of concurrent tasks.
func (p *Pool) Size() int {
	return p.size
}

// OnInFlight registers a gauge-style callback for the in-flight count.
// Must be called before the pool is shared.
func (p *Pool) OnInFlight(fn func(float64)) {
	p.observe = fn
}

// Map runs fn for every index in [0, n) with at most Size tasks in flight.
// fn must write its result into an index-addressed slot owned by the caller;
// completion order is not preserved otherwise.
// The first error cancels the remaining tasks and is returned.
func (p *Pool) Map(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		err := ctx.Err()
		if err == nil {
			err = p.sem.Acquire(ctx, 1)
		}
		if err != nil {
			// A failed task cancels ctx; report its error rather than the cancellation.
			if werr := g.Wait(); werr != nil {
				return werr
			}
			return err
		}
		p.track(1)
		g.Go(func() error {
			defer func() {
				p.track(-1)
				p.sem.Release(1)
			}()
			return fn(ctx, i)
		})
	}
	err := g.Wait()
	if err != nil {
		p.logger.Debugw("pool batch failed", "tasks", n, "error", err)
	}
	return err
}

func (p *Pool) track(delta int64) {
	if p.observe == nil {
		return
	}
	p.inflight.Add(delta)
	p.observe(float64(p.inflight.Load()))
}
