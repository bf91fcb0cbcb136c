/*
Package workers sizes and runs the worker pools used by the pipeline.

# Sizing

Count derives a worker count from GOMAXPROCS, which Go 1.19+ sets from the
container CPU limit, scaled by a multiplier and capped by a limit:

	n := workers.ForCPU(4) // thumbnail decoding, at most 4 workers

THUMB_WORKERS (OverrideEnv) pins the count, still capped by the limit. Fetch workers are not CPU
bound and default to DefaultFetchWorkers (3), overridable with
FETCH_WORKERS through the startup configuration.

# Pool

Pool is a fixed set of goroutines fed from an unbounded FIFO:

	pool := workers.NewPool(ctx, "fetch", 3)
	pool.Submit(func(ctx context.Context) { fetch(ctx, it) })
	...
	dropped := pool.Stop() // discard waiting tasks, join running ones

Submit never blocks the caller, so a single slow task cannot hold up the
goroutine that feeds the pool. Cancelling the context passed to NewPool is
the caller's way to make running tasks return early; Stop itself does not
cancel anything.
*/
package workers
