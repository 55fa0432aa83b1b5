/*
Package workers sizes and enforces concurrency for thumbnail generation.

# Sizing

Count uses runtime.GOMAXPROCS rather than runtime.NumCPU so that container CPU
limits are respected. On a pod limited to 2 CPUs running on a 64-core node:

	workers.ForMixed(8, 0) // 3

A positive override (the THUMBNAIL_WORKERS setting) replaces the computed
value, still capped by the limit:

	workers.ForMixed(8, 4)  // 4
	workers.ForMixed(8, 32) // 8

# Limiting

Limiter is a counting semaphore. Every cache miss that has to decode an image
or launch ffmpeg holds one slot for the duration of the work:

	lim := workers.NewLimiter(workers.ForMixed(8, 0), nil)
	if err := lim.Acquire(ctx); err != nil {
	    return err
	}
	defer lim.Release()

The optional callback passed to NewLimiter observes the busy slot count and is
used to drive a gauge.
*/
package workers
