// Package resource provides process-level resource introspection for cache
// maintenance: heap-pressure sampling for the adaptive cleanup interval, and
// a background slot that keeps snapshot work single-flight.
package resource

import (
	"context"
	"math"
	"runtime"
	"runtime/debug"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Sampler reports memory pressure in [0, 1]. ok is false when the process
// offers no usable signal (e.g. no memory limit configured).
type Sampler func() (pressure float64, ok bool)

// HeapPressure is the default Sampler: used heap relative to the Go runtime's
// soft memory limit (GOMEMLIMIT / debug.SetMemoryLimit).
//
// When no limit is set the runtime reports math.MaxInt64 and there is nothing
// meaningful to divide by, so the sampler reports unavailable and the cleanup
// interval never adapts.
func HeapPressure() (float64, bool) {
	limit := debug.SetMemoryLimit(-1)
	if limit <= 0 || limit == math.MaxInt64 {
		return 0, false
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return float64(ms.HeapAlloc) / float64(limit), true
}

// Controller bundles the pressure sampler with its re-sampling rate limit
// and the background snapshot slot.
//
// All methods are safe on a nil receiver (no-ops / unavailable), mirroring
// how callers treat resource control as optional.
type Controller struct {
	sampler Sampler
	limiter *rate.Limiter
	bgSem   *semaphore.Weighted
}

// NewController creates a controller that consults sampler at most once per
// resampleEvery. A nil sampler falls back to HeapPressure.
func NewController(sampler Sampler, resampleEvery time.Duration) *Controller {
	if sampler == nil {
		sampler = HeapPressure
	}
	return &Controller{
		sampler: sampler,
		limiter: rate.NewLimiter(rate.Every(resampleEvery), 1),
		bgSem:   semaphore.NewWeighted(1),
	}
}

// SamplePressure returns the current memory pressure.
//
// ok is false when sampling is unavailable or the rate limit suppressed this
// sample; reading MemStats has a cost, so the limiter bounds it no matter how
// often sweeps run.
func (c *Controller) SamplePressure() (float64, bool) {
	if c == nil {
		return 0, false
	}
	if !c.limiter.Allow() {
		return 0, false
	}
	return c.sampler()
}

// TryAcquireBackground claims the single background snapshot slot.
// Returns false when a snapshot is already in flight.
func (c *Controller) TryAcquireBackground() bool {
	if c == nil {
		return true
	}
	return c.bgSem.TryAcquire(1)
}

// AcquireBackground blocks until the background snapshot slot is free or ctx
// is done. Used by synchronous flushes that must not be skipped.
func (c *Controller) AcquireBackground(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.bgSem.Acquire(ctx, 1)
}

// ReleaseBackground releases the background snapshot slot.
func (c *Controller) ReleaseBackground() {
	if c == nil {
		return
	}
	c.bgSem.Release(1)
}
