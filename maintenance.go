package tagstash

import (
	"time"
)

// Pressure thresholds and the tightened sweep periods they select. Between
// sweeps the cache costs nothing; under heap pressure it pays for faster
// reclamation of expired entries.
const (
	pressureHigh   = 0.8
	pressureMedium = 0.6

	sweepIntervalHigh   = 15 * time.Second
	sweepIntervalMedium = 30 * time.Second
)

// intervalForPressure maps a heap-pressure sample to the next sweep period.
// Pressure only ever tightens the configured base interval, never relaxes it.
func intervalForPressure(pressure float64, ok bool, base time.Duration) time.Duration {
	if !ok {
		return base
	}

	interval := base
	switch {
	case pressure > pressureHigh:
		interval = sweepIntervalHigh
	case pressure > pressureMedium:
		interval = sweepIntervalMedium
	}
	if interval > base {
		return base
	}
	return interval
}

// sweepLoop drives the expiry sweep on an adaptive period until Destroy.
func (c *Cache[T]) sweepLoop() {
	defer c.wg.Done()

	interval := c.opts.cleanupInterval
	timer := c.opts.clock.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-timer.Chan():
			if removed := c.sweep(); removed > 0 {
				pressure, ok := c.rc.SamplePressure()
				interval = intervalForPressure(pressure, ok, c.opts.cleanupInterval)
				c.opts.logger.LogSweep(c.ctx, removed, interval.String())
			}
			timer.Reset(interval)
		}
	}
}

// sweep removes every expired entry and returns the count. Sweep removals
// count toward ExpiredCount and do not schedule persistence; the next
// mutation or periodic flush picks up the shrunken table.
func (c *Cache[T]) sweep() int {
	start := time.Now()

	c.mu.Lock()
	now := c.opts.clock.Now()
	var victims []string
	for key, e := range c.entries {
		if e.expired(now) {
			victims = append(victims, key)
		}
	}
	for _, key := range victims {
		c.removeLocked(key, removeExpired)
	}
	c.mu.Unlock()

	if len(victims) > 0 {
		c.opts.metrics.RecordSweep(len(victims), time.Since(start))
	}
	return len(victims)
}
