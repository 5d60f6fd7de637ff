// Package resource enforces the pipeline's memory budget and throttles
// artifact I/O.
//
// Go gives no recoverable out-of-memory signal, so the budget is enforced
// up front: the backend reserves its large allocations against the
// controller before making them, and a reservation that cannot be granted
// is the out-of-memory condition the orchestrator reports.
package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits. Zero values mean unlimited.
type Config struct {
	// MemoryLimitBytes is the hard budget for backend working memory.
	MemoryLimitBytes int64

	// IOLimitBytesPerSec caps artifact write throughput.
	IOLimitBytesPerSec int64
}

// Controller tracks and limits memory and I/O. A nil Controller is valid and
// enforces nothing.
type Controller struct {
	memSem    *semaphore.Weighted // nil if unlimited
	memUsed   atomic.Int64
	ioLimiter *rate.Limiter // nil if unlimited
}

// NewController creates a controller for the given limits.
func NewController(cfg Config) *Controller {
	c := &Controller{}
	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}
	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}
	return c
}

// ReserveMemory attempts to reserve bytes against the budget without
// blocking. It reports false when the reservation would exceed the budget;
// the build phases are strictly sequential, so waiting could never succeed.
func (c *Controller) ReserveMemory(bytes int64) bool {
	if c == nil || bytes <= 0 {
		return true
	}
	if c.memSem != nil && !c.memSem.TryAcquire(bytes) {
		return false
	}
	c.memUsed.Add(bytes)
	return true
}

// ReleaseMemory returns a reservation to the budget.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}
	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsed returns the currently reserved bytes.
func (c *Controller) MemoryUsed() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// AcquireIO blocks until n bytes of I/O allowance are available.
func (c *Controller) AcquireIO(ctx context.Context, n int) error {
	if c == nil || c.ioLimiter == nil || n <= 0 {
		return nil
	}
	burst := c.ioLimiter.Burst()
	for n > 0 {
		chunk := n
		if chunk > burst {
			chunk = burst
		}
		if err := c.ioLimiter.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}
