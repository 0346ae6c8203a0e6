// Package guard provides a lightweight safety valve over the
// diff/broadcast loop: a static rate limiter (no auto-calculated
// capacity, no historical trend tracking — the "ResourceGuard" school of
// thought from the reference system's resource_guard.go, not its
// DynamicCapacityManager) plus best-effort CPU reporting for metrics.
package guard

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"golang.org/x/time/rate"
)

// ResourceGuard rate-limits broadcast ticks (host CPU sampling is the
// separate CPUPercent function). It never rejects a tick outright — ticks are already spaced by
// the broadcast interval — but it bounds bursts if that interval is ever
// shortened, and callers can observe how long a tick waited on the
// limiter.
type ResourceGuard struct {
	broadcastLimiter *rate.Limiter
}

// New builds a ResourceGuard allowing up to burst broadcast ticks
// immediately and ratePerSecond thereafter.
func New(ratePerSecond float64, burst int) *ResourceGuard {
	return &ResourceGuard{broadcastLimiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst)}
}

// WaitForBroadcast blocks until the limiter admits one more broadcast
// tick, or ctx is cancelled, returning how long the caller waited.
func (g *ResourceGuard) WaitForBroadcast(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := g.broadcastLimiter.Wait(ctx); err != nil {
		return time.Since(start), err
	}
	return time.Since(start), nil
}

// CPUPercent reports current host-wide CPU utilization (all cores
// combined, not only this process), best-effort;
// a measurement failure yields 0 rather than an error, since this is a
// diagnostic signal, not a correctness input.
func CPUPercent(ctx context.Context) float64 {
	percentages, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil || len(percentages) == 0 {
		return 0
	}
	return percentages[0]
}
