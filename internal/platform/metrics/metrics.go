// Package metrics keeps in-process request counters and merges in gauges
// reported by background components.
package metrics

import (
	"maps"
	"sync"
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	clientErrors    uint64
	rateLimited     uint64
	totalDurationMs uint64
	started         time.Time

	mu      sync.RWMutex
	sources map[string]func() map[string]any
}

func New() *Collector {
	return &Collector{started: time.Now(), sources: map[string]func() map[string]any{}}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	} else if status >= 400 {
		atomic.AddUint64(&c.clientErrors, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// AddSource registers a component whose counters are reported under name.
func (c *Collector) AddSource(name string, fn func() map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources[name] = fn
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	clientErrs := atomic.LoadUint64(&c.clientErrors)
	limited := atomic.LoadUint64(&c.rateLimited)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	out := map[string]any{
		"requestsTotal":     total,
		"errorsTotal":       errs,
		"clientErrorsTotal": clientErrs,
		"rateLimitedTotal":  limited,
		"avgDurationMs":     avg,
		"totalDurationMs":   totalMs,
		"uptimeSeconds":     int64(time.Since(c.started).Seconds()),
	}

	c.mu.RLock()
	sources := maps.Clone(c.sources)
	c.mu.RUnlock()
	for name, fn := range sources {
		out[name] = fn()
	}
	return out
}
