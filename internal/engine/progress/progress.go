// Package progress reports tile construction progress and carries cooperative cancellation.
package progress

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCanceled reports that work stopped early because cancellation was requested.
// It is a normal early exit, not a failure.
var ErrCanceled = errors.New("canceled")

// Progress is polled by long-running builders. Builders call IsCanceled
// between units of work and stop when it returns true.
type Progress interface {
	IsCanceled() bool
	SetStage(stage string)
	RecordStat(name string, d time.Duration)
}

// Canceled reports whether p requested cancellation. A nil p never cancels.
func Canceled(p Progress) bool {
	return p != nil && p.IsCanceled()
}

// Tracker is a Progress bound to a context. It also collects the stages it
// passed through and accumulated timing stats.
type Tracker struct {
	ctx context.Context

	mu     sync.Mutex
	stages []string
	stats  map[string]time.Duration
}

// NewTracker returns a tracker canceled when ctx is done.
func NewTracker(ctx context.Context) *Tracker {
	return &Tracker{
		ctx:   ctx,
		stats: make(map[string]time.Duration),
	}
}

// IsCanceled implements Progress.
func (t *Tracker) IsCanceled() bool {
	return t.ctx.Err() != nil
}

// SetStage implements Progress.
func (t *Tracker) SetStage(stage string) {
	t.mu.Lock()
	t.stages = append(t.stages, stage)
	t.mu.Unlock()
}

// RecordStat implements Progress. Durations for the same name accumulate.
func (t *Tracker) RecordStat(name string, d time.Duration) {
	t.mu.Lock()
	t.stats[name] += d
	t.mu.Unlock()
}

// Stages returns the stages reported so far, in order.
func (t *Tracker) Stages() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.stages...)
}

// Stats returns a copy of the accumulated stats.
func (t *Tracker) Stats() map[string]time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]time.Duration, len(t.stats))
	for k, v := range t.stats {
		out[k] = v
	}
	return out
}

// Countdown cancels after a fixed number of polls. It drives tests and
// benchmarks that need cancellation at a deterministic point.
type Countdown struct {
	mu    sync.Mutex
	polls int
	limit int
}

// NewCountdown returns a Progress that reports canceled from poll number limit+1 onwards.
func NewCountdown(limit int) *Countdown {
	return &Countdown{limit: limit}
}

// IsCanceled implements Progress.
func (c *Countdown) IsCanceled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.polls++
	return c.polls > c.limit
}

// Polls returns how many times IsCanceled was called.
func (c *Countdown) Polls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.polls
}

// SetStage implements Progress.
func (c *Countdown) SetStage(string) {}

// RecordStat implements Progress.
func (c *Countdown) RecordStat(string, time.Duration) {}

// WithContext returns a Progress that also reports canceled once ctx is done.
// A nil p yields a plain Tracker on ctx.
func WithContext(ctx context.Context, p Progress) Progress {
	if p == nil {
		return NewTracker(ctx)
	}
	return ctxProgress{ctx: ctx, Progress: p}
}

type ctxProgress struct {
	ctx context.Context
	Progress
}

func (c ctxProgress) IsCanceled() bool {
	return c.ctx.Err() != nil || c.Progress.IsCanceled()
}
