// Package cost implements the daily request/token/cost budget gate that
// guards a turn before it reaches the LLM provider. It has no analogue in
// the teacher repo's agent package; it is authored fresh in the teacher's
// metrics idiom (small struct, atomic counters plus a mutex-guarded
// accumulator, explicit Status snapshot method) following the shape of
// agent.ExecutorMetrics/ExecutorMetricsSnapshot.
package cost

import (
	"sync"
	"sync/atomic"
	"time"
)

// Limits bounds the daily budget. A zero value in any field means that
// dimension is unlimited, which is the default for local/no-cost LLM
// backends (e.g. the ollama or mock providers).
type Limits struct {
	MaxRequests int64
	MaxTokens   int64
	MaxCostUSD  float64
}

// DefaultLimits returns an unlimited budget, matching the spec's default
// for backends with no per-token cost.
func DefaultLimits() Limits {
	return Limits{}
}

// Tracker maintains atomic daily counters for requests and tokens, plus a
// mutex-guarded running cost total, and resets them at the next UTC
// midnight boundary.
type Tracker struct {
	limits Limits

	requests int64 // atomic
	tokens   int64 // atomic

	mu      sync.Mutex
	costUSD float64
	resetAt time.Time

	stop chan struct{}
	once sync.Once
}

// NewTracker creates a Tracker enforcing limits, with its daily window
// anchored to the current UTC day.
func NewTracker(limits Limits) *Tracker {
	t := &Tracker{
		limits:  limits,
		resetAt: nextUTCMidnight(time.Now().UTC()),
		stop:    make(chan struct{}),
	}
	go t.resetLoop()
	return t
}

func nextUTCMidnight(now time.Time) time.Time {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.AddDate(0, 0, 1)
}

// resetLoop sleeps until the next UTC midnight, resets the counters, and
// repeats. It exits when Close is called.
func (t *Tracker) resetLoop() {
	for {
		t.mu.Lock()
		d := time.Until(t.resetAt)
		t.mu.Unlock()
		if d < 0 {
			d = 0
		}
		timer := time.NewTimer(d)
		select {
		case <-timer.C:
			t.reset()
		case <-t.stop:
			timer.Stop()
			return
		}
	}
}

func (t *Tracker) reset() {
	atomic.StoreInt64(&t.requests, 0)
	atomic.StoreInt64(&t.tokens, 0)
	t.mu.Lock()
	t.costUSD = 0
	t.resetAt = nextUTCMidnight(time.Now())
	t.mu.Unlock()
}

// Close stops the tracker's reset goroutine. Safe to call more than once.
func (t *Tracker) Close() {
	t.once.Do(func() { close(t.stop) })
}

// CheckLimits reports whether a new turn may proceed given today's counters.
// A zero limit field is treated as unlimited. The reason string is a
// user-facing budget-exceeded message; it is empty when ok is true.
func (t *Tracker) CheckLimits() (ok bool, reason string) {
	if t.limits.MaxRequests > 0 && atomic.LoadInt64(&t.requests) >= t.limits.MaxRequests {
		return false, "daily request limit reached, please try again tomorrow"
	}
	if t.limits.MaxTokens > 0 && atomic.LoadInt64(&t.tokens) >= t.limits.MaxTokens {
		return false, "daily token budget exhausted, please try again tomorrow"
	}
	if t.limits.MaxCostUSD > 0 {
		t.mu.Lock()
		spent := t.costUSD
		t.mu.Unlock()
		if spent >= t.limits.MaxCostUSD {
			return false, "daily cost budget exhausted, please try again tomorrow"
		}
	}
	return true, ""
}

// Track records a completed turn's token usage and estimated cost against
// the daily counters. Call this after a successful provider call, not
// before — CheckLimits is the pre-flight gate.
func (t *Tracker) Track(tokens int, costUSD float64) {
	atomic.AddInt64(&t.requests, 1)
	if tokens > 0 {
		atomic.AddInt64(&t.tokens, int64(tokens))
	}
	if costUSD != 0 {
		t.mu.Lock()
		t.costUSD += costUSD
		t.mu.Unlock()
	}
}

// Status is a copy-safe snapshot of today's counters and configured limits.
type Status struct {
	Requests    int64
	Tokens      int64
	CostUSD     float64
	MaxRequests int64
	MaxTokens   int64
	MaxCostUSD  float64
	ResetAt     time.Time
}

// Status returns a snapshot of the tracker's current daily counters.
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Status{
		Requests:    atomic.LoadInt64(&t.requests),
		Tokens:      atomic.LoadInt64(&t.tokens),
		CostUSD:     t.costUSD,
		MaxRequests: t.limits.MaxRequests,
		MaxTokens:   t.limits.MaxTokens,
		MaxCostUSD:  t.limits.MaxCostUSD,
		ResetAt:     t.resetAt,
	}
}
