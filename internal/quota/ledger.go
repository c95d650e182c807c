package quota

import (
	"sync"
	"time"
)

// record is the per-caller counter. Its mutex serializes admission checks
// for one key only.
type record struct {
	mu            sync.Mutex
	count         int
	windowResetAt time.Time
}

// Ledger holds one quota record per caller key.
type Ledger struct {
	records sync.Map // string -> *record
	now     func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock replaces the time source. Used by tests to advance time.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// NewLedger creates an empty ledger.
func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Admit reports whether callerKey may make another request. A denied
// request does not increment the counter.
func (l *Ledger) Admit(callerKey string, limit int, window time.Duration) bool {
	v, _ := l.records.LoadOrStore(callerKey, &record{})
	rec := v.(*record)

	now := l.now()

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.windowResetAt.IsZero() || now.After(rec.windowResetAt) {
		rec.count = 0
		rec.windowResetAt = now.Add(window)
	}

	if rec.count >= limit {
		return false
	}
	rec.count++
	return true
}

// Usage returns the count and reset time for callerKey's current window.
// A caller that has never been seen returns zero values.
func (l *Ledger) Usage(callerKey string) (count int, windowResetAt time.Time) {
	v, ok := l.records.Load(callerKey)
	if !ok {
		return 0, time.Time{}
	}
	rec := v.(*record)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if l.now().After(rec.windowResetAt) {
		return 0, time.Time{}
	}
	return rec.count, rec.windowResetAt
}
