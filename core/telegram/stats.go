package telegram

import (
	"context"
	"sync"
)

type statsKey struct{}

// Stats counts the outbound effects of one handled event for the summary log line.
type Stats struct {
	mu       sync.Mutex
	messages int
	keyboard bool
	calls    int
	failures int
	outcome  string
}

// WithStats attaches a fresh Stats to ctx.
func WithStats(ctx context.Context) (context.Context, *Stats) {
	s := &Stats{}
	return context.WithValue(ctx, statsKey{}, s), s
}

// StatsFrom returns the Stats attached to ctx, or nil.
func StatsFrom(ctx context.Context) *Stats {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(statsKey{}).(*Stats)
	return s
}

// Call records one outbound API call. Delivered messages and keyboards are counted on success.
func (s *Stats) Call(message, keyboard bool, err error) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if err != nil {
		s.failures++
		return
	}
	if message {
		s.messages++
	}
	if keyboard {
		s.keyboard = true
	}
}

// SetOutcome overrides the outcome reported in the summary line (e.g. "noop", "guarded").
func (s *Stats) SetOutcome(outcome string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.outcome = outcome
	s.mu.Unlock()
}

// Snapshot returns the current counters.
func (s *Stats) Snapshot() (messages int, keyboard bool, calls, failures int, outcome string) {
	if s == nil {
		return 0, false, 0, 0, ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages, s.keyboard, s.calls, s.failures, s.outcome
}

// MarkOutcome sets the outcome on the Stats attached to ctx, if any.
func MarkOutcome(ctx context.Context, outcome string) {
	StatsFrom(ctx).SetOutcome(outcome)
}
