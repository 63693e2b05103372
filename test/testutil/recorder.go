package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/no0law1/kafka-prioritization/types"
)

// Consumed is one record seen by a TierRecorder.
type Consumed struct {
	Record types.Record
	At     time.Time
}

// TierRecorder is a handler that records consumed records per tier. An
// optional per-tier delay simulates slow processing.
type TierRecorder struct {
	mu     sync.Mutex
	seen   map[types.Priority][]Consumed
	delays map[types.Priority]time.Duration
}

// NewTierRecorder creates a recorder. delays may be nil.
func NewTierRecorder(delays map[types.Priority]time.Duration) *TierRecorder {
	return &TierRecorder{
		seen:   make(map[types.Priority][]Consumed),
		delays: delays,
	}
}

// Handle records rec under its tier after the configured delay.
func (r *TierRecorder) Handle(ctx context.Context, rec types.Record) error {
	if d := r.delays[rec.Priority]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen[rec.Priority] = append(r.seen[rec.Priority], Consumed{Record: rec, At: time.Now()})

	return nil
}

// Count returns how many records tier p consumed.
func (r *TierRecorder) Count(p types.Priority) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.seen[p])
}

// Snapshot returns a copy of the records tier p consumed, in order.
func (r *TierRecorder) Snapshot(p types.Priority) []Consumed {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Consumed, len(r.seen[p]))
	copy(out, r.seen[p])

	return out
}
