// Package round tracks the bet-resolve-reset cycle shared by the ladder and race games.
package round

import (
	"time"

	"github.com/attaboy/faketoto/internal/domain"
)

// Phase is the position of a game within its round cycle.
type Phase int

const (
	Idle Phase = iota
	Running
	Resolved
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Resolved:
		return "resolved"
	}
	return "unknown"
}

// MarshalText renders the phase by name in JSON snapshots.
func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Cycle is the phase machine Idle → Running → Resolved → Idle.
// It is not safe for concurrent use; games guard it with their own lock.
type Cycle struct {
	mode      domain.Mode
	number    int
	phase     Phase
	startedAt time.Time
	resolved  bool
}

// NewCycle starts at round 1 in Idle.
func NewCycle(mode domain.Mode) *Cycle {
	return &Cycle{mode: mode, number: 1}
}

func (c *Cycle) Number() int          { return c.number }
func (c *Cycle) Phase() Phase         { return c.phase }
func (c *Cycle) StartedAt() time.Time { return c.startedAt }

// CheckIdle reports ROUND_IN_PROGRESS unless the cycle accepts a new bet.
func (c *Cycle) CheckIdle() error {
	if c.phase != Idle {
		return domain.ErrRoundInProgress(c.mode)
	}
	return nil
}

// Begin moves Idle → Running.
func (c *Cycle) Begin(now time.Time) error {
	if err := c.CheckIdle(); err != nil {
		return err
	}
	c.phase = Running
	c.startedAt = now
	c.resolved = false
	return nil
}

// Elapsed is the time since Begin, zero when idle.
func (c *Cycle) Elapsed(now time.Time) time.Duration {
	if c.phase == Idle {
		return 0
	}
	return now.Sub(c.startedAt)
}

// Resolve moves Running → Resolved. It returns true exactly once per round.
func (c *Cycle) Resolve() bool {
	if c.phase != Running || c.resolved {
		return false
	}
	c.resolved = true
	c.phase = Resolved
	return true
}

// Finish moves Resolved → Idle and advances the round number.
func (c *Cycle) Finish() bool {
	if c.phase != Resolved {
		return false
	}
	c.phase = Idle
	c.number++
	return true
}

// Cancel returns to Idle without resolving. Nothing already debited is reversed.
func (c *Cycle) Cancel() {
	c.phase = Idle
	c.resolved = false
}

// History keeps the most recent outcomes, newest first.
type History[T any] struct {
	limit int
	items []T
}

// NewHistory creates a history holding at most limit items.
func NewHistory[T any](limit int) *History[T] {
	return &History[T]{limit: limit}
}

// Push records an outcome, dropping the oldest beyond the limit.
func (h *History[T]) Push(v T) {
	h.items = append([]T{v}, h.items...)
	if len(h.items) > h.limit {
		h.items = h.items[:h.limit]
	}
}

// Items returns a copy of the history, newest first.
func (h *History[T]) Items() []T {
	out := make([]T, len(h.items))
	copy(out, h.items)
	return out
}

func (h *History[T]) Len() int { return len(h.items) }
