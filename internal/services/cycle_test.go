package services

import (
	"errors"
	"testing"
	"time"
)

func TestCycle_HappyPath(t *testing.T) {
	c := NewCycle("network")

	for _, s := range []CycleState{StateCollecting, StateAggregating, StatePersisting, StateDone} {
		if err := c.Advance(s); err != nil {
			t.Fatalf("Advance(%s) error = %v", s, err)
		}
	}

	if c.State() != StateDone || !c.Terminal() {
		t.Errorf("State() = %s, want done", c.State())
	}
	h := c.History()
	if len(h) != 4 || h[0].From != StateIdle || h[3].To != StateDone {
		t.Errorf("History() = %+v", h)
	}
}

func TestCycle_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name string
		path []CycleState
		next CycleState
	}{
		{"skip collecting", nil, StateAggregating},
		{"idle to done", nil, StateDone},
		{"backwards", []CycleState{StateCollecting, StateAggregating}, StateCollecting},
		{"after done", []CycleState{StateCollecting, StateAggregating, StatePersisting, StateDone}, StateFailed},
		{"after failed", []CycleState{StateFailed}, StateCollecting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCycle("network")
			for _, s := range tt.path {
				if err := c.Advance(s); err != nil {
					t.Fatalf("setup Advance(%s) error = %v", s, err)
				}
			}
			before := c.State()
			if err := c.Advance(tt.next); !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("Advance(%s) error = %v, want ErrInvalidTransition", tt.next, err)
			}
			if c.State() != before {
				t.Errorf("state changed on invalid transition: %s", c.State())
			}
		})
	}
}

func TestCycle_Fail(t *testing.T) {
	cause := errors.New("commit failed")
	c := NewCycle("metrics")
	_ = c.Advance(StateCollecting)
	_ = c.Advance(StateAggregating)
	_ = c.Advance(StatePersisting)

	if err := c.Fail(cause); err != nil {
		t.Fatalf("Fail() error = %v", err)
	}
	if c.State() != StateFailed || !errors.Is(c.Err(), cause) {
		t.Errorf("State() = %s, Err() = %v", c.State(), c.Err())
	}
	if err := c.Fail(cause); err == nil {
		t.Error("failing a terminal cycle should error")
	}
}

func TestCycle_Elapsed(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := newCycleWithClock("network", func() time.Time { return now })
	now = now.Add(3 * time.Second)

	if c.Elapsed() != 3*time.Second {
		t.Errorf("Elapsed() = %v, want 3s", c.Elapsed())
	}
}
