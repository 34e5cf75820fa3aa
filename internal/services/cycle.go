package services

import (
	"errors"
	"fmt"
	"time"
)

// CycleState is a phase of one collection cycle
type CycleState string

// Cycle states
const (
	StateIdle        CycleState = "idle"
	StateCollecting  CycleState = "collecting"
	StateAggregating CycleState = "aggregating"
	StatePersisting  CycleState = "persisting"
	StateDone        CycleState = "done"
	StateFailed      CycleState = "failed"
)

// ErrInvalidTransition is returned when a cycle is moved out of order
var ErrInvalidTransition = errors.New("invalid cycle transition")

var cycleTransitions = map[CycleState][]CycleState{
	StateIdle:        {StateCollecting, StateFailed},
	StateCollecting:  {StateAggregating, StateFailed},
	StateAggregating: {StatePersisting, StateFailed},
	StatePersisting:  {StateDone, StateFailed},
}

// Transition records one state change
type Transition struct {
	From CycleState
	To   CycleState
	At   time.Time
}

// Cycle tracks the state of one pipeline run
type Cycle struct {
	pipeline string
	state    CycleState
	started  time.Time
	history  []Transition
	err      error
	now      func() time.Time
}

// NewCycle starts an idle cycle of pipeline
func NewCycle(pipeline string) *Cycle {
	return newCycleWithClock(pipeline, time.Now)
}

func newCycleWithClock(pipeline string, now func() time.Time) *Cycle {
	return &Cycle{
		pipeline: pipeline,
		state:    StateIdle,
		started:  now(),
		now:      now,
	}
}

// Advance moves the cycle to the next state
func (c *Cycle) Advance(to CycleState) error {
	for _, allowed := range cycleTransitions[c.state] {
		if allowed == to {
			c.history = append(c.history, Transition{From: c.state, To: to, At: c.now()})
			c.state = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.state, to)
}

// Fail moves a running cycle to StateFailed and keeps err
func (c *Cycle) Fail(err error) error {
	if terr := c.Advance(StateFailed); terr != nil {
		return terr
	}
	c.err = err
	return nil
}

// State returns the current state
func (c *Cycle) State() CycleState { return c.state }

// Err returns the failure cause of a failed cycle
func (c *Cycle) Err() error { return c.err }

// History returns the transitions so far
func (c *Cycle) History() []Transition {
	return append([]Transition(nil), c.history...)
}

// Elapsed returns the time since the cycle started
func (c *Cycle) Elapsed() time.Duration {
	return c.now().Sub(c.started)
}

// Terminal reports whether the cycle reached done or failed
func (c *Cycle) Terminal() bool {
	return c.state == StateDone || c.state == StateFailed
}
