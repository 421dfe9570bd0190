// Package loop implements the control-flow state machine that drives event
// delivery: a runner that drains native and user events in a fixed order and
// blocks between iterations according to the current ControlFlow.
package loop

import "time"

type controlFlowKind int

const (
	controlFlowPoll controlFlowKind = iota
	controlFlowWait
	controlFlowWaitUntil
	controlFlowExit
)

// ControlFlow decides how the runner waits before the next iteration. Exit is
// absorbing: once set, every other setter is a no-op.
type ControlFlow struct {
	kind     controlFlowKind
	deadline time.Time
}

func (c *ControlFlow) SetPoll() {
	if c.kind == controlFlowExit {
		return
	}
	c.kind = controlFlowPoll
	c.deadline = time.Time{}
}

func (c *ControlFlow) SetWait() {
	if c.kind == controlFlowExit {
		return
	}
	c.kind = controlFlowWait
	c.deadline = time.Time{}
}

func (c *ControlFlow) SetWaitUntil(deadline time.Time) {
	if c.kind == controlFlowExit {
		return
	}
	c.kind = controlFlowWaitUntil
	c.deadline = deadline
}

func (c *ControlFlow) SetExit() {
	c.kind = controlFlowExit
	c.deadline = time.Time{}
}

func (c *ControlFlow) Exiting() bool {
	return c.kind == controlFlowExit
}

// WaitDeadline reports the WaitUntil deadline, if any.
func (c *ControlFlow) WaitDeadline() (time.Time, bool) {
	return c.deadline, c.kind == controlFlowWaitUntil
}
