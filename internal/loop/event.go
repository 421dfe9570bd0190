package loop

import (
	"time"

	"github.com/jezek/xgb/xproto"
)

// Event is a normalized event as seen by the application callback. Raw native
// errors never cross this boundary.
type Event interface {
	isEvent()
}

// StartCause explains why a NewEvents event was delivered.
type StartCause interface {
	isStartCause()
}

// StartInit is delivered once, before the first iteration.
type StartInit struct{}

// StartPoll is delivered when ControlFlow was Poll.
type StartPoll struct{}

// StartWaitCancelled is delivered when a wait ended because an event arrived
// before the requested resume time (if any).
type StartWaitCancelled struct {
	Start           time.Time
	RequestedResume *time.Time
}

// StartResumeTimeReached is delivered when a WaitUntil deadline expired with no
// event arriving first.
type StartResumeTimeReached struct {
	Start           time.Time
	RequestedResume time.Time
}

func (StartInit) isStartCause()              {}
func (StartPoll) isStartCause()              {}
func (StartWaitCancelled) isStartCause()     {}
func (StartResumeTimeReached) isStartCause() {}

type NewEvents struct {
	Cause StartCause
}

// WindowEventKind tags a WindowEvent.
type WindowEventKind int

const (
	WindowCreated WindowEventKind = iota
	WindowResized
	WindowMoved
	WindowTitleUpdated
	WindowIconUpdated
	WindowHintsUpdated
	WindowStateUpdated
	WindowDragBegan
	WindowDragEnded
	WindowDestroyed
)

func (k WindowEventKind) String() string {
	switch k {
	case WindowCreated:
		return "created"
	case WindowResized:
		return "resized"
	case WindowMoved:
		return "moved"
	case WindowTitleUpdated:
		return "title-updated"
	case WindowIconUpdated:
		return "icon-updated"
	case WindowHintsUpdated:
		return "hints-updated"
	case WindowStateUpdated:
		return "state-updated"
	case WindowDragBegan:
		return "drag-began"
	case WindowDragEnded:
		return "drag-ended"
	case WindowDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

type WindowEvent struct {
	Window xproto.Window
	Kind   WindowEventKind

	// Set for WindowResized.
	Width, Height uint32
	// Set for WindowMoved.
	X, Y int32
}

type UserEvent struct {
	Value any
}

type MainEventsCleared struct{}

type RedrawRequested struct {
	Window xproto.Window
}

type RedrawEventsCleared struct{}

type LoopDestroyed struct{}

func (NewEvents) isEvent()           {}
func (WindowEvent) isEvent()         {}
func (UserEvent) isEvent()           {}
func (MainEventsCleared) isEvent()   {}
func (RedrawRequested) isEvent()     {}
func (RedrawEventsCleared) isEvent() {}
func (LoopDestroyed) isEvent()       {}
