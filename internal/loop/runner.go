package loop

import (
	"context"
	"errors"
	"time"

	"github.com/jezek/xgb/xproto"
)

// ErrPumpClosed is the fallback terminal error when the native event pump
// stops without reporting a cause.
var ErrPumpClosed = errors.New("native event pump closed")

// Handler is the application callback. It must not block for long periods and
// may mutate the ControlFlow to steer the next wait.
type Handler func(ev Event, cf *ControlFlow)

// Runner owns one iteration cycle: user events, then native-origin events,
// then the synthetic lifecycle events, then a wait governed by ControlFlow.
// Run executes on a single goroutine; the only cross-goroutine entry points
// are Proxy.SendEvent and RequestRedraw, which enqueue and wake but never
// touch any state the runner mutates.
type Runner struct {
	nativeC  <-chan any
	errC     <-chan error
	dispatch func(raw any)
	queue    *Queue

	userC   chan any
	redraws *redrawSet
	done    chan struct{}
}

func NewRunner(nativeC <-chan any, errC <-chan error, dispatch func(raw any), queue *Queue) *Runner {
	return &Runner{
		nativeC:  nativeC,
		errC:     errC,
		dispatch: dispatch,
		queue:    queue,
		userC:    make(chan any, 64),
		redraws:  newRedrawSet(),
		done:     make(chan struct{}),
	}
}

// Proxy returns a thread-safe handle for injecting user events.
func (r *Runner) Proxy() Proxy {
	return Proxy{userC: r.userC, done: r.done}
}

// RequestRedraw queues a RedrawRequested event for win and wakes the runner.
// Safe to call from any goroutine.
func (r *Runner) RequestRedraw(win xproto.Window) {
	r.redraws.request(win)
}

// terminalError resolves the pump's terminal error after nativeC closed.
func (r *Runner) terminalError() error {
	select {
	case err := <-r.errC:
		if err != nil {
			return err
		}
	default:
	}
	return ErrPumpClosed
}

// Run drives the loop until the callback sets Exit, the native connection
// dies, or ctx is cancelled. LoopDestroyed is delivered exactly once, right
// before returning.
func (r *Runner) Run(ctx context.Context, handler Handler) error {
	defer close(r.done)

	cf := &ControlFlow{}
	deliver := func(ev Event) {
		handler(ev, cf)
	}

	var backBuf []Event
	var pendingUser []any
	var runErr error

	deliver(NewEvents{Cause: StartInit{}})

	for {
		// Drain user-injected events first. They cannot create windows
		// synchronously, so no back-buffer swap is needed.
		for _, v := range pendingUser {
			deliver(UserEvent{Value: v})
		}
		pendingUser = pendingUser[:0]
		for {
			select {
			case v := <-r.userC:
				deliver(UserEvent{Value: v})
				continue
			default:
			}
			break
		}

		// Dispatch whatever the native pump has already produced, then swap
		// the accumulated normalized events out and deliver them in order.
		if !r.drainNative(&runErr) {
			break
		}
		events := r.queue.Swap(backBuf)
		for _, ev := range events {
			deliver(ev)
		}
		backBuf = events

		deliver(MainEventsCleared{})

		for _, win := range r.redraws.drain() {
			deliver(RedrawRequested{Window: win})
		}
		deliver(RedrawEventsCleared{})

		if cf.Exiting() {
			break
		}

		cause, ok := r.wait(ctx, cf, &pendingUser, &runErr)
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		deliver(NewEvents{Cause: cause})
	}

	deliver(LoopDestroyed{})
	return runErr
}

// drainNative dispatches all immediately available raw events. Returns false
// when the pump has terminated, with the terminal error stored in runErr.
func (r *Runner) drainNative(runErr *error) bool {
	for {
		select {
		case raw, ok := <-r.nativeC:
			if !ok {
				*runErr = r.terminalError()
				return false
			}
			r.dispatch(raw)
		default:
			return true
		}
	}
}

// wait blocks according to cf and reports the cause for the next NewEvents.
// Returns ok=false when the pump terminated.
func (r *Runner) wait(ctx context.Context, cf *ControlFlow, pendingUser *[]any, runErr *error) (StartCause, bool) {
	start := time.Now()

	switch cf.kind {
	case controlFlowWaitUntil:
		deadline := cf.deadline
		d := time.Until(deadline)
		if d <= 0 {
			// Deadline already passed: collapse to a zero-length wait.
			return StartResumeTimeReached{Start: start, RequestedResume: deadline}, true
		}
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case raw, ok := <-r.nativeC:
			if !ok {
				*runErr = r.terminalError()
				return nil, false
			}
			r.dispatch(raw)
			return StartWaitCancelled{Start: start, RequestedResume: &deadline}, true
		case v := <-r.userC:
			*pendingUser = append(*pendingUser, v)
			return StartWaitCancelled{Start: start, RequestedResume: &deadline}, true
		case <-r.redraws.wakeC:
			return StartWaitCancelled{Start: start, RequestedResume: &deadline}, true
		case <-timer.C:
			return StartResumeTimeReached{Start: start, RequestedResume: deadline}, true
		case <-ctx.Done():
			return StartWaitCancelled{Start: start, RequestedResume: &deadline}, true
		}

	case controlFlowWait:
		select {
		case raw, ok := <-r.nativeC:
			if !ok {
				*runErr = r.terminalError()
				return nil, false
			}
			r.dispatch(raw)
		case v := <-r.userC:
			*pendingUser = append(*pendingUser, v)
		case <-r.redraws.wakeC:
		case <-ctx.Done():
		}
		return StartWaitCancelled{Start: start}, true

	default:
		// Poll: zero-length wait.
		return StartPoll{}, true
	}
}
