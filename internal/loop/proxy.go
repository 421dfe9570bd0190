package loop

import (
	"fmt"
	"sync"

	"github.com/jezek/xgb/xproto"
)

// ClosedError is returned by Proxy.SendEvent after the runner has terminated.
// It carries the undelivered value so the caller can recover it.
type ClosedError struct {
	Value any
}

func (e *ClosedError) Error() string {
	return fmt.Sprintf("event loop closed: undelivered event %v", e.Value)
}

// Proxy injects user events into the runner from any goroutine. Copies share
// the same channel, so handing one to each producer is cheap.
type Proxy struct {
	userC chan<- any
	done  <-chan struct{}
}

// SendEvent queues v for delivery on the next iteration and wakes the runner
// if it is blocked. After the runner has terminated it returns a *ClosedError
// wrapping v.
func (p Proxy) SendEvent(v any) error {
	select {
	case <-p.done:
		return &ClosedError{Value: v}
	default:
	}
	select {
	case p.userC <- v:
		return nil
	case <-p.done:
		return &ClosedError{Value: v}
	}
}

// redrawSet coalesces redraw requests per window and wakes a blocked runner.
type redrawSet struct {
	mu    sync.Mutex
	wins  []xproto.Window
	seen  map[xproto.Window]struct{}
	wakeC chan struct{}
}

func newRedrawSet() *redrawSet {
	return &redrawSet{
		seen:  make(map[xproto.Window]struct{}),
		wakeC: make(chan struct{}, 1),
	}
}

func (r *redrawSet) request(win xproto.Window) {
	r.mu.Lock()
	if _, ok := r.seen[win]; !ok {
		r.seen[win] = struct{}{}
		r.wins = append(r.wins, win)
	}
	r.mu.Unlock()

	select {
	case r.wakeC <- struct{}{}:
	default:
	}
}

// drain returns the requested windows in request order.
func (r *redrawSet) drain() []xproto.Window {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.wins) == 0 {
		return nil
	}
	wins := r.wins
	r.wins = nil
	r.seen = make(map[xproto.Window]struct{})
	return wins
}
