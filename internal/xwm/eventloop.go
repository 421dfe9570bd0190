package xwm

import (
	"context"

	"github.com/ItsNotGoodName/x-winloop/internal/loop"
	"github.com/ItsNotGoodName/x-winloop/internal/xconn"
)

type Options struct {
	Rules []Rule
	Debug bool
}

// Handler is the application callback, invoked on the loop goroutine for every
// lifecycle and window event.
type Handler func(ev loop.Event, target *Target, cf *loop.ControlFlow)

// EventLoop assembles the connection pump, the dispatcher and the runner.
type EventLoop struct {
	conn   *xconn.Connection
	store  *Store
	queue  *loop.Queue
	runner *loop.Runner
	target *Target

	eventC chan any
	errC   chan error
}

// New claims window management on conn's screen and prepares the loop.
func New(conn *xconn.Connection, opts Options) (*EventLoop, error) {
	store := NewStore()
	queue := loop.NewQueue()
	dispatcher := NewDispatcher(conn, conn.Atoms, store, queue, opts.Rules, opts.Debug)

	if err := dispatcher.Bootstrap(); err != nil {
		return nil, err
	}

	eventC := make(chan any, 256)
	errC := make(chan error, 1)
	runner := loop.NewRunner(eventC, errC, dispatcher.Dispatch, queue)

	target := &Target{
		conn:          conn,
		atoms:         conn.Atoms,
		store:         store,
		dispatcher:    dispatcher,
		requestRedraw: runner.RequestRedraw,
	}

	return &EventLoop{
		conn:   conn,
		store:  store,
		queue:  queue,
		runner: runner,
		target: target,
		eventC: eventC,
		errC:   errC,
	}, nil
}

// Store exposes the window-state store for introspection.
func (el *EventLoop) Store() *Store {
	return el.store
}

// Proxy returns a thread-safe handle for injecting user events into the loop.
func (el *EventLoop) Proxy() loop.Proxy {
	return el.runner.Proxy()
}

// Run pumps native events and drives the loop until the handler exits, the
// connection dies, or ctx is cancelled.
func (el *EventLoop) Run(ctx context.Context, handler Handler) error {
	go el.conn.ReceiveEvents(ctx, el.eventC, el.errC)
	go el.store.PublishChanges(ctx)
	return el.runner.Run(ctx, func(ev loop.Event, cf *loop.ControlFlow) {
		handler(ev, el.target, cf)
	})
}
