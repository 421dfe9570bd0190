package xwm

import (
	"github.com/ItsNotGoodName/x-winloop/internal/xconn"
	"github.com/jezek/xgb/xproto"
)

// Monitor is one output rectangle in root coordinates.
type Monitor struct {
	X      int32 `json:"x"`
	Y      int32 `json:"y"`
	Width  int32 `json:"width"`
	Height int32 `json:"height"`
}

// Target is the loop-side handle passed to the application callback. It can
// create windows and enumerate monitors; it is only valid on the loop
// goroutine.
type Target struct {
	conn          Conn
	atoms         *xconn.Atoms
	store         *Store
	dispatcher    *Dispatcher
	requestRedraw func(xproto.Window)
}

// AvailableMonitors lists the connected monitors as of the last screen change.
func (t *Target) AvailableMonitors() []Monitor {
	crtcs := t.dispatcher.Monitors()
	monitors := make([]Monitor, len(crtcs))
	for i, crtc := range crtcs {
		monitors[i] = Monitor{X: crtc.X, Y: crtc.Y, Width: crtc.Width, Height: crtc.Height}
	}
	return monitors
}

// PrimaryMonitor returns the first monitor, if any.
func (t *Target) PrimaryMonitor() (Monitor, bool) {
	monitors := t.AvailableMonitors()
	if len(monitors) == 0 {
		return Monitor{}, false
	}
	return monitors[0], true
}

type CreateWindowOptions struct {
	Title   string
	X       int16
	Y       int16
	Width   uint16
	Height  uint16
	Visible bool
}

// CreateWindow registers a managed window and creates it on the server. The
// decoration parent appears once the server's create notification round-trips
// through the dispatcher.
func (t *Target) CreateWindow(opts CreateWindowOptions) (*Window, error) {
	id, err := t.conn.GenerateID()
	if err != nil {
		return nil, err
	}

	ws := &WindowState{
		ID:            id,
		Decorations:   true,
		Resizable:     true,
		CursorVisible: true,
		Requested: Geometry{
			X:      int32(opts.X),
			Y:      int32(opts.Y),
			Width:  uint32(opts.Width),
			Height: uint32(opts.Height),
		},
	}
	win := &Window{
		id:            id,
		conn:          t.conn,
		atoms:         t.atoms,
		store:         t.store,
		state:         ws,
		requestRedraw: t.requestRedraw,
		changedC:      make(chan struct{}, 1),
	}
	ws.upgrade = win.notify

	t.store.mu.Lock()
	t.store.insert(ws)
	t.store.changed()
	t.store.mu.Unlock()

	if err := t.conn.CreateWindow(id, t.conn.Root(),
		opts.X, opts.Y, opts.Width, opts.Height, 0, 0).Check(); err != nil {
		t.store.mu.Lock()
		t.store.remove(id)
		t.store.mu.Unlock()
		return nil, err
	}

	if opts.Title != "" {
		if err := win.SetTitle(opts.Title); err != nil {
			return nil, err
		}
	}
	if opts.Visible {
		if err := win.Show(); err != nil {
			return nil, err
		}
	}
	return win, nil
}
