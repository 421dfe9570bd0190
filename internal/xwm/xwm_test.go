package xwm

import (
	"testing"

	"github.com/ItsNotGoodName/x-winloop/internal/loop"
	"github.com/ItsNotGoodName/x-winloop/internal/xconn"
	"github.com/jezek/xgb/xproto"
)

type fakeCookie struct{ err error }

func (c fakeCookie) Check() error { return c.err }

type createCall struct {
	win, parent   xproto.Window
	x, y          int16
	width, height uint16
	border        uint16
	eventMask     uint32
}

type configureCall struct {
	win    xproto.Window
	mask   uint16
	values []uint32
}

type propertyWrite struct {
	win      xproto.Window
	property xproto.Atom
	typ      xproto.Atom
	format   byte
	data     []byte
}

type clientMessage struct {
	ev   xproto.ClientMessageEvent
	dest xproto.Window
	mask uint32
}

// fakeConn records every request and serves properties from a map, standing in
// for the X server in dispatcher tests.
type fakeConn struct {
	root   xproto.Window
	nextID xproto.Window

	props     map[xproto.Window]map[xproto.Atom]xconn.Prop
	atomNames map[xproto.Atom]string
	crtcs     []xconn.Crtc

	created         []createCall
	reparented      map[xproto.Window]xproto.Window
	selected        map[xproto.Window]uint32
	configures      []configureCall
	asyncConfigures []configureCall
	mapped          []xproto.Window
	unmapped        []xproto.Window
	destroyed       []xproto.Window
	synthetics      []xproto.ConfigureNotifyEvent
	messages        []clientMessage
	propWrites      []propertyWrite

	grabCount      int
	grabErr        error
	ungrabCount    int
	ungrabErr      error
	pointerX       int16
	pointerY       int16
	cursors        map[xproto.Window]bool
	screenSelected bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		root:       1,
		nextID:     1000,
		props:      make(map[xproto.Window]map[xproto.Atom]xconn.Prop),
		atomNames:  make(map[xproto.Atom]string),
		crtcs:      []xconn.Crtc{{X: 0, Y: 0, Width: 1920, Height: 1080}},
		reparented: make(map[xproto.Window]xproto.Window),
		selected:   make(map[xproto.Window]uint32),
		cursors:    make(map[xproto.Window]bool),
	}
}

func (c *fakeConn) setProp(win xproto.Window, atom xproto.Atom, format byte, value []byte) {
	if c.props[win] == nil {
		c.props[win] = make(map[xproto.Atom]xconn.Prop)
	}
	c.props[win][atom] = xconn.Prop{Value: value, Format: format}
}

func (c *fakeConn) Root() xproto.Window { return c.root }

func (c *fakeConn) GenerateID() (xproto.Window, error) {
	c.nextID++
	return c.nextID, nil
}

func (c *fakeConn) CreateWindow(win, parent xproto.Window, x, y int16, width, height, border uint16, eventMask uint32) xconn.Cookie {
	c.created = append(c.created, createCall{win, parent, x, y, width, height, border, eventMask})
	return fakeCookie{}
}

func (c *fakeConn) ReparentWindow(win, parent xproto.Window, x, y int16) xconn.Cookie {
	c.reparented[win] = parent
	return fakeCookie{}
}

func (c *fakeConn) SelectInput(win xproto.Window, eventMask uint32) xconn.Cookie {
	c.selected[win] = eventMask
	return fakeCookie{}
}

func (c *fakeConn) ConfigureWindow(win xproto.Window, valueMask uint16, values []uint32) xconn.Cookie {
	c.configures = append(c.configures, configureCall{win, valueMask, values})
	return fakeCookie{}
}

func (c *fakeConn) ConfigureWindowAsync(win xproto.Window, valueMask uint16, values []uint32) {
	c.asyncConfigures = append(c.asyncConfigures, configureCall{win, valueMask, values})
}

func (c *fakeConn) MapWindow(win xproto.Window) xconn.Cookie {
	c.mapped = append(c.mapped, win)
	return fakeCookie{}
}

func (c *fakeConn) UnmapWindow(win xproto.Window) {
	c.unmapped = append(c.unmapped, win)
}

func (c *fakeConn) DestroyWindow(win xproto.Window) xconn.Cookie {
	c.destroyed = append(c.destroyed, win)
	return fakeCookie{}
}

func (c *fakeConn) SendConfigureNotify(win xproto.Window, ev xproto.ConfigureNotifyEvent) xconn.Cookie {
	c.synthetics = append(c.synthetics, ev)
	return fakeCookie{}
}

func (c *fakeConn) SendClientMessage(ev xproto.ClientMessageEvent, dest xproto.Window, eventMask uint32) xconn.Cookie {
	c.messages = append(c.messages, clientMessage{ev, dest, eventMask})
	return fakeCookie{}
}

func (c *fakeConn) GrabPointer(grabWindow xproto.Window, eventMask uint16) error {
	if c.grabErr != nil {
		return c.grabErr
	}
	c.grabCount++
	return nil
}

func (c *fakeConn) UngrabPointer() xconn.Cookie {
	c.ungrabCount++
	return fakeCookie{err: c.ungrabErr}
}

func (c *fakeConn) QueryPointer() (int16, int16, error) {
	return c.pointerX, c.pointerY, nil
}

func (c *fakeConn) SetCursor(win xproto.Window, visible bool) error {
	c.cursors[win] = visible
	return nil
}

func (c *fakeConn) ChangeProperty(win xproto.Window, property, typ xproto.Atom, format byte, data []byte) xconn.Cookie {
	c.propWrites = append(c.propWrites, propertyWrite{win, property, typ, format, append([]byte(nil), data...)})
	return fakeCookie{}
}

func (c *fakeConn) GetProperty(win xproto.Window, property, typ xproto.Atom) (xconn.Prop, error) {
	return c.props[win][property], nil
}

func (c *fakeConn) AtomName(atom xproto.Atom) (string, error) {
	if name, ok := c.atomNames[atom]; ok {
		return name, nil
	}
	return "UNKNOWN", nil
}

func (c *fakeConn) SelectScreenChanges() error {
	c.screenSelected = true
	return nil
}

func (c *fakeConn) Crtcs() ([]xconn.Crtc, error) {
	return c.crtcs, nil
}

func testAtoms() *xconn.Atoms {
	return &xconn.Atoms{
		NetSupported:            101,
		NetClientList:           102,
		NetSupportingWmCheck:    103,
		NetWmName:               104,
		NetWmIcon:               105,
		NetWmState:              106,
		NetWmStateFullscreen:    107,
		NetWmStateAbove:         108,
		NetWmStateMaximizedVert: 109,
		NetWmStateMaximizedHorz: 110,
		NetWmMoveresize:         111,
		NetWmPing:               112,
		WmProtocols:             113,
		WmDeleteWindow:          114,
		WmChangeState:           115,
		WmState:                 116,
		MotifWmHints:            117,
		Utf8String:              118,
	}
}

type fixture struct {
	conn       *fakeConn
	atoms      *xconn.Atoms
	store      *Store
	queue      *loop.Queue
	dispatcher *Dispatcher
}

func newFixture(rules ...Rule) *fixture {
	conn := newFakeConn()
	atoms := testAtoms()
	store := NewStore()
	queue := loop.NewQueue()
	return &fixture{
		conn:       conn,
		atoms:      atoms,
		store:      store,
		queue:      queue,
		dispatcher: NewDispatcher(conn, atoms, store, queue, rules, false),
	}
}

// manage registers a window the way Target.CreateWindow does and runs the
// create notification through the dispatcher.
func (f *fixture) manage(t *testing.T, id xproto.Window, x, y int16, width, height, border uint16) *WindowState {
	t.Helper()

	ws := &WindowState{
		ID:            id,
		Decorations:   true,
		Resizable:     true,
		CursorVisible: true,
		Requested: Geometry{
			X: int32(x), Y: int32(y),
			Width: uint32(width), Height: uint32(height),
		},
	}
	f.store.mu.Lock()
	f.store.insert(ws)
	f.store.mu.Unlock()

	f.dispatcher.updateCrtcs()
	f.dispatcher.Dispatch(xproto.CreateNotifyEvent{
		Window: id, Parent: f.conn.root,
		X: x, Y: y, Width: width, Height: height, BorderWidth: border,
	})
	if !ws.Created {
		t.Fatalf("window %d not created", id)
	}
	return ws
}

// drain empties the normalized event queue.
func (f *fixture) drain() []loop.Event {
	return f.queue.Swap(nil)
}

// kinds filters the drained events down to window event kinds for a window.
func kinds(events []loop.Event, win xproto.Window) []loop.WindowEventKind {
	var out []loop.WindowEventKind
	for _, ev := range events {
		if we, ok := ev.(loop.WindowEvent); ok && we.Window == win {
			out = append(out, we.Kind)
		}
	}
	return out
}

func hasKind(events []loop.Event, win xproto.Window, kind loop.WindowEventKind) bool {
	for _, k := range kinds(events, win) {
		if k == kind {
			return true
		}
	}
	return false
}

// lastConfigure returns the most recent configure issued for win.
func (c *fakeConn) lastConfigure(t *testing.T, win xproto.Window) configureCall {
	t.Helper()
	for i := len(c.configures) - 1; i >= 0; i-- {
		if c.configures[i].win == win {
			return c.configures[i]
		}
	}
	t.Fatalf("no configure recorded for window %d", win)
	return configureCall{}
}

// lastPropWrite returns the most recent property write for win/property.
func (c *fakeConn) lastPropWrite(t *testing.T, win xproto.Window, property xproto.Atom) propertyWrite {
	t.Helper()
	for i := len(c.propWrites) - 1; i >= 0; i-- {
		if c.propWrites[i].win == win && c.propWrites[i].property == property {
			return c.propWrites[i]
		}
	}
	t.Fatalf("no property write recorded for window %d property %d", win, property)
	return propertyWrite{}
}
