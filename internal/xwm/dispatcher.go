package xwm

import (
	"log/slog"

	"github.com/ItsNotGoodName/x-winloop/internal/loop"
	"github.com/ItsNotGoodName/x-winloop/internal/xconn"
	"github.com/jezek/xgb/randr"
	"github.com/jezek/xgb/xproto"
	"github.com/k0kubun/pp"
)

// Dispatcher translates raw server events into window-state mutations and
// normalized loop events. It runs on the loop goroutine only; the store mutex
// exists for the application-facing handles, not for the dispatcher itself.
type Dispatcher struct {
	conn  Conn
	atoms *xconn.Atoms
	store *Store
	queue *loop.Queue
	rules []Rule
	debug bool

	moving *moveGesture
	crtcs  []xconn.Crtc

	propHandlers map[xproto.Atom]propHandler
	ignoredProps map[xproto.Atom]struct{}
}

type propHandler struct {
	name string
	fn   func(win xproto.Window)
}

// moveGesture is the active pointer-drag, at most one at a time. The window is
// held by id; a failed lookup means it was destroyed mid-drag.
type moveGesture struct {
	win           xproto.Window
	startPointerX int16
	startPointerY int16
	startWindowX  int32
	startWindowY  int32
}

func NewDispatcher(conn Conn, atoms *xconn.Atoms, store *Store, queue *loop.Queue, rules []Rule, debug bool) *Dispatcher {
	d := &Dispatcher{
		conn:  conn,
		atoms: atoms,
		store: store,
		queue: queue,
		rules: rules,
		debug: debug,
	}
	d.propHandlers = map[xproto.Atom]propHandler{
		xproto.AtomWmName:        {"WM_NAME", d.refreshWmName},
		xproto.AtomWmNormalHints: {"WM_NORMAL_HINTS", d.refreshNormalHints},
		xproto.AtomWmHints:       {"WM_HINTS", d.refreshWmHints},
		xproto.AtomWmClass:       {"WM_CLASS", d.refreshClass},
		atoms.NetWmName:          {"_NET_WM_NAME", d.refreshNetWmName},
		atoms.NetWmIcon:          {"_NET_WM_ICON", d.refreshIcon},
		atoms.MotifWmHints:       {"_MOTIF_WM_HINTS", d.refreshMotifHints},
		atoms.WmProtocols:        {"WM_PROTOCOLS", d.refreshProtocols},
	}
	d.ignoredProps = map[xproto.Atom]struct{}{
		atoms.NetSupported:         {},
		atoms.NetClientList:        {},
		atoms.NetSupportingWmCheck: {},
		atoms.WmState:              {},
	}
	return d
}

// Monitors returns the last-enumerated monitor rectangles.
func (d *Dispatcher) Monitors() []xconn.Crtc {
	crtcs := make([]xconn.Crtc, len(d.crtcs))
	copy(crtcs, d.crtcs)
	return crtcs
}

func (d *Dispatcher) push(ev loop.Event) {
	d.queue.Push(ev)
}

func (d *Dispatcher) pushWindow(win xproto.Window, kind loop.WindowEventKind) {
	d.push(loop.WindowEvent{Window: win, Kind: kind})
}

// Dispatch routes one raw event. Unknown events are logged, never fatal.
func (d *Dispatcher) Dispatch(raw any) {
	switch ev := raw.(type) {
	case xproto.CreateNotifyEvent:
		d.handleCreateNotify(ev)
	case xproto.MapRequestEvent:
		d.handleMapRequest(ev)
	case xproto.ConfigureRequestEvent:
		d.handleConfigureRequest(ev)
	case xproto.ConfigureNotifyEvent:
		d.handleConfigureNotify(ev)
	case xproto.PropertyNotifyEvent:
		d.handlePropertyNotify(ev)
	case xproto.MapNotifyEvent:
		d.handleMapNotify(ev)
	case xproto.UnmapNotifyEvent:
		d.handleUnmapNotify(ev)
	case xproto.DestroyNotifyEvent:
		d.handleDestroyNotify(ev)
	case xproto.ClientMessageEvent:
		d.handleClientMessage(ev)
	case xproto.MotionNotifyEvent:
		d.handleMotionNotify(ev)
	case xproto.ButtonReleaseEvent:
		d.handleButtonRelease(ev)
	case xproto.ReparentNotifyEvent, xproto.MappingNotifyEvent:
		// Side effects of our own reparenting and keyboard layout churn.
	case randr.ScreenChangeNotifyEvent:
		d.updateCrtcs()
	case randr.NotifyEvent:
		d.updateCrtcs()
	default:
		slog.Warn("Unexpected event", "func", "xwm.Dispatcher.Dispatch", "event", raw)
		if d.debug {
			pp.Println(raw)
		}
	}
}

// handleCreateNotify wraps a newly created managed client in a decoration
// parent and sweeps its properties. Foreign windows pass through untouched.
func (d *Dispatcher) handleCreateNotify(ev xproto.CreateNotifyEvent) {
	log := slog.With("func", "xwm.Dispatcher.handleCreateNotify", "window", ev.Window)

	d.store.mu.Lock()
	win := d.store.window(ev.Window)
	if win == nil {
		d.store.mu.Unlock()
		return
	}

	parent, err := d.conn.GenerateID()
	if err != nil {
		d.store.mu.Unlock()
		log.Error("Failed to allocate parent window id", "error", err)
		return
	}

	if err := d.conn.CreateWindow(parent, d.conn.Root(),
		ev.X, ev.Y, ev.Width, ev.Height+TitleHeight, ev.BorderWidth,
		xproto.EventMaskSubstructureNotify|xproto.EventMaskSubstructureRedirect,
	).Check(); err != nil {
		d.store.mu.Unlock()
		log.Error("Failed to create parent window", "error", err)
		return
	}
	if err := d.conn.ReparentWindow(ev.Window, parent, 0, TitleHeight).Check(); err != nil {
		log.Warn("Failed to reparent window", "error", err)
	}
	if err := d.conn.SelectInput(ev.Window, xproto.EventMaskPropertyChange).Check(); err != nil {
		log.Warn("Failed to select property events", "error", err)
	}

	win.ParentID = parent
	d.store.reparent(win)

	geo := Geometry{
		X:      int32(ev.X),
		Y:      int32(ev.Y),
		Width:  uint32(ev.Width),
		Height: uint32(ev.Height),
		Border: uint32(ev.BorderWidth),
	}
	win.Applied = geo
	win.Requested = geo
	win.Created = true
	win.Upgrade()
	d.store.changed()
	d.store.mu.Unlock()

	d.pushWindow(ev.Window, loop.WindowCreated)

	// Properties may have been set before we selected for changes; sweep
	// everything once. Each refresher takes the lock on its own.
	for _, h := range d.propHandlers {
		h.fn(ev.Window)
	}

	d.applyRules(ev.Window)
	d.updateClientList()
}

func (d *Dispatcher) handleMapRequest(ev xproto.MapRequestEvent) {
	log := slog.With("func", "xwm.Dispatcher.handleMapRequest", "window", ev.Window)

	d.store.mu.Lock()
	win := d.store.window(ev.Window)
	if win == nil {
		d.store.mu.Unlock()
		return
	}
	win.DesiredState = StateNormal
	parent := win.ParentID
	win.Upgrade()
	d.store.changed()
	d.store.mu.Unlock()

	if err := d.conn.MapWindow(parent).Check(); err != nil {
		log.Warn("Failed to map parent window", "error", err)
	}
	if err := d.conn.MapWindow(ev.Window).Check(); err != nil {
		log.Warn("Failed to map window", "error", err)
	}
}

// handleConfigureRequest forwards geometry wishes. Managed windows resize
// through their decoration parent; the client itself only ever moves within
// the parent, so it gets width and height alone.
func (d *Dispatcher) handleConfigureRequest(ev xproto.ConfigureRequestEvent) {
	log := slog.With("func", "xwm.Dispatcher.handleConfigureRequest", "window", ev.Window)

	values := configValues{
		x:         int32(ev.X),
		y:         int32(ev.Y),
		width:     uint32(ev.Width),
		height:    uint32(ev.Height),
		border:    uint32(ev.BorderWidth),
		sibling:   ev.Sibling,
		stackMode: uint32(ev.StackMode),
	}

	d.store.mu.Lock()
	win := d.store.window(ev.Window)
	if win == nil {
		d.store.mu.Unlock()
		if err := d.conn.ConfigureWindow(ev.Window, ev.ValueMask, values.list(ev.ValueMask)).Check(); err != nil {
			log.Warn("Failed to configure freestanding window", "error", err)
		}
		return
	}

	parentValues := values
	parentValues.height += TitleHeight
	if err := d.conn.ConfigureWindow(win.ParentID, ev.ValueMask, parentValues.list(ev.ValueMask)).Check(); err != nil {
		log.Warn("Failed to configure parent window", "error", err)
	}

	clientMask := ev.ValueMask & (xproto.ConfigWindowWidth | xproto.ConfigWindowHeight)
	if clientMask != 0 {
		if err := d.conn.ConfigureWindow(ev.Window, clientMask, values.list(clientMask)).Check(); err != nil {
			log.Warn("Failed to configure window", "error", err)
		}
	}

	if ev.ValueMask&xproto.ConfigWindowX != 0 {
		win.Requested.X = int32(ev.X)
	}
	if ev.ValueMask&xproto.ConfigWindowY != 0 {
		win.Requested.Y = int32(ev.Y)
	}
	if ev.ValueMask&xproto.ConfigWindowWidth != 0 {
		win.Requested.Width = uint32(ev.Width)
	}
	if ev.ValueMask&xproto.ConfigWindowHeight != 0 {
		win.Requested.Height = uint32(ev.Height)
	}
	if ev.ValueMask&xproto.ConfigWindowBorderWidth != 0 {
		win.Requested.Border = uint32(ev.BorderWidth)
	}
	win.Upgrade()
	d.store.changed()
	d.store.mu.Unlock()
}

// handleConfigureNotify confirms applied geometry. A notify on the decoration
// parent is translated into a synthetic notify for the client so it observes
// root-relative coordinates, per ICCCM.
func (d *Dispatcher) handleConfigureNotify(ev xproto.ConfigureNotifyEvent) {
	log := slog.With("func", "xwm.Dispatcher.handleConfigureNotify", "window", ev.Window)

	d.store.mu.Lock()
	if win := d.store.window(ev.Window); win != nil {
		win.Applied.Width = uint32(ev.Width)
		win.Applied.Height = uint32(ev.Height)
		win.Upgrade()
		d.store.changed()
		d.store.mu.Unlock()
		d.push(loop.WindowEvent{
			Window: ev.Window,
			Kind:   loop.WindowResized,
			Width:  uint32(ev.Width),
			Height: uint32(ev.Height),
		})
		return
	}

	win := d.store.parent(ev.Window)
	if win == nil {
		d.store.mu.Unlock()
		return
	}

	synthetic := xproto.ConfigureNotifyEvent{
		Event:            win.ID,
		Window:           win.ID,
		AboveSibling:     ev.AboveSibling,
		X:                ev.X + int16(ev.BorderWidth),
		Y:                ev.Y + int16(ev.BorderWidth) + TitleHeight,
		Width:            ev.Width,
		Height:           ev.Height - TitleHeight,
		BorderWidth:      0,
		OverrideRedirect: ev.OverrideRedirect,
	}
	if err := d.conn.SendConfigureNotify(win.ID, synthetic).Check(); err != nil {
		log.Warn("Failed to forward configure notify", "error", err)
	}

	win.Applied.X = int32(ev.X)
	win.Applied.Y = int32(ev.Y)
	win.Applied.Border = uint32(ev.BorderWidth)
	id := win.ID
	win.Upgrade()
	d.store.changed()
	d.store.mu.Unlock()
	d.push(loop.WindowEvent{
		Window: id,
		Kind:   loop.WindowMoved,
		X:      int32(ev.X),
		Y:      int32(ev.Y),
	})
}

func (d *Dispatcher) handlePropertyNotify(ev xproto.PropertyNotifyEvent) {
	if h, ok := d.propHandlers[ev.Atom]; ok {
		h.fn(ev.Window)
		return
	}
	if _, ok := d.ignoredProps[ev.Atom]; ok {
		return
	}

	name, err := d.conn.AtomName(ev.Atom)
	if err != nil {
		slog.Warn("Property changed with unresolvable atom", "func", "xwm.Dispatcher.handlePropertyNotify", "atom", ev.Atom, "error", err)
		return
	}
	slog.Warn("Unhandled property change", "func", "xwm.Dispatcher.handlePropertyNotify", "window", ev.Window, "atom", name)
}

// handleMapNotify reconciles the now-mapped window against its desired state,
// unmapping again if the application asked for iconic or withdrawn meanwhile.
func (d *Dispatcher) handleMapNotify(ev xproto.MapNotifyEvent) {
	d.store.mu.Lock()
	win := d.store.window(ev.Window)
	if win == nil {
		d.store.mu.Unlock()
		return
	}

	win.CurrentState = StateNormal
	d.writeWmState(win)
	if win.DesiredState != StateNormal {
		d.conn.UnmapWindow(win.ID)
	}
	win.Mapped = true
	win.Upgrade()
	d.store.changed()
	d.store.mu.Unlock()
	d.pushWindow(ev.Window, loop.WindowStateUpdated)
}

func (d *Dispatcher) handleUnmapNotify(ev xproto.UnmapNotifyEvent) {
	d.store.mu.Lock()
	win := d.store.window(ev.Window)
	if win == nil {
		d.store.mu.Unlock()
		return
	}

	if win.DesiredState == StateIconic {
		win.CurrentState = StateIconic
	} else {
		win.CurrentState = StateWithdrawn
	}
	d.writeWmState(win)
	win.Mapped = false
	win.Upgrade()
	d.store.changed()
	d.store.mu.Unlock()
	d.pushWindow(ev.Window, loop.WindowStateUpdated)
}

// handleDestroyNotify removes the window from both indexes and tears down the
// decoration parent.
func (d *Dispatcher) handleDestroyNotify(ev xproto.DestroyNotifyEvent) {
	log := slog.With("func", "xwm.Dispatcher.handleDestroyNotify", "window", ev.Window)

	d.store.mu.Lock()
	win := d.store.window(ev.Window)
	if win == nil {
		d.store.mu.Unlock()
		return
	}

	parent := win.ParentID
	win.Destroyed = true
	win.Mapped = false
	d.store.remove(ev.Window)
	win.Upgrade()
	d.store.changed()
	d.store.mu.Unlock()

	if parent != 0 {
		if err := d.conn.DestroyWindow(parent).Check(); err != nil {
			log.Warn("Failed to destroy parent window", "error", err)
		}
	}
	d.updateClientList()
	d.pushWindow(ev.Window, loop.WindowDestroyed)
}

// writeWmState publishes the ICCCM WM_STATE property. Caller must hold the
// store mutex.
func (d *Dispatcher) writeWmState(win *WindowState) {
	data := xconn.CardinalsToBytes([]uint32{win.CurrentState.wmStateCardinal(), 0})
	if err := d.conn.ChangeProperty(win.ID, d.atoms.WmState, d.atoms.WmState, 32, data).Check(); err != nil {
		slog.Warn("Failed to write WM_STATE", "func", "xwm.Dispatcher.writeWmState", "window", win.ID, "error", err)
	}
}

// updateClientList rewrites _NET_CLIENT_LIST on the root window.
func (d *Dispatcher) updateClientList() {
	d.store.mu.Lock()
	list := d.store.clientList()
	d.store.mu.Unlock()

	vals := make([]uint32, len(list))
	for i, id := range list {
		vals[i] = uint32(id)
	}
	if err := d.conn.ChangeProperty(d.conn.Root(), d.atoms.NetClientList, xproto.AtomWindow, 32, xconn.CardinalsToBytes(vals)).Check(); err != nil {
		slog.Warn("Failed to update client list", "func", "xwm.Dispatcher.updateClientList", "error", err)
	}
}

func (d *Dispatcher) updateCrtcs() {
	crtcs, err := d.conn.Crtcs()
	if err != nil {
		slog.Warn("Failed to list monitors", "func", "xwm.Dispatcher.updateCrtcs", "error", err)
		return
	}
	d.crtcs = crtcs
}
