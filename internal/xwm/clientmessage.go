package xwm

import (
	"log/slog"

	"github.com/ItsNotGoodName/x-winloop/internal/loop"
	"github.com/ItsNotGoodName/x-winloop/internal/xconn"
	"github.com/jezek/xgb/xproto"
)

// _NET_WM_STATE operations.
const (
	netWmStateRemove = 0
	netWmStateAdd    = 1
	netWmStateToggle = 2
)

// _NET_WM_MOVERESIZE direction for a pointer-driven move.
const moveresizeMove = 8

const iconicState = 3

func (d *Dispatcher) handleClientMessage(ev xproto.ClientMessageEvent) {
	if ev.Format != 32 {
		slog.Warn("Client message with unexpected format", "func", "xwm.Dispatcher.handleClientMessage", "format", ev.Format)
		return
	}

	switch ev.Type {
	case d.atoms.NetWmState:
		d.handleNetWmState(ev)
	case d.atoms.WmProtocols:
		d.handlePong(ev)
	case d.atoms.NetWmMoveresize:
		d.handleMoveresize(ev)
	case d.atoms.WmChangeState:
		d.handleChangeState(ev)
	default:
		name, err := d.conn.AtomName(ev.Type)
		if err != nil {
			slog.Warn("Client message with unresolvable type", "func", "xwm.Dispatcher.handleClientMessage", "type", ev.Type, "error", err)
			return
		}
		slog.Warn("Unhandled client message", "func", "xwm.Dispatcher.handleClientMessage", "window", ev.Window, "type", name)
	}
}

// handleNetWmState flips up to two state properties. Fullscreen transitions
// additionally swap geometry: the pre-fullscreen rectangle is snapshotted on
// entry and restored on exit, edge-triggered so a redundant set is a no-op.
func (d *Dispatcher) handleNetWmState(ev xproto.ClientMessageEvent) {
	log := slog.With("func", "xwm.Dispatcher.handleNetWmState", "window", ev.Window)
	data := ev.Data.Data32

	d.store.mu.Lock()
	win := d.store.window(ev.Window)
	if win == nil {
		d.store.mu.Unlock()
		return
	}

	op := data[0]
	touched := false
	for _, raw := range []uint32{data[1], data[2]} {
		property := xproto.Atom(raw)
		if property == 0 {
			continue
		}

		var flag *bool
		switch property {
		case d.atoms.NetWmStateAbove:
			flag = &win.AlwaysOnTop
		case d.atoms.NetWmStateMaximizedVert:
			flag = &win.MaximizedVert
		case d.atoms.NetWmStateMaximizedHorz:
			flag = &win.MaximizedHorz
		case d.atoms.NetWmStateFullscreen:
			flag = &win.Fullscreen
		default:
			name, err := d.conn.AtomName(property)
			if err != nil {
				name = "?"
			}
			log.Warn("Unhandled state property", "property", name)
			continue
		}

		old := *flag
		switch op {
		case netWmStateRemove:
			*flag = false
		case netWmStateAdd:
			*flag = true
		case netWmStateToggle:
			*flag = !*flag
		default:
			log.Warn("Unhandled state operation", "op", op)
			continue
		}
		touched = true

		if property == d.atoms.NetWmStateFullscreen && *flag != old {
			d.applyFullscreen(win, *flag)
		}
	}

	if touched {
		win.Upgrade()
		d.store.changed()
	}
	d.store.mu.Unlock()
	if touched {
		d.pushWindow(ev.Window, loop.WindowStateUpdated)
	}
}

// applyFullscreen resizes the window pair for a fullscreen transition. Caller
// must hold the store mutex and have already flipped win.Fullscreen.
func (d *Dispatcher) applyFullscreen(win *WindowState, entering bool) {
	log := slog.With("func", "xwm.Dispatcher.applyFullscreen", "window", win.ID)

	var parentValues, clientValues configValues
	if entering {
		// Snapshot first so an exit after a monitor appears still restores
		// the pre-entry geometry.
		win.PreFullscreen = win.Requested
		if len(d.crtcs) == 0 {
			log.Warn("No monitors; leaving geometry untouched")
			return
		}
		crtc := pickMonitor(d.crtcs, win.Requested)
		parentValues = configValues{x: crtc.X, y: crtc.Y, width: uint32(crtc.Width), height: uint32(crtc.Height), border: 0}
		clientValues = configValues{x: 0, y: 0, width: uint32(crtc.Width), height: uint32(crtc.Height)}
	} else {
		pre := win.PreFullscreen
		parentValues = configValues{x: pre.X, y: pre.Y, width: pre.Width, height: pre.Height + TitleHeight, border: pre.Border}
		clientValues = configValues{x: 0, y: TitleHeight, width: pre.Width, height: pre.Height}
	}

	const parentMask = xproto.ConfigWindowX | xproto.ConfigWindowY | xproto.ConfigWindowWidth | xproto.ConfigWindowHeight | xproto.ConfigWindowBorderWidth
	const clientMask = xproto.ConfigWindowX | xproto.ConfigWindowY | xproto.ConfigWindowWidth | xproto.ConfigWindowHeight
	if err := d.conn.ConfigureWindow(win.ParentID, parentMask, parentValues.list(parentMask)).Check(); err != nil {
		log.Warn("Failed to configure parent window", "error", err)
	}
	if err := d.conn.ConfigureWindow(win.ID, clientMask, clientValues.list(clientMask)).Check(); err != nil {
		log.Warn("Failed to configure window", "error", err)
	}

	win.Requested.X = parentValues.x
	win.Requested.Y = parentValues.y
	win.Requested.Width = clientValues.width
	win.Requested.Height = clientValues.height
	win.Requested.Border = parentValues.border
}

// pickMonitor chooses the monitor for a fullscreen window: the first monitor
// the rectangle overlaps, preferring the topmost-leftmost origin on ties, and
// falling back to the first monitor when nothing overlaps.
func pickMonitor(crtcs []xconn.Crtc, rect Geometry) xconn.Crtc {
	picked := crtcs[0]
	overlapped := false
	for _, crtc := range crtcs {
		overlaps := ((rect.X <= crtc.X && rect.X+int32(rect.Width) > crtc.X) ||
			(crtc.X <= rect.X && crtc.X+crtc.Width > rect.X)) &&
			((rect.Y <= crtc.Y && rect.Y+int32(rect.Height) > crtc.Y) ||
				(crtc.Y <= rect.Y && crtc.Y+crtc.Height > rect.Y))
		if !overlaps {
			continue
		}
		if !overlapped || crtc.X < picked.X || (crtc.X == picked.X && crtc.Y < picked.Y) {
			picked = crtc
			overlapped = true
		}
	}
	return picked
}

// handlePong records a ping reply relayed through the root window.
func (d *Dispatcher) handlePong(ev xproto.ClientMessageEvent) {
	data := ev.Data.Data32
	if xproto.Atom(data[0]) != d.atoms.NetWmPing || ev.Window != d.conn.Root() {
		return
	}

	d.store.mu.Lock()
	d.store.addPong(data[2])
	d.store.changed()
	d.store.mu.Unlock()
}

// handleMoveresize starts a pointer-driven move. Only the move direction is
// supported; resizing goes through normal configure requests.
func (d *Dispatcher) handleMoveresize(ev xproto.ClientMessageEvent) {
	log := slog.With("func", "xwm.Dispatcher.handleMoveresize", "window", ev.Window)
	data := ev.Data.Data32

	if data[2] != moveresizeMove {
		log.Warn("Unhandled moveresize direction", "direction", data[2])
		return
	}

	d.store.mu.Lock()
	win := d.store.window(ev.Window)
	if win == nil {
		d.store.mu.Unlock()
		return
	}

	if err := d.conn.GrabPointer(d.conn.Root(), xproto.EventMaskButtonRelease|xproto.EventMaskPointerMotion); err != nil {
		d.store.mu.Unlock()
		log.Warn("Failed to grab pointer", "error", err)
		return
	}

	if d.moving != nil {
		panic("xwm: move gesture already active")
	}
	// The drag base is the confirmed position, not an unconfirmed request.
	d.moving = &moveGesture{
		win:           win.ID,
		startPointerX: int16(data[0]),
		startPointerY: int16(data[1]),
		startWindowX:  win.Applied.X,
		startWindowY:  win.Applied.Y,
	}
	win.Dragging = true
	win.Upgrade()
	d.store.changed()
	d.store.mu.Unlock()
	d.pushWindow(ev.Window, loop.WindowDragBegan)
}

// handleMotionNotify repositions the dragged window by the pointer delta.
// Configure requests here are unchecked; a round trip per motion event would
// stall the loop.
func (d *Dispatcher) handleMotionNotify(ev xproto.MotionNotifyEvent) {
	if d.moving == nil {
		return
	}

	d.store.mu.Lock()
	win := d.store.window(d.moving.win)
	if win == nil {
		// Destroyed mid-drag; button release cleans up the grab.
		d.store.mu.Unlock()
		return
	}

	x := int32(ev.RootX-d.moving.startPointerX) + d.moving.startWindowX
	y := int32(ev.RootY-d.moving.startPointerY) + d.moving.startWindowY
	d.conn.ConfigureWindowAsync(win.ParentID,
		xproto.ConfigWindowX|xproto.ConfigWindowY,
		configValues{x: x, y: y}.list(xproto.ConfigWindowX|xproto.ConfigWindowY))
	win.Requested.X = x
	win.Requested.Y = y
	win.Upgrade()
	d.store.changed()
	d.store.mu.Unlock()
}

// handleButtonRelease ends the move gesture on primary-button release. The
// gesture is cleared before the ungrab so a failed ungrab can never leave it
// stuck.
func (d *Dispatcher) handleButtonRelease(ev xproto.ButtonReleaseEvent) {
	if ev.Detail != xproto.ButtonIndex1 || d.moving == nil {
		return
	}
	moving := d.moving
	d.moving = nil

	d.store.mu.Lock()
	if win := d.store.window(moving.win); win != nil {
		win.Dragging = false
		win.Upgrade()
		d.store.changed()
		d.store.mu.Unlock()
		d.pushWindow(moving.win, loop.WindowDragEnded)
	} else {
		d.store.mu.Unlock()
	}

	if err := d.conn.UngrabPointer().Check(); err != nil {
		slog.Warn("Failed to ungrab pointer", "func", "xwm.Dispatcher.handleButtonRelease", "error", err)
	}
}

// handleChangeState honors the ICCCM iconify request. Only the iconic code is
// meaningful; everything else is ignored.
func (d *Dispatcher) handleChangeState(ev xproto.ClientMessageEvent) {
	if ev.Data.Data32[0] != iconicState {
		return
	}

	d.store.mu.Lock()
	win := d.store.window(ev.Window)
	if win == nil {
		d.store.mu.Unlock()
		return
	}

	win.DesiredState = StateIconic
	if win.Mapped {
		d.conn.UnmapWindow(win.ID)
	}
	win.Upgrade()
	d.store.changed()
	d.store.mu.Unlock()
	d.pushWindow(ev.Window, loop.WindowStateUpdated)
}
