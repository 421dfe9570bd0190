package xwm

import (
	"errors"

	"github.com/ItsNotGoodName/x-winloop/internal/core"
	"github.com/ItsNotGoodName/x-winloop/internal/xconn"
	"github.com/jezek/xgb/xproto"
)

// ErrCursorLockUnsupported is returned by SetCursorGrab for the locked mode,
// which X11 cannot express.
var ErrCursorLockUnsupported = errors.New("locked cursor is not supported")

// Window is the application-facing handle. Setters issue requests and let the
// server's replies flow back through the dispatcher; reads return the last
// confirmed state.
type Window struct {
	id    xproto.Window
	conn  Conn
	atoms *xconn.Atoms
	store *Store
	state *WindowState

	requestRedraw func(xproto.Window)
	changedC      chan struct{}
}

// ID returns the native window identifier.
func (w *Window) ID() xproto.Window {
	return w.id
}

// Changed signals after every confirmed state change. Signals coalesce.
func (w *Window) Changed() <-chan struct{} {
	return w.changedC
}

func (w *Window) notify() {
	core.FlagChannel(w.changedC)
}

// Drop detaches the handle from state-change notifications. The native window
// lives on until Close.
func (w *Window) Drop() {
	w.store.mu.Lock()
	w.state.upgrade = nil
	w.store.mu.Unlock()
}

// Show asks the window manager to map the window.
func (w *Window) Show() error {
	return w.conn.MapWindow(w.id).Check()
}

// Hide unmaps the window.
func (w *Window) Hide() {
	w.conn.UnmapWindow(w.id)
}

// Close destroys the native window. The handle observes the destruction like
// any other state change.
func (w *Window) Close() error {
	return w.conn.DestroyWindow(w.id).Check()
}

// RequestRedraw queues a redraw for this window on the event loop.
func (w *Window) RequestRedraw() {
	w.requestRedraw(w.id)
}

// SetTitle writes both title properties; the dispatcher picks the change up
// from the resulting property notifications.
func (w *Window) SetTitle(title string) error {
	if err := w.conn.ChangeProperty(w.id, w.atoms.NetWmName, w.atoms.Utf8String, 8, []byte(title)).Check(); err != nil {
		return err
	}
	return w.conn.ChangeProperty(w.id, xproto.AtomWmName, xproto.AtomString, 8, []byte(title)).Check()
}

// SetDecorations toggles the decoration bar via Motif hints.
func (w *Window) SetDecorations(decorations bool) error {
	var dec uint32
	if decorations {
		dec = 1
	}
	hints := []uint32{motifFlagDecorations, 0, dec, 0, 0}
	return w.conn.ChangeProperty(w.id, w.atoms.MotifWmHints, w.atoms.MotifWmHints, 32, xconn.CardinalsToBytes(hints)).Check()
}

// SetMinSize constrains the minimum inner size. Nil clears the constraint.
func (w *Window) SetMinSize(size *Size) error {
	w.store.mu.Lock()
	max := w.state.MaxSize
	w.store.mu.Unlock()
	return w.writeNormalHints(size, max)
}

// SetMaxSize constrains the maximum inner size. Nil clears the constraint.
func (w *Window) SetMaxSize(size *Size) error {
	w.store.mu.Lock()
	min := w.state.MinSize
	w.store.mu.Unlock()
	return w.writeNormalHints(min, size)
}

func (w *Window) writeNormalHints(min, max *Size) error {
	hints := make([]uint32, sizeHintsLen)
	if min != nil {
		hints[0] |= sizeHintPMinSize
		hints[5] = min.Width
		hints[6] = min.Height
	}
	if max != nil {
		hints[0] |= sizeHintPMaxSize
		hints[7] = max.Width
		hints[8] = max.Height
	}
	return w.conn.ChangeProperty(w.id, xproto.AtomWmNormalHints, xproto.AtomWmSizeHints, 32, xconn.CardinalsToBytes(hints)).Check()
}

// SetFullscreen toggles fullscreen through the window manager, so the
// pre-fullscreen geometry round-trips exactly.
func (w *Window) SetFullscreen(fullscreen bool) error {
	return w.sendState(fullscreen, w.atoms.NetWmStateFullscreen, 0)
}

// SetMaximized toggles both maximization axes.
func (w *Window) SetMaximized(maximized bool) error {
	return w.sendState(maximized, w.atoms.NetWmStateMaximizedHorz, w.atoms.NetWmStateMaximizedVert)
}

// SetAlwaysOnTop toggles the above state.
func (w *Window) SetAlwaysOnTop(alwaysOnTop bool) error {
	return w.sendState(alwaysOnTop, w.atoms.NetWmStateAbove, 0)
}

func (w *Window) sendState(set bool, first, second xproto.Atom) error {
	op := uint32(netWmStateRemove)
	if set {
		op = netWmStateAdd
	}
	return w.sendMessage(w.atoms.NetWmState, [5]uint32{op, uint32(first), uint32(second), 0, 0})
}

// Minimize asks for the iconic state.
func (w *Window) Minimize() error {
	return w.sendMessage(w.atoms.WmChangeState, [5]uint32{iconicState, 0, 0, 0, 0})
}

// DragWindow begins a pointer-driven move from the current pointer position.
func (w *Window) DragWindow() error {
	x, y, err := w.conn.QueryPointer()
	if err != nil {
		return err
	}
	return w.sendMessage(w.atoms.NetWmMoveresize, [5]uint32{uint32(uint16(x)), uint32(uint16(y)), moveresizeMove, 0, 0})
}

func (w *Window) sendMessage(typ xproto.Atom, data [5]uint32) error {
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: w.id,
		Type:   typ,
		Data:   xproto.ClientMessageDataUnionData32New(data[:]),
	}
	return w.conn.SendClientMessage(ev, w.conn.Root(),
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify).Check()
}

// SetCursorGrab constrains the pointer to the window. The locked mode is not
// expressible on this platform.
func (w *Window) SetCursorGrab(mode CursorGrabMode) error {
	switch mode {
	case CursorGrabNone:
		if err := w.conn.UngrabPointer().Check(); err != nil {
			return err
		}
	case CursorGrabConfined:
		if err := w.conn.GrabPointer(w.id, xproto.EventMaskButtonRelease|xproto.EventMaskPointerMotion); err != nil {
			return err
		}
	case CursorGrabLocked:
		return ErrCursorLockUnsupported
	}

	w.store.mu.Lock()
	w.state.CursorGrab = mode
	w.state.Upgrade()
	w.store.changed()
	w.store.mu.Unlock()
	return nil
}

// SetCursorVisible swaps the window cursor for an invisible one and back.
func (w *Window) SetCursorVisible(visible bool) error {
	if err := w.conn.SetCursor(w.id, visible); err != nil {
		return err
	}

	w.store.mu.Lock()
	w.state.CursorVisible = visible
	w.state.Upgrade()
	w.store.changed()
	w.store.mu.Unlock()
	return nil
}

// SetImeAllowed records whether input methods may compose for this window.
func (w *Window) SetImeAllowed(allowed bool) {
	w.store.mu.Lock()
	w.state.ImeAllowed = allowed
	w.state.Upgrade()
	w.store.changed()
	w.store.mu.Unlock()
}

// InnerSize returns the confirmed client area size.
func (w *Window) InnerSize() Size {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	return Size{Width: w.state.Applied.Width, Height: w.state.Applied.Height}
}

// OuterSize returns the confirmed size including decorations and border.
func (w *Window) OuterSize() Size {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	return Size{
		Width:  w.state.Applied.Width + 2*w.state.Applied.Border,
		Height: w.state.Applied.Height + TitleHeight + 2*w.state.Applied.Border,
	}
}

// OuterPosition returns the confirmed decoration parent origin.
func (w *Window) OuterPosition() (int32, int32) {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	return w.state.Applied.X, w.state.Applied.Y
}

// Info snapshots the full window state.
func (w *Window) Info() WindowInfo {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	return w.state.info()
}
