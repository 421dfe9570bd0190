package xwm

import (
	"github.com/ItsNotGoodName/x-winloop/internal/xconn"
	"github.com/jezek/xgb/xproto"
)

// Conn is the slice of the X connection the window manager uses. Implemented
// by xconn.Connection; faked in tests.
type Conn interface {
	Root() xproto.Window
	GenerateID() (xproto.Window, error)

	CreateWindow(win, parent xproto.Window, x, y int16, width, height, border uint16, eventMask uint32) xconn.Cookie
	ReparentWindow(win, parent xproto.Window, x, y int16) xconn.Cookie
	SelectInput(win xproto.Window, eventMask uint32) xconn.Cookie
	ConfigureWindow(win xproto.Window, valueMask uint16, values []uint32) xconn.Cookie
	ConfigureWindowAsync(win xproto.Window, valueMask uint16, values []uint32)
	MapWindow(win xproto.Window) xconn.Cookie
	UnmapWindow(win xproto.Window)
	DestroyWindow(win xproto.Window) xconn.Cookie
	SendConfigureNotify(win xproto.Window, ev xproto.ConfigureNotifyEvent) xconn.Cookie
	SendClientMessage(ev xproto.ClientMessageEvent, dest xproto.Window, eventMask uint32) xconn.Cookie

	GrabPointer(grabWindow xproto.Window, eventMask uint16) error
	UngrabPointer() xconn.Cookie
	QueryPointer() (x, y int16, err error)
	SetCursor(win xproto.Window, visible bool) error

	ChangeProperty(win xproto.Window, property, typ xproto.Atom, format byte, data []byte) xconn.Cookie
	GetProperty(win xproto.Window, property, typ xproto.Atom) (xconn.Prop, error)
	AtomName(atom xproto.Atom) (string, error)

	SelectScreenChanges() error
	Crtcs() ([]xconn.Crtc, error)
}

// configValues carries every configurable window field; list serializes the
// ones named by mask in the protocol's bit order.
type configValues struct {
	x, y          int32
	width, height uint32
	border        uint32
	sibling       xproto.Window
	stackMode     uint32
}

func (v configValues) list(mask uint16) []uint32 {
	values := make([]uint32, 0, 7)
	if mask&xproto.ConfigWindowX != 0 {
		values = append(values, uint32(v.x))
	}
	if mask&xproto.ConfigWindowY != 0 {
		values = append(values, uint32(v.y))
	}
	if mask&xproto.ConfigWindowWidth != 0 {
		values = append(values, v.width)
	}
	if mask&xproto.ConfigWindowHeight != 0 {
		values = append(values, v.height)
	}
	if mask&xproto.ConfigWindowBorderWidth != 0 {
		values = append(values, v.border)
	}
	if mask&xproto.ConfigWindowSibling != 0 {
		values = append(values, uint32(v.sibling))
	}
	if mask&xproto.ConfigWindowStackMode != 0 {
		values = append(values, v.stackMode)
	}
	return values
}
