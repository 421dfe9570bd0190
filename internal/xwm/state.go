// Package xwm contains the window-manager core: the window-state store, the
// native event dispatcher with its gesture and fullscreen state machines, and
// the application-facing Window handle.
package xwm

import (
	"github.com/jezek/xgb/xproto"
)

// TitleHeight is the height in pixels of the decoration bar drawn by the
// parent window. Parent geometry is always the client geometry grown by this
// amount.
const TitleHeight = 10

// WmState is the ICCCM window state tri-state.
type WmState int

const (
	StateWithdrawn WmState = iota
	StateNormal
	StateIconic
)

func (s WmState) String() string {
	switch s {
	case StateWithdrawn:
		return "withdrawn"
	case StateNormal:
		return "normal"
	case StateIconic:
		return "iconic"
	default:
		return "unknown"
	}
}

// wmStateCardinal is the value written to the WM_STATE property.
func (s WmState) wmStateCardinal() uint32 {
	switch s {
	case StateNormal:
		return 1
	case StateIconic:
		return 3
	default:
		return 0
	}
}

// CursorGrabMode constrains the pointer relative to a window.
type CursorGrabMode int

const (
	CursorGrabNone CursorGrabMode = iota
	CursorGrabConfined
	CursorGrabLocked
)

// Protocols is the set of WM protocols a client advertises.
type Protocols uint8

const (
	ProtocolPing Protocols = 1 << iota
	ProtocolDeleteWindow
)

type Geometry struct {
	X      int32  `json:"x"`
	Y      int32  `json:"y"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
	Border uint32 `json:"border"`
}

type Size struct {
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// Icon is decoded _NET_WM_ICON data, converted from the wire's ARGB cardinals
// to RGBA bytes.
type Icon struct {
	RGBA   []byte
	Width  uint32
	Height uint32
}

// WindowState is the canonical record for one logical window. All fields are
// guarded by the owning Store's mutex. Applied fields change only on confirmed
// server events; Requested fields track what this process last asked for.
type WindowState struct {
	ID       xproto.Window
	ParentID xproto.Window

	Applied       Geometry
	Requested     Geometry
	PreFullscreen Geometry

	Decorations   bool
	Resizable     bool
	MaximizedHorz bool
	MaximizedVert bool
	Fullscreen    bool
	AlwaysOnTop   bool
	Urgency       bool
	Dragging      bool

	Created   bool
	Mapped    bool
	Destroyed bool

	DesiredState WmState
	CurrentState WmState

	Title     string // _NET_WM_NAME
	WmName    string // WM_NAME
	Icon      *Icon
	Class     string
	Instance  string
	Protocols Protocols
	MinSize   *Size
	MaxSize   *Size

	CursorGrab    CursorGrabMode
	CursorVisible bool
	ImeAllowed    bool

	// upgrade notifies the application-facing handle of a state change. Nil
	// once the handle has been dropped.
	upgrade func()
}

// Upgrade notifies the owning handle, if it is still alive.
func (ws *WindowState) Upgrade() {
	if ws.upgrade != nil {
		ws.upgrade()
	}
}
