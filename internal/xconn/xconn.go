// Package xconn wraps the X server connection: checked request cookies, the
// atom table, capped property fetches, and RandR monitor enumeration. Protocol
// errors from individual requests are recoverable; only a dead connection is
// fatal.
package xconn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ItsNotGoodName/x-winloop/internal/xcursor"
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/randr"
	"github.com/jezek/xgb/xproto"
)

// ErrConnectionDied reports that the X server closed the connection. This is
// fatal and terminates the runner.
var ErrConnectionDied = errors.New("connection with X server closed")

// Cookie is an unchecked receipt for a mutating request. Every mutating
// request must be exchanged for its error through Check; xproto's checked
// cookies satisfy this directly.
type Cookie interface {
	Check() error
}

// GrabError is a failed pointer grab, carrying the server's status code.
type GrabError struct {
	Status byte
}

var grabStatusNames = []string{
	"success",
	"already grabbed",
	"invalid time",
	"not viewable",
	"frozen",
}

func (e *GrabError) Error() string {
	if int(e.Status) < len(grabStatusNames) {
		return "grab pointer: " + grabStatusNames[e.Status]
	}
	return fmt.Sprintf("grab pointer: status %d", e.Status)
}

// Connection owns the socket to the X server.
type Connection struct {
	Conn   *xgb.Conn
	Screen *xproto.ScreenInfo
	Atoms  *Atoms

	atoms *atomCache

	cursorMu      sync.Mutex
	visibleCursor xproto.Cursor
	emptyCursor   xproto.Cursor
}

// Connect establishes the X connection and interns the atom table. Failure
// here is fatal; callers must not start the loop.
func Connect(display string) (*Connection, error) {
	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}

	if err := randr.Init(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init randr: %w", err)
	}

	screen := xproto.Setup(conn).DefaultScreen(conn)

	cache := newAtomCache(conn)
	atoms, err := internAtoms(cache)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("intern atoms: %w", err)
	}

	return &Connection{
		Conn:   conn,
		Screen: screen,
		Atoms:  atoms,
		atoms:  cache,
	}, nil
}

func (c *Connection) Close() {
	c.Conn.Close()
}

func (c *Connection) Root() xproto.Window {
	return c.Screen.Root
}

// GenerateID allocates a fresh window identifier.
func (c *Connection) GenerateID() (xproto.Window, error) {
	return xproto.NewWindowId(c.Conn)
}

func (c *Connection) CreateWindow(win, parent xproto.Window, x, y int16, width, height, border uint16, eventMask uint32) Cookie {
	return xproto.CreateWindowChecked(c.Conn, c.Screen.RootDepth,
		win, parent,
		x, y, width, height, border,
		xproto.WindowClassInputOutput, c.Screen.RootVisual,
		xproto.CwEventMask, []uint32{eventMask})
}

func (c *Connection) ReparentWindow(win, parent xproto.Window, x, y int16) Cookie {
	return xproto.ReparentWindowChecked(c.Conn, win, parent, x, y)
}

func (c *Connection) SelectInput(win xproto.Window, eventMask uint32) Cookie {
	return xproto.ChangeWindowAttributesChecked(c.Conn, win, xproto.CwEventMask, []uint32{eventMask})
}

func (c *Connection) ConfigureWindow(win xproto.Window, valueMask uint16, values []uint32) Cookie {
	return xproto.ConfigureWindowChecked(c.Conn, win, valueMask, values)
}

// ConfigureWindowAsync issues a configure without a checkable cookie. Used on
// hot paths (pointer-drag motion) where a round trip per event is too slow.
func (c *Connection) ConfigureWindowAsync(win xproto.Window, valueMask uint16, values []uint32) {
	xproto.ConfigureWindow(c.Conn, win, valueMask, values)
}

func (c *Connection) MapWindow(win xproto.Window) Cookie {
	return xproto.MapWindowChecked(c.Conn, win)
}

func (c *Connection) UnmapWindow(win xproto.Window) {
	xproto.UnmapWindow(c.Conn, win)
}

func (c *Connection) DestroyWindow(win xproto.Window) Cookie {
	return xproto.DestroyWindowChecked(c.Conn, win)
}

// SendConfigureNotify forwards a synthetic configure event to win so a client
// reparented under a decoration window still observes its root-relative
// geometry.
func (c *Connection) SendConfigureNotify(win xproto.Window, ev xproto.ConfigureNotifyEvent) Cookie {
	return xproto.SendEventChecked(c.Conn, false, win, xproto.EventMaskStructureNotify, string(ev.Bytes()))
}

func (c *Connection) GrabPointer(grabWindow xproto.Window, eventMask uint16) error {
	reply, err := xproto.GrabPointer(
		c.Conn,
		false,
		grabWindow,
		eventMask,
		xproto.GrabModeAsync,
		xproto.GrabModeAsync,
		xproto.WindowNone,
		xproto.CursorNone,
		xproto.TimeCurrentTime,
	).Reply()
	if err != nil {
		return err
	}
	if reply.Status != xproto.GrabStatusSuccess {
		return &GrabError{Status: reply.Status}
	}
	return nil
}

func (c *Connection) UngrabPointer() Cookie {
	return xproto.UngrabPointerChecked(c.Conn, xproto.TimeCurrentTime)
}

func (c *Connection) ChangeProperty(win xproto.Window, property, typ xproto.Atom, format byte, data []byte) Cookie {
	dataLen := uint32(len(data)) / uint32(format/8)
	return xproto.ChangePropertyChecked(c.Conn, xproto.PropModeReplace, win, property, typ, format, dataLen, data)
}

// SendClientMessage routes a client message through the server, typically to
// the root window with the substructure-redirect mask so the window manager
// sees it.
func (c *Connection) SendClientMessage(ev xproto.ClientMessageEvent, dest xproto.Window, eventMask uint32) Cookie {
	return xproto.SendEventChecked(c.Conn, false, dest, eventMask, string(ev.Bytes()))
}

// QueryPointer returns the pointer position relative to the root window.
func (c *Connection) QueryPointer() (int16, int16, error) {
	reply, err := xproto.QueryPointer(c.Conn, c.Screen.Root).Reply()
	if err != nil {
		return 0, 0, err
	}
	return reply.RootX, reply.RootY, nil
}

// SetCursor assigns win a visible left-pointer cursor or an invisible one.
// Cursors are created once and cached.
func (c *Connection) SetCursor(win xproto.Window, visible bool) error {
	c.cursorMu.Lock()
	defer c.cursorMu.Unlock()

	cursor := c.visibleCursor
	if visible && cursor == 0 {
		created, err := xcursor.CreateCursor(c.Conn, xcursor.LeftPtr)
		if err != nil {
			return err
		}
		c.visibleCursor = created
		cursor = created
	}
	if !visible {
		cursor = c.emptyCursor
		if cursor == 0 {
			created, err := xcursor.CreateEmptyCursor(c.Conn, c.Screen.Root)
			if err != nil {
				return err
			}
			c.emptyCursor = created
			cursor = created
		}
	}

	return xproto.ChangeWindowAttributesChecked(c.Conn, win, xproto.CwCursor, []uint32{uint32(cursor)}).Check()
}

// ReceiveEvents pumps raw events into eventC until the connection dies or ctx
// is cancelled. The terminal error is reported on errC and eventC is closed.
// An xgb.Error here is the reply to an unchecked request: logged, never fatal.
func (c *Connection) ReceiveEvents(ctx context.Context, eventC chan<- any, errC chan<- error) {
	defer close(eventC)
	log := slog.With("func", "xconn.Connection.ReceiveEvents")

	for {
		ev, err := c.Conn.WaitForEvent()
		if ev == nil && err == nil {
			log.Debug("exit: no event or error")
			errC <- ErrConnectionDied
			return
		}

		if err != nil {
			log.Warn("X protocol error", "error", err)
			continue
		}

		select {
		case <-ctx.Done():
			errC <- ctx.Err()
			return
		case eventC <- ev:
		}
	}
}
