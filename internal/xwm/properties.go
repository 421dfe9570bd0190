package xwm

import (
	"bytes"
	"log/slog"

	"github.com/ItsNotGoodName/x-winloop/internal/loop"
	"github.com/ItsNotGoodName/x-winloop/internal/xconn"
	"github.com/jezek/xgb/xproto"
)

// Motif hints words.
const (
	motifHintsLen        = 5
	motifFlagFunctions   = 1 << 0
	motifFlagDecorations = 1 << 1
	motifFuncAll         = 1 << 0
	motifFuncResize      = 1 << 1
	motifFuncMaximize    = 1 << 4
)

// WM_SIZE_HINTS words.
const (
	sizeHintsLen     = 18
	sizeHintPMinSize = 1 << 4
	sizeHintPMaxSize = 1 << 5
)

const wmHintUrgency = 1 << 8

// fetch grabs a property before taking the store lock, so a failed round trip
// leaves the state fully untouched.
func (d *Dispatcher) fetch(win xproto.Window, property, typ xproto.Atom, name string) (xconn.Prop, bool) {
	p, err := d.conn.GetProperty(win, property, typ)
	if err != nil {
		slog.Warn("Failed to fetch property", "func", "xwm.Dispatcher.fetch", "window", win, "property", name, "error", err)
		return xconn.Prop{}, false
	}
	return p, true
}

// mutate runs fn on the managed window under the store lock and emits kind.
// No-op for unmanaged windows.
func (d *Dispatcher) mutate(win xproto.Window, kind loop.WindowEventKind, fn func(ws *WindowState)) {
	d.store.mu.Lock()
	ws := d.store.window(win)
	if ws == nil {
		d.store.mu.Unlock()
		return
	}
	fn(ws)
	ws.Upgrade()
	d.store.changed()
	d.store.mu.Unlock()
	d.pushWindow(win, kind)
}

func (d *Dispatcher) refreshWmName(win xproto.Window) {
	p, ok := d.fetch(win, xproto.AtomWmName, xproto.AtomString, "WM_NAME")
	if !ok {
		return
	}
	d.mutate(win, loop.WindowTitleUpdated, func(ws *WindowState) {
		ws.WmName = string(p.Value)
	})
}

func (d *Dispatcher) refreshNetWmName(win xproto.Window) {
	p, ok := d.fetch(win, d.atoms.NetWmName, d.atoms.Utf8String, "_NET_WM_NAME")
	if !ok {
		return
	}
	d.mutate(win, loop.WindowTitleUpdated, func(ws *WindowState) {
		ws.Title = string(p.Value)
	})
}

func (d *Dispatcher) refreshIcon(win xproto.Window) {
	log := slog.With("func", "xwm.Dispatcher.refreshIcon", "window", win)

	p, ok := d.fetch(win, d.atoms.NetWmIcon, xproto.AtomCardinal, "_NET_WM_ICON")
	if !ok {
		return
	}
	if p.Unset() {
		d.mutate(win, loop.WindowIconUpdated, func(ws *WindowState) {
			ws.Icon = nil
		})
		return
	}

	vals := p.Cardinals()
	if len(vals) < 2 {
		log.Warn("Icon property too short", "len", len(vals))
		return
	}
	width, height := vals[0], vals[1]
	pixels := vals[2:]
	if uint64(width)*uint64(height) != uint64(len(pixels)) {
		log.Warn("Icon dimensions disagree with payload", "width", width, "height", height, "len", len(pixels))
		return
	}

	// Wire format is ARGB cardinals.
	rgba := make([]byte, 0, 4*len(pixels))
	for _, px := range pixels {
		rgba = append(rgba, byte(px>>16), byte(px>>8), byte(px), byte(px>>24))
	}
	d.mutate(win, loop.WindowIconUpdated, func(ws *WindowState) {
		ws.Icon = &Icon{RGBA: rgba, Width: width, Height: height}
	})
}

func (d *Dispatcher) refreshMotifHints(win xproto.Window) {
	p, ok := d.fetch(win, d.atoms.MotifWmHints, d.atoms.MotifWmHints, "_MOTIF_WM_HINTS")
	if !ok {
		return
	}
	if p.Unset() {
		d.mutate(win, loop.WindowHintsUpdated, func(ws *WindowState) {
			ws.Decorations = true
			ws.Resizable = true
		})
		return
	}

	vals := p.Cardinals()
	if len(vals) < motifHintsLen {
		slog.Warn("Motif hints too short", "func", "xwm.Dispatcher.refreshMotifHints", "window", win, "len", len(vals))
		return
	}
	flags, functions, decorations := vals[0], vals[1], vals[2]

	d.mutate(win, loop.WindowHintsUpdated, func(ws *WindowState) {
		ws.Decorations = flags&motifFlagDecorations == 0 || decorations != 0
		ws.Resizable = flags&motifFlagFunctions == 0 ||
			functions&motifFuncAll != 0 ||
			functions&(motifFuncResize|motifFuncMaximize) != 0
	})
}

func (d *Dispatcher) refreshNormalHints(win xproto.Window) {
	p, ok := d.fetch(win, xproto.AtomWmNormalHints, xproto.AtomWmSizeHints, "WM_NORMAL_HINTS")
	if !ok {
		return
	}
	if p.Unset() {
		d.mutate(win, loop.WindowHintsUpdated, func(ws *WindowState) {
			ws.MinSize = nil
			ws.MaxSize = nil
		})
		return
	}

	vals := p.Cardinals()
	if len(vals) < 9 {
		slog.Warn("Size hints too short", "func", "xwm.Dispatcher.refreshNormalHints", "window", win, "len", len(vals))
		return
	}
	flags := vals[0]

	d.mutate(win, loop.WindowHintsUpdated, func(ws *WindowState) {
		ws.MinSize = nil
		ws.MaxSize = nil
		if flags&sizeHintPMinSize != 0 {
			ws.MinSize = &Size{Width: vals[5], Height: vals[6]}
		}
		if flags&sizeHintPMaxSize != 0 {
			ws.MaxSize = &Size{Width: vals[7], Height: vals[8]}
		}
	})
}

func (d *Dispatcher) refreshWmHints(win xproto.Window) {
	p, ok := d.fetch(win, xproto.AtomWmHints, xproto.AtomWmHints, "WM_HINTS")
	if !ok {
		return
	}
	if p.Unset() {
		d.mutate(win, loop.WindowHintsUpdated, func(ws *WindowState) {
			ws.Urgency = false
		})
		return
	}

	vals := p.Cardinals()
	if len(vals) < 1 {
		slog.Warn("WM hints too short", "func", "xwm.Dispatcher.refreshWmHints", "window", win)
		return
	}
	flags := vals[0]

	d.mutate(win, loop.WindowHintsUpdated, func(ws *WindowState) {
		ws.Urgency = flags&wmHintUrgency != 0
	})
}

func (d *Dispatcher) refreshClass(win xproto.Window) {
	p, ok := d.fetch(win, xproto.AtomWmClass, xproto.AtomString, "WM_CLASS")
	if !ok {
		return
	}

	// Two NUL-terminated strings: instance, then class.
	parts := bytes.SplitN(p.Value, []byte{0}, 3)
	var instance, class string
	if len(parts) > 0 {
		instance = string(parts[0])
	}
	if len(parts) > 1 {
		class = string(parts[1])
	}
	d.mutate(win, loop.WindowHintsUpdated, func(ws *WindowState) {
		ws.Instance = instance
		ws.Class = class
	})
}

func (d *Dispatcher) refreshProtocols(win xproto.Window) {
	p, ok := d.fetch(win, d.atoms.WmProtocols, xproto.AtomAtom, "WM_PROTOCOLS")
	if !ok {
		return
	}

	var protocols Protocols
	for _, atom := range p.Cardinals() {
		switch xproto.Atom(atom) {
		case d.atoms.NetWmPing:
			protocols |= ProtocolPing
		case d.atoms.WmDeleteWindow:
			protocols |= ProtocolDeleteWindow
		}
	}
	d.mutate(win, loop.WindowHintsUpdated, func(ws *WindowState) {
		ws.Protocols = protocols
	})
}
