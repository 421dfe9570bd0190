package xwm

import (
	"testing"

	"github.com/ItsNotGoodName/x-winloop/internal/loop"
	"github.com/ItsNotGoodName/x-winloop/internal/xconn"
	"github.com/jezek/xgb/xproto"
)

func (f *fixture) propertyNotify(win xproto.Window, atom xproto.Atom) {
	f.dispatcher.Dispatch(xproto.PropertyNotifyEvent{Window: win, Atom: atom})
}

func TestTitleProperties(t *testing.T) {
	f := newFixture()
	ws := f.manage(t, 50, 0, 0, 800, 600, 0)
	f.drain()

	f.conn.setProp(50, f.atoms.NetWmName, 8, []byte("hello"))
	f.propertyNotify(50, f.atoms.NetWmName)
	if ws.Title != "hello" {
		t.Fatalf("title %q, want hello", ws.Title)
	}

	f.conn.setProp(50, xproto.AtomWmName, 8, []byte("legacy"))
	f.propertyNotify(50, xproto.AtomWmName)
	if ws.WmName != "legacy" {
		t.Fatalf("wm name %q, want legacy", ws.WmName)
	}
	if ws.Title != "hello" {
		t.Fatal("legacy name overwrote the UTF-8 title")
	}

	if !hasKind(f.drain(), 50, loop.WindowTitleUpdated) {
		t.Fatal("no title-updated event")
	}
}

func TestClassProperty(t *testing.T) {
	f := newFixture()
	ws := f.manage(t, 50, 0, 0, 800, 600, 0)

	f.conn.setProp(50, xproto.AtomWmClass, 8, []byte("navigator\x00Firefox\x00"))
	f.propertyNotify(50, xproto.AtomWmClass)

	if ws.Instance != "navigator" || ws.Class != "Firefox" {
		t.Fatalf("class %q/%q, want navigator/Firefox", ws.Instance, ws.Class)
	}
}

func TestIconDecodesARGB(t *testing.T) {
	f := newFixture()
	ws := f.manage(t, 50, 0, 0, 800, 600, 0)

	// 2x1 icon: opaque red, translucent green.
	f.conn.setProp(50, f.atoms.NetWmIcon, 32, xconn.CardinalsToBytes([]uint32{
		2, 1,
		0xFFFF0000,
		0x8000FF00,
	}))
	f.propertyNotify(50, f.atoms.NetWmIcon)

	if ws.Icon == nil {
		t.Fatal("icon not decoded")
	}
	if ws.Icon.Width != 2 || ws.Icon.Height != 1 {
		t.Fatalf("icon %dx%d, want 2x1", ws.Icon.Width, ws.Icon.Height)
	}
	want := []byte{0xFF, 0x00, 0x00, 0xFF, 0x00, 0xFF, 0x00, 0x80}
	if len(ws.Icon.RGBA) != len(want) {
		t.Fatalf("icon bytes %v, want %v", ws.Icon.RGBA, want)
	}
	for i := range want {
		if ws.Icon.RGBA[i] != want[i] {
			t.Fatalf("icon bytes %v, want %v", ws.Icon.RGBA, want)
		}
	}
}

func TestIconRejectsMismatchedPayload(t *testing.T) {
	f := newFixture()
	ws := f.manage(t, 50, 0, 0, 800, 600, 0)

	f.conn.setProp(50, f.atoms.NetWmIcon, 32, xconn.CardinalsToBytes([]uint32{4, 4, 0xFF}))
	f.propertyNotify(50, f.atoms.NetWmIcon)
	if ws.Icon != nil {
		t.Fatal("mismatched icon payload was accepted")
	}
}

func TestIconUnsetClears(t *testing.T) {
	f := newFixture()
	ws := f.manage(t, 50, 0, 0, 800, 600, 0)
	ws.Icon = &Icon{Width: 1, Height: 1, RGBA: []byte{0, 0, 0, 0}}

	f.propertyNotify(50, f.atoms.NetWmIcon)
	if ws.Icon != nil {
		t.Fatal("unset icon property did not clear the icon")
	}
}

func TestMotifHintsToggleDecorations(t *testing.T) {
	f := newFixture()
	ws := f.manage(t, 50, 0, 0, 800, 600, 0)

	f.conn.setProp(50, f.atoms.MotifWmHints, 32, xconn.CardinalsToBytes([]uint32{
		motifFlagDecorations, 0, 0, 0, 0,
	}))
	f.propertyNotify(50, f.atoms.MotifWmHints)
	if ws.Decorations {
		t.Fatal("decorations still on")
	}

	f.conn.setProp(50, f.atoms.MotifWmHints, 32, xconn.CardinalsToBytes([]uint32{
		motifFlagDecorations, 0, 1, 0, 0,
	}))
	f.propertyNotify(50, f.atoms.MotifWmHints)
	if !ws.Decorations {
		t.Fatal("decorations still off")
	}
}

func TestMotifHintsFunctions(t *testing.T) {
	f := newFixture()
	ws := f.manage(t, 50, 0, 0, 800, 600, 0)

	f.conn.setProp(50, f.atoms.MotifWmHints, 32, xconn.CardinalsToBytes([]uint32{
		motifFlagFunctions, motifFuncResize, 0, 0, 0,
	}))
	f.propertyNotify(50, f.atoms.MotifWmHints)
	if !ws.Resizable {
		t.Fatal("resize function not honored")
	}

	// Functions flagged but neither resize nor maximize granted.
	f.conn.setProp(50, f.atoms.MotifWmHints, 32, xconn.CardinalsToBytes([]uint32{
		motifFlagFunctions, 1 << 2, 0, 0, 0,
	}))
	f.propertyNotify(50, f.atoms.MotifWmHints)
	if ws.Resizable {
		t.Fatal("resizable without resize or maximize function")
	}
}

func TestNormalHintsMinMax(t *testing.T) {
	f := newFixture()
	ws := f.manage(t, 50, 0, 0, 800, 600, 0)

	hints := make([]uint32, sizeHintsLen)
	hints[0] = sizeHintPMinSize | sizeHintPMaxSize
	hints[5], hints[6] = 320, 240
	hints[7], hints[8] = 1920, 1080
	f.conn.setProp(50, xproto.AtomWmNormalHints, 32, xconn.CardinalsToBytes(hints))
	f.propertyNotify(50, xproto.AtomWmNormalHints)

	if ws.MinSize == nil || ws.MinSize.Width != 320 || ws.MinSize.Height != 240 {
		t.Fatalf("min size %+v, want 320x240", ws.MinSize)
	}
	if ws.MaxSize == nil || ws.MaxSize.Width != 1920 || ws.MaxSize.Height != 1080 {
		t.Fatalf("max size %+v, want 1920x1080", ws.MaxSize)
	}

	hints[0] = sizeHintPMinSize
	f.conn.setProp(50, xproto.AtomWmNormalHints, 32, xconn.CardinalsToBytes(hints))
	f.propertyNotify(50, xproto.AtomWmNormalHints)
	if ws.MaxSize != nil {
		t.Fatal("max size survived a hint rewrite without PMaxSize")
	}
}

func TestWmHintsUrgency(t *testing.T) {
	f := newFixture()
	ws := f.manage(t, 50, 0, 0, 800, 600, 0)

	f.conn.setProp(50, xproto.AtomWmHints, 32, xconn.CardinalsToBytes([]uint32{wmHintUrgency}))
	f.propertyNotify(50, xproto.AtomWmHints)
	if !ws.Urgency {
		t.Fatal("urgency hint not picked up")
	}

	f.conn.setProp(50, xproto.AtomWmHints, 32, xconn.CardinalsToBytes([]uint32{0}))
	f.propertyNotify(50, xproto.AtomWmHints)
	if ws.Urgency {
		t.Fatal("urgency hint not cleared")
	}
}

func TestProtocolsBitset(t *testing.T) {
	f := newFixture()
	ws := f.manage(t, 50, 0, 0, 800, 600, 0)

	f.conn.setProp(50, f.atoms.WmProtocols, 32, xconn.CardinalsToBytes([]uint32{
		uint32(f.atoms.NetWmPing),
		uint32(f.atoms.WmDeleteWindow),
		9999,
	}))
	f.propertyNotify(50, f.atoms.WmProtocols)

	if ws.Protocols&ProtocolPing == 0 || ws.Protocols&ProtocolDeleteWindow == 0 {
		t.Fatalf("protocols %b, want ping and delete-window", ws.Protocols)
	}
}

func TestPropertyNotifyForeignWindowIgnored(t *testing.T) {
	f := newFixture()
	f.conn.setProp(99, f.atoms.NetWmName, 8, []byte("foreign"))
	f.propertyNotify(99, f.atoms.NetWmName)
	if len(f.drain()) != 0 {
		t.Fatal("events emitted for a foreign property change")
	}
}

func TestPropertySweepOnCreate(t *testing.T) {
	f := newFixture()
	f.conn.setProp(50, f.atoms.NetWmName, 8, []byte("preexisting"))
	f.conn.setProp(50, xproto.AtomWmClass, 8, []byte("term\x00Term\x00"))

	ws := f.manage(t, 50, 0, 0, 800, 600, 0)
	if ws.Title != "preexisting" {
		t.Fatalf("title %q, want preexisting", ws.Title)
	}
	if ws.Class != "Term" {
		t.Fatalf("class %q, want Term", ws.Class)
	}
}
