package xwm

import (
	"errors"
	"testing"

	"github.com/ItsNotGoodName/x-winloop/internal/xconn"
	"github.com/jezek/xgb/xproto"
)

func (f *fixture) target() *Target {
	return &Target{
		conn:          f.conn,
		atoms:         f.atoms,
		store:         f.store,
		dispatcher:    f.dispatcher,
		requestRedraw: func(xproto.Window) {},
	}
}

func TestTargetCreateWindow(t *testing.T) {
	f := newFixture()
	target := f.target()

	win, err := target.CreateWindow(CreateWindowOptions{
		Title: "demo", X: 10, Y: 20, Width: 640, Height: 480, Visible: true,
	})
	if err != nil {
		t.Fatalf("CreateWindow returned %v", err)
	}

	f.store.mu.Lock()
	ws := f.store.window(win.ID())
	f.store.mu.Unlock()
	if ws == nil {
		t.Fatal("created window not in store")
	}
	if !ws.Decorations || !ws.Resizable || !ws.CursorVisible {
		t.Fatal("defaults not applied")
	}

	if len(f.conn.created) != 1 {
		t.Fatalf("created %d server windows, want 1", len(f.conn.created))
	}
	create := f.conn.created[0]
	if create.x != 10 || create.y != 20 || create.width != 640 || create.height != 480 {
		t.Fatalf("server create %+v", create)
	}

	title := f.conn.lastPropWrite(t, win.ID(), f.atoms.NetWmName)
	if string(title.data) != "demo" {
		t.Fatalf("title property %q, want demo", title.data)
	}
	if len(f.conn.mapped) != 1 || f.conn.mapped[0] != win.ID() {
		t.Fatalf("mapped %v, want the new window", f.conn.mapped)
	}

	// The server-side create notification finishes the setup.
	f.dispatcher.Dispatch(xproto.CreateNotifyEvent{
		Window: win.ID(), X: 10, Y: 20, Width: 640, Height: 480,
	})
	if ws.ParentID == 0 {
		t.Fatal("decoration parent missing after create notify")
	}
	select {
	case <-win.Changed():
	default:
		t.Fatal("handle not notified of the state change")
	}
}

func TestWindowSetTitleWritesBothProperties(t *testing.T) {
	f := newFixture()
	win, err := f.target().CreateWindow(CreateWindowOptions{Width: 100, Height: 100})
	if err != nil {
		t.Fatalf("CreateWindow returned %v", err)
	}

	if err := win.SetTitle("both"); err != nil {
		t.Fatalf("SetTitle returned %v", err)
	}
	utf8 := f.conn.lastPropWrite(t, win.ID(), f.atoms.NetWmName)
	legacy := f.conn.lastPropWrite(t, win.ID(), xproto.AtomWmName)
	if string(utf8.data) != "both" || string(legacy.data) != "both" {
		t.Fatalf("titles %q/%q, want both/both", utf8.data, legacy.data)
	}
	if utf8.typ != f.atoms.Utf8String || legacy.typ != xproto.AtomString {
		t.Fatalf("title property types %d/%d", utf8.typ, legacy.typ)
	}
}

func TestWindowStateMessages(t *testing.T) {
	f := newFixture()
	win, err := f.target().CreateWindow(CreateWindowOptions{Width: 100, Height: 100})
	if err != nil {
		t.Fatalf("CreateWindow returned %v", err)
	}

	if err := win.SetFullscreen(true); err != nil {
		t.Fatalf("SetFullscreen returned %v", err)
	}
	msg := f.conn.messages[len(f.conn.messages)-1]
	if msg.ev.Type != f.atoms.NetWmState {
		t.Fatalf("message type %d, want _NET_WM_STATE", msg.ev.Type)
	}
	if msg.dest != f.conn.root {
		t.Fatalf("message sent to %d, want root", msg.dest)
	}
	data := msg.ev.Data.Data32
	if data[0] != netWmStateAdd || xproto.Atom(data[1]) != f.atoms.NetWmStateFullscreen {
		t.Fatalf("message data %v", data)
	}

	if err := win.SetMaximized(false); err != nil {
		t.Fatalf("SetMaximized returned %v", err)
	}
	data = f.conn.messages[len(f.conn.messages)-1].ev.Data.Data32
	if data[0] != netWmStateRemove ||
		xproto.Atom(data[1]) != f.atoms.NetWmStateMaximizedHorz ||
		xproto.Atom(data[2]) != f.atoms.NetWmStateMaximizedVert {
		t.Fatalf("maximize message data %v", data)
	}

	if err := win.Minimize(); err != nil {
		t.Fatalf("Minimize returned %v", err)
	}
	last := f.conn.messages[len(f.conn.messages)-1]
	if last.ev.Type != f.atoms.WmChangeState || last.ev.Data.Data32[0] != iconicState {
		t.Fatalf("minimize message %v", last.ev.Data.Data32)
	}
}

func TestWindowDragUsesPointerPosition(t *testing.T) {
	f := newFixture()
	f.conn.pointerX, f.conn.pointerY = 123, 456
	win, err := f.target().CreateWindow(CreateWindowOptions{Width: 100, Height: 100})
	if err != nil {
		t.Fatalf("CreateWindow returned %v", err)
	}

	if err := win.DragWindow(); err != nil {
		t.Fatalf("DragWindow returned %v", err)
	}
	msg := f.conn.messages[len(f.conn.messages)-1]
	data := msg.ev.Data.Data32
	if msg.ev.Type != f.atoms.NetWmMoveresize || data[0] != 123 || data[1] != 456 || data[2] != moveresizeMove {
		t.Fatalf("drag message %v", data)
	}
}

func TestWindowCursorGrab(t *testing.T) {
	f := newFixture()
	win, err := f.target().CreateWindow(CreateWindowOptions{Width: 100, Height: 100})
	if err != nil {
		t.Fatalf("CreateWindow returned %v", err)
	}

	if err := win.SetCursorGrab(CursorGrabConfined); err != nil {
		t.Fatalf("SetCursorGrab returned %v", err)
	}
	if f.conn.grabCount != 1 {
		t.Fatalf("grab count %d, want 1", f.conn.grabCount)
	}
	if win.Info().ID != win.ID() {
		t.Fatal("info snapshot broken")
	}

	if err := win.SetCursorGrab(CursorGrabLocked); !errors.Is(err, ErrCursorLockUnsupported) {
		t.Fatalf("locked grab returned %v, want ErrCursorLockUnsupported", err)
	}

	if err := win.SetCursorGrab(CursorGrabNone); err != nil {
		t.Fatalf("SetCursorGrab(none) returned %v", err)
	}
	if f.conn.ungrabCount != 1 {
		t.Fatalf("ungrab count %d, want 1", f.conn.ungrabCount)
	}
}

func TestWindowCursorVisible(t *testing.T) {
	f := newFixture()
	win, err := f.target().CreateWindow(CreateWindowOptions{Width: 100, Height: 100})
	if err != nil {
		t.Fatalf("CreateWindow returned %v", err)
	}

	if err := win.SetCursorVisible(false); err != nil {
		t.Fatalf("SetCursorVisible returned %v", err)
	}
	if visible, ok := f.conn.cursors[win.ID()]; !ok || visible {
		t.Fatal("cursor not hidden")
	}
}

func TestWindowSizes(t *testing.T) {
	f := newFixture()
	ws := f.manage(t, 50, 0, 0, 800, 600, 2)
	win := &Window{id: 50, conn: f.conn, atoms: f.atoms, store: f.store, state: ws}

	inner := win.InnerSize()
	if inner.Width != 800 || inner.Height != 600 {
		t.Fatalf("inner %dx%d, want 800x600", inner.Width, inner.Height)
	}
	outer := win.OuterSize()
	if outer.Width != 800+4 || outer.Height != 600+TitleHeight+4 {
		t.Fatalf("outer %dx%d", outer.Width, outer.Height)
	}
}

func TestWindowSizeHintsWrite(t *testing.T) {
	f := newFixture()
	win, err := f.target().CreateWindow(CreateWindowOptions{Width: 100, Height: 100})
	if err != nil {
		t.Fatalf("CreateWindow returned %v", err)
	}

	if err := win.SetMinSize(&Size{Width: 320, Height: 240}); err != nil {
		t.Fatalf("SetMinSize returned %v", err)
	}
	hints := f.conn.lastPropWrite(t, win.ID(), xproto.AtomWmNormalHints)
	vals := (xconn.Prop{Value: hints.data, Format: 32}).Cardinals()
	if len(vals) != sizeHintsLen {
		t.Fatalf("hints length %d, want %d", len(vals), sizeHintsLen)
	}
	if vals[0]&sizeHintPMinSize == 0 || vals[5] != 320 || vals[6] != 240 {
		t.Fatalf("hints %v", vals)
	}
	if vals[0]&sizeHintPMaxSize != 0 {
		t.Fatal("max flag set without a max size")
	}
}

func TestWindowDropStopsNotifications(t *testing.T) {
	f := newFixture()
	win, err := f.target().CreateWindow(CreateWindowOptions{Width: 100, Height: 100})
	if err != nil {
		t.Fatalf("CreateWindow returned %v", err)
	}

	win.Drop()
	f.dispatcher.Dispatch(xproto.CreateNotifyEvent{Window: win.ID(), Width: 100, Height: 100})
	select {
	case <-win.Changed():
		t.Fatal("dropped handle still notified")
	default:
	}
}

func TestBootstrapPublishesWmCheck(t *testing.T) {
	f := newFixture()
	if err := f.dispatcher.Bootstrap(); err != nil {
		t.Fatalf("Bootstrap returned %v", err)
	}

	if f.conn.selected[f.conn.root]&xproto.EventMaskSubstructureRedirect == 0 {
		t.Fatal("substructure redirect not selected on root")
	}
	if !f.conn.screenSelected {
		t.Fatal("screen change events not selected")
	}

	supported := f.conn.lastPropWrite(t, f.conn.root, f.atoms.NetSupported)
	if len(supported.data) == 0 {
		t.Fatal("_NET_SUPPORTED empty")
	}

	rootCheck := f.conn.lastPropWrite(t, f.conn.root, f.atoms.NetSupportingWmCheck)
	checkID := xproto.Window((xconn.Prop{Value: rootCheck.data, Format: 32}).Cardinals()[0])
	selfCheck := f.conn.lastPropWrite(t, checkID, f.atoms.NetSupportingWmCheck)
	if got := xproto.Window((xconn.Prop{Value: selfCheck.data, Format: 32}).Cardinals()[0]); got != checkID {
		t.Fatalf("check window property points at %d, want %d", got, checkID)
	}
	name := f.conn.lastPropWrite(t, checkID, f.atoms.NetWmName)
	if string(name.data) != wmName {
		t.Fatalf("check window name %q, want %q", name.data, wmName)
	}

	if len(f.dispatcher.crtcs) == 0 {
		t.Fatal("monitors not enumerated")
	}
}

func TestRulesAppliedByClass(t *testing.T) {
	off := false
	f := newFixture(Rule{
		UUID:        "9e8adf0b-5d22-465b-bbcb-691d07c5324b",
		Class:       "Game",
		Decorations: &off,
		Fullscreen:  true,
	})
	f.conn.setProp(50, xproto.AtomWmClass, 8, []byte("game\x00Game\x00"))

	ws := f.manage(t, 50, 0, 0, 800, 600, 0)
	if ws.Decorations {
		t.Fatal("rule did not disable decorations")
	}
	if !ws.Fullscreen {
		t.Fatal("rule did not enter fullscreen")
	}
	parent := f.conn.lastConfigure(t, ws.ParentID)
	if parent.values[2] != 1920 || parent.values[3] != 1080 {
		t.Fatalf("rule fullscreen configured %v", parent.values)
	}
}

func TestRulesIgnoreOtherClasses(t *testing.T) {
	f := newFixture(Rule{UUID: "u", Class: "Game", AlwaysOnTop: true})
	f.conn.setProp(50, xproto.AtomWmClass, 8, []byte("ed\x00Editor\x00"))

	ws := f.manage(t, 50, 0, 0, 800, 600, 0)
	if ws.AlwaysOnTop {
		t.Fatal("rule applied to non-matching class")
	}
}

func TestMonitorsExposedOnTarget(t *testing.T) {
	f := newFixture()
	f.conn.crtcs = []xconn.Crtc{
		{X: 0, Y: 0, Width: 1920, Height: 1080},
		{X: 1920, Y: 0, Width: 1024, Height: 768},
	}
	f.dispatcher.updateCrtcs()

	target := f.target()
	monitors := target.AvailableMonitors()
	if len(monitors) != 2 {
		t.Fatalf("got %d monitors, want 2", len(monitors))
	}
	primary, ok := target.PrimaryMonitor()
	if !ok || primary.Width != 1920 {
		t.Fatalf("primary %+v ok=%v", primary, ok)
	}
}
