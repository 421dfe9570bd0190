package xwm

import (
	"fmt"

	"github.com/ItsNotGoodName/x-winloop/internal/xconn"
	"github.com/jezek/xgb/xproto"
)

const wmName = "x-winloop"

// Bootstrap claims window management of the root window and publishes the
// EWMH support properties. Failing to select substructure redirection means
// another window manager is running; that is fatal.
func (d *Dispatcher) Bootstrap() error {
	root := d.conn.Root()

	if err := d.conn.SelectInput(root,
		xproto.EventMaskSubstructureRedirect|
			xproto.EventMaskSubstructureNotify|
			xproto.EventMaskPropertyChange|
			xproto.EventMaskButtonRelease|
			xproto.EventMaskPointerMotion,
	).Check(); err != nil {
		return fmt.Errorf("select root window events (another window manager running?): %w", err)
	}

	if err := d.conn.SelectScreenChanges(); err != nil {
		return fmt.Errorf("select screen change events: %w", err)
	}

	supported := xconn.CardinalsToBytes([]uint32{
		uint32(d.atoms.NetClientList),
		uint32(d.atoms.NetSupportingWmCheck),
		uint32(d.atoms.NetWmState),
		uint32(d.atoms.NetWmStateFullscreen),
		uint32(d.atoms.NetWmStateAbove),
		uint32(d.atoms.NetWmStateMaximizedVert),
		uint32(d.atoms.NetWmStateMaximizedHorz),
		uint32(d.atoms.NetWmMoveresize),
		uint32(d.atoms.NetWmPing),
	})
	if err := d.conn.ChangeProperty(root, d.atoms.NetSupported, xproto.AtomAtom, 32, supported).Check(); err != nil {
		return fmt.Errorf("publish supported properties: %w", err)
	}

	check, err := d.conn.GenerateID()
	if err != nil {
		return fmt.Errorf("allocate supporting check window id: %w", err)
	}
	if err := d.conn.CreateWindow(check, root, -1, -1, 1, 1, 0, 0).Check(); err != nil {
		return fmt.Errorf("create supporting check window: %w", err)
	}
	checkBytes := xconn.CardinalsToBytes([]uint32{uint32(check)})
	if err := d.conn.ChangeProperty(check, d.atoms.NetWmName, d.atoms.Utf8String, 8, []byte(wmName)).Check(); err != nil {
		return fmt.Errorf("name supporting check window: %w", err)
	}
	if err := d.conn.ChangeProperty(check, d.atoms.NetSupportingWmCheck, xproto.AtomWindow, 32, checkBytes).Check(); err != nil {
		return fmt.Errorf("mark supporting check window: %w", err)
	}
	if err := d.conn.ChangeProperty(root, d.atoms.NetSupportingWmCheck, xproto.AtomWindow, 32, checkBytes).Check(); err != nil {
		return fmt.Errorf("publish supporting check window: %w", err)
	}

	crtcs, err := d.conn.Crtcs()
	if err != nil {
		return fmt.Errorf("list monitors: %w", err)
	}
	d.crtcs = crtcs

	d.updateClientList()
	return nil
}
