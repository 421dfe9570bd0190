package xconn

import (
	"fmt"

	"github.com/jezek/xgb/randr"
)

// Crtc is one active monitor rectangle.
type Crtc struct {
	X      int32
	Y      int32
	Width  int32
	Height int32
}

// SelectScreenChanges subscribes to RandR screen change notifications so the
// monitor list can be re-enumerated when outputs come and go.
func (c *Connection) SelectScreenChanges() error {
	return randr.SelectInputChecked(c.Conn, c.Screen.Root, randr.NotifyMaskScreenChange|randr.NotifyMaskCrtcChange|randr.NotifyMaskOutputChange).Check()
}

// Crtcs lists the active monitor rectangles. Disabled CRTCs are skipped.
func (c *Connection) Crtcs() ([]Crtc, error) {
	resources, err := randr.GetScreenResources(c.Conn, c.Screen.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("get screen resources: %w", err)
	}

	var crtcs []Crtc
	for _, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(c.Conn, crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}
		crtcs = append(crtcs, Crtc{
			X:      int32(info.X),
			Y:      int32(info.Y),
			Width:  int32(info.Width),
			Height: int32(info.Height),
		})
	}
	return crtcs, nil
}
