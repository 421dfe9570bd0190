package xwm

import (
	"log/slog"

	"github.com/ItsNotGoodName/x-winloop/internal/loop"
	"github.com/jezek/xgb/xproto"
)

// Rule is a per-class window policy applied once, right after the property
// sweep of a newly managed window.
type Rule struct {
	UUID        string
	Class       string
	Decorations *bool
	Fullscreen  bool
	AlwaysOnTop bool
}

func (d *Dispatcher) applyRules(win xproto.Window) {
	d.store.mu.Lock()
	ws := d.store.window(win)
	if ws == nil {
		d.store.mu.Unlock()
		return
	}

	touched := false
	for _, rule := range d.rules {
		if rule.Class != ws.Class {
			continue
		}
		slog.Info("Applying window rule", "func", "xwm.Dispatcher.applyRules", "window", win, "uuid", rule.UUID, "class", rule.Class)

		if rule.Decorations != nil {
			ws.Decorations = *rule.Decorations
			touched = true
		}
		if rule.AlwaysOnTop && !ws.AlwaysOnTop {
			ws.AlwaysOnTop = true
			touched = true
		}
		if rule.Fullscreen && !ws.Fullscreen {
			ws.Fullscreen = true
			d.applyFullscreen(ws, true)
			touched = true
		}
	}

	if touched {
		ws.Upgrade()
		d.store.changed()
	}
	d.store.mu.Unlock()
	if touched {
		d.pushWindow(win, loop.WindowStateUpdated)
	}
}
