// Package app wires configuration into the window manager and provides the
// default event handler for the binary.
package app

import (
	"log/slog"

	"github.com/ItsNotGoodName/x-winloop/internal/config"
	"github.com/ItsNotGoodName/x-winloop/internal/loop"
	"github.com/ItsNotGoodName/x-winloop/internal/xwm"
	"github.com/google/uuid"
)

// NormalizeConfig backfills generated identifiers so rules can be referenced
// stably across edits.
func NormalizeConfig(store *config.Store) error {
	return store.UpdateConfig(func(cfg config.Config) (config.Config, error) {
		for i := range cfg.Rules {
			if cfg.Rules[i].UUID == "" {
				cfg.Rules[i].UUID = uuid.NewString()
			}
		}
		return cfg, nil
	})
}

// Rules converts configured window rules into their runtime form.
func Rules(cfg config.Config) []xwm.Rule {
	rules := make([]xwm.Rule, 0, len(cfg.Rules))
	for _, r := range cfg.Rules {
		rules = append(rules, xwm.Rule{
			UUID:        r.UUID,
			Class:       r.Class,
			Decorations: r.Decorations,
			Fullscreen:  r.Fullscreen,
			AlwaysOnTop: r.AlwaysOnTop,
		})
	}
	return rules
}

// Handler returns the default loop callback: block until something happens
// and log what did.
func Handler() xwm.Handler {
	return func(ev loop.Event, target *xwm.Target, cf *loop.ControlFlow) {
		switch ev := ev.(type) {
		case loop.NewEvents:
			cf.SetWait()
		case loop.WindowEvent:
			slog.Debug("Window event", "window", ev.Window, "kind", ev.Kind.String())
		case loop.UserEvent:
			slog.Info("User event", "value", ev.Value)
		case loop.RedrawRequested:
			slog.Debug("Redraw requested", "window", ev.Window)
		case loop.LoopDestroyed:
			slog.Info("Event loop destroyed")
		}
	}
}
