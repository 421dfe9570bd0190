// Package srv exposes read-only introspection of the window manager over
// HTTP, plus an endpoint for injecting user events into the loop.
package srv

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ItsNotGoodName/x-winloop/internal/build"
	"github.com/ItsNotGoodName/x-winloop/internal/bus"
	"github.com/ItsNotGoodName/x-winloop/internal/loop"
	"github.com/ItsNotGoodName/x-winloop/internal/xwm"
	"github.com/ItsNotGoodName/x-winloop/pkg/chiext"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	address string
	store   *xwm.Store
	proxy   loop.Proxy
	hub     *bus.Hub[xwm.StoreChanged]
}

func New(address string, store *xwm.Store, proxy loop.Proxy, hub *bus.Hub[xwm.StoreChanged]) Server {
	return Server{
		address: address,
		store:   store,
		proxy:   proxy,
		hub:     hub,
	}
}

func (Server) String() string {
	return "srv.Server"
}

// Serve runs the HTTP server until ctx is cancelled.
func (s Server) Serve(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.address,
		Handler: s.router(),
	}

	errC := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "address", s.address)
		errC <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errC:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}

func (s Server) router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chiext.Logger())
	r.Use(middleware.Recoverer)

	r.Get("/api/build", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, build.Current)
	})
	r.Get("/api/windows", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, s.store.Snapshot())
	})
	r.Get("/api/pongs", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, s.store.Pongs())
	})
	r.Get("/api/changes", s.handleChanges)
	r.Post("/api/events", s.handleSendEvent)

	return r
}

// handleChanges long-polls for the next window-state change and responds with
// a fresh snapshot.
func (s Server) handleChanges(w http.ResponseWriter, r *http.Request) {
	eventC, unsubscribe := s.hub.Subscribe(r.Context())
	defer unsubscribe()

	select {
	case <-r.Context().Done():
		respond(w, http.StatusRequestTimeout, map[string]string{"error": "cancelled"})
	case <-eventC:
		respond(w, http.StatusOK, s.store.Snapshot())
	}
}

func (s Server) handleSendEvent(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Value any `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := s.proxy.SendEvent(body.Value); err != nil {
		var closed *loop.ClosedError
		if errors.As(err, &closed) {
			respond(w, http.StatusServiceUnavailable, map[string]string{"error": "event loop closed"})
			return
		}
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusAccepted, map[string]bool{"ok": true})
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "func", "srv.respond", "error", err)
	}
}
