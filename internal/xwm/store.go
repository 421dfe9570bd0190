package xwm

import (
	"context"
	"sync"

	"github.com/ItsNotGoodName/x-winloop/internal/bus"
	"github.com/ItsNotGoodName/x-winloop/internal/core"
	"github.com/jezek/xgb/xproto"
)

// StoreChanged is published on the bus whenever any window state mutates.
type StoreChanged struct{}

// Store indexes every managed window twice: by client id and by decoration
// parent id. Both indexes point at the same WindowState and are kept in sync
// under one mutex.
type Store struct {
	mu             sync.Mutex
	windows        map[xproto.Window]*WindowState
	parents        map[xproto.Window]*WindowState
	windowToParent map[xproto.Window]xproto.Window
	order          []xproto.Window
	pongs          map[uint32]struct{}

	notifyC chan struct{}
}

func NewStore() *Store {
	return &Store{
		windows:        make(map[xproto.Window]*WindowState),
		parents:        make(map[xproto.Window]*WindowState),
		windowToParent: make(map[xproto.Window]xproto.Window),
		pongs:          make(map[uint32]struct{}),
		notifyC:        make(chan struct{}, 1),
	}
}

// window looks up by client id. Caller must hold mu.
func (s *Store) window(id xproto.Window) *WindowState {
	return s.windows[id]
}

// parent looks up by decoration parent id. Caller must hold mu.
func (s *Store) parent(id xproto.Window) *WindowState {
	return s.parents[id]
}

// insert registers a new client window. Caller must hold mu.
func (s *Store) insert(ws *WindowState) {
	s.windows[ws.ID] = ws
	s.order = append(s.order, ws.ID)
}

// reparent registers the decoration parent index. Caller must hold mu.
func (s *Store) reparent(ws *WindowState) {
	s.parents[ws.ParentID] = ws
	s.windowToParent[ws.ID] = ws.ParentID
}

// remove drops a window from every index. Caller must hold mu.
func (s *Store) remove(id xproto.Window) {
	ws := s.windows[id]
	if ws == nil {
		return
	}
	delete(s.windows, id)
	if ws.ParentID != 0 {
		delete(s.parents, ws.ParentID)
		delete(s.windowToParent, id)
	}
	for i, w := range s.order {
		if w == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// clientList returns the created, not-yet-destroyed client ids in insertion
// order. Caller must hold mu.
func (s *Store) clientList() []xproto.Window {
	list := make([]xproto.Window, 0, len(s.order))
	for _, id := range s.order {
		if ws := s.windows[id]; ws != nil && ws.Created && !ws.Destroyed {
			list = append(list, id)
		}
	}
	return list
}

// changed records a coalesced change wake. Caller must hold mu; the send
// never blocks, so the loop goroutine cannot wedge behind a slow consumer.
func (s *Store) changed() {
	core.FlagChannel(s.notifyC)
}

// Changes signals after any window-state mutation. Signals coalesce.
func (s *Store) Changes() <-chan struct{} {
	return s.notifyC
}

// PublishChanges forwards change wakes onto the bus until ctx is cancelled.
// Publishing happens on this goroutine only, never under the store mutex.
func (s *Store) PublishChanges(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.notifyC:
			bus.Publish(StoreChanged{})
		}
	}
}

// addPong records a received ping reply. Duplicate sequence numbers collapse.
// Caller must hold mu.
func (s *Store) addPong(seq uint32) {
	s.pongs[seq] = struct{}{}
}

// Pongs returns the ping reply sequence numbers received so far.
func (s *Store) Pongs() []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	pongs := make([]uint32, 0, len(s.pongs))
	for seq := range s.pongs {
		pongs = append(pongs, seq)
	}
	return pongs
}

// WindowInfo is a read-only snapshot of one window for introspection.
type WindowInfo struct {
	ID            xproto.Window `json:"id"`
	Parent        xproto.Window `json:"parent"`
	Title         string        `json:"title"`
	WmName        string        `json:"wm_name"`
	Class         string        `json:"class"`
	Instance      string        `json:"instance"`
	Applied       Geometry      `json:"applied"`
	Requested     Geometry      `json:"requested"`
	Fullscreen    bool          `json:"fullscreen"`
	MaximizedHorz bool          `json:"maximized_horz"`
	MaximizedVert bool          `json:"maximized_vert"`
	AlwaysOnTop   bool          `json:"always_on_top"`
	Decorations   bool          `json:"decorations"`
	Urgency       bool          `json:"urgency"`
	Dragging      bool          `json:"dragging"`
	Mapped        bool          `json:"mapped"`
	State         string        `json:"state"`
}

// info snapshots one window. Caller must hold the store mutex.
func (ws *WindowState) info() WindowInfo {
	return WindowInfo{
		ID:            ws.ID,
		Parent:        ws.ParentID,
		Title:         ws.Title,
		WmName:        ws.WmName,
		Class:         ws.Class,
		Instance:      ws.Instance,
		Applied:       ws.Applied,
		Requested:     ws.Requested,
		Fullscreen:    ws.Fullscreen,
		MaximizedHorz: ws.MaximizedHorz,
		MaximizedVert: ws.MaximizedVert,
		AlwaysOnTop:   ws.AlwaysOnTop,
		Decorations:   ws.Decorations,
		Urgency:       ws.Urgency,
		Dragging:      ws.Dragging,
		Mapped:        ws.Mapped,
		State:         ws.CurrentState.String(),
	}
}

// Snapshot returns a copy of every managed window in insertion order.
func (s *Store) Snapshot() []WindowInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	infos := make([]WindowInfo, 0, len(s.order))
	for _, id := range s.order {
		if ws := s.windows[id]; ws != nil {
			infos = append(infos, ws.info())
		}
	}
	return infos
}
