package xconn

import (
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// Atoms is the interned atom table, resolved once at connect time and threaded
// through the dispatcher instead of living in a package global.
type Atoms struct {
	NetSupported            xproto.Atom
	NetClientList           xproto.Atom
	NetSupportingWmCheck    xproto.Atom
	NetWmName               xproto.Atom
	NetWmIcon               xproto.Atom
	NetWmState              xproto.Atom
	NetWmStateFullscreen    xproto.Atom
	NetWmStateAbove         xproto.Atom
	NetWmStateMaximizedVert xproto.Atom
	NetWmStateMaximizedHorz xproto.Atom
	NetWmMoveresize         xproto.Atom
	NetWmPing               xproto.Atom
	WmProtocols             xproto.Atom
	WmDeleteWindow          xproto.Atom
	WmChangeState           xproto.Atom
	WmState                 xproto.Atom
	MotifWmHints            xproto.Atom
	Utf8String              xproto.Atom
}

func internAtoms(cache *atomCache) (*Atoms, error) {
	a := &Atoms{}
	for _, e := range []struct {
		name string
		dst  *xproto.Atom
	}{
		{"_NET_SUPPORTED", &a.NetSupported},
		{"_NET_CLIENT_LIST", &a.NetClientList},
		{"_NET_SUPPORTING_WM_CHECK", &a.NetSupportingWmCheck},
		{"_NET_WM_NAME", &a.NetWmName},
		{"_NET_WM_ICON", &a.NetWmIcon},
		{"_NET_WM_STATE", &a.NetWmState},
		{"_NET_WM_STATE_FULLSCREEN", &a.NetWmStateFullscreen},
		{"_NET_WM_STATE_ABOVE", &a.NetWmStateAbove},
		{"_NET_WM_STATE_MAXIMIZED_VERT", &a.NetWmStateMaximizedVert},
		{"_NET_WM_STATE_MAXIMIZED_HORZ", &a.NetWmStateMaximizedHorz},
		{"_NET_WM_MOVERESIZE", &a.NetWmMoveresize},
		{"_NET_WM_PING", &a.NetWmPing},
		{"WM_PROTOCOLS", &a.WmProtocols},
		{"WM_DELETE_WINDOW", &a.WmDeleteWindow},
		{"WM_CHANGE_STATE", &a.WmChangeState},
		{"WM_STATE", &a.WmState},
		{"_MOTIF_WM_HINTS", &a.MotifWmHints},
		{"UTF8_STRING", &a.Utf8String},
	} {
		atom, err := cache.Get(e.name)
		if err != nil {
			return nil, err
		}
		*e.dst = atom
	}
	return a, nil
}

// atomCache interns atoms by name and remembers both directions.
type atomCache struct {
	conn *xgb.Conn

	mu    sync.Mutex
	byID  map[xproto.Atom]string
	names map[string]xproto.Atom
}

func newAtomCache(conn *xgb.Conn) *atomCache {
	return &atomCache{
		conn:  conn,
		byID:  make(map[xproto.Atom]string),
		names: make(map[string]xproto.Atom),
	}
}

func (c *atomCache) Get(name string) (xproto.Atom, error) {
	c.mu.Lock()
	atom, ok := c.names[name]
	c.mu.Unlock()
	if ok {
		return atom, nil
	}

	reply, err := xproto.InternAtom(c.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.names[name] = reply.Atom
	c.byID[reply.Atom] = name
	c.mu.Unlock()
	return reply.Atom, nil
}

// AtomName resolves a human-readable name for an atom, for logging unknown
// property changes.
func (c *Connection) AtomName(atom xproto.Atom) (string, error) {
	c.atoms.mu.Lock()
	name, ok := c.atoms.byID[atom]
	c.atoms.mu.Unlock()
	if ok {
		return name, nil
	}

	reply, err := xproto.GetAtomName(c.Conn, atom).Reply()
	if err != nil {
		return "", err
	}

	c.atoms.mu.Lock()
	c.atoms.byID[atom] = reply.Name
	c.atoms.names[reply.Name] = atom
	c.atoms.mu.Unlock()
	return reply.Name, nil
}
