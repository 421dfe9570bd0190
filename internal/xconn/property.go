package xconn

import (
	"encoding/binary"

	"github.com/jezek/xgb/xproto"
)

// Property fetches are capped; anything larger is a client bug or an attack.
const maxPropertyLen = 10000

// Prop is the tri-state result of a property fetch: present, unset, or (via
// the error return) failed.
type Prop struct {
	Value  []byte
	Format byte
}

// Unset reports that the property does not exist on the window.
func (p Prop) Unset() bool {
	return p.Format == 0
}

// GetProperty fetches up to maxPropertyLen words of a property. A missing
// property is not an error; it comes back as an unset Prop.
func (c *Connection) GetProperty(win xproto.Window, property, typ xproto.Atom) (Prop, error) {
	reply, err := xproto.GetProperty(c.Conn, false, win, property, typ, 0, maxPropertyLen).Reply()
	if err != nil {
		return Prop{}, err
	}
	return Prop{Value: reply.Value, Format: reply.Format}, nil
}

// Cardinals decodes a 32-bit formatted property value.
func (p Prop) Cardinals() []uint32 {
	vals := make([]uint32, 0, len(p.Value)/4)
	for i := 0; i+4 <= len(p.Value); i += 4 {
		vals = append(vals, binary.LittleEndian.Uint32(p.Value[i:]))
	}
	return vals
}

// CardinalsToBytes encodes 32-bit property data for ChangeProperty.
func CardinalsToBytes(vals []uint32) []byte {
	buf := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[4*i:], v)
	}
	return buf
}
