package abi

import (
	"github.com/wippyai/oleauto/bstr"
)

// AllocName writes s as a NUL-terminated UTF-16 string and returns the
// block and its size.
func (e *Env) AllocName(s string) (Ptr, uint32, error) {
	units := append(bstr.Encode(s), 0)
	size := uint32(2 * len(units))

	p, err := e.heap.Alloc(size, 2)
	if err != nil {
		return Null, 0, err
	}
	buf := make([]byte, 0, size)
	for _, u := range units {
		buf = append(buf, byte(u), byte(u>>8))
	}
	if err := e.heap.Write(p, buf); err != nil {
		e.heap.Free(p, size, 2)
		return Null, 0, err
	}
	return Ptr(p), size, nil
}

// ReadName decodes the NUL-terminated UTF-16 string at p.
func (e *Env) ReadName(p Ptr) (string, error) {
	var units []uint16
	for addr := uint32(p); ; addr += 2 {
		u, err := e.heap.ReadU16(addr)
		if err != nil {
			return "", err
		}
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return bstr.Decode(units), nil
}
