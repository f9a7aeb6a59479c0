package bstr

import (
	"math"

	"github.com/wippyai/oleauto"
	"github.com/wippyai/oleauto/errors"
)

// Source is the UTF-16 input of an allocation. It is either a host slice or
// a view of foreign memory; only the latter can overlap a handle.
type Source struct {
	units    []uint16
	addr     uint32
	resident bool
}

// Units returns a host-resident source.
func Units(units []uint16) Source {
	return Source{units: units}
}

// Text returns a host-resident source holding the UTF-16 encoding of s
// followed by a terminating NUL.
func Text(s string) Source {
	return Source{units: append(Encode(s), 0)}
}

// At returns a source viewing count code units of foreign memory at addr.
// The units are read immediately.
func At(mem oleauto.Memory, addr uint32, count uint32) (Source, error) {
	if count == 0 {
		return Source{addr: addr, resident: true}, nil
	}
	if uint64(count)*2 > math.MaxUint32 {
		return Source{}, errors.OutOfBounds(errors.PhaseAlloc, addr, math.MaxUint32)
	}
	b, err := mem.Read(addr, 2*count)
	if err != nil {
		return Source{}, err
	}
	return Source{units: unitsFromBytes(b), addr: addr, resident: true}, nil
}

// Len returns the number of code units in the source.
func (s Source) Len() int { return len(s.units) }

// terminator returns the index of the first NUL unit, or -1.
func (s Source) terminator() int {
	for i, u := range s.units {
		if u == 0 {
			return i
		}
	}
	return -1
}

// overlaps reports whether the source's bytes touch the block of handle h
// holding n code units: prefix, data and terminator.
func (s Source) overlaps(h Handle, n uint32) bool {
	if !s.resident || len(s.units) == 0 || h == Null {
		return false
	}

	blockStart := uint64(h) - prefixSize
	blockEnd := blockStart + blockSize(n) - 1

	srcStart := uint64(s.addr)
	srcEnd := srcStart + 2*uint64(len(s.units)) - 1

	return (blockStart <= srcStart && srcStart <= blockEnd) ||
		(srcStart <= blockStart && blockStart <= srcEnd)
}
