package bstr

import (
	"math"

	"github.com/wippyai/oleauto"
	"github.com/wippyai/oleauto/errors"
)

// Handle points at the first code unit of a string block. Zero is null.
type Handle uint32

// Null is the "no string" handle.
const Null Handle = 0

const (
	prefixSize = 4
	blockAlign = 4
)

// blockSize is the size of the freeable block for n code units.
func blockSize(n uint32) uint64 {
	return prefixSize + 2*uint64(n) + 2
}

// Sys holds the string primitives for one foreign heap.
type Sys struct {
	heap oleauto.Heap
}

// New returns the string primitives over h.
func New(h oleauto.Heap) *Sys {
	return &Sys{heap: h}
}

// AllocString allocates a handle holding src up to its first NUL.
// A source without a NUL fails with errors.ErrNullTerminatorRequired.
func (s *Sys) AllocString(src Source) (Handle, error) {
	n := src.terminator()
	if n < 0 {
		return Null, errors.NullTerminatorRequired(errors.PhaseAlloc, src.Len())
	}
	return s.alloc(errors.PhaseAlloc, src.units[:n])
}

// AllocStringLen allocates a handle holding every unit of src, embedded NULs
// included.
func (s *Sys) AllocStringLen(src Source) (Handle, error) {
	if err := checkLen(errors.PhaseAlloc, src.Len()); err != nil {
		return Null, err
	}
	return s.alloc(errors.PhaseAlloc, src.units)
}

// ReAllocString replaces h with a handle holding src up to its first NUL.
// On success h is invalid and the returned handle must be used instead.
// On failure h is untouched.
func (s *Sys) ReAllocString(h Handle, src Source) (Handle, error) {
	if h == Null {
		return Null, errors.InvalidPointer(errors.PhaseRealloc, uint32(h), "cannot reallocate a null handle")
	}
	n := src.terminator()
	if n < 0 {
		return Null, errors.NullTerminatorRequired(errors.PhaseRealloc, src.Len())
	}
	if src.overlaps(h, s.StringLen(h)) {
		return Null, errors.InvalidPointer(errors.PhaseRealloc, uint32(h), "source overlaps the handle's buffer")
	}
	return s.realloc(h, src.units[:n])
}

// ReAllocStringLen replaces h with a handle holding every unit of src.
// On success h is invalid and the returned handle must be used instead.
// On failure h is untouched.
func (s *Sys) ReAllocStringLen(h Handle, src Source) (Handle, error) {
	if err := checkLen(errors.PhaseRealloc, src.Len()); err != nil {
		return Null, err
	}
	if h == Null {
		return Null, errors.InvalidPointer(errors.PhaseRealloc, uint32(h), "cannot reallocate a null handle")
	}
	if src.overlaps(h, s.StringLen(h)) {
		return Null, errors.InvalidPointer(errors.PhaseRealloc, uint32(h), "source overlaps the handle's buffer")
	}
	return s.realloc(h, src.units)
}

// StringLen returns the length of h in code units, not counting the
// terminator. The null handle has length 0.
func (s *Sys) StringLen(h Handle) uint32 {
	if h < prefixSize {
		return 0
	}
	n, err := s.heap.ReadU32(uint32(h) - prefixSize)
	if err != nil {
		return 0
	}
	return n
}

// FreeString releases h. The null handle is ignored.
// Freeing the same raw handle twice is a caller bug.
func (s *Sys) FreeString(h Handle) {
	if h == Null {
		return
	}
	size := blockSize(s.StringLen(h))
	if size > math.MaxUint32 || h < prefixSize {
		return
	}
	s.heap.Free(uint32(h)-prefixSize, uint32(size), blockAlign)
}

// Units returns a copy of the code units held by h.
func (s *Sys) Units(h Handle) ([]uint16, error) {
	n := s.StringLen(h)
	if n == 0 {
		return []uint16{}, nil
	}
	b, err := s.heap.Read(uint32(h), 2*n)
	if err != nil {
		return nil, err
	}
	return unitsFromBytes(b), nil
}

// Text decodes h to UTF-8, replacing unpaired surrogates with U+FFFD.
// The null handle decodes to "".
func (s *Sys) Text(h Handle) (string, error) {
	units, err := s.Units(h)
	if err != nil {
		return "", err
	}
	return Decode(units), nil
}

func (s *Sys) alloc(phase errors.Phase, units []uint16) (Handle, error) {
	n := uint32(len(units))
	size := blockSize(n)
	if size > math.MaxUint32 {
		return Null, errors.AllocationFailed(phase, math.MaxUint32, blockAlign)
	}

	block, err := s.heap.Alloc(uint32(size), blockAlign)
	if err != nil {
		return Null, errors.Wrap(phase, errors.KindAllocation, err, "allocate string handle")
	}

	// Alloc zero-fills, so the terminator is already in place.
	if err := s.heap.WriteU32(block, n); err != nil {
		s.heap.Free(block, uint32(size), blockAlign)
		return Null, err
	}
	if n > 0 {
		if err := s.heap.Write(block+prefixSize, bytesFromUnits(units)); err != nil {
			s.heap.Free(block, uint32(size), blockAlign)
			return Null, err
		}
	}
	return Handle(block + prefixSize), nil
}

func (s *Sys) realloc(h Handle, units []uint16) (Handle, error) {
	next, err := s.alloc(errors.PhaseRealloc, units)
	if err != nil {
		return Null, err
	}
	s.FreeString(h)
	return next, nil
}

// checkLen rejects sources whose length does not fit the 32-bit prefix.
func checkLen(phase errors.Phase, n int) error {
	if uint64(n) > math.MaxUint32 {
		return errors.SourceTooLong(phase, n)
	}
	return nil
}
