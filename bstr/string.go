package bstr

// String owns one string handle and frees it exactly once.
// The zero value holds no handle. A String is not safe for concurrent use.
type String struct {
	sys    *Sys
	handle Handle
}

// FromString allocates a handle holding the UTF-16 encoding of s.
// Embedded NULs in s are kept.
func FromString(sys *Sys, s string) (*String, error) {
	h, err := sys.AllocStringLen(Units(Encode(s)))
	if err != nil {
		return nil, err
	}
	return &String{sys: sys, handle: h}, nil
}

// Own adopts h together with the obligation to free it.
func Own(sys *Sys, h Handle) *String {
	return &String{sys: sys, handle: h}
}

// Handle returns the held handle without giving up ownership.
func (s *String) Handle() Handle {
	return s.handle
}

// Detach returns the held handle and gives up ownership of it.
// Free becomes a no-op.
func (s *String) Detach() Handle {
	h := s.handle
	s.handle = Null
	return h
}

// Free releases the held handle. Later calls do nothing.
func (s *String) Free() {
	if s.handle == Null {
		return
	}
	s.sys.FreeString(s.handle)
	s.handle = Null
}

// Len returns the length in code units.
func (s *String) Len() int {
	if s.handle == Null {
		return 0
	}
	return int(s.sys.StringLen(s.handle))
}

// Units returns a copy of the held code units.
func (s *String) Units() ([]uint16, error) {
	if s.handle == Null {
		return []uint16{}, nil
	}
	return s.sys.Units(s.handle)
}

// Text decodes the held string. A String without a handle decodes to "".
func (s *String) Text() (string, error) {
	if s.handle == Null {
		return "", nil
	}
	return s.sys.Text(s.handle)
}
