// Package hresult defines the status codes returned by foreign calls.
//
// An HRESULT is the primary error signal of the automation ABI. It
// implements error so it can be returned unchanged; callers recover the
// exact code with errors.As.
package hresult

import "fmt"

// HRESULT is a 32-bit foreign status code. Negative values are failures.
type HRESULT int32

// Well-known codes. Values are the ABI's, written as uint32 bit patterns.
const (
	S_OK    HRESULT = 0
	S_FALSE HRESULT = 1

	E_NOTIMPL     = HRESULT(-0x7fffbfff) // 0x80004001
	E_NOINTERFACE = HRESULT(-0x7fffbffe) // 0x80004002
	E_POINTER     = HRESULT(-0x7fffbffd) // 0x80004003
	E_FAIL        = HRESULT(-0x7fffbffb) // 0x80004005
	E_UNEXPECTED  = HRESULT(-0x7fff0001) // 0x8000FFFF
	E_OUTOFMEMORY = HRESULT(-0x7ff8fff2) // 0x8007000E
	E_INVALIDARG  = HRESULT(-0x7ff8ffa9) // 0x80070057

	DISP_E_UNKNOWNINTERFACE = HRESULT(-0x7ffdffff) // 0x80020001
	DISP_E_MEMBERNOTFOUND   = HRESULT(-0x7ffdfffd) // 0x80020003
	DISP_E_PARAMNOTFOUND    = HRESULT(-0x7ffdfffc) // 0x80020004
	DISP_E_TYPEMISMATCH     = HRESULT(-0x7ffdfffb) // 0x80020005
	DISP_E_UNKNOWNNAME      = HRESULT(-0x7ffdfffa) // 0x80020006
	DISP_E_NONAMEDARGS      = HRESULT(-0x7ffdfff9) // 0x80020007
	DISP_E_BADVARTYPE       = HRESULT(-0x7ffdfff8) // 0x80020008
	DISP_E_EXCEPTION        = HRESULT(-0x7ffdfff7) // 0x80020009
	DISP_E_BADINDEX         = HRESULT(-0x7ffdfff5) // 0x8002000B
	DISP_E_BADPARAMCOUNT    = HRESULT(-0x7ffdfff2) // 0x8002000E

	TYPE_E_ELEMENTNOTFOUND = HRESULT(-0x7ffd7fd5) // 0x8002802B

	CLASS_E_NOAGGREGATION     = HRESULT(-0x7ffbfef0) // 0x80040110
	CLASS_E_CLASSNOTAVAILABLE = HRESULT(-0x7ffbfeef) // 0x80040111
	REGDB_E_CLASSNOTREG       = HRESULT(-0x7ffbfeac) // 0x80040154
)

var names = map[HRESULT]string{
	S_OK:                      "S_OK",
	S_FALSE:                   "S_FALSE",
	E_NOTIMPL:                 "E_NOTIMPL",
	E_NOINTERFACE:             "E_NOINTERFACE",
	E_POINTER:                 "E_POINTER",
	E_FAIL:                    "E_FAIL",
	E_UNEXPECTED:              "E_UNEXPECTED",
	E_OUTOFMEMORY:             "E_OUTOFMEMORY",
	E_INVALIDARG:              "E_INVALIDARG",
	DISP_E_UNKNOWNINTERFACE:   "DISP_E_UNKNOWNINTERFACE",
	DISP_E_MEMBERNOTFOUND:     "DISP_E_MEMBERNOTFOUND",
	DISP_E_PARAMNOTFOUND:      "DISP_E_PARAMNOTFOUND",
	DISP_E_TYPEMISMATCH:       "DISP_E_TYPEMISMATCH",
	DISP_E_UNKNOWNNAME:        "DISP_E_UNKNOWNNAME",
	DISP_E_NONAMEDARGS:        "DISP_E_NONAMEDARGS",
	DISP_E_BADVARTYPE:         "DISP_E_BADVARTYPE",
	DISP_E_EXCEPTION:          "DISP_E_EXCEPTION",
	DISP_E_BADINDEX:           "DISP_E_BADINDEX",
	DISP_E_BADPARAMCOUNT:      "DISP_E_BADPARAMCOUNT",
	TYPE_E_ELEMENTNOTFOUND:    "TYPE_E_ELEMENTNOTFOUND",
	CLASS_E_NOAGGREGATION:     "CLASS_E_NOAGGREGATION",
	CLASS_E_CLASSNOTAVAILABLE: "CLASS_E_CLASSNOTAVAILABLE",
	REGDB_E_CLASSNOTREG:       "REGDB_E_CLASSNOTREG",
}

// Succeeded is the ABI's success predicate: any non-negative code.
func (h HRESULT) Succeeded() bool {
	return h >= 0
}

// Failed is the negation of Succeeded.
func (h HRESULT) Failed() bool {
	return h < 0
}

// Err returns nil for success codes and h itself otherwise.
func (h HRESULT) Err() error {
	if h.Succeeded() {
		return nil
	}
	return h
}

// String returns the symbolic name when known, the hex code otherwise.
func (h HRESULT) String() string {
	if name, ok := names[h]; ok {
		return name
	}
	return fmt.Sprintf("HRESULT(0x%08X)", uint32(h))
}

// Error implements the error interface.
func (h HRESULT) Error() string {
	if name, ok := names[h]; ok {
		return fmt.Sprintf("%s (0x%08X)", name, uint32(h))
	}
	return fmt.Sprintf("HRESULT 0x%08X", uint32(h))
}

// FromUint32 reinterprets a raw 32-bit code.
func FromUint32(v uint32) HRESULT {
	return HRESULT(int32(v))
}
