package abi

import (
	"go.uber.org/zap"

	"github.com/wippyai/oleauto/bstr"
	"github.com/wippyai/oleauto/hresult"
)

// VariantInit sets the VARIANT at p to VT_EMPTY with a zero payload.
func (e *Env) VariantInit(p Ptr) error {
	return e.heap.Write(uint32(p), make([]byte, VariantSize))
}

// VariantClear releases what the VARIANT at p owns and resets it to
// VT_EMPTY. Strings are freed, object references released and a nested
// VARIANT is cleared in turn. Arrays and by-reference values are borrowed and
// left alone. An unrecognised discriminant is reset but reported as
// DISP_E_BADVARTYPE.
func (e *Env) VariantClear(p Ptr) error {
	raw, err := e.heap.ReadU16(uint32(p))
	if err != nil {
		return err
	}
	vt := VarType(raw)
	payload := uint32(p) + VariantPayload

	var result error
	switch {
	case vt&(VTArray|VTByRef) != 0:
	case vt == VTBSTR:
		h, err := e.heap.ReadU32(payload)
		if err != nil {
			return err
		}
		e.strings.FreeString(bstr.Handle(h))
	case vt == VTDispatch || vt == VTUnknown:
		obj, err := e.ReadPtr(Ptr(payload))
		if err != nil {
			return err
		}
		if obj != Null {
			e.Release(obj)
		}
	case vt == VTVariant:
		nested, err := e.ReadPtr(Ptr(payload))
		if err != nil {
			return err
		}
		if nested != Null && nested != p {
			result = e.VariantClear(nested)
		}
	case vt.scalar():
	default:
		Logger().Warn("clearing unrecognised VARIANT", zap.Uint32("ptr", uint32(p)), zap.Stringer("vt", vt))
		result = hresult.DISP_E_BADVARTYPE
	}

	if err := e.VariantInit(p); err != nil {
		return err
	}
	return result
}

// scalar reports whether vt carries a plain value that owns nothing.
func (vt VarType) scalar() bool {
	switch vt {
	case VTEmpty, VTNull, VTI2, VTI4, VTR4, VTR8, VTCY, VTDate, VTError, VTBool,
		VTI1, VTUI1, VTUI2, VTUI4, VTI8, VTUI8, VTInt, VTUInt:
		return true
	}
	return false
}
