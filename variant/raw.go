package variant

import (
	"fmt"
	"math"

	"github.com/wippyai/oleauto/abi"
	"github.com/wippyai/oleauto/bstr"
	"github.com/wippyai/oleauto/errors"
)

// Raw is a transient VARIANT in foreign memory. It must be driven to
// VT_EMPTY with Clear, Take or Free before it is discarded.
type Raw struct {
	env   *abi.Env
	ptr   abi.Ptr
	owned bool
}

// NewRaw allocates an empty VARIANT. Free releases it.
func NewRaw(env *abi.Env) (*Raw, error) {
	p, err := env.Alloc(abi.VariantSize, abi.VariantAlign)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConvert, errors.KindAllocation, err, "allocate VARIANT")
	}
	return &Raw{env: env, ptr: p, owned: true}, nil
}

// Attach views the VARIANT at p, typically one element of an argument
// array. Free clears it but leaves the memory to its owner.
func Attach(env *abi.Env, p abi.Ptr) *Raw {
	return &Raw{env: env, ptr: p}
}

// FromValue allocates a VARIANT holding v.
func FromValue(env *abi.Env, v Value) (*Raw, error) {
	r, err := NewRaw(env)
	if err != nil {
		return nil, err
	}
	if err := r.Write(v); err != nil {
		_ = r.Free()
		return nil, err
	}
	return r, nil
}

// Ptr returns the address of the VARIANT.
func (r *Raw) Ptr() abi.Ptr { return r.ptr }

// VT reads the current discriminant.
func (r *Raw) VT() (abi.VarType, error) {
	vt, err := r.env.Heap().ReadU16(uint32(r.ptr))
	return abi.VarType(vt), err
}

// Clear releases what the VARIANT owns and leaves it VT_EMPTY.
// Clearing an empty VARIANT does nothing.
func (r *Raw) Clear() error {
	vt, err := r.VT()
	if err != nil {
		return err
	}
	if vt == abi.VTEmpty {
		return nil
	}
	return r.env.VariantClear(r.ptr)
}

// Free clears the VARIANT and releases its memory if NewRaw allocated it.
// Later calls do nothing.
func (r *Raw) Free() error {
	if r.ptr == abi.Null {
		return nil
	}
	err := r.Clear()
	if r.owned {
		r.env.Free(r.ptr, abi.VariantSize, abi.VariantAlign)
	}
	r.ptr = abi.Null
	return err
}

// Write replaces the contents with v. Text allocates a new string handle
// owned by the VARIANT; references are copied without AddRef.
// On failure the VARIANT is left VT_EMPTY.
func (r *Raw) Write(v Value) error {
	if err := r.Clear(); err != nil {
		return err
	}
	if err := r.env.VariantInit(r.ptr); err != nil {
		return err
	}

	payload, err := r.encode(v)
	if err != nil {
		return err
	}

	mem := r.env.Heap()
	if err := mem.WriteU64(uint32(r.ptr)+abi.VariantPayload, payload); err != nil {
		if v.VT() == abi.VTBSTR {
			r.env.Strings().FreeString(bstr.Handle(payload))
		}
		return err
	}
	return mem.WriteU16(uint32(r.ptr), uint16(v.VT()))
}

func (r *Raw) encode(v Value) (uint64, error) {
	switch x := v.(type) {
	case Empty:
		return 0, nil
	case Int2:
		return uint64(uint16(x)), nil
	case Int4:
		return uint64(uint32(x)), nil
	case Real4:
		return uint64(math.Float32bits(float32(x))), nil
	case Real8:
		return math.Float64bits(float64(x)), nil
	case Date:
		return math.Float64bits(float64(x)), nil
	case Text:
		h, err := r.env.Strings().AllocStringLen(bstr.Units(bstr.Encode(string(x))))
		if err != nil {
			return 0, errors.Wrap(errors.PhaseConvert, errors.KindAllocation, err, "allocate VT_BSTR payload")
		}
		return uint64(h), nil
	case Dispatch:
		return uint64(x), nil
	case ErrorCode:
		return uint64(uint32(x)), nil
	case Bool:
		b := abi.VariantFalse
		if x {
			b = abi.VariantTrue
		}
		return uint64(uint16(b)), nil
	case VariantRef:
		return uint64(x), nil
	case Unknown:
		return uint64(x), nil
	case Int1:
		return uint64(uint8(x)), nil
	case UInt1:
		return uint64(x), nil
	case UInt2:
		return uint64(x), nil
	case UInt4:
		return uint64(x), nil
	case Int:
		return uint64(uint32(x)), nil
	case UInt:
		return uint64(x), nil
	case Array:
		return uint64(x), nil
	case ByRef:
		return uint64(x), nil
	default:
		return 0, errors.Unsupported(errors.PhaseConvert, fmt.Sprintf("unknown Value %T", v))
	}
}

// Take converts the VARIANT into a Value and leaves it VT_EMPTY.
// A string payload is decoded and freed; an object reference moves into the
// returned Value. Take panics on a discriminant outside the Value set.
func (r *Raw) Take() (Value, error) {
	vt, err := r.VT()
	if err != nil {
		return nil, err
	}
	mem := r.env.Heap()
	payload, err := mem.ReadU64(uint32(r.ptr) + abi.VariantPayload)
	if err != nil {
		return nil, err
	}

	// From here on the payload belongs to the Value.
	if err := mem.WriteU16(uint32(r.ptr), uint16(abi.VTEmpty)); err != nil {
		return nil, err
	}

	if vt == abi.VTBSTR {
		s := bstr.Own(r.env.Strings(), bstr.Handle(uint32(payload)))
		defer s.Free()
		text, err := s.Text()
		if err != nil {
			return nil, err
		}
		return Text(text), nil
	}

	v, ok := decode(vt, payload)
	if !ok {
		panic(fmt.Sprintf("variant: unsupported VARIANT discriminant %v (%#x)", vt, uint16(vt)))
	}
	return v, nil
}

// Value reads the VARIANT without changing it. Text is decoded and the
// handle stays with the VARIANT; references are returned without AddRef.
func (r *Raw) Value() (Value, error) {
	vt, err := r.VT()
	if err != nil {
		return nil, err
	}
	payload, err := r.env.Heap().ReadU64(uint32(r.ptr) + abi.VariantPayload)
	if err != nil {
		return nil, err
	}

	if vt == abi.VTBSTR {
		text, err := r.env.Strings().Text(bstr.Handle(uint32(payload)))
		if err != nil {
			return nil, err
		}
		return Text(text), nil
	}

	v, ok := decode(vt, payload)
	if !ok {
		return nil, errors.New(errors.PhaseConvert, errors.KindUnsupported).
			ABIType(vt.String()).
			Detail("discriminant outside the Value set").
			Build()
	}
	return v, nil
}

// decode maps every non-string discriminant to its Value.
func decode(vt abi.VarType, payload uint64) (Value, bool) {
	switch vt {
	case abi.VTEmpty:
		return Empty{}, true
	case abi.VTI2:
		return Int2(int16(uint16(payload))), true
	case abi.VTI4:
		return Int4(int32(uint32(payload))), true
	case abi.VTR4:
		return Real4(math.Float32frombits(uint32(payload))), true
	case abi.VTR8:
		return Real8(math.Float64frombits(payload)), true
	case abi.VTDate:
		return Date(math.Float64frombits(payload)), true
	case abi.VTDispatch:
		return Dispatch(uint32(payload)), true
	case abi.VTError:
		return ErrorCode(int32(uint32(payload))), true
	case abi.VTBool:
		return Bool(int16(uint16(payload)) == abi.VariantTrue), true
	case abi.VTVariant:
		return VariantRef(uint32(payload)), true
	case abi.VTUnknown:
		return Unknown(uint32(payload)), true
	case abi.VTI1:
		return Int1(int8(uint8(payload))), true
	case abi.VTUI1:
		return UInt1(uint8(payload)), true
	case abi.VTUI2:
		return UInt2(uint16(payload)), true
	case abi.VTUI4:
		return UInt4(uint32(payload)), true
	case abi.VTInt:
		return Int(int32(uint32(payload))), true
	case abi.VTUInt:
		return UInt(uint32(payload)), true
	case abi.VTArray:
		return Array(uint32(payload)), true
	case abi.VTByRef:
		return ByRef(uint32(payload)), true
	}
	return nil, false
}
