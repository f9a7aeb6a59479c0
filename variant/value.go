package variant

import (
	"fmt"
	"math"
	"time"

	"github.com/wippyai/oleauto/abi"
	"github.com/wippyai/oleauto/errors"
)

// Value is one of the types in this package.
type Value interface {
	VT() abi.VarType
	sealed()
}

type (
	Empty      struct{}
	Int2       int16
	Int4       int32
	Real4      float32
	Real8      float64
	Date       float64
	Text       string
	Dispatch   abi.Ptr // IDispatch reference
	ErrorCode  int32
	Bool       bool
	VariantRef abi.Ptr // pointer to another VARIANT
	Unknown    abi.Ptr // IUnknown reference
	Int1       int8
	UInt1      uint8
	UInt2      uint16
	UInt4      uint32
	Int        int32
	UInt       uint32
	Array      abi.Ptr // SAFEARRAY pointer
	ByRef      abi.Ptr
)

func (Empty) VT() abi.VarType      { return abi.VTEmpty }
func (Int2) VT() abi.VarType       { return abi.VTI2 }
func (Int4) VT() abi.VarType       { return abi.VTI4 }
func (Real4) VT() abi.VarType      { return abi.VTR4 }
func (Real8) VT() abi.VarType      { return abi.VTR8 }
func (Date) VT() abi.VarType       { return abi.VTDate }
func (Text) VT() abi.VarType       { return abi.VTBSTR }
func (Dispatch) VT() abi.VarType   { return abi.VTDispatch }
func (ErrorCode) VT() abi.VarType  { return abi.VTError }
func (Bool) VT() abi.VarType       { return abi.VTBool }
func (VariantRef) VT() abi.VarType { return abi.VTVariant }
func (Unknown) VT() abi.VarType    { return abi.VTUnknown }
func (Int1) VT() abi.VarType       { return abi.VTI1 }
func (UInt1) VT() abi.VarType      { return abi.VTUI1 }
func (UInt2) VT() abi.VarType      { return abi.VTUI2 }
func (UInt4) VT() abi.VarType      { return abi.VTUI4 }
func (Int) VT() abi.VarType        { return abi.VTInt }
func (UInt) VT() abi.VarType       { return abi.VTUInt }
func (Array) VT() abi.VarType      { return abi.VTArray }
func (ByRef) VT() abi.VarType      { return abi.VTByRef }

func (Empty) sealed()      {}
func (Int2) sealed()       {}
func (Int4) sealed()       {}
func (Real4) sealed()      {}
func (Real8) sealed()      {}
func (Date) sealed()       {}
func (Text) sealed()       {}
func (Dispatch) sealed()   {}
func (ErrorCode) sealed()  {}
func (Bool) sealed()       {}
func (VariantRef) sealed() {}
func (Unknown) sealed()    {}
func (Int1) sealed()       {}
func (UInt1) sealed()      {}
func (UInt2) sealed()      {}
func (UInt4) sealed()      {}
func (Int) sealed()        {}
func (UInt) sealed()       {}
func (Array) sealed()      {}
func (ByRef) sealed()      {}

// String formats a Value as Type(payload).
func String(v Value) string {
	switch x := v.(type) {
	case nil:
		return "<nil>"
	case Empty:
		return "Empty"
	case Text:
		return fmt.Sprintf("Text(%q)", string(x))
	case Dispatch, Unknown, VariantRef, Array, ByRef:
		return fmt.Sprintf("%s(%#x)", typeName(v), x)
	default:
		return fmt.Sprintf("%s(%v)", typeName(v), x)
	}
}

func typeName(v Value) string {
	name := fmt.Sprintf("%T", v)
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return name
}

// IsReference reports whether v carries an object reference whose count a
// holder owns.
func IsReference(v Value) bool {
	switch v.(type) {
	case Dispatch, Unknown:
		return true
	}
	return false
}

// From converts a Go value to a Value. Values pass through unchanged; nil
// becomes Empty and time.Time becomes Date.
func From(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Empty{}, nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case int8:
		return Int1(x), nil
	case uint8:
		return UInt1(x), nil
	case int16:
		return Int2(x), nil
	case uint16:
		return UInt2(x), nil
	case int32:
		return Int4(x), nil
	case uint32:
		return UInt4(x), nil
	case int:
		if x < math.MinInt32 || x > math.MaxInt32 {
			return nil, errors.InvalidInput(errors.PhaseConvert, fmt.Sprintf("int %d overflows VT_INT", x))
		}
		return Int(x), nil
	case uint:
		if uint64(x) > math.MaxUint32 {
			return nil, errors.InvalidInput(errors.PhaseConvert, fmt.Sprintf("uint %d overflows VT_UINT", x))
		}
		return UInt(x), nil
	case float32:
		return Real4(x), nil
	case float64:
		return Real8(x), nil
	case string:
		return Text(x), nil
	case time.Time:
		return DateFromTime(x), nil
	default:
		return nil, errors.New(errors.PhaseConvert, errors.KindUnsupported).
			GoType(fmt.Sprintf("%T", v)).
			Detail("no VARIANT representation").
			Build()
	}
}

// oleEpochUnix is 1899-12-30T00:00:00Z, day zero of the OLE calendar.
const oleEpochUnix = -2209161600

const secondsPerDay = 86400

// DateFromTime converts t to an OLE date: days since 1899-12-30 with the time
// of day as the fraction. Before the epoch the fraction still counts forward
// from midnight, so 1899-12-29 06:00 is -1.25.
func DateFromTime(t time.Time) Date {
	secs := float64(t.Unix()-oleEpochUnix) + float64(t.Nanosecond())/1e9
	days := secs / secondsPerDay

	whole := math.Floor(days)
	frac := days - whole
	if whole < 0 && frac > 0 {
		return Date(whole - frac)
	}
	return Date(days)
}

// Time converts d to UTC, rounded to the millisecond.
func (d Date) Time() time.Time {
	whole := math.Trunc(float64(d))
	frac := math.Abs(float64(d) - whole)

	ms := math.Round((whole + frac) * secondsPerDay * 1000)
	sec := int64(math.Floor(ms / 1000))
	nsec := int64(ms-float64(sec)*1000) * int64(time.Millisecond)
	return time.Unix(sec+oleEpochUnix, nsec).UTC()
}
