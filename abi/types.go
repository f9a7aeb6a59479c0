package abi

import (
	"github.com/google/uuid"
)

// Ptr is an address in foreign memory. Zero is null.
type Ptr uint32

// Null is the null pointer.
const Null Ptr = 0

// GUID identifies interfaces (IID) and classes (CLSID).
type GUID = uuid.UUID

// Interface identifiers.
var (
	IID_NULL          = GUID{}
	IID_IUnknown      = uuid.MustParse("00000000-0000-0000-c000-000000000046")
	IID_IClassFactory = uuid.MustParse("00000001-0000-0000-c000-000000000046")
	IID_IDispatch     = uuid.MustParse("00020400-0000-0000-c000-000000000046")
	IID_ITypeInfo     = uuid.MustParse("00020401-0000-0000-c000-000000000046")
)

// LCID is a locale identifier.
type LCID uint32

const (
	LocaleSystemDefault LCID = 0x0800
	LocaleUserDefault   LCID = 0x0400
	LocaleNeutral       LCID = 0x0000
)

// DISPID is a member id assigned by a dispatch object.
type DISPID int32

const (
	DispidUnknown     DISPID = -1
	DispidValue       DISPID = 0
	DispidPropertyPut DISPID = -3

	// MemberIDNil names the type itself in type-info queries.
	MemberIDNil DISPID = -1
)

// InvokeKind selects the calling convention of Invoke.
type InvokeKind uint16

const (
	InvokeMethod         InvokeKind = 0x1
	InvokePropertyGet    InvokeKind = 0x2
	InvokePropertyPut    InvokeKind = 0x4
	InvokePropertyPutRef InvokeKind = 0x8
)

func (k InvokeKind) String() string {
	switch k {
	case InvokeMethod:
		return "method"
	case InvokePropertyGet:
		return "propget"
	case InvokePropertyPut:
		return "propput"
	case InvokePropertyPutRef:
		return "propputref"
	case InvokeMethod | InvokePropertyGet:
		return "method|propget"
	default:
		return "invalid"
	}
}

// ClsCtx is the execution-context bitmask passed to activation.
type ClsCtx uint32

const (
	ClsCtxInprocServer  ClsCtx = 0x1
	ClsCtxInprocHandler ClsCtx = 0x2
	ClsCtxLocalServer   ClsCtx = 0x4
	ClsCtxRemoteServer  ClsCtx = 0x10

	ClsCtxAll = ClsCtxInprocServer | ClsCtxInprocHandler | ClsCtxLocalServer | ClsCtxRemoteServer
)

// VarType is a VARIANT discriminant.
type VarType uint16

const (
	VTEmpty    VarType = 0
	VTNull     VarType = 1
	VTI2       VarType = 2
	VTI4       VarType = 3
	VTR4       VarType = 4
	VTR8       VarType = 5
	VTCY       VarType = 6
	VTDate     VarType = 7
	VTBSTR     VarType = 8
	VTDispatch VarType = 9
	VTError    VarType = 10
	VTBool     VarType = 11
	VTVariant  VarType = 12
	VTUnknown  VarType = 13
	VTDecimal  VarType = 14
	VTI1       VarType = 16
	VTUI1      VarType = 17
	VTUI2      VarType = 18
	VTUI4      VarType = 19
	VTI8       VarType = 20
	VTUI8      VarType = 21
	VTInt      VarType = 22
	VTUInt     VarType = 23
	VTRecord   VarType = 36
	VTArray    VarType = 0x2000
	VTByRef    VarType = 0x4000
)

var varTypeNames = map[VarType]string{
	VTEmpty:    "VT_EMPTY",
	VTNull:     "VT_NULL",
	VTI2:       "VT_I2",
	VTI4:       "VT_I4",
	VTR4:       "VT_R4",
	VTR8:       "VT_R8",
	VTCY:       "VT_CY",
	VTDate:     "VT_DATE",
	VTBSTR:     "VT_BSTR",
	VTDispatch: "VT_DISPATCH",
	VTError:    "VT_ERROR",
	VTBool:     "VT_BOOL",
	VTVariant:  "VT_VARIANT",
	VTUnknown:  "VT_UNKNOWN",
	VTDecimal:  "VT_DECIMAL",
	VTI1:       "VT_I1",
	VTUI1:      "VT_UI1",
	VTUI2:      "VT_UI2",
	VTUI4:      "VT_UI4",
	VTI8:       "VT_I8",
	VTUI8:      "VT_UI8",
	VTInt:      "VT_INT",
	VTUInt:     "VT_UINT",
	VTRecord:   "VT_RECORD",
	VTArray:    "VT_ARRAY",
	VTByRef:    "VT_BYREF",
}

func (vt VarType) String() string {
	if name, ok := varTypeNames[vt]; ok {
		return name
	}
	base := varTypeNames[vt&^(VTArray|VTByRef)]
	if base == "" {
		base = "VT_UNKNOWN_TYPE"
	}
	if vt&VTArray != 0 {
		base = "VT_ARRAY|" + base
	}
	if vt&VTByRef != 0 {
		base = "VT_BYREF|" + base
	}
	return base
}

// Boolean encodings inside a VARIANT.
const (
	VariantTrue  int16 = -1
	VariantFalse int16 = 0
)

// Wire sizes and alignments.
const (
	PtrSize = 4

	VariantSize    = 16
	VariantAlign   = 8
	VariantPayload = 8

	DispParamsSize = 16
	ExcepInfoSize  = 32

	objectBlockSize = 8
)
