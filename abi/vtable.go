package abi

import (
	"github.com/wippyai/oleauto/hresult"
)

// Unknown is the base reference-counting capability every object implements.
// QueryInterface writes a pointer carrying a fresh count to out on success.
type Unknown interface {
	QueryInterface(iid GUID, out Ptr) hresult.HRESULT
	AddRef() uint32
	Release() uint32
}

// Dispatch is the late-bound invocation capability.
//
// GetIDsOfNames reads count pointers to NUL-terminated UTF-16 names from
// names and writes count DISPIDs to ids. Invoke reads a DISPPARAMS block at
// params whose rgvarg is in right-to-left order; result, excepInfo and argErr
// may each be null.
type Dispatch interface {
	Unknown
	GetTypeInfoCount(out Ptr) hresult.HRESULT
	GetTypeInfo(index uint32, lcid LCID, out Ptr) hresult.HRESULT
	GetIDsOfNames(iid GUID, names Ptr, count uint32, lcid LCID, ids Ptr) hresult.HRESULT
	Invoke(member DISPID, iid GUID, lcid LCID, flags InvokeKind, params, result, excepInfo, argErr Ptr) hresult.HRESULT
}

// ClassFactory creates instances of one class.
// A non-null outer requests aggregation.
type ClassFactory interface {
	Unknown
	CreateInstance(outer Ptr, iid GUID, out Ptr) hresult.HRESULT
	LockServer(lock bool) hresult.HRESULT
}

// TypeInfo describes a dispatch object's type.
// GetDocumentation writes string handles to any non-null out-pointer; the
// caller frees them.
type TypeInfo interface {
	Unknown
	GetDocumentation(member DISPID, name, docString, helpContext, helpFile Ptr) hresult.HRESULT
}

// Activator is the external activation collaborator.
type Activator interface {
	CoCreateInstance(clsid GUID, outer Ptr, ctx ClsCtx, iid GUID, out Ptr) hresult.HRESULT
	CoGetClassObject(clsid GUID, ctx ClsCtx, iid GUID, out Ptr) hresult.HRESULT
}
