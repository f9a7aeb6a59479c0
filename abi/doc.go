// Package abi holds the fixed automation ABI: wire constants, GUIDs, the
// vtable interfaces objects implement, and Env, the foreign environment that
// ties a heap, its string primitives and an object table together.
//
// # Calling Convention
//
// Vtable methods mirror the ABI. They return an HRESULT and write results
// through out-pointers into foreign memory:
//
//	var out abi.Ptr = ...          // 4-byte slot allocated by the caller
//	hr := unk.QueryInterface(iid, out)
//	obj, _ := env.ReadPtr(out)     // fresh reference count on success
//
// # Objects
//
// An object lives in two places: its Go implementation and an 8-byte
// identity block in foreign memory whose address is the object pointer.
// Env.Register creates the block; Env.Object resolves a pointer back to the
// implementation; Env.Unregister frees it when the count reaches zero.
//
// # Wire Layouts
//
//	VARIANT     16 bytes  vt u16 @0, payload @8
//	DISPPARAMS  16 bytes  rgvarg @0, rgdispidNamedArgs @4, cArgs @8, cNamedArgs @12
//	EXCEPINFO   32 bytes  wCode @0, bstrSource @4, bstrDescription @8,
//	                      bstrHelpFile @12, dwHelpContext @16, scode @28
package abi
