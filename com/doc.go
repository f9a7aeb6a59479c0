// Package com provides Object, an owning handle to a reference-counted
// foreign object, typed by the capability it is known to support.
//
// Every live Object holds exactly one reference count:
//
//	Wrap(env, p)          adopts the count p already carries
//	o.Clone()             AddRef, returns a second owner
//	o.Release()           Release once; later calls do nothing
//	o.Detach()            returns p and the count to the caller
//
// Capabilities are marker types. Upgrading is a runtime query:
//
//	disp, err := com.QueryInterface[com.IDispatch](unk)
//
// QueryInterface, CreateInstance, GetClassObject and FactoryCreateInstance
// all return a fresh count owned by the caller. Failures are returned as the
// foreign hresult.HRESULT unchanged.
//
// Using an Object after Release or Detach is a caller bug and panics.
package com
