package server

import (
	"slices"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/oleauto/abi"
	"github.com/wippyai/oleauto/hresult"
)

// Instance is a registered object that knows its own pointer.
type Instance interface {
	abi.Unknown
	Ptr() abi.Ptr
}

// Object implements IUnknown for an embedding type. The count starts at one
// when Attach registers the object and the object unregisters itself when the
// count reaches zero.
type Object struct {
	env       *abi.Env
	ptr       abi.Ptr
	iids      []abi.GUID
	refs      atomic.Int32
	destroyed func()
}

// Attach registers self, the value embedding o, and returns its pointer.
// IUnknown is always supported in addition to iids.
func (o *Object) Attach(env *abi.Env, self abi.Unknown, iids ...abi.GUID) (abi.Ptr, error) {
	o.env = env
	o.iids = append([]abi.GUID{abi.IID_IUnknown}, iids...)
	o.refs.Store(1)

	p, err := env.Register(self)
	if err != nil {
		return abi.Null, err
	}
	o.ptr = p
	return p, nil
}

// OnDestroy sets a hook run after the final Release.
func (o *Object) OnDestroy(fn func()) {
	o.destroyed = fn
}

// Ptr returns the object's pointer.
func (o *Object) Ptr() abi.Ptr { return o.ptr }

// Env returns the environment the object is registered in.
func (o *Object) Env() *abi.Env { return o.env }

// Refs returns the current reference count.
func (o *Object) Refs() int32 { return o.refs.Load() }

// Supports reports whether iid is one of the object's interfaces.
func (o *Object) Supports(iid abi.GUID) bool {
	return slices.Contains(o.iids, iid)
}

// QueryInterface writes the object's pointer with a new count to out when
// iid is supported, and null otherwise.
func (o *Object) QueryInterface(iid abi.GUID, out abi.Ptr) hresult.HRESULT {
	if out == abi.Null {
		return hresult.E_POINTER
	}
	if !o.Supports(iid) {
		_ = o.env.WritePtr(out, abi.Null)
		return hresult.E_NOINTERFACE
	}
	o.AddRef()
	if err := o.env.WritePtr(out, o.ptr); err != nil {
		o.Release()
		return hresult.E_POINTER
	}
	return hresult.S_OK
}

// AddRef increments the count and returns the new value.
func (o *Object) AddRef() uint32 {
	return uint32(o.refs.Add(1))
}

// Release decrements the count and returns the new value. The final
// Release unregisters the object and runs the OnDestroy hook.
func (o *Object) Release() uint32 {
	n := o.refs.Add(-1)
	switch {
	case n == 0:
		o.env.Unregister(o.ptr)
		Logger().Debug("object destroyed", zap.Uint32("ptr", uint32(o.ptr)))
		if o.destroyed != nil {
			o.destroyed()
		}
	case n < 0:
		Logger().Error("release below zero", zap.Uint32("ptr", uint32(o.ptr)), zap.Int32("refs", n))
		o.refs.Store(0)
		return 0
	}
	return uint32(n)
}
