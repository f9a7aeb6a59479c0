package com

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/oleauto/abi"
	"github.com/wippyai/oleauto/errors"
)

// Object owns one reference count on a foreign object supporting C.
// An Object is not safe for concurrent use; Clone gives each goroutine its own.
type Object[C Capability] struct {
	env *abi.Env
	ptr abi.Ptr
}

// Wrap adopts p and the reference count it carries. A null p fails with
// errors.ErrNilPointer.
func Wrap[C Capability](env *abi.Env, p abi.Ptr) (*Object[C], error) {
	if p == abi.Null {
		return nil, errors.NilPointer(errors.PhaseWrap, nil, fmt.Sprintf("com.Object[%T]", *new(C)))
	}
	return &Object[C]{env: env, ptr: p}, nil
}

func (o *Object[C]) live() abi.Ptr {
	if o == nil || o.ptr == abi.Null {
		panic("com: use of a released or detached object")
	}
	return o.ptr
}

// Ptr returns the raw pointer without transferring the count.
func (o *Object[C]) Ptr() abi.Ptr {
	return o.live()
}

// Env returns the environment the object lives in.
func (o *Object[C]) Env() *abi.Env {
	return o.env
}

// Interface resolves the object's implementation.
func (o *Object[C]) Interface() abi.Unknown {
	p := o.live()
	impl, ok := o.env.Object(p)
	if !ok {
		panic(fmt.Sprintf("com: object %#x is not registered", uint32(p)))
	}
	return impl
}

// Clone adds a reference count and returns a second owner of it.
func (o *Object[C]) Clone() *Object[C] {
	p := o.live()
	o.env.AddRef(p)
	return &Object[C]{env: o.env, ptr: p}
}

// Release drops the held count. Later calls do nothing.
func (o *Object[C]) Release() {
	if o == nil || o.ptr == abi.Null {
		return
	}
	p := o.ptr
	o.ptr = abi.Null
	if n := o.env.Release(p); n == 0 {
		Logger().Debug("final release", zap.Uint32("ptr", uint32(p)), zap.String("capability", fmt.Sprintf("%T", *new(C))))
	}
}

// Detach returns the raw pointer together with the held count.
// Release becomes a no-op.
func (o *Object[C]) Detach() abi.Ptr {
	p := o.live()
	o.ptr = abi.Null
	return p
}

// Equal reports whether both handles point at the same object.
func (o *Object[C]) Equal(other *Object[C]) bool {
	return o.live() == other.live()
}

// Same reports whether two handles of any capability share a pointer.
func Same[A, B Capability](a *Object[A], b *Object[B]) bool {
	return a.live() == b.live()
}

// outSlot allocates a pointer-sized out-parameter.
func outSlot(env *abi.Env, phase errors.Phase) (abi.Ptr, func(), error) {
	p, err := env.Alloc(abi.PtrSize, abi.PtrSize)
	if err != nil {
		return abi.Null, nil, errors.Wrap(phase, errors.KindAllocation, err, "allocate out-parameter")
	}
	return p, func() { env.Free(p, abi.PtrSize, abi.PtrSize) }, nil
}
