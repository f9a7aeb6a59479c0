package com

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/oleauto/abi"
	"github.com/wippyai/oleauto/errors"
	"github.com/wippyai/oleauto/hresult"
)

// CreateInstance activates a new instance of clsid through act and returns
// it as capability C with a fresh count. outer requests aggregation and is
// normally abi.Null.
func CreateInstance[C Capability](env *abi.Env, act abi.Activator, clsid abi.GUID, outer abi.Ptr, ctx abi.ClsCtx) (*Object[C], error) {
	out, free, err := outSlot(env, errors.PhaseActivate)
	if err != nil {
		return nil, err
	}
	defer free()

	if hr := act.CoCreateInstance(clsid, outer, ctx, iidOf[C](), out); hr.Failed() {
		Logger().Debug("CoCreateInstance failed", zap.Stringer("clsid", clsid), zap.Stringer("hr", hr))
		return nil, hr
	}
	return adopt[C](env, out, "CoCreateInstance")
}

// GetClassObject returns the class object of clsid as capability C,
// usually IClassFactory, with a fresh count.
func GetClassObject[C Capability](env *abi.Env, act abi.Activator, clsid abi.GUID, ctx abi.ClsCtx) (*Object[C], error) {
	out, free, err := outSlot(env, errors.PhaseActivate)
	if err != nil {
		return nil, err
	}
	defer free()

	if hr := act.CoGetClassObject(clsid, ctx, iidOf[C](), out); hr.Failed() {
		Logger().Debug("CoGetClassObject failed", zap.Stringer("clsid", clsid), zap.Stringer("hr", hr))
		return nil, hr
	}
	return adopt[C](env, out, "CoGetClassObject")
}

// adopt wraps the pointer an activation call reported success for. A null
// pointer there means the activation layer is broken.
func adopt[C Capability](env *abi.Env, out abi.Ptr, call string) (*Object[C], error) {
	p, err := env.ReadPtr(out)
	if err != nil {
		return nil, err
	}
	if p == abi.Null {
		panic(fmt.Sprintf("com: %s succeeded with a null pointer", call))
	}
	return &Object[C]{env: env, ptr: p}, nil
}

// FactoryCreateInstance asks a class factory for a new instance as
// capability T with a fresh count.
func FactoryCreateInstance[T Capability](f *Object[IClassFactory], outer abi.Ptr) (*Object[T], error) {
	factory, ok := f.Interface().(abi.ClassFactory)
	if !ok {
		return nil, hresult.E_NOINTERFACE
	}

	out, free, err := outSlot(f.env, errors.PhaseActivate)
	if err != nil {
		return nil, err
	}
	defer free()

	if hr := factory.CreateInstance(outer, iidOf[T](), out); hr.Failed() {
		return nil, hr
	}

	p, err := f.env.ReadPtr(out)
	if err != nil {
		return nil, err
	}
	if p == abi.Null {
		return nil, errors.New(errors.PhaseActivate, errors.KindInvalidPointer).
			Cause(hresult.E_POINTER).
			Detail("CreateInstance succeeded with a null pointer").
			Build()
	}
	return &Object[T]{env: f.env, ptr: p}, nil
}

// LockServer keeps the factory's server loaded while lock is held.
func LockServer(f *Object[IClassFactory], lock bool) error {
	factory, ok := f.Interface().(abi.ClassFactory)
	if !ok {
		return hresult.E_NOINTERFACE
	}
	return factory.LockServer(lock).Err()
}
