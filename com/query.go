package com

import (
	"github.com/wippyai/oleauto/abi"
	"github.com/wippyai/oleauto/errors"
	"github.com/wippyai/oleauto/hresult"
)

// QueryInterface asks o for capability T. The result carries a fresh count.
// A failing HRESULT is returned as is and o is left untouched. Success with a
// null pointer fails with errors.ErrInvalidPointer caused by E_POINTER.
func QueryInterface[T, C Capability](o *Object[C]) (*Object[T], error) {
	p := o.live()

	out, free, err := outSlot(o.env, errors.PhaseQuery)
	if err != nil {
		return nil, err
	}
	defer free()

	if hr := o.env.QueryInterface(p, iidOf[T](), out); hr.Failed() {
		return nil, hr
	}

	q, err := o.env.ReadPtr(out)
	if err != nil {
		return nil, err
	}
	if q == abi.Null {
		return nil, errors.New(errors.PhaseQuery, errors.KindInvalidPointer).
			Cause(hresult.E_POINTER).
			Detail("QueryInterface succeeded with a null pointer").
			Build()
	}
	return &Object[T]{env: o.env, ptr: q}, nil
}
