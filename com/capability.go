package com

import "github.com/wippyai/oleauto/abi"

// Capability is a marker type naming an interface an object supports.
type Capability interface {
	IID() abi.GUID
}

type (
	IUnknown      struct{}
	IDispatch     struct{}
	IClassFactory struct{}
	ITypeInfo     struct{}
)

func (IUnknown) IID() abi.GUID      { return abi.IID_IUnknown }
func (IDispatch) IID() abi.GUID     { return abi.IID_IDispatch }
func (IClassFactory) IID() abi.GUID { return abi.IID_IClassFactory }
func (ITypeInfo) IID() abi.GUID     { return abi.IID_ITypeInfo }

func iidOf[C Capability]() abi.GUID {
	var c C
	return c.IID()
}
