package abi

import (
	"github.com/wippyai/oleauto/bstr"
	"github.com/wippyai/oleauto/errors"
	"github.com/wippyai/oleauto/hresult"
)

// DispParams is the DISPPARAMS block passed to Invoke.
// Args holds ArgCount VARIANTs in right-to-left order.
type DispParams struct {
	Args          Ptr
	NamedArgs     Ptr
	ArgCount      uint32
	NamedArgCount uint32
}

// Arg returns the address of the i-th VARIANT in Args.
func (dp DispParams) Arg(i uint32) Ptr {
	return dp.Args + Ptr(i*VariantSize)
}

// ReadDispParams reads the DISPPARAMS block at p.
func (e *Env) ReadDispParams(p Ptr) (DispParams, error) {
	if p == Null {
		return DispParams{}, errors.InvalidPointer(errors.PhaseDispatch, 0, "null DISPPARAMS")
	}
	var dp DispParams
	var err error
	var v uint32
	if v, err = e.heap.ReadU32(uint32(p)); err != nil {
		return dp, err
	}
	dp.Args = Ptr(v)
	if v, err = e.heap.ReadU32(uint32(p) + 4); err != nil {
		return dp, err
	}
	dp.NamedArgs = Ptr(v)
	if dp.ArgCount, err = e.heap.ReadU32(uint32(p) + 8); err != nil {
		return dp, err
	}
	if dp.NamedArgCount, err = e.heap.ReadU32(uint32(p) + 12); err != nil {
		return dp, err
	}
	return dp, nil
}

// WriteDispParams stores dp at p.
func (e *Env) WriteDispParams(p Ptr, dp DispParams) error {
	fields := [4]uint32{uint32(dp.Args), uint32(dp.NamedArgs), dp.ArgCount, dp.NamedArgCount}
	for i, v := range fields {
		if err := e.heap.WriteU32(uint32(p)+uint32(4*i), v); err != nil {
			return err
		}
	}
	return nil
}

// NamedArg returns the i-th DISPID of the named-argument array.
func (e *Env) NamedArg(dp DispParams, i uint32) (DISPID, error) {
	v, err := e.heap.ReadU32(uint32(dp.NamedArgs) + 4*i)
	return DISPID(int32(v)), err
}

// ExcepInfo is the EXCEPINFO block a failing Invoke may fill.
// The string handles belong to whoever reads the block.
type ExcepInfo struct {
	Source      bstr.Handle
	Description bstr.Handle
	HelpFile    bstr.Handle
	HelpContext uint32
	SCode       hresult.HRESULT
	Code        uint16
}

// Status returns the failure the block reports: SCode, or DISP_E_EXCEPTION
// when only a wCode is set.
func (ei ExcepInfo) Status() hresult.HRESULT {
	if ei.SCode != hresult.S_OK {
		return ei.SCode
	}
	return hresult.DISP_E_EXCEPTION
}

// ReadExcepInfo reads the EXCEPINFO block at p.
func (e *Env) ReadExcepInfo(p Ptr) (ExcepInfo, error) {
	var ei ExcepInfo
	base := uint32(p)

	code, err := e.heap.ReadU16(base)
	if err != nil {
		return ei, err
	}
	ei.Code = code

	var words [5]uint32
	for i, off := range [5]uint32{4, 8, 12, 16, 28} {
		if words[i], err = e.heap.ReadU32(base + off); err != nil {
			return ei, err
		}
	}
	ei.Source = bstr.Handle(words[0])
	ei.Description = bstr.Handle(words[1])
	ei.HelpFile = bstr.Handle(words[2])
	ei.HelpContext = words[3]
	ei.SCode = hresult.FromUint32(words[4])
	return ei, nil
}

// WriteExcepInfo stores ei at p, taking ownership of its string handles
// away from the writer.
func (e *Env) WriteExcepInfo(p Ptr, ei ExcepInfo) error {
	base := uint32(p)
	if err := e.heap.Write(base, make([]byte, ExcepInfoSize)); err != nil {
		return err
	}
	if err := e.heap.WriteU16(base, ei.Code); err != nil {
		return err
	}
	words := [5]uint32{uint32(ei.Source), uint32(ei.Description), uint32(ei.HelpFile), ei.HelpContext, uint32(ei.SCode)}
	for i, off := range [5]uint32{4, 8, 12, 16, 28} {
		if err := e.heap.WriteU32(base+off, words[i]); err != nil {
			return err
		}
	}
	return nil
}

// FreeExcepInfo frees every string handle in ei.
func (e *Env) FreeExcepInfo(ei ExcepInfo) {
	e.strings.FreeString(ei.Source)
	e.strings.FreeString(ei.Description)
	e.strings.FreeString(ei.HelpFile)
}
