package com

import (
	"github.com/wippyai/oleauto/abi"
	"github.com/wippyai/oleauto/bstr"
	"github.com/wippyai/oleauto/errors"
	"github.com/wippyai/oleauto/hresult"
)

// Documentation is what a type describes about itself or one member.
type Documentation struct {
	Name        string
	DocString   string
	HelpFile    string
	HelpContext uint32
}

// Document reads the documentation of member, or of the type itself for
// abi.MemberIDNil. The returned strings are copies; the handles are freed.
func Document(ti *Object[ITypeInfo], member abi.DISPID) (Documentation, error) {
	impl, ok := ti.Interface().(abi.TypeInfo)
	if !ok {
		return Documentation{}, hresult.E_NOINTERFACE
	}

	env := ti.env
	const slots = 4
	out, err := env.Alloc(slots*abi.PtrSize, abi.PtrSize)
	if err != nil {
		return Documentation{}, errors.Wrap(errors.PhaseDispatch, errors.KindAllocation, err, "allocate out-parameters")
	}
	defer env.Free(out, slots*abi.PtrSize, abi.PtrSize)

	name, doc, ctx, file := out, out+4, out+8, out+12
	if hr := impl.GetDocumentation(member, name, doc, ctx, file); hr.Failed() {
		return Documentation{}, hr
	}

	// Read every handle before freeing any.
	var (
		d       Documentation
		handles [3]bstr.Handle
		readErr error
	)
	for i, slot := range [...]abi.Ptr{name, doc, file} {
		h, err := env.ReadPtr(slot)
		if err != nil {
			if readErr == nil {
				readErr = err
			}
			continue
		}
		handles[i] = bstr.Handle(h)
	}

	var firstErr error
	for i, dst := range [...]*string{&d.Name, &d.DocString, &d.HelpFile} {
		s := bstr.Own(env.Strings(), handles[i])
		text, err := s.Text()
		s.Free()
		if err != nil && firstErr == nil {
			firstErr = err
		}
		*dst = text
	}
	if readErr != nil {
		return Documentation{}, readErr
	}

	hc, err := env.ReadPtr(ctx)
	if err != nil {
		return Documentation{}, err
	}
	d.HelpContext = uint32(hc)
	return d, firstErr
}
