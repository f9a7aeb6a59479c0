package server

import (
	"github.com/wippyai/oleauto/abi"
	"github.com/wippyai/oleauto/bstr"
	"github.com/wippyai/oleauto/hresult"
)

// TypeInfo describes a Dispatcher: its name and the names and docs of its
// members.
type TypeInfo struct {
	Object
	owner *Dispatcher
}

func newTypeInfo(d *Dispatcher) (*TypeInfo, error) {
	ti := &TypeInfo{owner: d}
	if _, err := ti.Attach(d.env, ti, abi.IID_ITypeInfo); err != nil {
		return nil, err
	}
	// Keep the described object alive while its type info is.
	d.AddRef()
	ti.OnDestroy(func() { d.Release() })
	return ti, nil
}

// GetDocumentation writes the name and doc string of member, or of the type
// for MEMBERID_NIL. The strings belong to the caller; null slots are skipped.
func (ti *TypeInfo) GetDocumentation(member abi.DISPID, name, docString, helpContext, helpFile abi.Ptr) hresult.HRESULT {
	var memberName, doc string
	if member == abi.MemberIDNil {
		memberName, doc = ti.owner.typeName, ti.owner.doc
	} else {
		m, ok := ti.owner.member(member)
		if !ok {
			return hresult.TYPE_E_ELEMENTNOTFOUND
		}
		memberName, doc = m.Name, m.Doc
	}

	var written []bstr.Handle
	fail := func() hresult.HRESULT {
		for _, h := range written {
			ti.env.Strings().FreeString(h)
		}
		return hresult.E_OUTOFMEMORY
	}

	for _, f := range []struct {
		slot abi.Ptr
		text string
	}{{name, memberName}, {docString, doc}, {helpFile, ""}} {
		if f.slot == abi.Null {
			continue
		}
		h := bstr.Null
		if f.text != "" {
			var err error
			if h, err = ti.env.Strings().AllocStringLen(bstr.Units(bstr.Encode(f.text))); err != nil {
				return fail()
			}
			written = append(written, h)
		}
		if err := ti.env.WritePtr(f.slot, abi.Ptr(h)); err != nil {
			return fail()
		}
	}
	if helpContext != abi.Null {
		if err := ti.env.WritePtr(helpContext, 0); err != nil {
			return fail()
		}
	}
	return hresult.S_OK
}
