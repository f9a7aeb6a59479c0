package server

import (
	stderrors "errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/wippyai/oleauto/abi"
	"github.com/wippyai/oleauto/bstr"
	"github.com/wippyai/oleauto/errors"
	"github.com/wippyai/oleauto/hresult"
	"github.com/wippyai/oleauto/variant"
)

// Member is one named entry of a Dispatcher. Any of Method, Get and Put may
// be nil; a member with only Get and Put is a property.
//
// Arguments are borrowed from the caller for the duration of the call and
// carry no count. A Dispatch or Unknown returned by Method or Get hands one
// count to the caller, so a handler that returns one of its arguments must
// variant.Retain it first.
type Member struct {
	Name   string
	Doc    string
	Method func(args []variant.Value) (variant.Value, error)
	Get    func() (variant.Value, error)
	Put    func(v variant.Value) error
}

// Dispatcher is an IDispatch object over a fixed member table.
// Member i has DISPID i+1.
type Dispatcher struct {
	Object
	typeName string
	doc      string
	members  []Member
	byName   map[string]abi.DISPID
}

// NewDispatcher registers a dispatch object with one count held by the
// caller. Member names must be unique ignoring case.
func NewDispatcher(env *abi.Env, typeName string, members ...Member) (*Dispatcher, error) {
	d := &Dispatcher{
		typeName: typeName,
		members:  members,
		byName:   make(map[string]abi.DISPID, len(members)),
	}
	for i, m := range members {
		key := fold(m.Name)
		if _, dup := d.byName[key]; dup {
			return nil, errors.InvalidInput(errors.PhaseRegister, fmt.Sprintf("duplicate member %q", m.Name))
		}
		d.byName[key] = abi.DISPID(i + 1)
	}

	if _, err := d.Attach(env, d, abi.IID_IDispatch); err != nil {
		return nil, err
	}
	return d, nil
}

// SetDoc sets the type's documentation string.
func (d *Dispatcher) SetDoc(doc string) { d.doc = doc }

// TypeName returns the name the type info reports.
func (d *Dispatcher) TypeName() string { return d.typeName }

func fold(name string) string {
	return cases.Fold().String(name)
}

func (d *Dispatcher) member(id abi.DISPID) (*Member, bool) {
	if id < 1 || int(id) > len(d.members) {
		return nil, false
	}
	return &d.members[id-1], true
}

// GetTypeInfoCount writes 1 to out: every Dispatcher describes itself.
func (d *Dispatcher) GetTypeInfoCount(out abi.Ptr) hresult.HRESULT {
	if out == abi.Null {
		return hresult.E_POINTER
	}
	if err := d.env.WritePtr(out, 1); err != nil {
		return hresult.E_POINTER
	}
	return hresult.S_OK
}

// GetTypeInfo writes a new TypeInfo carrying one count to out. Only index 0
// exists.
func (d *Dispatcher) GetTypeInfo(index uint32, lcid abi.LCID, out abi.Ptr) hresult.HRESULT {
	if out == abi.Null {
		return hresult.E_POINTER
	}
	if index != 0 {
		return hresult.DISP_E_BADINDEX
	}
	ti, err := newTypeInfo(d)
	if err != nil {
		Logger().Warn("type info creation failed", zap.Error(err))
		return hresult.E_OUTOFMEMORY
	}
	if err := d.env.WritePtr(out, ti.Ptr()); err != nil {
		ti.Release()
		return hresult.E_POINTER
	}
	return hresult.S_OK
}

// GetIDsOfNames maps each name to its DISPID ignoring case. Unknown names
// get DISPID_UNKNOWN and the call reports DISP_E_UNKNOWNNAME.
func (d *Dispatcher) GetIDsOfNames(iid abi.GUID, names abi.Ptr, count uint32, lcid abi.LCID, ids abi.Ptr) hresult.HRESULT {
	if iid != abi.IID_NULL {
		return hresult.DISP_E_UNKNOWNINTERFACE
	}
	if count > 0 && (names == abi.Null || ids == abi.Null) {
		return hresult.E_POINTER
	}

	status := hresult.S_OK
	for i := uint32(0); i < count; i++ {
		id := abi.DispidUnknown

		namePtr, err := d.env.ReadPtr(names + abi.Ptr(4*i))
		if err != nil {
			return hresult.E_POINTER
		}
		name, err := d.env.ReadName(namePtr)
		if err != nil {
			return hresult.E_POINTER
		}
		if found, ok := d.byName[fold(name)]; ok {
			id = found
		} else {
			status = hresult.DISP_E_UNKNOWNNAME
		}

		if err := d.env.Heap().WriteU32(uint32(ids)+4*i, uint32(int32(id))); err != nil {
			return hresult.E_POINTER
		}
	}
	return status
}

// Invoke calls member with the arguments in params. A property put needs
// exactly one named argument, DISPID_PROPERTYPUT. Handler errors become
// HRESULTs, with argErr and excepInfo filled where they apply.
func (d *Dispatcher) Invoke(member abi.DISPID, iid abi.GUID, lcid abi.LCID, flags abi.InvokeKind, params, result, excepInfo, argErr abi.Ptr) hresult.HRESULT {
	if iid != abi.IID_NULL {
		return hresult.DISP_E_UNKNOWNINTERFACE
	}
	m, ok := d.member(member)
	if !ok {
		return hresult.DISP_E_MEMBERNOTFOUND
	}
	dp, err := d.env.ReadDispParams(params)
	if err != nil {
		return hresult.E_INVALIDARG
	}

	put := flags&(abi.InvokePropertyPut|abi.InvokePropertyPutRef) != 0
	if hr := d.checkNamedArgs(dp, put); hr.Failed() {
		return hr
	}

	args := make([]variant.Value, dp.ArgCount)
	for i := uint32(0); i < dp.ArgCount; i++ {
		v, err := variant.Attach(d.env, dp.Arg(i)).Value()
		if err != nil {
			d.writeArgErr(argErr, i)
			return hresult.DISP_E_BADVARTYPE
		}
		// rgvarg is right to left
		args[dp.ArgCount-1-i] = v
	}

	var ret variant.Value
	switch {
	case put:
		if m.Put == nil {
			return hresult.DISP_E_MEMBERNOTFOUND
		}
		if len(args) != 1 {
			return hresult.DISP_E_BADPARAMCOUNT
		}
		err = m.Put(args[0])
	case flags&abi.InvokeMethod != 0 && m.Method != nil:
		ret, err = m.Method(args)
	case flags&abi.InvokePropertyGet != 0 && m.Get != nil:
		if len(args) != 0 {
			return hresult.DISP_E_BADPARAMCOUNT
		}
		ret, err = m.Get()
	default:
		return hresult.DISP_E_MEMBERNOTFOUND
	}

	if err != nil {
		return d.fail(m, err, dp.ArgCount, excepInfo, argErr)
	}
	return d.deliver(ret, result)
}

func (d *Dispatcher) checkNamedArgs(dp abi.DispParams, put bool) hresult.HRESULT {
	if !put {
		if dp.NamedArgCount > 0 {
			return hresult.DISP_E_NONAMEDARGS
		}
		return hresult.S_OK
	}
	if dp.NamedArgCount != 1 {
		return hresult.DISP_E_PARAMNOTFOUND
	}
	id, err := d.env.NamedArg(dp, 0)
	if err != nil || id != abi.DispidPropertyPut {
		return hresult.DISP_E_PARAMNOTFOUND
	}
	return hresult.S_OK
}

// deliver hands ret, and any count it carries, to the caller's result.
func (d *Dispatcher) deliver(ret variant.Value, result abi.Ptr) hresult.HRESULT {
	if ret == nil {
		ret = variant.Empty{}
	}
	if result == abi.Null {
		variant.Release(d.env, ret)
		return hresult.S_OK
	}
	if err := variant.Attach(d.env, result).Write(ret); err != nil {
		variant.Release(d.env, ret)
		Logger().Warn("writing invoke result failed", zap.Error(err))
		return hresult.E_OUTOFMEMORY
	}
	return hresult.S_OK
}

func (d *Dispatcher) fail(m *Member, err error, argc uint32, excepInfo, argErr abi.Ptr) hresult.HRESULT {
	var argError *ArgError
	if stderrors.As(err, &argError) {
		if argError.Position >= 0 && uint32(argError.Position) < argc {
			d.writeArgErr(argErr, argc-1-uint32(argError.Position))
		}
		return argError.Status
	}

	var hr hresult.HRESULT
	if stderrors.As(err, &hr) {
		return hr
	}

	var exc *Exception
	if !stderrors.As(err, &exc) {
		exc = &Exception{
			Source:      d.typeName,
			Description: err.Error(),
			SCode:       hresult.E_FAIL,
		}
	}
	Logger().Debug("member raised exception",
		zap.String("type", d.typeName),
		zap.String("member", m.Name),
		zap.String("description", exc.Description))

	if excepInfo != abi.Null {
		if werr := d.writeException(excepInfo, exc); werr != nil {
			Logger().Warn("writing EXCEPINFO failed", zap.Error(werr))
		}
	}
	return hresult.DISP_E_EXCEPTION
}

func (d *Dispatcher) writeException(p abi.Ptr, exc *Exception) error {
	strs := d.env.Strings()
	ei := abi.ExcepInfo{
		Code:        exc.Code,
		HelpContext: exc.HelpContext,
		SCode:       exc.SCode,
	}
	for _, f := range []struct {
		text string
		dst  *bstr.Handle
	}{{exc.Source, &ei.Source}, {exc.Description, &ei.Description}, {exc.HelpFile, &ei.HelpFile}} {
		if f.text == "" {
			continue
		}
		h, err := strs.AllocStringLen(bstr.Units(bstr.Encode(f.text)))
		if err != nil {
			d.env.FreeExcepInfo(ei)
			return err
		}
		*f.dst = h
	}
	if err := d.env.WriteExcepInfo(p, ei); err != nil {
		d.env.FreeExcepInfo(ei)
		return err
	}
	return nil
}

func (d *Dispatcher) writeArgErr(p abi.Ptr, index uint32) {
	if p == abi.Null {
		return
	}
	_ = d.env.Heap().WriteU32(uint32(p), index)
}
