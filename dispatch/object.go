package dispatch

import (
	stderrors "errors"
	"strconv"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/oleauto/abi"
	"github.com/wippyai/oleauto/com"
	"github.com/wippyai/oleauto/errors"
	"github.com/wippyai/oleauto/hresult"
	"github.com/wippyai/oleauto/variant"
)

// Object is a dynamic-dispatch client. It owns the count of the handle it
// was created from.
type Object struct {
	handle *com.Object[com.IDispatch]
}

// New takes over h and its count.
func New(h *com.Object[com.IDispatch]) *Object {
	return &Object{handle: h}
}

// Handle returns the underlying handle without transferring its count.
func (o *Object) Handle() *com.Object[com.IDispatch] {
	return o.handle
}

// Release drops the held count. Later calls do nothing.
func (o *Object) Release() {
	o.handle.Release()
}

func (o *Object) env() *abi.Env {
	return o.handle.Env()
}

func (o *Object) impl() (abi.Dispatch, error) {
	d, ok := o.handle.Interface().(abi.Dispatch)
	if !ok {
		return nil, hresult.E_NOINTERFACE
	}
	return d, nil
}

// TypeInfoCount returns how many type descriptions the object provides
// (0 or 1).
func (o *Object) TypeInfoCount() (uint32, error) {
	d, err := o.impl()
	if err != nil {
		return 0, err
	}
	env := o.env()
	out, err := env.Alloc(abi.PtrSize, abi.PtrSize)
	if err != nil {
		return 0, err
	}
	defer env.Free(out, abi.PtrSize, abi.PtrSize)

	if hr := d.GetTypeInfoCount(out); hr.Failed() {
		return 0, hr
	}
	n, err := env.ReadPtr(out)
	return uint32(n), err
}

// TypeInfo returns type description index with a fresh count.
func (o *Object) TypeInfo(index uint32, lcid abi.LCID) (*com.Object[com.ITypeInfo], error) {
	d, err := o.impl()
	if err != nil {
		return nil, err
	}
	env := o.env()
	out, err := env.Alloc(abi.PtrSize, abi.PtrSize)
	if err != nil {
		return nil, err
	}
	defer env.Free(out, abi.PtrSize, abi.PtrSize)

	if hr := d.GetTypeInfo(index, lcid, out); hr.Failed() {
		return nil, hr
	}
	p, err := env.ReadPtr(out)
	if err != nil {
		return nil, err
	}
	return com.Wrap[com.ITypeInfo](env, p)
}

// GetIDsOfNames resolves names to member ids. Unresolved names get
// abi.DispidUnknown at their position, and the ids are returned even when the
// call reports failure, so check each id rather than only the error.
func (o *Object) GetIDsOfNames(names []string, lcid abi.LCID) ([]abi.DISPID, error) {
	d, err := o.impl()
	if err != nil {
		return nil, err
	}
	env := o.env()
	count := uint32(len(names))

	ids := make([]abi.DISPID, count)
	for i := range ids {
		ids[i] = abi.DispidUnknown
	}
	if count == 0 {
		return ids, nil
	}

	type name struct {
		ptr  abi.Ptr
		size uint32
	}
	allocated := make([]name, 0, count)
	defer func() {
		for _, n := range allocated {
			env.Free(n.ptr, n.size, 2)
		}
	}()

	table, err := env.Alloc(abi.PtrSize*count, abi.PtrSize)
	if err != nil {
		return ids, errors.Wrap(errors.PhaseDispatch, errors.KindAllocation, err, "allocate name table")
	}
	defer env.Free(table, abi.PtrSize*count, abi.PtrSize)

	out, err := env.Alloc(4*count, 4)
	if err != nil {
		return ids, errors.Wrap(errors.PhaseDispatch, errors.KindAllocation, err, "allocate id array")
	}
	defer env.Free(out, 4*count, 4)

	unknown := abi.DispidUnknown
	for i, s := range names {
		p, size, err := env.AllocName(s)
		if err != nil {
			return ids, errors.Wrap(errors.PhaseDispatch, errors.KindAllocation, err, "allocate name")
		}
		allocated = append(allocated, name{p, size})
		if err := env.WritePtr(table+abi.Ptr(4*i), p); err != nil {
			return ids, err
		}
		if err := env.Heap().WriteU32(uint32(out)+uint32(4*i), uint32(unknown)); err != nil {
			return ids, err
		}
	}

	hr := d.GetIDsOfNames(abi.IID_NULL, table, count, lcid, out)

	for i := range ids {
		v, err := env.Heap().ReadU32(uint32(out) + uint32(4*i))
		if err != nil {
			return ids, err
		}
		ids[i] = abi.DISPID(int32(v))
	}
	return ids, hr.Err()
}

// Invoke calls member with args given in caller order. On failure the
// returned error is an *InvokeError unless staging itself failed.
func (o *Object) Invoke(member abi.DISPID, lcid abi.LCID, kind abi.InvokeKind, args ...variant.Value) (variant.Value, error) {
	d, err := o.impl()
	if err != nil {
		return nil, err
	}
	f, err := newFrame(o.env(), kind, len(args))
	if err != nil {
		return nil, err
	}

	stageErr := f.stage(args)
	if stageErr == nil {
		hr := d.Invoke(member, abi.IID_NULL, lcid, kind, f.params, f.result.Ptr(), f.excepInfo, f.argErr)
		v, callErr := f.collect(hr)
		if cleanupErr := f.free(); cleanupErr != nil {
			Logger().Warn("releasing invoke arguments failed", zap.Error(cleanupErr))
			if callErr == nil {
				variant.Release(o.env(), v)
				return nil, cleanupErr
			}
		}
		if callErr != nil {
			Logger().Debug("invoke failed",
				zap.Int32("dispid", int32(member)),
				zap.Stringer("kind", kind),
				zap.Error(callErr))
		}
		return v, callErr
	}

	return nil, multierr.Append(stageErr, f.free())
}

// Call invokes name as a method.
func (o *Object) Call(name string, args ...variant.Value) (variant.Value, error) {
	id, err := o.resolve(name)
	if err != nil {
		return nil, err
	}
	return o.Invoke(id, o.env().Locale(), abi.InvokeMethod, args...)
}

// Get reads property name.
func (o *Object) Get(name string) (variant.Value, error) {
	id, err := o.resolve(name)
	if err != nil {
		return nil, err
	}
	return o.Invoke(id, o.env().Locale(), abi.InvokePropertyGet)
}

// Put writes property name. v is borrowed.
func (o *Object) Put(name string, v variant.Value) error {
	id, err := o.resolve(name)
	if err != nil {
		return err
	}
	ret, err := o.Invoke(id, o.env().Locale(), abi.InvokePropertyPut, v)
	if err != nil {
		return err
	}
	variant.Release(o.env(), ret)
	return nil
}

// resolve maps a single name to its id. Failure is reported as an
// *InvokeError naming the resolution step, with ArgErr 0.
func (o *Object) resolve(name string) (abi.DISPID, error) {
	ids, err := o.GetIDsOfNames([]string{name}, o.env().Locale())

	var hr hresult.HRESULT
	switch {
	case err == nil && len(ids) == 1 && ids[0] != abi.DispidUnknown:
		return ids[0], nil
	case err == nil:
		hr = hresult.DISP_E_UNKNOWNNAME
	case stderrors.As(err, &hr):
	default:
		return abi.DispidUnknown, err
	}
	return abi.DispidUnknown, &InvokeError{Status: hr, Description: resolveStep}
}

// frame holds the foreign blocks of one Invoke.
type frame struct {
	env       *abi.Env
	args      abi.Ptr
	named     abi.Ptr
	params    abi.Ptr
	excepInfo abi.Ptr
	argErr    abi.Ptr
	result    *variant.Raw
	staged    []staged
	argc      uint32
	put       bool
}

func newFrame(env *abi.Env, kind abi.InvokeKind, argc int) (*frame, error) {
	f := &frame{
		env:  env,
		argc: uint32(argc),
		put:  kind&(abi.InvokePropertyPut|abi.InvokePropertyPutRef) != 0,
	}
	if err := f.alloc(); err != nil {
		_ = f.free()
		return nil, errors.Wrap(errors.PhaseDispatch, errors.KindAllocation, err, "allocate invoke frame")
	}
	return f, nil
}

func (f *frame) alloc() (err error) {
	env := f.env
	if f.argc > 0 {
		if f.args, err = env.Alloc(abi.VariantSize*f.argc, abi.VariantAlign); err != nil {
			return err
		}
	}
	if f.put {
		if f.named, err = env.Alloc(4, 4); err != nil {
			return err
		}
		named := abi.DispidPropertyPut
		if err = env.Heap().WriteU32(uint32(f.named), uint32(named)); err != nil {
			return err
		}
	}
	if f.params, err = env.Alloc(abi.DispParamsSize, 4); err != nil {
		return err
	}
	if f.excepInfo, err = env.Alloc(abi.ExcepInfoSize, 4); err != nil {
		return err
	}
	if f.argErr, err = env.Alloc(4, 4); err != nil {
		return err
	}
	if f.result, err = variant.NewRaw(env); err != nil {
		return err
	}

	dp := abi.DispParams{Args: f.args, ArgCount: f.argc}
	if f.put {
		dp.NamedArgs = f.named
		dp.NamedArgCount = 1
	}
	return env.WriteDispParams(f.params, dp)
}

// staged is one argument slot written by stage.
type staged struct {
	slot  abi.Ptr
	owned bool
}

// stage writes args right to left and adds a count for each staged
// reference; clearing the staged VARIANT drops it again. Pointer-carrying
// arguments stay with the caller and are never cleared.
func (f *frame) stage(args []variant.Value) error {
	dp := abi.DispParams{Args: f.args, ArgCount: f.argc}
	for i, a := range args {
		slot := dp.Arg(f.argc - 1 - uint32(i))
		if err := variant.Attach(f.env, slot).Write(a); err != nil {
			kind := errors.KindUnsupported
			var e *errors.Error
			if stderrors.As(err, &e) {
				kind = e.Kind
			}
			return errors.New(errors.PhaseDispatch, kind).
				Path("args", strconv.Itoa(i)).
				Cause(err).
				Detail("stage argument").
				Build()
		}
		f.staged = append(f.staged, staged{slot: slot, owned: !borrowed(a)})
		variant.Retain(f.env, a)
	}
	return nil
}

// borrowed reports whether v points at memory the caller keeps.
func borrowed(v variant.Value) bool {
	switch v.(type) {
	case variant.VariantRef, variant.Array, variant.ByRef:
		return true
	}
	return false
}

// collect turns the outcome of Invoke into a Value or an *InvokeError.
func (f *frame) collect(hr hresult.HRESULT) (variant.Value, error) {
	if hr.Succeeded() {
		return f.result.Take()
	}

	ie := &InvokeError{Status: hr}

	ei, err := f.env.ReadExcepInfo(f.excepInfo)
	if err == nil {
		strs := f.env.Strings()
		if ie.Source, err = strs.Text(ei.Source); err != nil {
			Logger().Debug("decode exception source failed", zap.Error(err))
		}
		if ie.Description, err = strs.Text(ei.Description); err != nil {
			Logger().Debug("decode exception description failed", zap.Error(err))
		}
		if hr == hresult.DISP_E_EXCEPTION {
			ie.SCode = ei.Status()
		}
		f.env.FreeExcepInfo(ei)
	}

	if idx, err := f.env.Heap().ReadU32(uint32(f.argErr)); err == nil {
		ie.ArgErr = idx
	}
	return nil, ie
}

// free clears every owned staged VARIANT and the result, resets borrowed
// slots, then releases the frame's blocks.
func (f *frame) free() error {
	var err error
	for _, s := range f.staged {
		if s.owned {
			multierr.AppendInto(&err, variant.Attach(f.env, s.slot).Clear())
		} else {
			multierr.AppendInto(&err, f.env.VariantInit(s.slot))
		}
	}
	f.staged = nil

	if f.result != nil {
		multierr.AppendInto(&err, f.result.Free())
	}
	if f.args != abi.Null {
		f.env.Free(f.args, abi.VariantSize*f.argc, abi.VariantAlign)
	}
	if f.named != abi.Null {
		f.env.Free(f.named, 4, 4)
	}
	if f.params != abi.Null {
		f.env.Free(f.params, abi.DispParamsSize, 4)
	}
	if f.excepInfo != abi.Null {
		f.env.Free(f.excepInfo, abi.ExcepInfoSize, 4)
	}
	if f.argErr != abi.Null {
		f.env.Free(f.argErr, 4, 4)
	}
	return err
}
