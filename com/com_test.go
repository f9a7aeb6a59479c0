package com

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/google/uuid"

	"github.com/wippyai/oleauto/abi"
	"github.com/wippyai/oleauto/bstr"
	"github.com/wippyai/oleauto/errors"
	"github.com/wippyai/oleauto/hresult"
	"github.com/wippyai/oleauto/registry"
	"github.com/wippyai/oleauto/server"
	"github.com/wippyai/oleauto/variant"
)

var clsidCounter = uuid.MustParse("0b6d4b1e-93f2-4c57-8a0e-5d2f7c1e9a44")

func newEnv(t *testing.T) *abi.Env {
	t.Helper()
	ctx := context.Background()
	env, err := abi.NewEnv(ctx, nil)
	if err != nil {
		t.Fatalf("NewEnv failed: %v", err)
	}
	t.Cleanup(func() { _ = env.Close(ctx) })
	return env
}

func assertNoLeaks(t *testing.T, env *abi.Env) {
	t.Helper()
	if n := env.Objects(); n != 0 {
		t.Errorf("%d objects still registered", n)
	}
	if live := env.Heap().Live(); live.Allocations != 0 {
		t.Errorf("leaked %d allocations (%d bytes)", live.Allocations, live.Bytes)
	}
}

func newCounter(env *abi.Env) (*server.Dispatcher, error) {
	d, err := server.NewDispatcher(env, "Counter", server.Member{
		Name: "Count",
		Doc:  "Current value",
		Get:  func() (variant.Value, error) { return variant.Int4(0), nil },
	})
	if err != nil {
		return nil, err
	}
	d.SetDoc("A simple counter")
	return d, nil
}

func newRegistry(t *testing.T, env *abi.Env) *registry.Registry {
	t.Helper()
	r := registry.New(env)
	err := r.Register(clsidCounter, abi.ClsCtxInprocServer, func(env *abi.Env) (server.Instance, error) {
		return newCounter(env)
	})
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func wrapCounter(t *testing.T, env *abi.Env) (*Object[IDispatch], *server.Dispatcher) {
	t.Helper()
	d, err := newCounter(env)
	if err != nil {
		t.Fatal(err)
	}
	o, err := Wrap[IDispatch](env, d.Ptr())
	if err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}
	return o, d
}

func expectPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	fn()
}

// nullQuery reports success from QueryInterface without writing a pointer.
type nullQuery struct {
	env *abi.Env
	ptr abi.Ptr
}

func (q *nullQuery) QueryInterface(iid abi.GUID, out abi.Ptr) hresult.HRESULT {
	_ = q.env.WritePtr(out, abi.Null)
	return hresult.S_OK
}
func (q *nullQuery) AddRef() uint32 { return 1 }
func (q *nullQuery) Release() uint32 {
	q.env.Unregister(q.ptr)
	return 0
}

// nullActivator reports success from activation without writing a pointer.
type nullActivator struct{}

func (nullActivator) CoCreateInstance(abi.GUID, abi.Ptr, abi.ClsCtx, abi.GUID, abi.Ptr) hresult.HRESULT {
	return hresult.S_OK
}

func (nullActivator) CoGetClassObject(abi.GUID, abi.ClsCtx, abi.GUID, abi.Ptr) hresult.HRESULT {
	return hresult.S_OK
}

func TestWrapNull(t *testing.T) {
	env := newEnv(t)

	o, err := Wrap[IDispatch](env, abi.Null)
	if o != nil {
		t.Error("expected nil object")
	}
	if !stderrors.Is(err, errors.ErrNilPointer) {
		t.Errorf("err = %v, want ErrNilPointer", err)
	}
}

func TestCloneRelease(t *testing.T) {
	env := newEnv(t)
	o, d := wrapCounter(t, env)

	clone := o.Clone()
	if d.Refs() != 2 {
		t.Errorf("Refs after Clone = %d, want 2", d.Refs())
	}
	if !o.Equal(clone) {
		t.Error("clone is not equal to its source")
	}

	clone.Release()
	clone.Release()
	if d.Refs() != 1 {
		t.Errorf("Refs after double Release = %d, want 1", d.Refs())
	}
	expectPanic(t, func() { clone.Ptr() })

	o.Release()
	assertNoLeaks(t, env)
}

func TestDetach(t *testing.T) {
	env := newEnv(t)
	o, d := wrapCounter(t, env)

	p := o.Detach()
	if p != d.Ptr() {
		t.Errorf("Detach = %#x, want %#x", uint32(p), uint32(d.Ptr()))
	}
	if d.Refs() != 1 {
		t.Errorf("Refs after Detach = %d, want 1", d.Refs())
	}
	o.Release()
	if d.Refs() != 1 {
		t.Errorf("Release after Detach changed Refs to %d", d.Refs())
	}
	expectPanic(t, func() { o.Interface() })

	again, err := Wrap[IDispatch](env, p)
	if err != nil {
		t.Fatal(err)
	}
	if again.Ptr() != p {
		t.Errorf("rewrapped Ptr = %#x, want %#x", uint32(again.Ptr()), uint32(p))
	}
	again.Release()
	assertNoLeaks(t, env)
}

func TestQueryInterface(t *testing.T) {
	env := newEnv(t)
	o, d := wrapCounter(t, env)

	unk, err := QueryInterface[IUnknown](o)
	if err != nil {
		t.Fatalf("QueryInterface[IUnknown] failed: %v", err)
	}
	if !Same(o, unk) {
		t.Error("IUnknown handle points elsewhere")
	}
	if d.Refs() != 2 {
		t.Errorf("Refs = %d, want 2", d.Refs())
	}

	_, err = QueryInterface[IClassFactory](unk)
	var hr hresult.HRESULT
	if !stderrors.As(err, &hr) || hr != hresult.E_NOINTERFACE {
		t.Errorf("err = %v, want E_NOINTERFACE", err)
	}
	if d.Refs() != 2 {
		t.Errorf("failed query changed Refs to %d", d.Refs())
	}

	unk.Release()
	o.Release()
	assertNoLeaks(t, env)
}

func TestQueryInterfaceNullSuccess(t *testing.T) {
	env := newEnv(t)
	q := &nullQuery{env: env}
	p, err := env.Register(q)
	if err != nil {
		t.Fatal(err)
	}
	q.ptr = p

	o, err := Wrap[IUnknown](env, p)
	if err != nil {
		t.Fatal(err)
	}
	_, err = QueryInterface[IDispatch](o)
	if !stderrors.Is(err, errors.ErrInvalidPointer) {
		t.Errorf("err = %v, want ErrInvalidPointer", err)
	}
	if !stderrors.Is(err, hresult.E_POINTER) {
		t.Errorf("err = %v, want cause E_POINTER", err)
	}

	o.Release()
	assertNoLeaks(t, env)
}

func TestCreateInstance(t *testing.T) {
	tests := []struct {
		name   string
		clsid  abi.GUID
		ctx    abi.ClsCtx
		wantHR hresult.HRESULT
	}{
		{"registered", clsidCounter, abi.ClsCtxInprocServer, hresult.S_OK},
		{"unknown class", uuid.New(), abi.ClsCtxAll, hresult.REGDB_E_CLASSNOTREG},
		{"wrong context", clsidCounter, abi.ClsCtxLocalServer, hresult.REGDB_E_CLASSNOTREG},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newEnv(t)
			r := newRegistry(t, env)

			o, err := CreateInstance[IDispatch](env, r, tt.clsid, abi.Null, tt.ctx)
			if tt.wantHR.Failed() {
				var hr hresult.HRESULT
				if !stderrors.As(err, &hr) || hr != tt.wantHR {
					t.Fatalf("err = %v, want %v", err, tt.wantHR)
				}
				assertNoLeaks(t, env)
				return
			}
			if err != nil {
				t.Fatalf("CreateInstance failed: %v", err)
			}
			d, ok := o.Interface().(*server.Dispatcher)
			if !ok {
				t.Fatalf("Interface = %T, want *server.Dispatcher", o.Interface())
			}
			if d.Refs() != 1 {
				t.Errorf("Refs = %d, want 1", d.Refs())
			}
			o.Release()
			assertNoLeaks(t, env)
		})
	}
}

func TestActivationNullSuccessPanics(t *testing.T) {
	env := newEnv(t)

	expectPanic(t, func() { _, _ = CreateInstance[IDispatch](env, nullActivator{}, clsidCounter, abi.Null, abi.ClsCtxAll) })
	expectPanic(t, func() { _, _ = GetClassObject[IClassFactory](env, nullActivator{}, clsidCounter, abi.ClsCtxAll) })
}

func TestClassFactory(t *testing.T) {
	env := newEnv(t)
	r := newRegistry(t, env)

	f, err := GetClassObject[IClassFactory](env, r, clsidCounter, abi.ClsCtxInprocServer)
	if err != nil {
		t.Fatalf("GetClassObject failed: %v", err)
	}

	if err := LockServer(f, true); err != nil {
		t.Errorf("LockServer failed: %v", err)
	}
	if r.Locks() != 1 {
		t.Errorf("Locks = %d, want 1", r.Locks())
	}

	o, err := FactoryCreateInstance[IDispatch](f, abi.Null)
	if err != nil {
		t.Fatalf("FactoryCreateInstance failed: %v", err)
	}
	if _, ok := o.Interface().(*server.Dispatcher); !ok {
		t.Errorf("Interface = %T, want *server.Dispatcher", o.Interface())
	}
	o.Release()

	_, err = FactoryCreateInstance[IDispatch](f, 0x40)
	var hr hresult.HRESULT
	if !stderrors.As(err, &hr) || hr != hresult.CLASS_E_NOAGGREGATION {
		t.Errorf("aggregation err = %v, want CLASS_E_NOAGGREGATION", err)
	}

	if err := LockServer(f, false); err != nil {
		t.Errorf("unlock failed: %v", err)
	}
	if err := LockServer(f, false); !stderrors.Is(err, hresult.E_UNEXPECTED) {
		t.Errorf("extra unlock err = %v, want E_UNEXPECTED", err)
	}

	f.Release()
	assertNoLeaks(t, env)
}

func TestDocument(t *testing.T) {
	env := newEnv(t)
	o, d := wrapCounter(t, env)

	out, err := env.Alloc(abi.PtrSize, abi.PtrSize)
	if err != nil {
		t.Fatal(err)
	}
	if hr := d.GetTypeInfo(0, env.Locale(), out); hr != hresult.S_OK {
		t.Fatalf("GetTypeInfo hr = %v", hr)
	}
	p, _ := env.ReadPtr(out)
	env.Free(out, abi.PtrSize, abi.PtrSize)

	ti, err := Wrap[ITypeInfo](env, p)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		member  abi.DISPID
		want    Documentation
		wantErr hresult.HRESULT
	}{
		{"type", abi.MemberIDNil, Documentation{Name: "Counter", DocString: "A simple counter"}, hresult.S_OK},
		{"member", 1, Documentation{Name: "Count", DocString: "Current value"}, hresult.S_OK},
		{"missing", 9, Documentation{}, hresult.TYPE_E_ELEMENTNOTFOUND},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Document(ti, tt.member)
			if tt.wantErr.Failed() {
				if !stderrors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Document failed: %v", err)
			}
			if doc != tt.want {
				t.Errorf("Document = %+v, want %+v", doc, tt.want)
			}
		})
	}

	ti.Release()
	o.Release()
	assertNoLeaks(t, env)
}

// helpInfo documents every member with all four out-parameters set.
type helpInfo struct {
	server.Object
}

func (h *helpInfo) GetDocumentation(member abi.DISPID, name, docString, helpContext, helpFile abi.Ptr) hresult.HRESULT {
	env := h.Env()
	for _, f := range []struct {
		slot abi.Ptr
		text string
	}{{name, "Help"}, {docString, "Справка"}, {helpFile, "help.chm"}} {
		s, err := bstr.FromString(env.Strings(), f.text)
		if err != nil {
			return hresult.E_OUTOFMEMORY
		}
		hd := s.Detach()
		if err := env.WritePtr(f.slot, abi.Ptr(hd)); err != nil {
			env.Strings().FreeString(hd)
			return hresult.E_POINTER
		}
	}
	if err := env.WritePtr(helpContext, 42); err != nil {
		return hresult.E_POINTER
	}
	return hresult.S_OK
}

func TestDocumentFreesEveryString(t *testing.T) {
	tests := []struct {
		name   string
		member abi.DISPID
	}{
		{"type", abi.MemberIDNil},
		{"member", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newEnv(t)
			h := &helpInfo{}
			p, err := h.Attach(env, h, abi.IID_ITypeInfo)
			if err != nil {
				t.Fatal(err)
			}
			ti, err := Wrap[ITypeInfo](env, p)
			if err != nil {
				t.Fatal(err)
			}

			doc, err := Document(ti, tt.member)
			if err != nil {
				t.Fatalf("Document failed: %v", err)
			}
			want := Documentation{Name: "Help", DocString: "Справка", HelpFile: "help.chm", HelpContext: 42}
			if doc != want {
				t.Errorf("Document = %+v, want %+v", doc, want)
			}

			ti.Release()
			assertNoLeaks(t, env)
		})
	}
}
