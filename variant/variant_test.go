package variant

import (
	"context"
	stderrors "errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/wippyai/oleauto/abi"
	"github.com/wippyai/oleauto/errors"
	"github.com/wippyai/oleauto/hresult"
)

type refObject struct {
	env  *abi.Env
	ptr  abi.Ptr
	refs int
}

func (o *refObject) QueryInterface(abi.GUID, abi.Ptr) hresult.HRESULT { return hresult.E_NOINTERFACE }
func (o *refObject) AddRef() uint32                                   { o.refs++; return uint32(o.refs) }
func (o *refObject) Release() uint32 {
	o.refs--
	if o.refs == 0 {
		o.env.Unregister(o.ptr)
	}
	return uint32(o.refs)
}

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

func newObject(t *testing.T, env *abi.Env) *refObject {
	t.Helper()
	obj := &refObject{env: env, refs: 1}
	p, err := env.Register(obj)
	if err != nil {
		t.Fatal(err)
	}
	obj.ptr = p
	return obj
}

func assertNoLeaks(t *testing.T, env *abi.Env) {
	t.Helper()
	if live := env.Heap().Live(); live.Allocations != 0 {
		t.Errorf("leaked %d allocations (%d bytes)", live.Allocations, live.Bytes)
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []Value{
		Empty{},
		Int2(-12345),
		Int4(math.MinInt32),
		Real4(3.5),
		Real8(-1e300),
		Date(45366.5208333),
		Text("Hello"),
		Text(""),
		Text("Test line.\x00 Тестовая строка.\x00 \U0001F600"),
		ErrorCode(int32(hresult.DISP_E_EXCEPTION)),
		Bool(true),
		Bool(false),
		Int1(-128),
		UInt1(255),
		UInt2(65535),
		UInt4(math.MaxUint32),
		Int(-1),
		UInt(42),
	}

	for _, want := range tests {
		t.Run(String(want), func(t *testing.T) {
			env := newEnv(t)

			raw, err := FromValue(env, want)
			if err != nil {
				t.Fatalf("FromValue failed: %v", err)
			}
			vt, err := raw.VT()
			if err != nil {
				t.Fatal(err)
			}
			if vt != want.VT() {
				t.Errorf("VT = %v, want %v", vt, want.VT())
			}

			got, err := raw.Take()
			if err != nil {
				t.Fatalf("Take failed: %v", err)
			}
			if got != want {
				t.Errorf("round trip = %s, want %s", String(got), String(want))
			}
			if vt, _ := raw.VT(); vt != abi.VTEmpty {
				t.Errorf("VT after Take = %v, want VT_EMPTY", vt)
			}

			if err := raw.Free(); err != nil {
				t.Fatal(err)
			}
			assertNoLeaks(t, env)
		})
	}
}

func TestRoundTripReferences(t *testing.T) {
	env := newEnv(t)
	obj := newObject(t, env)
	defer obj.Release()

	tests := []Value{
		Dispatch(obj.ptr),
		Unknown(obj.ptr),
		VariantRef(0x1000),
		Array(0x2000),
		ByRef(0x3000),
	}

	for _, want := range tests {
		t.Run(String(want), func(t *testing.T) {
			raw, err := FromValue(env, want)
			if err != nil {
				t.Fatal(err)
			}
			if obj.refs != 1 {
				t.Errorf("FromValue changed refs to %d", obj.refs)
			}
			got, err := raw.Take()
			if err != nil {
				t.Fatal(err)
			}
			if got != want {
				t.Errorf("round trip = %s, want %s", String(got), String(want))
			}
			if err := raw.Free(); err != nil {
				t.Fatal(err)
			}
			if obj.refs != 1 {
				t.Errorf("refs after Take+Free = %d, want 1", obj.refs)
			}
		})
	}
}

func TestBoolEncoding(t *testing.T) {
	env := newEnv(t)

	raw, err := FromValue(env, Bool(true))
	if err != nil {
		t.Fatal(err)
	}
	defer raw.Free()

	word, err := env.Heap().ReadU16(uint32(raw.Ptr()) + abi.VariantPayload)
	if err != nil {
		t.Fatal(err)
	}
	if int16(word) != -1 {
		t.Errorf("true encoded as %d, want -1", int16(word))
	}

	// Anything but -1 reads back as false.
	if err := env.Heap().WriteU16(uint32(raw.Ptr())+abi.VariantPayload, 1); err != nil {
		t.Fatal(err)
	}
	v, err := raw.Value()
	if err != nil {
		t.Fatal(err)
	}
	if v != Bool(false) {
		t.Errorf("payload 1 decoded as %s, want Bool(false)", String(v))
	}
}

func TestClearFreesString(t *testing.T) {
	env := newEnv(t)

	raw, err := FromValue(env, Text("owned by the union"))
	if err != nil {
		t.Fatal(err)
	}
	if n := env.Heap().Live().Allocations; n != 2 {
		t.Fatalf("live allocations = %d, want VARIANT + string", n)
	}

	if err := raw.Clear(); err != nil {
		t.Fatal(err)
	}
	if n := env.Heap().Live().Allocations; n != 1 {
		t.Errorf("live allocations after Clear = %d, want 1", n)
	}
	if err := raw.Clear(); err != nil {
		t.Errorf("Clear on empty = %v", err)
	}

	raw.Free()
	raw.Free()
	assertNoLeaks(t, env)
}

func TestWriteReplacesContents(t *testing.T) {
	env := newEnv(t)

	raw, err := FromValue(env, Text("first"))
	if err != nil {
		t.Fatal(err)
	}
	if err := raw.Write(Int4(7)); err != nil {
		t.Fatal(err)
	}
	v, err := raw.Value()
	if err != nil {
		t.Fatal(err)
	}
	if v != Int4(7) {
		t.Errorf("Value = %s, want Int4(7)", String(v))
	}
	raw.Free()
	assertNoLeaks(t, env)
}

func TestValueBorrows(t *testing.T) {
	env := newEnv(t)

	raw, err := FromValue(env, Text("borrowed"))
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		v, err := raw.Value()
		if err != nil {
			t.Fatal(err)
		}
		if v != Text("borrowed") {
			t.Errorf("Value = %s", String(v))
		}
	}
	if vt, _ := raw.VT(); vt != abi.VTBSTR {
		t.Errorf("VT after Value = %v, want VT_BSTR", vt)
	}

	raw.Free()
	assertNoLeaks(t, env)
}

func TestTakeMovesReference(t *testing.T) {
	env := newEnv(t)
	obj := newObject(t, env)

	obj.AddRef()
	raw, err := FromValue(env, Dispatch(obj.ptr))
	if err != nil {
		t.Fatal(err)
	}

	v, err := raw.Take()
	if err != nil {
		t.Fatal(err)
	}
	// Free on the emptied union must not release the moved reference.
	raw.Free()
	if obj.refs != 2 {
		t.Fatalf("refs = %d, want 2", obj.refs)
	}

	Release(env, v)
	if obj.refs != 1 {
		t.Errorf("refs after Release = %d, want 1", obj.refs)
	}
	obj.Release()
	assertNoLeaks(t, env)
}

func TestRetainRelease(t *testing.T) {
	env := newEnv(t)
	obj := newObject(t, env)

	Retain(env, Unknown(obj.ptr))
	if obj.refs != 2 {
		t.Errorf("refs after Retain = %d, want 2", obj.refs)
	}
	Release(env, Unknown(obj.ptr))
	if obj.refs != 1 {
		t.Errorf("refs after Release = %d, want 1", obj.refs)
	}

	// Non-references and null references are ignored.
	Retain(env, Int4(1))
	Release(env, Dispatch(abi.Null))
	Release(env, Text("x"))

	obj.Release()
}

func TestTakePanicsOnUnknownDiscriminant(t *testing.T) {
	env := newEnv(t)

	raw, err := NewRaw(env)
	if err != nil {
		t.Fatal(err)
	}
	defer raw.Free()

	if err := env.Heap().WriteU16(uint32(raw.Ptr()), uint16(abi.VTRecord)); err != nil {
		t.Fatal(err)
	}

	v, err := raw.Value()
	if err == nil {
		t.Errorf("Value = %v, want error", v)
	}

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("Take did not panic")
		}
		if !strings.Contains(r.(string), "VT_RECORD") {
			t.Errorf("panic = %v", r)
		}
	}()
	_, _ = raw.Take()
}

func TestTakeKeepsContentsOnReadFailure(t *testing.T) {
	tests := []struct {
		name string
		vt   abi.VarType
	}{
		{"int", abi.VTI4},
		{"string", abi.VTBSTR},
		{"dispatch", abi.VTDispatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newEnv(t)

			// The discriminant fits in memory but the payload runs past the end.
			p := env.Heap().Size() - 10
			if err := env.Heap().WriteU16(p, uint16(tt.vt)); err != nil {
				t.Fatal(err)
			}
			raw := Attach(env, abi.Ptr(p))

			if v, err := raw.Take(); err == nil {
				t.Fatalf("Take = %v, want error", v)
			}
			vt, err := raw.VT()
			if err != nil {
				t.Fatal(err)
			}
			if vt != tt.vt {
				t.Errorf("VT after failed Take = %v, want %v", vt, tt.vt)
			}
		})
	}
}

func TestAttach(t *testing.T) {
	env := newEnv(t)

	p, err := env.Alloc(abi.VariantSize, abi.VariantAlign)
	if err != nil {
		t.Fatal(err)
	}

	raw := Attach(env, p)
	if err := raw.Write(Text("arg")); err != nil {
		t.Fatal(err)
	}
	if err := raw.Free(); err != nil {
		t.Fatal(err)
	}
	if !env.Heap().Allocated(uint32(p)) {
		t.Fatal("Free released memory it does not own")
	}
	if n := env.Heap().Live().Allocations; n != 1 {
		t.Errorf("live allocations = %d, want 1", n)
	}
	env.Free(p, abi.VariantSize, abi.VariantAlign)
}

func TestFrom(t *testing.T) {
	when := time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		in   any
		want Value
	}{
		{nil, Empty{}},
		{true, Bool(true)},
		{int8(-1), Int1(-1)},
		{uint8(1), UInt1(1)},
		{int16(-2), Int2(-2)},
		{uint16(2), UInt2(2)},
		{int32(-3), Int4(-3)},
		{uint32(3), UInt4(3)},
		{7, Int(7)},
		{uint(8), UInt(8)},
		{float32(1.5), Real4(1.5)},
		{2.5, Real8(2.5)},
		{"text", Text("text")},
		{when, DateFromTime(when)},
		{Int4(9), Int4(9)},
	}

	for _, tt := range tests {
		got, err := From(tt.in)
		if err != nil {
			t.Errorf("From(%#v) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("From(%#v) = %s, want %s", tt.in, String(got), String(tt.want))
		}
	}

	_, err := From(struct{}{})
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindUnsupported {
		t.Errorf("From(struct{}{}) = %v, want unsupported", err)
	}

	if _, err := From(int64(1)); err == nil {
		t.Error("From(int64) succeeded")
	}
}

func TestDate(t *testing.T) {
	tests := []struct {
		name string
		when time.Time
		want Date
	}{
		{"epoch", time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC), 0},
		{"noon next day", time.Date(1899, 12, 31, 12, 0, 0, 0, time.UTC), 1.5},
		{"before epoch", time.Date(1899, 12, 29, 6, 0, 0, 0, time.UTC), -1.25},
		{"modern", time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), 36526},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DateFromTime(tt.when)
			if math.Abs(float64(got-tt.want)) > 1e-9 {
				t.Errorf("DateFromTime = %v, want %v", got, tt.want)
			}
			if back := tt.want.Time(); !back.Equal(tt.when) {
				t.Errorf("Time = %v, want %v", back, tt.when)
			}
		})
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Empty{}, "Empty"},
		{Int4(0), "Int4(0)"},
		{Text("a"), `Text("a")`},
		{Bool(true), "Bool(true)"},
		{Dispatch(0x20), "Dispatch(0x20)"},
		{nil, "<nil>"},
	}
	for _, tt := range tests {
		if got := String(tt.v); got != tt.want {
			t.Errorf("String = %q, want %q", got, tt.want)
		}
	}
}
