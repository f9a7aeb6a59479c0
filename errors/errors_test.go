package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:   PhaseConvert,
				Kind:    KindInvalidInput,
				Path:    []string{"args", "2"},
				GoType:  "chan int",
				ABIType: "VARIANT",
				Detail:  "cannot convert",
			},
			contains: []string{"[convert]", "invalid_input", "args.2", "chan int", "VARIANT", "cannot convert"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseAlloc,
				Kind:  KindNullTerminatorRequired,
			},
			contains: []string{"[alloc]", "null_terminator_required"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseHeap,
				Kind:   KindAllocation,
				Detail: "memory full",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[heap]", "allocation", "memory full", "caused by", "underlying error"},
		},
		{
			name: "abi type only",
			err: &Error{
				Phase:   PhaseConvert,
				Kind:    KindUnsupported,
				ABIType: "VT_RECORD",
				Detail:  "records are not bridged",
			},
			contains: []string{"ABI type VT_RECORD - records are not bridged"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseHeap,
		Kind:  KindOutOfBounds,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}

	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseRealloc,
		Kind:  KindInvalidPointer,
	}

	if !err.Is(&Error{Phase: PhaseRealloc, Kind: KindInvalidPointer}) {
		t.Error("Is should match same phase and kind")
	}

	if err.Is(&Error{Phase: PhaseAlloc, Kind: KindInvalidPointer}) {
		t.Error("Is should not match different phase")
	}

	if err.Is(&Error{Phase: PhaseRealloc, Kind: KindAllocation}) {
		t.Error("Is should not match different kind")
	}

	if !errors.Is(err, ErrInvalidPointer) {
		t.Error("errors.Is should match the phase-less sentinel")
	}
	if errors.Is(err, ErrAllocation) {
		t.Error("errors.Is should not match a sentinel of another kind")
	}
}

func TestSentinels_Distinct(t *testing.T) {
	sentinels := []*Error{
		ErrAllocation,
		ErrInvalidPointer,
		ErrNullTerminatorRequired,
		ErrSourceTooLong,
		ErrNilPointer,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if (i == j) != errors.Is(a, b) {
				t.Errorf("errors.Is(%s, %s) = %v", a.Kind, b.Kind, i != j)
			}
		}
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseConvert, KindInvalidInput).
		Path("args", "0").
		GoType("complex128").
		ABIType("VARIANT").
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "number", "complex").
		Build()

	if err.Phase != PhaseConvert {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseConvert)
	}
	if err.Kind != KindInvalidInput {
		t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidInput)
	}
	if len(err.Path) != 2 || err.Path[0] != "args" || err.Path[1] != "0" {
		t.Errorf("Path = %v, want [args 0]", err.Path)
	}
	if err.GoType != "complex128" {
		t.Errorf("GoType = %v, want 'complex128'", err.GoType)
	}
	if err.ABIType != "VARIANT" {
		t.Errorf("ABIType = %v, want 'VARIANT'", err.ABIType)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected number, got complex" {
		t.Errorf("Detail = %v, want 'expected number, got complex'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("AllocationFailed", func(t *testing.T) {
		err := AllocationFailed(PhaseHeap, 1024, 8)
		if err.Kind != KindAllocation {
			t.Errorf("Kind = %v, want %v", err.Kind, KindAllocation)
		}
		if !strings.Contains(err.Detail, "1024") {
			t.Errorf("Detail = %v, should contain size", err.Detail)
		}
	})

	t.Run("InvalidPointer", func(t *testing.T) {
		err := InvalidPointer(PhaseRealloc, 0, "null handle")
		if !errors.Is(err, ErrInvalidPointer) {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidPointer)
		}
		if err.Value != uint32(0) {
			t.Errorf("Value = %v, want 0", err.Value)
		}
	})

	t.Run("NullTerminatorRequired", func(t *testing.T) {
		err := NullTerminatorRequired(PhaseAlloc, 7)
		if !errors.Is(err, ErrNullTerminatorRequired) {
			t.Errorf("Kind = %v", err.Kind)
		}
		if !strings.Contains(err.Detail, "7") {
			t.Errorf("Detail = %v, should contain length", err.Detail)
		}
	})

	t.Run("SourceTooLong", func(t *testing.T) {
		err := SourceTooLong(PhaseAlloc, 1<<33)
		if !errors.Is(err, ErrSourceTooLong) {
			t.Errorf("Kind = %v", err.Kind)
		}
	})

	t.Run("NilPointer", func(t *testing.T) {
		err := NilPointer(PhaseWrap, nil, "Object[IDispatch]")
		if !errors.Is(err, ErrNilPointer) {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNilPointer)
		}
		if !strings.Contains(err.Error(), "uninitialized handle") {
			t.Errorf("Error() = %q", err.Error())
		}
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		err := OutOfBounds(PhaseHeap, 65535, 100)
		if err.Kind != KindOutOfBounds {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOutOfBounds)
		}
		if err.Value != uint32(65535) {
			t.Errorf("Value = %v, want 65535", err.Value)
		}
	})

	t.Run("Closed", func(t *testing.T) {
		err := Closed(PhaseHeap, "heap")
		if err.Kind != KindClosed || err.Detail != "heap closed" {
			t.Errorf("got %v / %q", err.Kind, err.Detail)
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		cause := errors.New("boom")
		err := Wrap(PhaseHeap, KindAllocation, cause, "instantiate memory")
		if !errors.Is(err, cause) {
			t.Error("Wrap should keep the cause chain")
		}
	})
}
