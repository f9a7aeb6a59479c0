package dispatch

import (
	"strings"

	"github.com/wippyai/oleauto/hresult"
)

// resolveStep is the Description of failures raised by name resolution.
const resolveStep = "GetIDsOfNames"

// InvokeError is a failed name resolution or invocation.
type InvokeError struct {
	Source      string
	Description string
	// Status is the HRESULT Invoke (or GetIDsOfNames) returned.
	Status hresult.HRESULT
	// SCode is the exception's own code when Status is DISP_E_EXCEPTION.
	SCode hresult.HRESULT
	// ArgErr is the rgvarg index of the blamed argument. With n arguments
	// the caller-order position is n-1-ArgErr.
	ArgErr uint32
}

func (e *InvokeError) Error() string {
	var b strings.Builder
	b.WriteString("dispatch: ")
	b.WriteString(e.Status.Error())
	if e.Source != "" {
		b.WriteString(" from ")
		b.WriteString(e.Source)
	}
	if e.Description != "" {
		b.WriteString(": ")
		b.WriteString(e.Description)
	}
	return b.String()
}

// Unwrap returns Status so errors.As recovers the HRESULT.
func (e *InvokeError) Unwrap() error {
	return e.Status
}

// Resolution reports whether the failure came from name resolution.
func (e *InvokeError) Resolution() bool {
	return e.Description == resolveStep
}
