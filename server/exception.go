package server

import (
	stderrors "errors"
	"fmt"

	"github.com/wippyai/oleauto/hresult"
)

// Exception is a structured failure reported through EXCEPINFO.
type Exception struct {
	Source      string
	Description string
	HelpFile    string
	HelpContext uint32
	Code        uint16
	SCode       hresult.HRESULT
}

func (e *Exception) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s: %s", e.Source, e.Description)
	}
	return e.Description
}

// ArgError blames one argument, counted in caller order from zero.
type ArgError struct {
	Position int
	Status   hresult.HRESULT
}

func (e *ArgError) Error() string {
	return fmt.Sprintf("argument %d: %v", e.Position, e.Status)
}

// TypeMismatch is the usual ArgError.
func TypeMismatch(position int) *ArgError {
	return &ArgError{Position: position, Status: hresult.DISP_E_TYPEMISMATCH}
}

func hresultAs(err error, hr *hresult.HRESULT) bool {
	return stderrors.As(err, hr)
}
