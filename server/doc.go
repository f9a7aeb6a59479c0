// Package server implements automation objects in Go and exposes them
// through the abi vtable interfaces, so they can be reached exactly like
// foreign objects: by pointer, through QueryInterface, GetIDsOfNames and
// Invoke.
//
// Object supplies the IUnknown part. Embed it and call Attach once:
//
//	type counter struct {
//	    server.Object
//	}
//
//	c := &counter{}
//	ptr, err := c.Attach(env, c, abi.IID_IDispatch)
//
// Dispatcher is a ready-made IDispatch over a member table. Names resolve
// case-insensitively. Handlers receive arguments in caller order; reference
// arguments are borrowed for the duration of the call and must be retained
// with variant.Retain to be kept. A returned reference must carry a count,
// which is handed to the caller.
//
// Handler errors map onto the ABI:
//
//	*Exception       DISP_E_EXCEPTION with EXCEPINFO filled
//	*ArgError        its Status, with puArgErr set
//	hresult.HRESULT  returned as is
//	anything else    DISP_E_EXCEPTION with the error text as description
package server
