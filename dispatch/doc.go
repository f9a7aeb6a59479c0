// Package dispatch is the late-bound client side of IDispatch: name
// resolution and invocation over a com.Object[com.IDispatch].
//
//	obj := dispatch.New(handle)       // takes over handle's count
//	defer obj.Release()
//
//	v, err := obj.Get("Count")
//	_, err = obj.Call("Add", variant.Int4(5))
//	err = obj.Put("Name", variant.Text("x"))
//
// Arguments are staged as VARIANTs in right-to-left order, the order the
// ABI's rgvarg uses. Reference arguments are borrowed: Invoke adds a count
// for the staged copy and releases it when the staged VARIANTs are cleared
// after the call. The returned Value is owned by the caller; release any
// reference it carries with variant.Release.
//
// A failed Invoke returns *InvokeError, carrying the status, the decoded
// exception text and the rgvarg index of the blamed argument. Every string
// handle in the EXCEPINFO block is freed before Invoke returns.
package dispatch
