// Package oleauto provides an ownership-safe Go layer over the OLE Automation
// object model: length-prefixed string handles (BSTR), reference-counted
// objects reached through IUnknown/IDispatch/IClassFactory, and the VARIANT
// tagged union used to exchange arguments and results.
//
// Every handle obtained from the foreign side carries an obligation to
// release it. The packages below make that obligation explicit at each API
// surface and transfer it exactly once.
//
// # Architecture Overview
//
//	oleauto/          Root package with Memory, Allocator and Config
//	├── heap/         Foreign address space: wazero linear memory + allocator
//	├── bstr/         String handle primitives and the owning String wrapper
//	├── abi/          Wire layouts, GUIDs, vtable interfaces, object table
//	├── variant/      Value sum type and the transient VARIANT bridge
//	├── com/          Generic reference-counted Object[C] and activation
//	├── dispatch/     IDispatch name resolution and invocation
//	├── server/       In-process automation objects implemented in Go
//	├── registry/     Class registration and activation by CLSID
//	├── hresult/      Foreign status codes
//	└── errors/       Structured error types
//
// # Quick Start
//
//	env, err := abi.NewEnv(ctx, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer env.Close(ctx)
//
//	reg := registry.New(env)
//	reg.Register(clsid, abi.ClsCtxInprocServer, newCounter)
//
//	unk, err := com.CreateInstance[com.IDispatch](env, reg, clsid, 0, abi.ClsCtxAll)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	obj := dispatch.New(unk)
//	defer obj.Release()
//
//	v, err := obj.Get("Count")
//	fmt.Println(variant.String(v)) // Int4(0)
//
// # Ownership
//
// Functions returning an object handle return a fresh reference count that
// the caller must Release. Clone adds a count; Detach hands the count back
// to the caller as a raw pointer. String handles follow the same rule with
// Free and Detach.
//
// # Thread Safety
//
// The heap and the object table are safe for concurrent use. Reference
// counts are atomic. A single Object handle is NOT safe for concurrent
// mutation; distinct handles to the same object may be cloned and released
// from different goroutines.
//
// The subsystem initialisation that a real automation runtime requires is a
// caller precondition and is never performed by these packages.
package oleauto
