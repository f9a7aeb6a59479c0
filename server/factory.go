package server

import (
	"sync/atomic"

	"github.com/wippyai/oleauto/abi"
	"github.com/wippyai/oleauto/hresult"
)

// Constructor creates one instance holding a single count for the caller.
type Constructor func(env *abi.Env) (Instance, error)

// ClassFactory creates instances with a Constructor.
type ClassFactory struct {
	Object
	construct Constructor
	locks     *atomic.Int32
}

// NewClassFactory registers a class factory with one count held by the
// caller. LockServer calls are accumulated in locks, which may be shared
// between factories of the same server.
func NewClassFactory(env *abi.Env, construct Constructor, locks *atomic.Int32) (*ClassFactory, error) {
	if locks == nil {
		locks = new(atomic.Int32)
	}
	f := &ClassFactory{construct: construct, locks: locks}
	if _, err := f.Attach(env, f, abi.IID_IClassFactory); err != nil {
		return nil, err
	}
	return f, nil
}

// CreateInstance constructs an instance and queries it for iid.
// Aggregation is not supported.
func (f *ClassFactory) CreateInstance(outer abi.Ptr, iid abi.GUID, out abi.Ptr) hresult.HRESULT {
	if out == abi.Null {
		return hresult.E_POINTER
	}
	if err := f.env.WritePtr(out, abi.Null); err != nil {
		return hresult.E_POINTER
	}
	if outer != abi.Null {
		return hresult.CLASS_E_NOAGGREGATION
	}

	inst, err := f.construct(f.env)
	if err != nil {
		var hr hresult.HRESULT
		if hresultAs(err, &hr) {
			return hr
		}
		return hresult.E_OUTOFMEMORY
	}

	// The construction count is dropped; on a failed query that destroys
	// the instance.
	hr := inst.QueryInterface(iid, out)
	inst.Release()
	return hr
}

// LockServer adjusts the lock count. Unlocking below zero fails with
// E_UNEXPECTED.
func (f *ClassFactory) LockServer(lock bool) hresult.HRESULT {
	if lock {
		f.locks.Add(1)
	} else if f.locks.Add(-1) < 0 {
		f.locks.Store(0)
		return hresult.E_UNEXPECTED
	}
	return hresult.S_OK
}

// Locks returns the current server lock count.
func (f *ClassFactory) Locks() int32 {
	return f.locks.Load()
}
