// Package registry activates in-process classes by CLSID. A Registry is the
// abi.Activator that com.CreateInstance and com.GetClassObject call into.
package registry

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/oleauto/abi"
	"github.com/wippyai/oleauto/errors"
	"github.com/wippyai/oleauto/hresult"
	"github.com/wippyai/oleauto/server"
)

var _ abi.Activator = (*Registry)(nil)

type class struct {
	construct server.Constructor
	ctx       abi.ClsCtx
}

// Registry maps CLSIDs to constructors. It is safe for concurrent use.
type Registry struct {
	env     *abi.Env
	classes map[abi.GUID]class
	locks   atomic.Int32
	mu      sync.RWMutex
}

// New returns an empty registry for env.
func New(env *abi.Env) *Registry {
	return &Registry{
		env:     env,
		classes: make(map[abi.GUID]class),
	}
}

// Register makes clsid activatable in the contexts of ctx.
func (r *Registry) Register(clsid abi.GUID, ctx abi.ClsCtx, construct server.Constructor) error {
	if construct == nil {
		return errors.InvalidInput(errors.PhaseRegister, "nil constructor")
	}
	if ctx == 0 {
		return errors.InvalidInput(errors.PhaseRegister, "empty class context")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.classes[clsid]; dup {
		return errors.New(errors.PhaseRegister, errors.KindInvalidInput).
			Detail("class %s already registered", clsid).
			Build()
	}
	r.classes[clsid] = class{construct: construct, ctx: ctx}
	return nil
}

// Unregister removes clsid. Live instances are unaffected.
func (r *Registry) Unregister(clsid abi.GUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.classes[clsid]; !ok {
		return false
	}
	delete(r.classes, clsid)
	return true
}

// Locks returns the LockServer count accumulated by this registry's
// class factories.
func (r *Registry) Locks() int32 {
	return r.locks.Load()
}

func (r *Registry) lookup(clsid abi.GUID, ctx abi.ClsCtx) (class, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.classes[clsid]
	if !ok || c.ctx&ctx == 0 {
		Logger().Debug("class not registered",
			zap.Stringer("clsid", clsid),
			zap.Uint32("ctx", uint32(ctx)),
			zap.Bool("known", ok))
		return class{}, false
	}
	return c, true
}

func (r *Registry) factory(clsid abi.GUID, ctx abi.ClsCtx) (*server.ClassFactory, hresult.HRESULT) {
	c, ok := r.lookup(clsid, ctx)
	if !ok {
		return nil, hresult.REGDB_E_CLASSNOTREG
	}
	f, err := server.NewClassFactory(r.env, c.construct, &r.locks)
	if err != nil {
		Logger().Warn("class factory creation failed", zap.Stringer("clsid", clsid), zap.Error(err))
		return nil, hresult.E_OUTOFMEMORY
	}
	return f, hresult.S_OK
}

func (r *Registry) CoGetClassObject(clsid abi.GUID, ctx abi.ClsCtx, iid abi.GUID, out abi.Ptr) hresult.HRESULT {
	if out == abi.Null {
		return hresult.E_POINTER
	}
	f, hr := r.factory(clsid, ctx)
	if hr.Failed() {
		return hr
	}
	hr = f.QueryInterface(iid, out)
	f.Release()
	return hr
}

func (r *Registry) CoCreateInstance(clsid abi.GUID, outer abi.Ptr, ctx abi.ClsCtx, iid abi.GUID, out abi.Ptr) hresult.HRESULT {
	if out == abi.Null {
		return hresult.E_POINTER
	}
	f, hr := r.factory(clsid, ctx)
	if hr.Failed() {
		return hr
	}
	hr = f.CreateInstance(outer, iid, out)
	f.Release()
	return hr
}
