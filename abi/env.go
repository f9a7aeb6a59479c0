package abi

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/oleauto"
	"github.com/wippyai/oleauto/bstr"
	"github.com/wippyai/oleauto/errors"
	"github.com/wippyai/oleauto/heap"
	"github.com/wippyai/oleauto/hresult"
)

// Env is one foreign environment: a heap, its string primitives and the
// objects living in it. Env is safe for concurrent use.
type Env struct {
	heap    *heap.Heap
	strings *bstr.Sys
	objects *objectTable
	locale  LCID
	closed  atomic.Bool
}

// NewEnv creates an environment. A nil config uses oleauto.DefaultConfig.
func NewEnv(ctx context.Context, cfg *oleauto.Config) (*Env, error) {
	c := oleauto.DefaultConfig()
	if cfg != nil {
		c = *cfg
	}

	h, err := heap.New(ctx, &c)
	if err != nil {
		return nil, err
	}

	locale := LCID(c.Locale)
	if locale == LocaleNeutral {
		locale = LocaleUserDefault
	}

	return &Env{
		heap:    h,
		strings: bstr.New(h),
		objects: newObjectTable(),
		locale:  locale,
	}, nil
}

// Heap returns the foreign memory of the environment.
func (e *Env) Heap() *heap.Heap { return e.heap }

// Strings returns the string primitives bound to the environment's heap.
func (e *Env) Strings() *bstr.Sys { return e.strings }

// Locale returns the LCID used by calls that do not take one.
func (e *Env) Locale() LCID { return e.locale }

// Alloc allocates a zero-filled block of foreign memory.
func (e *Env) Alloc(size, align uint32) (Ptr, error) {
	p, err := e.heap.Alloc(size, align)
	return Ptr(p), err
}

// Free releases a block obtained from Alloc.
func (e *Env) Free(p Ptr, size, align uint32) {
	e.heap.Free(uint32(p), size, align)
}

// ReadPtr reads a pointer stored at p.
func (e *Env) ReadPtr(p Ptr) (Ptr, error) {
	v, err := e.heap.ReadU32(uint32(p))
	return Ptr(v), err
}

// WritePtr stores v at p.
func (e *Env) WritePtr(p Ptr, v Ptr) error {
	return e.heap.WriteU32(uint32(p), uint32(v))
}

// Register gives obj an identity block and returns its pointer.
// The object stays registered until Unregister.
func (e *Env) Register(obj Unknown) (Ptr, error) {
	if e.closed.Load() {
		return Null, errors.Closed(errors.PhaseRegister, "environment")
	}

	block, err := e.heap.Alloc(objectBlockSize, 8)
	if err != nil {
		return Null, errors.Wrap(errors.PhaseRegister, errors.KindAllocation, err, "allocate object block")
	}
	ptr := Ptr(block)

	slot, ok := e.objects.insert(obj, ptr)
	if !ok {
		e.heap.Free(block, objectBlockSize, 8)
		return Null, errors.Closed(errors.PhaseRegister, "environment")
	}

	if err := e.heap.WriteU32(block, slot); err != nil {
		e.objects.remove(slot, ptr)
		e.heap.Free(block, objectBlockSize, 8)
		return Null, err
	}
	if err := e.heap.WriteU32(block+4, objectMagic); err != nil {
		e.objects.remove(slot, ptr)
		e.heap.Free(block, objectBlockSize, 8)
		return Null, err
	}

	Logger().Debug("object registered", zap.Uint32("ptr", block), zap.Uint32("slot", slot))
	return ptr, nil
}

// Object resolves p to its implementation.
func (e *Env) Object(p Ptr) (Unknown, bool) {
	slot, ok := e.slot(p)
	if !ok {
		return nil, false
	}
	return e.objects.get(slot, p)
}

// Unregister removes the object at p and frees its identity block.
// It reports whether p was registered.
func (e *Env) Unregister(p Ptr) bool {
	slot, ok := e.slot(p)
	if !ok {
		return false
	}
	if !e.objects.remove(slot, p) {
		return false
	}

	// Poison the block so stale pointers no longer resolve.
	_ = e.heap.WriteU64(uint32(p), 0)
	e.heap.Free(uint32(p), objectBlockSize, 8)

	Logger().Debug("object unregistered", zap.Uint32("ptr", uint32(p)))
	return true
}

// Objects returns the number of registered objects.
func (e *Env) Objects() int {
	return e.objects.len()
}

func (e *Env) slot(p Ptr) (uint32, bool) {
	if p == Null {
		return 0, false
	}
	magic, err := e.heap.ReadU32(uint32(p) + 4)
	if err != nil || magic != objectMagic {
		return 0, false
	}
	slot, err := e.heap.ReadU32(uint32(p))
	if err != nil {
		return 0, false
	}
	return slot, true
}

// AddRef increments the count of the object at p.
// Unknown pointers are logged and report 0.
func (e *Env) AddRef(p Ptr) uint32 {
	obj, ok := e.Object(p)
	if !ok {
		Logger().Warn("AddRef on unknown object", zap.Uint32("ptr", uint32(p)))
		return 0
	}
	return obj.AddRef()
}

// Release decrements the count of the object at p.
// Unknown pointers are logged and report 0.
func (e *Env) Release(p Ptr) uint32 {
	obj, ok := e.Object(p)
	if !ok {
		Logger().Warn("Release on unknown object", zap.Uint32("ptr", uint32(p)))
		return 0
	}
	return obj.Release()
}

// QueryInterface forwards to the object at p.
func (e *Env) QueryInterface(p Ptr, iid GUID, out Ptr) hresult.HRESULT {
	obj, ok := e.Object(p)
	if !ok {
		return hresult.E_POINTER
	}
	return obj.QueryInterface(iid, out)
}

// Close releases the heap. Objects still registered are logged as leaks
// and become unreachable.
func (e *Env) Close(ctx context.Context) error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}

	for _, p := range e.objects.close() {
		Logger().Warn("object still registered at close", zap.Uint32("ptr", uint32(p)))
	}
	return e.heap.Close(ctx)
}
