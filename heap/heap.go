package heap

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/oleauto"
	"github.com/wippyai/oleauto/errors"
)

const (
	// PageSize is the linear memory page size.
	PageSize = 65536

	// Base is the lowest address the allocator hands out.
	Base = 16

	// maxPages keeps Size() representable as uint32.
	maxPages = 65535
)

var _ oleauto.Heap = (*Heap)(nil)

// Stats describes outstanding allocations.
type Stats struct {
	Allocations int
	Bytes       uint64
}

// Heap is a foreign memory with a first-fit allocator.
type Heap struct {
	runtime wazero.Runtime
	module  api.Module
	mem     *linearMemory

	live     map[uint32]uint32
	free     []span
	bytes    uint64
	maxPages uint64
	mu       sync.RWMutex
	closed   bool
}

type span struct {
	addr uint64
	size uint64
}

func (s span) end() uint64 { return s.addr + s.size }

// New instantiates a heap. A nil config uses oleauto.DefaultConfig.
func New(ctx context.Context, cfg *oleauto.Config) (*Heap, error) {
	c := oleauto.DefaultConfig()
	if cfg != nil {
		c = *cfg
	}
	if c.InitialPages == 0 {
		c.InitialPages = 1
	}
	if c.MaxPages > maxPages {
		c.MaxPages = maxPages
	}
	if c.InitialPages > maxPages {
		c.InitialPages = maxPages
	}
	if c.MaxPages < c.InitialPages {
		c.MaxPages = c.InitialPages
	}

	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithMemoryLimitPages(c.MaxPages))

	compiled, err := rt.CompileModule(ctx, memoryModule(c.InitialPages, c.MaxPages))
	if err != nil {
		_ = rt.Close(ctx)
		return nil, errors.Wrap(errors.PhaseHeap, errors.KindAllocation, err, "compile heap module")
	}
	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName("heap"))
	if err != nil {
		_ = rt.Close(ctx)
		return nil, errors.Wrap(errors.PhaseHeap, errors.KindAllocation, err, "instantiate heap module")
	}
	mem := mod.Memory()
	if mem == nil {
		_ = rt.Close(ctx)
		return nil, errors.Unsupported(errors.PhaseHeap, "heap module has no memory")
	}

	return &Heap{
		runtime:  rt,
		module:   mod,
		mem:      &linearMemory{mem: mem},
		live:     make(map[uint32]uint32),
		free:     []span{{addr: Base, size: uint64(mem.Size()) - Base}},
		maxPages: uint64(c.MaxPages),
	}, nil
}

// memoryModule encodes (module (memory (export "memory") min max)).
func memoryModule(minPages, maxPages uint32) []byte {
	out := []byte{
		0x00, 0x61, 0x73, 0x6d, // magic
		0x01, 0x00, 0x00, 0x00, // version
	}

	// Memory section: one memory with max
	mem := []byte{0x01, 0x01}
	mem = appendULEB(mem, minPages)
	mem = appendULEB(mem, maxPages)
	out = append(out, 0x05)
	out = appendULEB(out, uint32(len(mem)))
	out = append(out, mem...)

	// Export section: "memory" -> memory 0
	exp := []byte{0x01, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00}
	out = append(out, 0x07)
	out = appendULEB(out, uint32(len(exp)))
	out = append(out, exp...)

	return out
}

func appendULEB(b []byte, v uint32) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b = append(b, c|0x80)
			continue
		}
		return append(b, c)
	}
}

// Alloc allocates a zero-filled block. A zero size is treated as one byte.
func (h *Heap) Alloc(size, align uint32) (uint32, error) {
	if align == 0 {
		align = 1
	}
	if align&(align-1) != 0 {
		return 0, errors.InvalidInput(errors.PhaseHeap, fmt.Sprintf("alignment %d is not a power of two", align))
	}
	if size == 0 {
		size = 1
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return 0, errors.Closed(errors.PhaseHeap, "heap")
	}

	for {
		if ptr, ok := h.take(uint64(size), uint64(align)); ok {
			if err := h.mem.Write(ptr, make([]byte, size)); err != nil {
				h.release(span{addr: uint64(ptr), size: uint64(size)})
				return 0, err
			}
			h.live[ptr] = size
			h.bytes += uint64(size)
			return ptr, nil
		}
		if !h.grow(uint64(size), uint64(align)) {
			return 0, errors.AllocationFailed(errors.PhaseHeap, size, align)
		}
	}
}

// Free returns a block to the allocator. Null is a no-op.
func (h *Heap) Free(ptr, size, align uint32) {
	if ptr == 0 {
		return
	}
	if size == 0 {
		size = 1
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	recorded, ok := h.live[ptr]
	if !ok {
		Logger().Warn("free of unallocated pointer",
			zap.Uint32("ptr", ptr),
			zap.Uint32("size", size))
		return
	}
	if recorded != size {
		Logger().Warn("free size mismatch",
			zap.Uint32("ptr", ptr),
			zap.Uint32("size", size),
			zap.Uint32("allocated", recorded))
	}

	delete(h.live, ptr)
	h.bytes -= uint64(recorded)
	h.release(span{addr: uint64(ptr), size: uint64(recorded)})
}

// take carves an aligned block out of the first span that fits.
func (h *Heap) take(size, align uint64) (uint32, bool) {
	for i, s := range h.free {
		start := (s.addr + align - 1) &^ (align - 1)
		if start+size > s.end() {
			continue
		}

		var rest []span
		if start > s.addr {
			rest = append(rest, span{addr: s.addr, size: start - s.addr})
		}
		if tail := s.end() - (start + size); tail > 0 {
			rest = append(rest, span{addr: start + size, size: tail})
		}

		h.free = append(h.free[:i], append(rest, h.free[i+1:]...)...)
		return uint32(start), true
	}
	return 0, false
}

// release inserts a span into the sorted free list, merging neighbours.
func (h *Heap) release(s span) {
	i := sort.Search(len(h.free), func(i int) bool { return h.free[i].addr > s.addr })

	h.free = append(h.free, span{})
	copy(h.free[i+1:], h.free[i:])
	h.free[i] = s

	if i+1 < len(h.free) && h.free[i].end() == h.free[i+1].addr {
		h.free[i].size += h.free[i+1].size
		h.free = append(h.free[:i+1], h.free[i+2:]...)
	}
	if i > 0 && h.free[i-1].end() == h.free[i].addr {
		h.free[i-1].size += h.free[i].size
		h.free = append(h.free[:i], h.free[i+1:]...)
	}
}

// grow adds enough pages to fit size at align. Reports false at the page limit.
func (h *Heap) grow(size, align uint64) bool {
	end := uint64(h.mem.mem.Size())
	need := size + align
	if n := len(h.free); n > 0 && h.free[n-1].end() == end && h.free[n-1].size < need {
		need -= h.free[n-1].size
	}

	pages := (need + PageSize - 1) / PageSize
	if end/PageSize+pages > h.maxPages {
		return false
	}

	prev, ok := h.mem.mem.Grow(uint32(pages))
	if !ok {
		return false
	}
	Logger().Debug("heap grown",
		zap.Uint32("from_pages", prev),
		zap.Uint64("added_pages", pages))

	h.release(span{addr: end, size: pages * PageSize})
	return true
}

// Live reports outstanding allocations.
func (h *Heap) Live() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Stats{Allocations: len(h.live), Bytes: h.bytes}
}

// Allocated reports whether ptr is the start of a live block.
func (h *Heap) Allocated(ptr uint32) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.live[ptr]
	return ok
}

// Size returns the current memory size in bytes.
func (h *Heap) Size() uint32 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.mem.mem.Size()
}

// Close releases the wazero runtime backing the heap.
func (h *Heap) Close(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	h.live = nil
	h.free = nil

	return multierr.Combine(h.module.Close(ctx), h.runtime.Close(ctx))
}

// Read copies length bytes starting at offset. Every accessor fails once
// the heap is closed.
func (h *Heap) Read(offset uint32, length uint32) ([]byte, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return nil, errors.Closed(errors.PhaseHeap, "heap")
	}
	return h.mem.Read(offset, length)
}

// Write copies data to memory at offset.
func (h *Heap) Write(offset uint32, data []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return errors.Closed(errors.PhaseHeap, "heap")
	}
	return h.mem.Write(offset, data)
}

// ReadU8 reads an unsigned 8-bit value.
func (h *Heap) ReadU8(offset uint32) (uint8, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return 0, errors.Closed(errors.PhaseHeap, "heap")
	}
	return h.mem.ReadU8(offset)
}

// ReadU16 reads an unsigned 16-bit little-endian value.
func (h *Heap) ReadU16(offset uint32) (uint16, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return 0, errors.Closed(errors.PhaseHeap, "heap")
	}
	return h.mem.ReadU16(offset)
}

// ReadU32 reads an unsigned 32-bit little-endian value.
func (h *Heap) ReadU32(offset uint32) (uint32, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return 0, errors.Closed(errors.PhaseHeap, "heap")
	}
	return h.mem.ReadU32(offset)
}

// ReadU64 reads an unsigned 64-bit little-endian value.
func (h *Heap) ReadU64(offset uint32) (uint64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return 0, errors.Closed(errors.PhaseHeap, "heap")
	}
	return h.mem.ReadU64(offset)
}

// WriteU8 writes an unsigned 8-bit value.
func (h *Heap) WriteU8(offset uint32, value uint8) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return errors.Closed(errors.PhaseHeap, "heap")
	}
	return h.mem.WriteU8(offset, value)
}

// WriteU16 writes an unsigned 16-bit little-endian value.
func (h *Heap) WriteU16(offset uint32, value uint16) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return errors.Closed(errors.PhaseHeap, "heap")
	}
	return h.mem.WriteU16(offset, value)
}

// WriteU32 writes an unsigned 32-bit little-endian value.
func (h *Heap) WriteU32(offset uint32, value uint32) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return errors.Closed(errors.PhaseHeap, "heap")
	}
	return h.mem.WriteU32(offset, value)
}

// WriteU64 writes an unsigned 64-bit little-endian value.
func (h *Heap) WriteU64(offset uint32, value uint64) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return errors.Closed(errors.PhaseHeap, "heap")
	}
	return h.mem.WriteU64(offset, value)
}
