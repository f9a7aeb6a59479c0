// Package heap provides the foreign address space the automation ABI lives in.
//
// A Heap is a wazero linear memory instantiated from a minimal module that
// exports a single memory, plus a sized first-fit allocator over it. String
// handles, VARIANT blocks, argument arrays and object identity blocks are
// all allocated here, so every pointer exchanged across the boundary is a
// real 32-bit address with real byte ranges.
//
// # Layout
//
//	0 ........ 16           reserved; address 0 is the null pointer
//	16 ....... Size()       allocator arena, grown in 64KB pages
//
// # Allocation
//
//	h, _ := heap.New(ctx, nil)
//	defer h.Close(ctx)
//
//	ptr, err := h.Alloc(32, 8)
//	...
//	h.Free(ptr, 32, 8)
//
// Blocks are zero-filled on allocation. Free validates the pointer against
// the allocation record: unknown pointers (including double frees) are
// logged and ignored rather than corrupting the free list.
//
// Live reports outstanding allocations and is the basis of every leak
// assertion in this module's tests.
//
// # Thread Safety
//
// Heap is safe for concurrent use. Growth takes an exclusive lock; reads
// and writes share a read lock.
package heap
