package abi

import (
	"sync"
)

// objectMagic tags identity blocks so stray pointers are rejected.
const objectMagic uint32 = 0x41454c4f // "OLEA"

// objectTable maps identity blocks back to their implementations.
// Slots are recycled through a free list.
type objectTable struct {
	entries  []objectEntry
	freeList []uint32
	mu       sync.RWMutex
	closed   bool
}

type objectEntry struct {
	obj   Unknown
	ptr   Ptr
	valid bool
}

func newObjectTable() *objectTable {
	return &objectTable{
		entries:  make([]objectEntry, 0, 64),
		freeList: make([]uint32, 0, 16),
	}
}

// insert stores obj under ptr and returns its 1-based slot.
func (t *objectTable) insert(obj Unknown, ptr Ptr) (uint32, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, false
	}

	e := objectEntry{obj: obj, ptr: ptr, valid: true}

	if len(t.freeList) > 0 {
		slot := t.freeList[len(t.freeList)-1]
		t.freeList = t.freeList[:len(t.freeList)-1]
		t.entries[slot-1] = e
		return slot, true
	}

	t.entries = append(t.entries, e)
	return uint32(len(t.entries)), true
}

// get returns the object in slot if it is registered under ptr.
func (t *objectTable) get(slot uint32, ptr Ptr) (Unknown, bool) {
	if slot == 0 {
		return nil, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if int(slot) > len(t.entries) {
		return nil, false
	}
	e := t.entries[slot-1]
	if !e.valid || e.ptr != ptr {
		return nil, false
	}
	return e.obj, true
}

// remove drops slot if it is registered under ptr.
func (t *objectTable) remove(slot uint32, ptr Ptr) bool {
	if slot == 0 {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if int(slot) > len(t.entries) {
		return false
	}
	e := &t.entries[slot-1]
	if !e.valid || e.ptr != ptr {
		return false
	}

	*e = objectEntry{}
	t.freeList = append(t.freeList, slot)
	return true
}

func (t *objectTable) len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries) - len(t.freeList)
}

// close stops accepting objects and returns the pointers still registered.
func (t *objectTable) close() []Ptr {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true

	var live []Ptr
	for _, e := range t.entries {
		if e.valid {
			live = append(live, e.ptr)
		}
	}
	t.entries = nil
	t.freeList = nil
	return live
}
