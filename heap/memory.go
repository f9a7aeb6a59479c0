package heap

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/oleauto/errors"
)

// linearMemory adapts wazero api.Memory to oleauto.Memory.
// Reads return copies: wazero hands out views that growth invalidates.
type linearMemory struct {
	mem api.Memory
}

func (m *linearMemory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseHeap, offset, length)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *linearMemory) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return errors.OutOfBounds(errors.PhaseHeap, offset, uint32(len(data)))
	}
	return nil
}

func (m *linearMemory) ReadU8(offset uint32) (uint8, error) {
	v, ok := m.mem.ReadByte(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseHeap, offset, 1)
	}
	return v, nil
}

func (m *linearMemory) ReadU16(offset uint32) (uint16, error) {
	v, ok := m.mem.ReadUint16Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseHeap, offset, 2)
	}
	return v, nil
}

func (m *linearMemory) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseHeap, offset, 4)
	}
	return v, nil
}

func (m *linearMemory) ReadU64(offset uint32) (uint64, error) {
	v, ok := m.mem.ReadUint64Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseHeap, offset, 8)
	}
	return v, nil
}

func (m *linearMemory) WriteU8(offset uint32, value uint8) error {
	if !m.mem.WriteByte(offset, value) {
		return errors.OutOfBounds(errors.PhaseHeap, offset, 1)
	}
	return nil
}

func (m *linearMemory) WriteU16(offset uint32, value uint16) error {
	if !m.mem.WriteUint16Le(offset, value) {
		return errors.OutOfBounds(errors.PhaseHeap, offset, 2)
	}
	return nil
}

func (m *linearMemory) WriteU32(offset uint32, value uint32) error {
	if !m.mem.WriteUint32Le(offset, value) {
		return errors.OutOfBounds(errors.PhaseHeap, offset, 4)
	}
	return nil
}

func (m *linearMemory) WriteU64(offset uint32, value uint64) error {
	if !m.mem.WriteUint64Le(offset, value) {
		return errors.OutOfBounds(errors.PhaseHeap, offset, 8)
	}
	return nil
}
