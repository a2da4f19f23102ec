package vm

import "github.com/eth2030/zkcore/word"

// Memory is byte-addressable, word-aligned-expansion EVM memory. Resize
// rounds a requested size up to the next 32-byte boundary and never shrinks,
// matching the Yellow Paper's monotonic memory model.
type Memory struct {
	store       []byte
	lastGasCost uint64
	wordCount   uint64 // high-water mark, in 32-byte words
}

// NewMemory returns an empty Memory.
func NewMemory() *Memory { return &Memory{} }

// Set copies value into memory at [offset, offset+size). The caller must
// have already called Resize to cover the range.
func (m *Memory) Set(offset, size uint64, value []byte) {
	if size == 0 {
		return
	}
	if offset+size > uint64(len(m.store)) {
		panic("vm: memory write out of bounds")
	}
	copy(m.store[offset:offset+size], value)
}

// Set32 writes a 32-byte big-endian encoding of val at offset.
func (m *Memory) Set32(offset uint64, val *word.Word) {
	if offset+32 > uint64(len(m.store)) {
		panic("vm: memory write out of bounds")
	}
	b := val.Bytes32()
	copy(m.store[offset:offset+32], b[:])
}

// Resize grows memory so it is at least size bytes long, rounded up to a
// whole number of 32-byte words, and advances WordCount() accordingly. It
// never shrinks an already-larger buffer.
func (m *Memory) Resize(size uint64) {
	if uint64(len(m.store)) >= size {
		return
	}
	words := (size + 31) / 32
	newLen := words * 32
	m.store = append(m.store, make([]byte, newLen-uint64(len(m.store)))...)
	if words > m.wordCount {
		m.wordCount = words
	}
}

// Get returns a copy of memory at [offset, offset+size).
func (m *Memory) Get(offset, size int64) []byte {
	if size == 0 {
		return nil
	}
	out := make([]byte, size)
	copy(out, m.store[offset:offset+size])
	return out
}

// GetPtr returns a direct slice reference into memory at [offset,
// offset+size). Callers must not retain it past the next mutation.
func (m *Memory) GetPtr(offset, size int64) []byte {
	if size == 0 {
		return nil
	}
	return m.store[offset : offset+size]
}

// Len returns the current buffer length in bytes.
func (m *Memory) Len() int { return len(m.store) }

// WordCount returns the high-water number of 32-byte words memory has ever
// been resized to, i.e. the value MSIZE reports. It is tracked explicitly
// rather than derived from len(store)/32 on every call, and is monotonic
// non-decreasing for the lifetime of a Memory.
func (m *Memory) WordCount() uint64 { return m.wordCount }

// Data returns the full backing slice.
func (m *Memory) Data() []byte { return m.store }

// LastGasCost and SetLastGasCost store a memory expansion cost for callers
// that track one. gasMemExpansion in gas.go does not use them: it charges
// the difference from the memory's current WordCount.
func (m *Memory) LastGasCost() uint64     { return m.lastGasCost }
func (m *Memory) SetLastGasCost(g uint64) { m.lastGasCost = g }
