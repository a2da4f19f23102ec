package vm

import (
	"bytes"
	"testing"

	"github.com/eth2030/zkcore/word"
)

func TestResizeRoundsUpToWord(t *testing.T) {
	m := NewMemory()
	m.Resize(1)
	if m.Len() != 32 {
		t.Fatalf("Len() = %d, want 32", m.Len())
	}
	if m.WordCount() != 1 {
		t.Fatalf("WordCount() = %d, want 1", m.WordCount())
	}
}

func TestResizeNeverShrinks(t *testing.T) {
	m := NewMemory()
	m.Resize(64)
	m.Resize(32)
	if m.Len() != 64 {
		t.Fatalf("Len() = %d, want 64 (should not shrink)", m.Len())
	}
	if m.WordCount() != 2 {
		t.Fatalf("WordCount() = %d, want 2", m.WordCount())
	}
}

func TestWordCountMonotonic(t *testing.T) {
	m := NewMemory()
	sizes := []uint64{32, 96, 64, 160}
	var maxWords uint64
	for _, s := range sizes {
		m.Resize(s)
		words := (s + 31) / 32
		if words > maxWords {
			maxWords = words
		}
		if m.WordCount() < maxWords {
			t.Fatalf("WordCount() = %d decreased below %d after Resize(%d)", m.WordCount(), maxWords, s)
		}
	}
}

func TestSetAndGet(t *testing.T) {
	m := NewMemory()
	m.Resize(32)
	m.Set(0, 4, []byte{1, 2, 3, 4})
	got := m.Get(0, 4)
	if !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Fatalf("Get = %v, want [1 2 3 4]", got)
	}
}

func TestSet32(t *testing.T) {
	m := NewMemory()
	m.Resize(32)
	m.Set32(0, word.FromUint64(0x0102))
	got := m.Get(0, 32)
	want := make([]byte, 32)
	want[30] = 0x01
	want[31] = 0x02
	if !bytes.Equal(got, want) {
		t.Fatalf("Set32 result = %x, want %x", got, want)
	}
}

func TestGetPtrAliasesStore(t *testing.T) {
	m := NewMemory()
	m.Resize(32)
	m.Set(0, 1, []byte{0xff})
	ptr := m.GetPtr(0, 1)
	ptr[0] = 0x01
	got := m.Get(0, 1)
	if got[0] != 0x01 {
		t.Fatalf("GetPtr did not alias underlying store")
	}
}
