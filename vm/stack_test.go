package vm

import (
	"errors"
	"testing"

	"github.com/eth2030/zkcore/word"
)

func TestPushPop(t *testing.T) {
	s := NewStack()
	if err := s.Push(word.FromUint64(42)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	got, err := s.Pop()
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if got.Cmp(word.FromUint64(42)) != 0 {
		t.Fatalf("Pop = %s, want 42", got.Hex())
	}
}

func TestPopUnderflow(t *testing.T) {
	s := NewStack()
	if _, err := s.Pop(); !errors.Is(err, ErrStackUnderflow) {
		t.Fatalf("Pop on empty stack: got %v, want ErrStackUnderflow", err)
	}
}

func TestPushOverflow(t *testing.T) {
	s := NewStack()
	for i := 0; i < stackLimit; i++ {
		if err := s.Push(word.FromUint64(1)); err != nil {
			t.Fatalf("Push %d: %v", i, err)
		}
	}
	if err := s.Push(word.FromUint64(1)); !errors.Is(err, ErrStackOverflow) {
		t.Fatalf("Push past limit: got %v, want ErrStackOverflow", err)
	}
}

func TestPushDoesNotAliasCaller(t *testing.T) {
	s := NewStack()
	v := word.FromUint64(1)
	s.Push(v)
	v.SetUint64(99)
	got, _ := s.Peek()
	if got.Cmp(word.FromUint64(1)) != 0 {
		t.Fatalf("Push aliased caller's value: got %s, want 1", got.Hex())
	}
}

func TestSwap(t *testing.T) {
	s := NewStack()
	s.Push(word.FromUint64(1))
	s.Push(word.FromUint64(2))
	if err := s.Swap(1); err != nil {
		t.Fatalf("Swap(1): %v", err)
	}
	top, _ := s.Peek()
	if top.Cmp(word.FromUint64(1)) != 0 {
		t.Fatalf("after Swap(1), top = %s, want 1", top.Hex())
	}
}

func TestSwapOutOfRange(t *testing.T) {
	s := NewStack()
	if err := s.Swap(0); !errors.Is(err, ErrSwapOutOfRange) {
		t.Fatalf("Swap(0): got %v, want ErrSwapOutOfRange", err)
	}
	if err := s.Swap(17); !errors.Is(err, ErrSwapOutOfRange) {
		t.Fatalf("Swap(17): got %v, want ErrSwapOutOfRange", err)
	}
}

func TestDup(t *testing.T) {
	s := NewStack()
	s.Push(word.FromUint64(7))
	if err := s.Dup(1); err != nil {
		t.Fatalf("Dup(1): %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
	top, _ := s.Peek()
	if top.Cmp(word.FromUint64(7)) != 0 {
		t.Fatalf("top after Dup = %s, want 7", top.Hex())
	}
}

func TestDupUnderflow(t *testing.T) {
	s := NewStack()
	s.Push(word.FromUint64(1))
	if err := s.Dup(2); !errors.Is(err, ErrStackUnderflow) {
		t.Fatalf("Dup(2) with 1 item: got %v, want ErrStackUnderflow", err)
	}
}

func TestBack(t *testing.T) {
	s := NewStack()
	s.Push(word.FromUint64(1))
	s.Push(word.FromUint64(2))
	s.Push(word.FromUint64(3))
	got, err := s.Back(2)
	if err != nil {
		t.Fatalf("Back(2): %v", err)
	}
	if got.Cmp(word.FromUint64(1)) != 0 {
		t.Fatalf("Back(2) = %s, want 1", got.Hex())
	}
}
