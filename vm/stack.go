package vm

import (
	"errors"
	"fmt"

	"github.com/eth2030/zkcore/word"
)

// Stack errors.
var (
	ErrStackOverflow  = errors.New("vm: stack overflow (max 1024)")
	ErrStackUnderflow = errors.New("vm: stack underflow")
	ErrSwapOutOfRange = errors.New("vm: swap position out of range")
	ErrDupOutOfRange  = errors.New("vm: dup position out of range")
)

// stackLimit is the maximum operand stack depth.
const stackLimit = 1024

const maxSwap = 16
const maxDup = 16

// Stack is the 1024-deep operand stack of 256-bit words. Every method that
// can fail returns an error rather than panicking, so the dispatch loop can
// turn a violation into a StackOverflow/StackUnderflow trap.
type Stack struct {
	data [stackLimit]*word.Word
	top  int
}

// NewStack returns an empty Stack.
func NewStack() *Stack { return &Stack{} }

// Len returns the number of items currently on the stack.
func (s *Stack) Len() int { return s.top }

// Push pushes val, copying it so the caller's value can be mutated freely
// afterward.
func (s *Stack) Push(val *word.Word) error {
	if s.top >= stackLimit {
		return ErrStackOverflow
	}
	s.data[s.top] = new(word.Word).Set(val)
	s.top++
	return nil
}

// Pop removes and returns the top element.
func (s *Stack) Pop() (*word.Word, error) {
	if s.top == 0 {
		return nil, ErrStackUnderflow
	}
	s.top--
	val := s.data[s.top]
	s.data[s.top] = nil
	return val, nil
}

// Peek returns the top element without removing it.
func (s *Stack) Peek() (*word.Word, error) {
	if s.top == 0 {
		return nil, ErrStackUnderflow
	}
	return s.data[s.top-1], nil
}

// Back returns the nth element from the top (0-indexed: 0 is the top).
func (s *Stack) Back(n int) (*word.Word, error) {
	if s.top <= n {
		return nil, ErrStackUnderflow
	}
	return s.data[s.top-1-n], nil
}

// Swap exchanges the top element with the nth element below it. n must be
// in [1, 16] (SWAP1..SWAP16).
func (s *Stack) Swap(n int) error {
	if n < 1 || n > maxSwap {
		return fmt.Errorf("%w: SWAP%d", ErrSwapOutOfRange, n)
	}
	if s.top < n+1 {
		return fmt.Errorf("%w: need %d elements for SWAP%d, have %d",
			ErrStackUnderflow, n+1, n, s.top)
	}
	topIdx := s.top - 1
	nthIdx := s.top - 1 - n
	s.data[topIdx], s.data[nthIdx] = s.data[nthIdx], s.data[topIdx]
	return nil
}

// Dup duplicates the nth element from the top (1-indexed: 1 is the top)
// and pushes the copy. n must be in [1, 16] (DUP1..DUP16).
func (s *Stack) Dup(n int) error {
	if n < 1 || n > maxDup {
		return fmt.Errorf("%w: DUP%d", ErrDupOutOfRange, n)
	}
	if s.top < n {
		return fmt.Errorf("%w: need %d elements for DUP%d, have %d",
			ErrStackUnderflow, n, n, s.top)
	}
	if s.top >= stackLimit {
		return ErrStackOverflow
	}
	val := new(word.Word).Set(s.data[s.top-n])
	s.data[s.top] = val
	s.top++
	return nil
}

// Data returns the stack contents bottom-to-top, for tracing/debugging.
func (s *Stack) Data() []*word.Word {
	out := make([]*word.Word, s.top)
	copy(out, s.data[:s.top])
	return out
}
