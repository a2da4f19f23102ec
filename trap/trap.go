// Package trap defines the signaling values an opcode handler returns when
// a frame cannot continue: either a frame-fatal trap or a controlled
// termination (STOP/RETURN/REVERT/SELFDESTRUCT). These are not error
// messages — callers switch on Code, and DescribeLocation augments one with
// the program counter and opcode for logs.
package trap

import "fmt"

// Code identifies why a frame halted.
type Code int

const (
	// None indicates the frame has not halted.
	None Code = iota

	// Stop is the non-erroneous STOP opcode.
	Stop
	// Return is a successful RETURN.
	Return
	// Revert is a failure that preserves return data and refunds unused gas.
	Revert
	// SelfDestruct is a successful SELFDESTRUCT.
	SelfDestruct

	// OutOfGas: an opcode required gas beyond the remaining allowance.
	OutOfGas
	// InvalidOpcode: the fetched opcode has no handler.
	InvalidOpcode
	// InvalidJump: JUMP/JUMPI target is out of range or not a JUMPDEST.
	InvalidJump
	// InvalidJumpsub: JUMPSUB target is out of range or not a BEGINSUB.
	InvalidJumpsub
	// InvalidBeginsub: BEGINSUB reached by fall-through execution.
	InvalidBeginsub
	// InvalidReturnsub: RETURNSUB executed with an empty return substack.
	InvalidReturnsub
	// StaticStateChange: a state-modifying opcode executed in a static frame.
	StaticStateChange
	// OutOfRange: an operand (e.g. DUP/SWAP position, memory offset) is
	// outside the bounds the opcode allows.
	OutOfRange
	// StackOverflow: a push would exceed the 1024-item stack limit.
	StackOverflow
	// StackUnderflow: an opcode needs more items than the stack holds.
	StackUnderflow
)

var names = map[Code]string{
	None:               "NONE",
	Stop:               "STOP",
	Return:              "RETURN",
	Revert:             "REVERT",
	SelfDestruct:       "SELFDESTRUCT",
	OutOfGas:           "OUT_OF_GAS",
	InvalidOpcode:      "INVALID_OPCODE",
	InvalidJump:        "INVALID_JUMP",
	InvalidJumpsub:     "INVALID_JUMPSUB",
	InvalidBeginsub:    "INVALID_BEGINSUB",
	InvalidReturnsub:   "INVALID_RETURNSUB",
	StaticStateChange:  "STATIC_STATE_CHANGE",
	OutOfRange:         "OUT_OF_RANGE",
	StackOverflow:      "STACK_OVERFLOW",
	StackUnderflow:     "STACK_UNDERFLOW",
}

// String returns the wire-level trap name.
func (c Code) String() string {
	if s, ok := names[c]; ok {
		return s
	}
	return fmt.Sprintf("trap(%d)", int(c))
}

// IsFatal reports whether c ends the frame with all gas consumed and return
// data cleared (the "trap" class of spec.md §7, as opposed to the
// controlled-termination class: Stop/Return/Revert/SelfDestruct).
func (c Code) IsFatal() bool {
	switch c {
	case Stop, Return, Revert, SelfDestruct, None:
		return false
	default:
		return true
	}
}

// Halt is the error type opcode handlers and the dispatch loop use to signal
// a frame outcome. It satisfies the error interface so it composes with
// errors.Is/errors.As via the Code field.
type Halt struct {
	Code Code
	// Data carries RETURN/REVERT output, or nil for other outcomes.
	Data []byte
}

func (h *Halt) Error() string { return h.Code.String() }

// New returns a Halt with no associated data.
func New(c Code) *Halt { return &Halt{Code: c} }

// NewWithData returns a Halt carrying return/revert data.
func NewWithData(c Code, data []byte) *Halt { return &Halt{Code: c, Data: data} }

// DescribeLocation augments a Halt with the PC and opcode name for logs.
func DescribeLocation(h *Halt, pc uint64, opName string) string {
	return fmt.Sprintf("%s at pc=%d op=%s", h.Code, pc, opName)
}
