package vm

import (
	"errors"

	"github.com/eth2030/zkcore/chainconfig"
	"github.com/eth2030/zkcore/eei"
	"github.com/eth2030/zkcore/trap"
	"github.com/eth2030/zkcore/vcm"
)

// EVM holds the one piece of state shared across every frame this process
// ever runs: the dispatch table and the chain parameter view. It has no
// per-call mutable state, so a single EVM is reused across frames.
type EVM struct {
	jumpTable *JumpTable
	chain     chainconfig.View
}

// NewEVM returns an EVM dispatching through the module's single jump table,
// reading gas-schedule parameters from chain.
func NewEVM(chain chainconfig.View) *EVM {
	return &EVM{jumpTable: NewJumpTable(), chain: chain}
}

// Run executes frame's code against env until it halts, returning the
// RETURN/REVERT output (nil for STOP/SELFDESTRUCT) and the trap describing
// how it stopped. A non-Halt error indicates a programming error in a
// handler and should not occur in normal operation.
func (m *EVM) Run(frame *Frame, env eei.Environment, counters *vcm.Manager) ([]byte, *trap.Halt) {
	ec := &execContext{Frame: frame, Env: env, VCM: counters, Chain: m.chain}
	pc := uint64(0)

	for {
		op := frame.GetOp(pc)
		operation := m.jumpTable[op]
		if operation == nil {
			return nil, trap.New(trap.InvalidOpcode)
		}

		stackLen := frame.Stack.Len()
		if stackLen < operation.MinStack {
			return nil, trap.New(trap.StackUnderflow)
		}
		if stackLen > operation.MaxStack {
			return nil, trap.New(trap.StackOverflow)
		}

		if !frame.UseGas(operation.ConstantGas) {
			return nil, trap.New(trap.OutOfGas)
		}

		ec.PC = pc
		ec.opcodeHint = op

		var memSize uint64
		if operation.MemorySize != nil {
			sz, err := operation.MemorySize(frame.Stack)
			if err != nil {
				return nil, translateErr(err)
			}
			memSize = sz
		}

		if operation.DynamicGas != nil {
			dGas, err := operation.DynamicGas(ec, memSize)
			if err != nil {
				return nil, translateErr(err)
			}
			if !frame.UseGas(dGas) {
				return nil, trap.New(trap.OutOfGas)
			}
		}

		if memSize > 0 {
			frame.Memory.Resize(memSize)
		}

		if err := operation.Execute(ec); err != nil {
			if h, ok := err.(*trap.Halt); ok {
				return h.Data, h
			}
			return nil, translateErr(err)
		}

		if operation.Jumps {
			pc = ec.PC
			continue
		}
		if op.IsPush() {
			pc += uint64(op-PUSH1) + 1
		}
		pc++
	}
}

// translateErr converts the plain sentinel errors Stack/gas-overflow
// checking returns into the matching trap, or passes an existing *trap.Halt
// straight through.
func translateErr(err error) *trap.Halt {
	var h *trap.Halt
	if errors.As(err, &h) {
		return h
	}
	switch {
	case errors.Is(err, ErrStackUnderflow):
		return trap.New(trap.StackUnderflow)
	case errors.Is(err, ErrStackOverflow):
		return trap.New(trap.StackOverflow)
	case errors.Is(err, ErrSwapOutOfRange), errors.Is(err, ErrDupOutOfRange):
		return trap.New(trap.OutOfRange)
	case errors.Is(err, ErrGasUintOverflow):
		return trap.New(trap.OutOfGas)
	default:
		return trap.New(trap.InvalidOpcode)
	}
}
