package vm

import (
	"github.com/eth2030/zkcore/trap"
	"github.com/eth2030/zkcore/vcm"
)

// opJump and opJumpi write ec.PC directly; the dispatch loop must not
// advance PC itself for an Operation with Jumps set.

func opJump(ec *execContext) error {
	dest, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpJump, 1)
	if !ec.Frame.ValidJumpdest(dest) {
		return trap.New(trap.InvalidJump)
	}
	ec.PC = dest.Uint64()
	return nil
}

func opJumpi(ec *execContext) error {
	dest, _ := ec.Frame.Stack.Pop()
	cond, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpJumpi, 1)
	if cond.IsZero() {
		ec.PC++
		return nil
	}
	if !ec.Frame.ValidJumpdest(dest) {
		return trap.New(trap.InvalidJump)
	}
	ec.PC = dest.Uint64()
	return nil
}

// opBeginsub traps InvalidBeginsub. JUMPSUB resumes at the byte after its
// BEGINSUB target, so BEGINSUB itself only executes when reached by
// fall-through.
func opBeginsub(ec *execContext) error {
	ec.VCM.Record(vcm.OpBeginsub, 1)
	return trap.New(trap.InvalidBeginsub)
}

// opJumpsub pushes the return address (the instruction after JUMPSUB) onto
// the return-address stack and transfers control to dest, which must be a
// BEGINSUB.
func opJumpsub(ec *execContext) error {
	dest, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpJumpsub, 1)
	if !ec.Frame.ValidBeginsub(dest) {
		return trap.New(trap.InvalidJumpsub)
	}
	if err := ec.Frame.ReturnStack.Push(ec.PC + 1); err != nil {
		return trap.New(trap.StackOverflow)
	}
	ec.PC = dest.Uint64() + 1
	return nil
}

// opReturnsub pops the return-address stack and resumes there.
func opReturnsub(ec *execContext) error {
	ec.VCM.Record(vcm.OpReturnsub, 1)
	ret, err := ec.Frame.ReturnStack.Pop()
	if err != nil {
		return trap.New(trap.InvalidReturnsub)
	}
	ec.PC = ret
	return nil
}
