package vm

import (
	"github.com/eth2030/zkcore/eei"
	"github.com/eth2030/zkcore/trap"
	"github.com/eth2030/zkcore/vcm"
	"github.com/eth2030/zkcore/word"
)

// maxCallDepth mirrors the Yellow Paper's 1024 call-stack limit: a call
// attempted past it fails (pushes 0) rather than trapping the caller.
const maxCallDepth = 1024

// callStipend is the extra gas EIP-150 grants a callee that receives a
// non-zero value transfer, on top of (not deducted from) the caller's
// forwarded allowance.
const callStipend = 2300

// callOperands is the shape every CALL-family opcode shares once the
// value operand (present only for CALL/CALLCODE) is normalized to zero.
type callOperands struct {
	gas          *word.Word
	addr         eei.Address
	value        *word.Word
	argsOff, argsLen *word.Word
	retOff, retLen   *word.Word
}

func popCallOperands(ec *execContext, hasValue bool) (callOperands, error) {
	var c callOperands
	var err error
	if c.gas, err = ec.Frame.Stack.Pop(); err != nil {
		return c, err
	}
	addrWord, err := ec.Frame.Stack.Pop()
	if err != nil {
		return c, err
	}
	c.addr = wordToAddress(addrWord)
	if hasValue {
		if c.value, err = ec.Frame.Stack.Pop(); err != nil {
			return c, err
		}
	} else {
		c.value = word.Zero()
	}
	if c.argsOff, err = ec.Frame.Stack.Pop(); err != nil {
		return c, err
	}
	if c.argsLen, err = ec.Frame.Stack.Pop(); err != nil {
		return c, err
	}
	if c.retOff, err = ec.Frame.Stack.Pop(); err != nil {
		return c, err
	}
	if c.retLen, err = ec.Frame.Stack.Pop(); err != nil {
		return c, err
	}
	return c, nil
}

// runCall shares the post-operand logic of all four CALL-family opcodes:
// depth check, gas reservation consumption, the sub-call itself, result
// handling, and return-data plumbing.
func runCall(ec *execContext, kind eei.CallKind, c callOperands, caller eei.Address, isStatic, transfersValue bool, recordCounter vcm.Counter) error {
	ec.VCM.RecordWith(recordCounter, vcm.CounterFields{Depth: ec.Frame.Depth, InputSize: c.argsLen.Uint64()})

	if ec.Frame.Depth+1 >= maxCallDepth {
		return ec.Frame.Stack.Push(word.Zero())
	}

	forwarded, ok := ec.Frame.TakeMessageGasLimit()
	if !ok {
		// No dynamic-gas phase ran (e.g. direct unit-test invocation);
		// fall back to computing it here so the handler stays usable
		// standalone.
		forwarded = capGasForCall(ec.Frame.Gas, c.gas)
	}
	if !ec.Frame.UseGas(forwarded) {
		return trap.New(trap.OutOfGas)
	}
	if transfersValue && !c.value.IsZero() {
		forwarded += callStipend
	}

	input := make([]byte, c.argsLen.Uint64())
	if !c.argsLen.IsZero() {
		copy(input, ec.Frame.Memory.GetPtr(int64(c.argsOff.Uint64()), int64(c.argsLen.Uint64())))
	}

	result := ec.Env.Call(eei.CallParams{
		Kind:     kind,
		Caller:   caller,
		Address:  c.addr,
		Value:    c.value,
		Input:    input,
		Gas:      forwarded,
		IsStatic: isStatic,
	})

	ec.Frame.Gas += result.GasLeft
	ec.Frame.LastReturnData = result.Results

	retLen := c.retLen.Uint64()
	if retLen > uint64(len(result.Results)) {
		retLen = uint64(len(result.Results))
	}
	if retLen > 0 {
		ec.Frame.Memory.Set(c.retOff.Uint64(), retLen, result.Results[:retLen])
	}

	if result.ReturnCode == 0 {
		return ec.Frame.Stack.Push(word.One())
	}
	return ec.Frame.Stack.Push(word.Zero())
}

// capGasForCall applies EIP-150's 63/64 rule: at most all-but-one-64th of
// the gas remaining in the caller may be forwarded, and never more than
// requested.
func capGasForCall(remaining uint64, requested *word.Word) uint64 {
	maxForward := remaining - remaining/64
	if requested.BitLen() > 63 || requested.Uint64() > maxForward {
		return maxForward
	}
	return requested.Uint64()
}

func opCall(ec *execContext) error {
	if ec.Frame.IsStatic {
		v, err := ec.Frame.Stack.Back(2)
		if err != nil {
			return err
		}
		if !v.IsZero() {
			return trap.New(trap.StaticStateChange)
		}
	}
	c, err := popCallOperands(ec, true)
	if err != nil {
		return err
	}
	return runCall(ec, eei.CallKindCall, c, ec.Frame.Address, ec.Frame.IsStatic, true, vcm.OpCall)
}

func opCallCode(ec *execContext) error {
	c, err := popCallOperands(ec, true)
	if err != nil {
		return err
	}
	// CALLCODE executes the callee's code in the caller's own storage
	// context: the "address" the sub-call observes is the caller's own.
	return runCall(ec, eei.CallKindCallCode, c, ec.Frame.Address, ec.Frame.IsStatic, true, vcm.OpCallcode)
}

func opDelegateCall(ec *execContext) error {
	c, err := popCallOperands(ec, false)
	if err != nil {
		return err
	}
	// DELEGATECALL carries the current frame's value through for the
	// callee's CALLVALUE to observe, without transferring it or earning
	// the value-transfer gas stipend.
	c.value = ec.Frame.Value
	return runCall(ec, eei.CallKindDelegateCall, c, ec.Frame.CallerAddress, ec.Frame.IsStatic, false, vcm.OpDelegatecall)
}

func opStaticCall(ec *execContext) error {
	c, err := popCallOperands(ec, false)
	if err != nil {
		return err
	}
	return runCall(ec, eei.CallKindStaticCall, c, ec.Frame.Address, true, false, vcm.OpStaticcall)
}
