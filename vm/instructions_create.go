package vm

import (
	"github.com/eth2030/zkcore/eei"
	"github.com/eth2030/zkcore/trap"
	"github.com/eth2030/zkcore/vcm"
	"github.com/eth2030/zkcore/word"
)

// maxInitCodeSize is EIP-3860's cap on CREATE/CREATE2 init-code length.
const maxInitCodeSize = 49152

// maxCodeSize is EIP-170's cap on deployed contract code length.
const maxCodeSize = 24576

func opCreate(ec *execContext) error {
	return runCreate(ec, false)
}

func opCreate2(ec *execContext) error {
	return runCreate(ec, true)
}

func runCreate(ec *execContext, hasSalt bool) error {
	if ec.Frame.IsStatic {
		return trap.New(trap.StaticStateChange)
	}
	value, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	offset, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	size, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	var salt *word.Word
	if hasSalt {
		salt, err = ec.Frame.Stack.Pop()
		if err != nil {
			return err
		}
	}

	counter := vcm.OpCreate
	ec.VCM.RecordWith(counter, vcm.CounterFields{
		IsCreate: true, Depth: ec.Frame.Depth, BytecodeLength: size.Uint64(),
	})

	if size.BitLen() > 63 || size.Uint64() > maxInitCodeSize {
		return ec.Frame.Stack.Push(word.Zero())
	}
	if ec.Frame.Depth+1 >= maxCallDepth {
		return ec.Frame.Stack.Push(word.Zero())
	}

	initCode := make([]byte, size.Uint64())
	if !size.IsZero() {
		copy(initCode, ec.Frame.Memory.GetPtr(int64(offset.Uint64()), int64(size.Uint64())))
	}

	forwarded, ok := ec.Frame.TakeMessageGasLimit()
	if !ok {
		forwarded = capGasForCall(ec.Frame.Gas, word.FromUint64(ec.Frame.Gas))
	}
	if !ec.Frame.UseGas(forwarded) {
		return trap.New(trap.OutOfGas)
	}

	result := ec.Env.Create(eei.CreateParams{
		Caller:   ec.Frame.Address,
		Value:    value,
		InitCode: initCode,
		Gas:      forwarded,
		Salt:     salt,
	})

	ec.Frame.Gas += result.GasLeft
	ec.Frame.LastReturnData = nil
	if result.Reverted {
		ec.Frame.LastReturnData = result.Results
	}

	if result.Address.IsZero() {
		return ec.Frame.Stack.Push(word.Zero())
	}
	return ec.Frame.Stack.Push(word.FromBytes(result.Address[:]))
}
