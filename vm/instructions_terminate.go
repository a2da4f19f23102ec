package vm

import (
	"github.com/eth2030/zkcore/trap"
	"github.com/eth2030/zkcore/vcm"
	"github.com/eth2030/zkcore/word"
)

func opStop(ec *execContext) error {
	return trap.New(trap.Stop)
}

func opReturn(ec *execContext) error {
	offset, _ := ec.Frame.Stack.Pop()
	size, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpReturn, size.Uint64())
	data := readOutput(ec, offset, size)
	return trap.NewWithData(trap.Return, data)
}

func opRevert(ec *execContext) error {
	offset, _ := ec.Frame.Stack.Pop()
	size, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpRevert, size.Uint64())
	data := readOutput(ec, offset, size)
	return trap.NewWithData(trap.Revert, data)
}

func readOutput(ec *execContext, offset, size *word.Word) []byte {
	if size.IsZero() {
		return nil
	}
	out := make([]byte, size.Uint64())
	copy(out, ec.Frame.Memory.GetPtr(int64(offset.Uint64()), int64(size.Uint64())))
	return out
}

func opInvalid(ec *execContext) error {
	return trap.New(trap.InvalidOpcode)
}

// opSelfDestruct checks the static-frame restriction before queuing the
// beneficiary transfer: a SELFDESTRUCT inside a STATICCALL must trap as a
// state-change violation rather than silently transferring balance and
// marking the account for deletion.
func opSelfDestruct(ec *execContext) error {
	if ec.Frame.IsStatic {
		return trap.New(trap.StaticStateChange)
	}
	beneficiary, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpSelfdestruct, 1)
	ec.Env.SelfDestruct(wordToAddress(beneficiary))
	return trap.New(trap.SelfDestruct)
}
