package vm

import (
	"github.com/eth2030/zkcore/eei"
	"github.com/eth2030/zkcore/trap"
	"github.com/eth2030/zkcore/vcm"
	"github.com/eth2030/zkcore/word"
)

func opPop(ec *execContext) error {
	_, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpPop, 1)
	return nil
}

func opMload(ec *execContext) error {
	offset, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpMload, 1)
	if offset.BitLen() > 63 {
		return trap.New(trap.OutOfRange)
	}
	v := word.FromBytes(ec.Frame.Memory.GetPtr(int64(offset.Uint64()), 32))
	return ec.Frame.Stack.Push(v)
}

func opMstore(ec *execContext) error {
	offset, _ := ec.Frame.Stack.Pop()
	val, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpMstore, 1)
	if offset.BitLen() > 63 {
		return trap.New(trap.OutOfRange)
	}
	ec.Frame.Memory.Set32(offset.Uint64(), val)
	return nil
}

func opMstore8(ec *execContext) error {
	offset, _ := ec.Frame.Stack.Pop()
	val, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	if offset.BitLen() > 63 {
		return trap.New(trap.OutOfRange)
	}
	ec.Frame.Memory.Set(offset.Uint64(), 1, []byte{byte(val.Uint64())})
	return nil
}

func opMcopy(ec *execContext) error {
	dst, _ := ec.Frame.Stack.Pop()
	src, _ := ec.Frame.Stack.Pop()
	length, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpMcopy, length.Uint64())
	if length.IsZero() {
		return nil
	}
	if dst.BitLen() > 63 || src.BitLen() > 63 {
		return trap.New(trap.OutOfRange)
	}
	data := make([]byte, length.Uint64())
	copy(data, ec.Frame.Memory.GetPtr(int64(src.Uint64()), int64(length.Uint64())))
	ec.Frame.Memory.Set(dst.Uint64(), length.Uint64(), data)
	return nil
}

func opSload(ec *execContext) error {
	key, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpSload, 1)
	val := ec.Env.SLoad(eei.Hash(key.Bytes32()))
	return ec.Frame.Stack.Push(word.FromBytes(val))
}

func opSstore(ec *execContext) error {
	if ec.Frame.IsStatic {
		return trap.New(trap.StaticStateChange)
	}
	key, _ := ec.Frame.Stack.Pop()
	val, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpSstore, 1)
	keyHash := eei.Hash(key.Bytes32())
	wasZero := len(ec.Env.SLoad(keyHash)) == 0
	newBE := word.ShortBE(val)
	ec.Env.SStore(keyHash, newBE)

	// EIP-3529 refund: clearing a non-zero slot to zero refunds the
	// sstoreClearsScheduleRefund amount, read from chainconfig rather than
	// hardcoded so a host can retune it without touching this file.
	if !wasZero && len(newBE) == 0 {
		if refund, ok := ec.Chain.Param("eip3529", "sstoreClearsScheduleRefund"); ok {
			ec.Env.Refund(refund)
		}
	}
	return nil
}

func opTload(ec *execContext) error {
	key, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	val := ec.Env.TLoad(eei.Hash(key.Bytes32()))
	return ec.Frame.Stack.Push(word.FromBytes(val[:]))
}

func opTstore(ec *execContext) error {
	if ec.Frame.IsStatic {
		return trap.New(trap.StaticStateChange)
	}
	key, _ := ec.Frame.Stack.Pop()
	val, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.Env.TStore(eei.Hash(key.Bytes32()), eei.Hash(val.Bytes32()))
	return nil
}

func opPc(ec *execContext) error {
	return ec.Frame.Stack.Push(word.FromUint64(ec.PC))
}

func opMsize(ec *execContext) error {
	return ec.Frame.Stack.Push(word.FromUint64(ec.Frame.Memory.WordCount() * 32))
}

func opGas(ec *execContext) error {
	return ec.Frame.Stack.Push(word.FromUint64(ec.Frame.Gas))
}

func opJumpdest(ec *execContext) error { return nil }

func opPush0(ec *execContext) error {
	return ec.Frame.Stack.Push(word.Zero())
}

// makePush returns the executionFunc for PUSH<n>: read n immediate bytes
// following the opcode and push them zero-padded as a 32-byte word. Reading
// past the end of code returns implicit zero bytes, matching GetOp's
// implicit-STOP padding.
func makePush(n int) executionFunc {
	return func(ec *execContext) error {
		start := ec.PC + 1
		end := start + uint64(n)
		code := ec.Frame.Code
		var buf [32]byte
		// Left-pad: an n-byte immediate occupies the low n bytes of the word.
		for i := 0; i < n; i++ {
			pos := start + uint64(i)
			if pos < uint64(len(code)) {
				buf[32-n+i] = code[pos]
			}
		}
		_ = end
		return ec.Frame.Stack.Push(word.FromBytes(buf[:]))
	}
}

// makeDup returns the executionFunc for DUP<n>: duplicate the nth
// from-the-top stack item onto the top.
func makeDup(n int) executionFunc {
	return func(ec *execContext) error {
		return ec.Frame.Stack.Dup(n)
	}
}

// makeSwap returns the executionFunc for SWAP<n>: exchange the top item
// with the (n+1)th from-the-top item.
func makeSwap(n int) executionFunc {
	return func(ec *execContext) error {
		return ec.Frame.Stack.Swap(n)
	}
}
