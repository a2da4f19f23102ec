package vm

import (
	"github.com/eth2030/zkcore/cryptoutil"
	"github.com/eth2030/zkcore/vcm"
	"github.com/eth2030/zkcore/word"
)

func opLt(ec *execContext) error {
	a, _ := ec.Frame.Stack.Pop()
	b, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpCmp, 1)
	return ec.Frame.Stack.Push(word.Lt(a, b))
}

func opGt(ec *execContext) error {
	a, _ := ec.Frame.Stack.Pop()
	b, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpCmp, 1)
	return ec.Frame.Stack.Push(word.Gt(a, b))
}

func opSlt(ec *execContext) error {
	a, _ := ec.Frame.Stack.Pop()
	b, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpCmp, 1)
	return ec.Frame.Stack.Push(word.Slt(a, b))
}

func opSgt(ec *execContext) error {
	a, _ := ec.Frame.Stack.Pop()
	b, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpCmp, 1)
	return ec.Frame.Stack.Push(word.Sgt(a, b))
}

func opEq(ec *execContext) error {
	a, _ := ec.Frame.Stack.Pop()
	b, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpCmp, 1)
	return ec.Frame.Stack.Push(word.Eq(a, b))
}

func opIsZero(ec *execContext) error {
	a, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpCmp, 1)
	return ec.Frame.Stack.Push(word.IsZero(a))
}

func opAnd(ec *execContext) error {
	a, _ := ec.Frame.Stack.Pop()
	b, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpBitwise, 1)
	return ec.Frame.Stack.Push(new(word.Word).And(a, b))
}

func opOr(ec *execContext) error {
	a, _ := ec.Frame.Stack.Pop()
	b, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpBitwise, 1)
	return ec.Frame.Stack.Push(new(word.Word).Or(a, b))
}

func opXor(ec *execContext) error {
	a, _ := ec.Frame.Stack.Pop()
	b, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpBitwise, 1)
	return ec.Frame.Stack.Push(new(word.Word).Xor(a, b))
}

func opNot(ec *execContext) error {
	a, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpBitwise, 1)
	return ec.Frame.Stack.Push(new(word.Word).Not(a))
}

func opByte(ec *execContext) error {
	pos, _ := ec.Frame.Stack.Pop()
	val, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpByte, 1)
	return ec.Frame.Stack.Push(word.Byte(pos, val))
}

func opShl(ec *execContext) error {
	shift, _ := ec.Frame.Stack.Pop()
	val, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpShift, 1)
	return ec.Frame.Stack.Push(word.Shl(shift, val))
}

func opShr(ec *execContext) error {
	shift, _ := ec.Frame.Stack.Pop()
	val, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpShift, 1)
	return ec.Frame.Stack.Push(word.Shr(shift, val))
}

func opSar(ec *execContext) error {
	shift, _ := ec.Frame.Stack.Pop()
	val, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpShift, 1)
	return ec.Frame.Stack.Push(word.Sar(shift, val))
}

func opKeccak256(ec *execContext) error {
	offset, _ := ec.Frame.Stack.Pop()
	size, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	data := ec.Frame.Memory.Get(int64(offset.Uint64()), int64(size.Uint64()))
	ec.VCM.Record(vcm.OpKeccak, 1)
	return ec.Frame.Stack.Push(word.FromBytes(cryptoutil.Keccak256(data)))
}
