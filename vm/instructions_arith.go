package vm

import (
	"github.com/eth2030/zkcore/vcm"
	"github.com/eth2030/zkcore/word"
)

// Binary opcodes pop a (the top of stack) then b (the next item down), and
// for non-commutative operations compute a OP b — e.g. SUB computes a-b,
// DIV computes a/b.

func opAdd(ec *execContext) error {
	a, _ := ec.Frame.Stack.Pop()
	b, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpAdd, 1)
	return ec.Frame.Stack.Push(word.Add(a, b))
}

func opMul(ec *execContext) error {
	a, _ := ec.Frame.Stack.Pop()
	b, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpMul, 1)
	return ec.Frame.Stack.Push(word.Mul(a, b))
}

func opSub(ec *execContext) error {
	a, _ := ec.Frame.Stack.Pop()
	b, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpSub, 1)
	return ec.Frame.Stack.Push(word.Sub(a, b))
}

func opDiv(ec *execContext) error {
	a, _ := ec.Frame.Stack.Pop()
	b, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpDiv, 1)
	return ec.Frame.Stack.Push(word.Div(a, b))
}

func opSDiv(ec *execContext) error {
	a, _ := ec.Frame.Stack.Pop()
	b, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpSDiv, 1)
	return ec.Frame.Stack.Push(word.SDiv(a, b))
}

func opMod(ec *execContext) error {
	a, _ := ec.Frame.Stack.Pop()
	b, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpMod, 1)
	return ec.Frame.Stack.Push(word.Mod(a, b))
}

func opSMod(ec *execContext) error {
	a, _ := ec.Frame.Stack.Pop()
	b, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpSMod, 1)
	return ec.Frame.Stack.Push(word.SMod(a, b))
}

func opAddMod(ec *execContext) error {
	a, _ := ec.Frame.Stack.Pop()
	b, _ := ec.Frame.Stack.Pop()
	n, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpAddMod, 1)
	return ec.Frame.Stack.Push(word.AddMod(a, b, n))
}

func opMulMod(ec *execContext) error {
	a, _ := ec.Frame.Stack.Pop()
	b, _ := ec.Frame.Stack.Pop()
	n, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpMulMod, 1)
	return ec.Frame.Stack.Push(word.MulMod(a, b, n))
}

// opExp records the exponent's byte length in the VCM on every EXP,
// including a zero exponent (length 0); word.Exp has no separate short
// circuit for trivial results.
func opExp(ec *execContext) error {
	base, _ := ec.Frame.Stack.Pop()
	exponent, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	result, byteLen := word.Exp(base, exponent)
	ec.VCM.Record(vcm.OpExp, uint64(byteLen))
	return ec.Frame.Stack.Push(result)
}

func opSignExtend(ec *execContext) error {
	back, _ := ec.Frame.Stack.Pop()
	num, err := ec.Frame.Stack.Pop()
	if err != nil {
		return err
	}
	ec.VCM.Record(vcm.OpSignExtend, 1)
	return ec.Frame.Stack.Push(word.SignExtend(back, num))
}
