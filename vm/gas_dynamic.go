package vm

import (
	"bytes"

	"github.com/eth2030/zkcore/word"
)

// gasMemoryExpansionOnly is the dynamic-gas shape for opcodes whose only
// variable cost is memory expansion (MLOAD/MSTORE/MSTORE8).
func gasMemoryExpansionOnly(ec *execContext, memorySize uint64) (uint64, error) {
	return gasMemExpansion(ec.Frame.Memory, memorySize)
}

// gasCopy charges memory expansion plus GasCopy per 32-byte word copied
// (CALLDATACOPY, CODECOPY, RETURNDATACOPY and MCOPY use it, differing only
// in which stack slot holds the length; EXTCODECOPY uses gasExtCodeCopy,
// which adds the address-access charge to the same shape).
func gasCopy(ec *execContext, memorySize uint64) (uint64, error) {
	mem, err := gasMemExpansion(ec.Frame.Memory, memorySize)
	if err != nil {
		return 0, err
	}
	length, err := copyLength(ec)
	if err != nil {
		return 0, err
	}
	words := (length + 31) / 32
	return mem + words*GasCopy, nil
}

// copyLength finds the length operand for one of the *COPY opcodes: it is
// always the 3rd stack item (index 2) except EXTCODECOPY, whose extra
// leading address operand pushes it to index 3.
func copyLength(ec *execContext) (uint64, error) {
	idx := 2
	if ec.opcodeHint == EXTCODECOPY {
		idx = 3
	}
	l, err := ec.Frame.Stack.Back(idx)
	if err != nil {
		return 0, err
	}
	if l.BitLen() > 63 {
		return 0, ErrGasUintOverflow
	}
	return l.Uint64(), nil
}

func gasExp(ec *execContext, memorySize uint64) (uint64, error) {
	exponent, err := ec.Frame.Stack.Back(1)
	if err != nil {
		return 0, err
	}
	byteLen := (exponent.BitLen() + 7) / 8
	perByte := GasExpByte
	if v, ok := ec.Chain.Param("gasPrices", "expByte"); ok {
		perByte = uint64(v)
	}
	return uint64(byteLen) * perByte, nil
}

func gasKeccak256(ec *execContext, memorySize uint64) (uint64, error) {
	mem, err := gasMemExpansion(ec.Frame.Memory, memorySize)
	if err != nil {
		return 0, err
	}
	size, err := ec.Frame.Stack.Back(1)
	if err != nil {
		return 0, err
	}
	if size.BitLen() > 63 {
		return 0, ErrGasUintOverflow
	}
	words := (size.Uint64() + 31) / 32
	return mem + words*GasKeccak256Word, nil
}

func gasBalance(ec *execContext, memorySize uint64) (uint64, error) {
	addrWord, err := ec.Frame.Stack.Back(0)
	if err != nil {
		return 0, err
	}
	addr := wordToAddress(addrWord)
	if ec.Frame.MarkAddressWarm(addr) {
		return GasBalanceWarm, nil
	}
	return GasBalanceCold, nil
}

func gasExtCodeSize(ec *execContext, memorySize uint64) (uint64, error) {
	return gasColdWarmAddress(ec, 0)
}

func gasExtCodeCopy(ec *execContext, memorySize uint64) (uint64, error) {
	mem, err := gasMemExpansion(ec.Frame.Memory, memorySize)
	if err != nil {
		return 0, err
	}
	length, err := ec.Frame.Stack.Back(3)
	if err != nil {
		return 0, err
	}
	if length.BitLen() > 63 {
		return 0, ErrGasUintOverflow
	}
	words := (length.Uint64() + 31) / 32
	access, err := gasColdWarmAddress(ec, 0)
	if err != nil {
		return 0, err
	}
	return mem + words*GasCopy + access, nil
}

func gasExtCodeHash(ec *execContext, memorySize uint64) (uint64, error) {
	return gasColdWarmAddress(ec, 0)
}

func gasColdWarmAddress(ec *execContext, stackIdx int) (uint64, error) {
	addrWord, err := ec.Frame.Stack.Back(stackIdx)
	if err != nil {
		return 0, err
	}
	addr := wordToAddress(addrWord)
	if ec.Frame.MarkAddressWarm(addr) {
		return GasCallWarm, nil
	}
	return GasCallCold, nil
}

func gasSload(ec *execContext, memorySize uint64) (uint64, error) {
	key, err := ec.Frame.Stack.Back(0)
	if err != nil {
		return 0, err
	}
	slot := key.Bytes32()
	if ec.Frame.MarkSlotWarm(ec.Frame.Address, slot) {
		return GasSloadWarm, nil
	}
	return GasSloadCold, nil
}

// gasSstore charges the warm/cold access surcharge plus the set/reset cost
// derived from comparing the slot's current value with the new one (the
// slot's original, committed value is not consulted). It does
// not attempt EIP-2200's full refund-schedule bookkeeping beyond what
// chainconfig's eip3529 group exposes; refunds are applied by opSstore
// itself via ec.Env.Refund.
func gasSstore(ec *execContext, memorySize uint64) (uint64, error) {
	key, err := ec.Frame.Stack.Back(0)
	if err != nil {
		return 0, err
	}
	slot := key.Bytes32()
	var access uint64
	if !ec.Frame.MarkSlotWarm(ec.Frame.Address, slot) {
		access = GasSloadCold
	}
	current := ec.Env.SLoad(slot)
	newVal, err := ec.Frame.Stack.Back(1)
	if err != nil {
		return 0, err
	}
	newBE := word.ShortBE(newVal)
	if bytes.Equal(current, newBE) {
		return access + GasSloadWarm, nil
	}
	if len(current) == 0 {
		return access + GasSstoreSet, nil
	}
	return access + GasSstoreReset, nil
}

func gasCall(ec *execContext, memorySize uint64) (uint64, error) {
	return gasCallFamily(ec, memorySize, true)
}

func gasCallCode(ec *execContext, memorySize uint64) (uint64, error) {
	return gasCallFamily(ec, memorySize, true)
}

func gasDelegateCall(ec *execContext, memorySize uint64) (uint64, error) {
	return gasCallFamily(ec, memorySize, false)
}

func gasStaticCall(ec *execContext, memorySize uint64) (uint64, error) {
	return gasCallFamily(ec, memorySize, false)
}

// gasCallFamily charges memory expansion, the cold/warm target-address
// surcharge, and (for CALL/CALLCODE) the non-zero value transfer cost. It
// also pre-reserves the gas the Execute phase will forward to the sub-call
// (spec.md §4.2's messageGasLimit tie-break rule), applying EIP-150's 63/64
// rule against the gas that will remain once this opcode's own cost is
// paid. The callee address is always the stack's second item (index 1):
// popCallOperands pops gas then address first regardless of hasValue.
func gasCallFamily(ec *execContext, memorySize uint64, hasValue bool) (uint64, error) {
	mem, err := gasMemExpansion(ec.Frame.Memory, memorySize)
	if err != nil {
		return 0, err
	}
	access, err := gasColdWarmAddress(ec, 1)
	if err != nil {
		return 0, err
	}
	total := mem + access
	if hasValue {
		value, err := ec.Frame.Stack.Back(2)
		if err != nil {
			return 0, err
		}
		if !value.IsZero() {
			total += GasCallValue
		}
	}

	requestedGas, err := ec.Frame.Stack.Back(0)
	if err != nil {
		return 0, err
	}
	var remainingAfter uint64
	if ec.Frame.Gas > total {
		remainingAfter = ec.Frame.Gas - total
	}
	ec.Frame.SetMessageGasLimit(capGasForCall(remainingAfter, requestedGas))

	return total, nil
}

func gasCreate(ec *execContext, memorySize uint64) (uint64, error) {
	mem, err := gasMemExpansion(ec.Frame.Memory, memorySize)
	if err != nil {
		return 0, err
	}
	reserveCreateGas(ec, mem)
	return mem, nil
}

func gasCreate2(ec *execContext, memorySize uint64) (uint64, error) {
	mem, err := gasMemExpansion(ec.Frame.Memory, memorySize)
	if err != nil {
		return 0, err
	}
	length, err := ec.Frame.Stack.Back(2)
	if err != nil {
		return 0, err
	}
	if length.BitLen() > 63 {
		return 0, ErrGasUintOverflow
	}
	words := (length.Uint64() + 31) / 32
	total := mem + words*GasKeccak256Word
	reserveCreateGas(ec, total)
	return total, nil
}

// reserveCreateGas pre-reserves the all-but-63/64ths gas CREATE/CREATE2
// forward to the init code, the same messageGasLimit mechanism the
// CALL family uses, since CREATE has no explicit gas operand to cap
// against — the entire remainder (after this opcode's own cost) is
// forwarded.
func reserveCreateGas(ec *execContext, ownCost uint64) {
	var remainingAfter uint64
	if ec.Frame.Gas > ownCost {
		remainingAfter = ec.Frame.Gas - ownCost
	}
	ec.Frame.SetMessageGasLimit(remainingAfter - remainingAfter/64)
}

func gasSelfDestruct(ec *execContext, memorySize uint64) (uint64, error) {
	beneficiaryWord, err := ec.Frame.Stack.Back(0)
	if err != nil {
		return 0, err
	}
	addr := wordToAddress(beneficiaryWord)
	if ec.Frame.MarkAddressWarm(addr) {
		return 0, nil
	}
	return GasCallCold, nil
}

func gasLog(n int) dynamicGasFunc {
	return func(ec *execContext, memorySize uint64) (uint64, error) {
		mem, err := gasMemExpansion(ec.Frame.Memory, memorySize)
		if err != nil {
			return 0, err
		}
		length, err := ec.Frame.Stack.Back(1)
		if err != nil {
			return 0, err
		}
		if length.BitLen() > 63 {
			return 0, ErrGasUintOverflow
		}
		return mem + uint64(n)*GasLogTopic + length.Uint64()*GasLogData, nil
	}
}

func wordToAddress(w *word.Word) (a [20]byte) {
	b := w.Bytes32()
	copy(a[:], b[12:])
	return a
}
