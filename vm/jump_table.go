package vm

import (
	"github.com/eth2030/zkcore/chainconfig"
	"github.com/eth2030/zkcore/eei"
	"github.com/eth2030/zkcore/trap"
	"github.com/eth2030/zkcore/vcm"
)

// execContext bundles everything one opcode handler needs: the running
// frame, the environment it calls out through, the VCM accumulator, chain
// parameters, and the current program counter. Handlers that jump set PC
// themselves and the dispatch loop skips its own PC++ for them (Operation
// Jumps).
type execContext struct {
	Frame *Frame
	Env   eei.Environment
	VCM   *vcm.Manager
	Chain chainconfig.View
	PC    uint64

	// opcodeHint is the opcode currently executing, set by the dispatch
	// loop before ConstantGas/DynamicGas/Execute run. A few dynamic-gas
	// functions (EXTCODECOPY's length operand sits one slot deeper than
	// CALLDATACOPY/CODECOPY's) need to know which opcode they're costing.
	opcodeHint OpCode
}

// executionFunc runs one opcode against ec, returning a *trap.Halt (via the
// error interface) when the frame must stop, or nil to continue.
type executionFunc func(ec *execContext) error

// dynamicGasFunc computes an opcode's dynamic gas component. memorySize is
// the byte count Operation.MemorySize already derived from the stack.
type dynamicGasFunc func(ec *execContext, memorySize uint64) (uint64, error)

// Operation is one opcode's complete dispatch metadata.
type Operation struct {
	Execute     executionFunc
	ConstantGas uint64
	DynamicGas  dynamicGasFunc
	MinStack    int
	MaxStack    int
	MemorySize  memorySizeFunc
	Halts       bool
	Jumps       bool
	Writes      bool
}

// JumpTable maps every opcode byte to its Operation, nil for unassigned
// bytes (dispatch traps those as InvalidOpcode).
type JumpTable [256]*Operation

func minSwapStack(n int) int { return n + 1 }
func maxSwapStack(n int) int { return stackLimit }
func minDupStack(n int) int  { return n }
func maxDupStack(n int) int  { return stackLimit - 1 + n }

// NewJumpTable builds the single dispatch table this module targets. It is
// built in one pass (no fork ladder) since the module tracks no fork
// history, but keeps the teacher's family-installation-loop shape for
// PUSH/DUP/SWAP/LOG.
func NewJumpTable() *JumpTable {
	var jt JumpTable

	jt[STOP] = &Operation{Execute: opStop, ConstantGas: GasStop, MinStack: 0, MaxStack: stackLimit, Halts: true}
	jt[ADD] = &Operation{Execute: opAdd, ConstantGas: GasVerylow, MinStack: 2, MaxStack: stackLimit - 1}
	jt[MUL] = &Operation{Execute: opMul, ConstantGas: GasLow, MinStack: 2, MaxStack: stackLimit - 1}
	jt[SUB] = &Operation{Execute: opSub, ConstantGas: GasVerylow, MinStack: 2, MaxStack: stackLimit - 1}
	jt[DIV] = &Operation{Execute: opDiv, ConstantGas: GasLow, MinStack: 2, MaxStack: stackLimit - 1}
	jt[SDIV] = &Operation{Execute: opSDiv, ConstantGas: GasLow, MinStack: 2, MaxStack: stackLimit - 1}
	jt[MOD] = &Operation{Execute: opMod, ConstantGas: GasLow, MinStack: 2, MaxStack: stackLimit - 1}
	jt[SMOD] = &Operation{Execute: opSMod, ConstantGas: GasLow, MinStack: 2, MaxStack: stackLimit - 1}
	jt[ADDMOD] = &Operation{Execute: opAddMod, ConstantGas: GasMid, MinStack: 3, MaxStack: stackLimit - 2}
	jt[MULMOD] = &Operation{Execute: opMulMod, ConstantGas: GasMid, MinStack: 3, MaxStack: stackLimit - 2}
	jt[EXP] = &Operation{Execute: opExp, ConstantGas: GasExpBase, DynamicGas: gasExp, MinStack: 2, MaxStack: stackLimit - 1}
	jt[SIGNEXTEND] = &Operation{Execute: opSignExtend, ConstantGas: GasLow, MinStack: 2, MaxStack: stackLimit - 1}

	jt[LT] = &Operation{Execute: opLt, ConstantGas: GasVerylow, MinStack: 2, MaxStack: stackLimit - 1}
	jt[GT] = &Operation{Execute: opGt, ConstantGas: GasVerylow, MinStack: 2, MaxStack: stackLimit - 1}
	jt[SLT] = &Operation{Execute: opSlt, ConstantGas: GasVerylow, MinStack: 2, MaxStack: stackLimit - 1}
	jt[SGT] = &Operation{Execute: opSgt, ConstantGas: GasVerylow, MinStack: 2, MaxStack: stackLimit - 1}
	jt[EQ] = &Operation{Execute: opEq, ConstantGas: GasVerylow, MinStack: 2, MaxStack: stackLimit - 1}
	jt[ISZERO] = &Operation{Execute: opIsZero, ConstantGas: GasVerylow, MinStack: 1, MaxStack: stackLimit}
	jt[AND] = &Operation{Execute: opAnd, ConstantGas: GasVerylow, MinStack: 2, MaxStack: stackLimit - 1}
	jt[OR] = &Operation{Execute: opOr, ConstantGas: GasVerylow, MinStack: 2, MaxStack: stackLimit - 1}
	jt[XOR] = &Operation{Execute: opXor, ConstantGas: GasVerylow, MinStack: 2, MaxStack: stackLimit - 1}
	jt[NOT] = &Operation{Execute: opNot, ConstantGas: GasVerylow, MinStack: 1, MaxStack: stackLimit}
	jt[BYTE] = &Operation{Execute: opByte, ConstantGas: GasVerylow, MinStack: 2, MaxStack: stackLimit - 1}
	jt[SHL] = &Operation{Execute: opShl, ConstantGas: GasVerylow, MinStack: 2, MaxStack: stackLimit - 1}
	jt[SHR] = &Operation{Execute: opShr, ConstantGas: GasVerylow, MinStack: 2, MaxStack: stackLimit - 1}
	jt[SAR] = &Operation{Execute: opSar, ConstantGas: GasVerylow, MinStack: 2, MaxStack: stackLimit - 1}

	jt[KECCAK256] = &Operation{Execute: opKeccak256, ConstantGas: GasKeccak256, DynamicGas: gasKeccak256,
		MemorySize: memSizeOffsetLen(0, 1), MinStack: 2, MaxStack: stackLimit - 1}

	jt[ADDRESS] = &Operation{Execute: opAddress, ConstantGas: GasBase, MinStack: 0, MaxStack: stackLimit - 1}
	jt[BALANCE] = &Operation{Execute: opBalance, ConstantGas: 0, DynamicGas: gasBalance, MinStack: 1, MaxStack: stackLimit}
	jt[ORIGIN] = &Operation{Execute: opOrigin, ConstantGas: GasBase, MinStack: 0, MaxStack: stackLimit - 1}
	jt[CALLER] = &Operation{Execute: opCaller, ConstantGas: GasBase, MinStack: 0, MaxStack: stackLimit - 1}
	jt[CALLVALUE] = &Operation{Execute: opCallValue, ConstantGas: GasBase, MinStack: 0, MaxStack: stackLimit - 1}
	jt[CALLDATALOAD] = &Operation{Execute: opCallDataLoad, ConstantGas: GasVerylow, MinStack: 1, MaxStack: stackLimit}
	jt[CALLDATASIZE] = &Operation{Execute: opCallDataSize, ConstantGas: GasBase, MinStack: 0, MaxStack: stackLimit - 1}
	jt[CALLDATACOPY] = &Operation{Execute: opCallDataCopy, ConstantGas: GasVerylow, DynamicGas: gasCopy,
		MemorySize: memSizeOffsetLen(0, 2), MinStack: 3, MaxStack: stackLimit - 2}
	jt[CODESIZE] = &Operation{Execute: opCodeSize, ConstantGas: GasBase, MinStack: 0, MaxStack: stackLimit - 1}
	jt[CODECOPY] = &Operation{Execute: opCodeCopy, ConstantGas: GasVerylow, DynamicGas: gasCopy,
		MemorySize: memSizeOffsetLen(0, 2), MinStack: 3, MaxStack: stackLimit - 2}
	jt[GASPRICE] = &Operation{Execute: opGasPrice, ConstantGas: GasBase, MinStack: 0, MaxStack: stackLimit - 1}
	jt[EXTCODESIZE] = &Operation{Execute: opExtCodeSize, ConstantGas: 0, DynamicGas: gasExtCodeSize, MinStack: 1, MaxStack: stackLimit}
	jt[EXTCODECOPY] = &Operation{Execute: opExtCodeCopy, ConstantGas: 0, DynamicGas: gasExtCodeCopy,
		MemorySize: memSizeOffsetLen(1, 3), MinStack: 4, MaxStack: stackLimit - 3}
	jt[RETURNDATASIZE] = &Operation{Execute: opReturnDataSize, ConstantGas: GasBase, MinStack: 0, MaxStack: stackLimit - 1}
	jt[RETURNDATACOPY] = &Operation{Execute: opReturnDataCopy, ConstantGas: GasVerylow, DynamicGas: gasCopy,
		MemorySize: memSizeOffsetLen(0, 2), MinStack: 3, MaxStack: stackLimit - 2}
	jt[EXTCODEHASH] = &Operation{Execute: opExtCodeHash, ConstantGas: 0, DynamicGas: gasExtCodeHash, MinStack: 1, MaxStack: stackLimit}

	jt[BLOCKHASH] = &Operation{Execute: opBlockHash, ConstantGas: GasExt, MinStack: 1, MaxStack: stackLimit}
	jt[COINBASE] = &Operation{Execute: opCoinbase, ConstantGas: GasBase, MinStack: 0, MaxStack: stackLimit - 1}
	jt[TIMESTAMP] = &Operation{Execute: opTimestamp, ConstantGas: GasBase, MinStack: 0, MaxStack: stackLimit - 1}
	jt[NUMBER] = &Operation{Execute: opNumber, ConstantGas: GasBase, MinStack: 0, MaxStack: stackLimit - 1}
	jt[PREVRANDAO] = &Operation{Execute: opPrevRandao, ConstantGas: GasBase, MinStack: 0, MaxStack: stackLimit - 1}
	jt[GASLIMIT] = &Operation{Execute: opGasLimit, ConstantGas: GasBase, MinStack: 0, MaxStack: stackLimit - 1}
	jt[CHAINID] = &Operation{Execute: opChainID, ConstantGas: GasBase, MinStack: 0, MaxStack: stackLimit - 1}
	jt[SELFBALANCE] = &Operation{Execute: opSelfBalance, ConstantGas: GasLow, MinStack: 0, MaxStack: stackLimit - 1}
	jt[BASEFEE] = &Operation{Execute: opBaseFee, ConstantGas: GasBase, MinStack: 0, MaxStack: stackLimit - 1}
	jt[BLOBHASH] = &Operation{Execute: opBlobHash, ConstantGas: GasBlobHash, MinStack: 1, MaxStack: stackLimit}
	jt[BLOBBASEFEE] = &Operation{Execute: opBlobBaseFee, ConstantGas: GasBlobBaseFee, MinStack: 0, MaxStack: stackLimit - 1}

	jt[POP] = &Operation{Execute: opPop, ConstantGas: GasPop, MinStack: 1, MaxStack: stackLimit}
	jt[MLOAD] = &Operation{Execute: opMload, ConstantGas: GasMload, DynamicGas: gasMemoryExpansionOnly,
		MemorySize: func(s *Stack) (uint64, error) { off, err := s.Back(0); if err != nil { return 0, err }; if off.BitLen() > 63 { return 0, ErrGasUintOverflow }; return off.Uint64() + 32, nil },
		MinStack: 1, MaxStack: stackLimit}
	jt[MSTORE] = &Operation{Execute: opMstore, ConstantGas: GasMstore, DynamicGas: gasMemoryExpansionOnly,
		MemorySize: func(s *Stack) (uint64, error) { off, err := s.Back(0); if err != nil { return 0, err }; if off.BitLen() > 63 { return 0, ErrGasUintOverflow }; return off.Uint64() + 32, nil },
		MinStack: 2, MaxStack: stackLimit - 1}
	jt[MSTORE8] = &Operation{Execute: opMstore8, ConstantGas: GasMstore8, DynamicGas: gasMemoryExpansionOnly,
		MemorySize: func(s *Stack) (uint64, error) { off, err := s.Back(0); if err != nil { return 0, err }; if off.BitLen() > 63 { return 0, ErrGasUintOverflow }; return off.Uint64() + 1, nil },
		MinStack: 2, MaxStack: stackLimit - 1}
	jt[SLOAD] = &Operation{Execute: opSload, ConstantGas: 0, DynamicGas: gasSload, MinStack: 1, MaxStack: stackLimit}
	jt[SSTORE] = &Operation{Execute: opSstore, ConstantGas: 0, DynamicGas: gasSstore, MinStack: 2, MaxStack: stackLimit, Writes: true}
	jt[JUMP] = &Operation{Execute: opJump, ConstantGas: GasJump, MinStack: 1, MaxStack: stackLimit, Jumps: true}
	jt[JUMPI] = &Operation{Execute: opJumpi, ConstantGas: GasJumpi, MinStack: 2, MaxStack: stackLimit - 1, Jumps: true}
	jt[PC] = &Operation{Execute: opPc, ConstantGas: GasPc, MinStack: 0, MaxStack: stackLimit - 1}
	jt[MSIZE] = &Operation{Execute: opMsize, ConstantGas: GasMsize, MinStack: 0, MaxStack: stackLimit - 1}
	jt[GAS] = &Operation{Execute: opGas, ConstantGas: GasGas, MinStack: 0, MaxStack: stackLimit - 1}
	jt[JUMPDEST] = &Operation{Execute: opJumpdest, ConstantGas: GasJumpDest, MinStack: 0, MaxStack: stackLimit}
	jt[TLOAD] = &Operation{Execute: opTload, ConstantGas: GasTload, MinStack: 1, MaxStack: stackLimit}
	jt[TSTORE] = &Operation{Execute: opTstore, ConstantGas: GasTstore, MinStack: 2, MaxStack: stackLimit, Writes: true}
	jt[MCOPY] = &Operation{Execute: opMcopy, ConstantGas: GasMcopyBase, DynamicGas: gasCopy,
		MemorySize: func(s *Stack) (uint64, error) {
			dst, err := s.Back(0)
			if err != nil {
				return 0, err
			}
			src, err := s.Back(1)
			if err != nil {
				return 0, err
			}
			length, err := s.Back(2)
			if err != nil {
				return 0, err
			}
			if length.IsZero() {
				return 0, nil
			}
			if dst.BitLen() > 63 || src.BitLen() > 63 || length.BitLen() > 63 {
				return 0, ErrGasUintOverflow
			}
			d, sOff, l := dst.Uint64(), src.Uint64(), length.Uint64()
			end := d + l
			if sOff+l > end {
				end = sOff + l
			}
			return end, nil
		},
		MinStack: 3, MaxStack: stackLimit - 2}

	jt[BEGINSUB] = &Operation{Execute: opBeginsub, ConstantGas: GasBeginsub, MinStack: 0, MaxStack: stackLimit}
	jt[JUMPSUB] = &Operation{Execute: opJumpsub, ConstantGas: GasJumpsub, MinStack: 1, MaxStack: stackLimit, Jumps: true}
	jt[RETURNSUB] = &Operation{Execute: opReturnsub, ConstantGas: GasReturnsub, MinStack: 0, MaxStack: stackLimit, Jumps: true}

	jt[PUSH0] = &Operation{Execute: opPush0, ConstantGas: GasPush0, MinStack: 0, MaxStack: stackLimit - 1}
	for i := 0; i < 32; i++ {
		n := i + 1
		jt[int(PUSH1)+i] = &Operation{Execute: makePush(n), ConstantGas: GasPush, MinStack: 0, MaxStack: stackLimit - 1}
	}
	for i := 1; i <= 16; i++ {
		jt[int(DUP1)+i-1] = &Operation{Execute: makeDup(i), ConstantGas: GasDup, MinStack: minDupStack(i), MaxStack: maxDupStack(i)}
		jt[int(SWAP1)+i-1] = &Operation{Execute: makeSwap(i), ConstantGas: GasSwap, MinStack: minSwapStack(i), MaxStack: maxSwapStack(i)}
	}
	for i := 0; i <= 4; i++ {
		jt[int(LOG0)+i] = &Operation{Execute: makeLog(i), ConstantGas: GasLog, DynamicGas: gasLog(i),
			MemorySize: memSizeOffsetLen(0, 1), MinStack: 2 + i, MaxStack: stackLimit - 1 - i, Writes: true}
	}

	jt[CREATE] = &Operation{Execute: opCreate, ConstantGas: GasCreate, DynamicGas: gasCreate,
		MemorySize: memSizeOffsetLen(1, 2), MinStack: 3, MaxStack: stackLimit - 2, Writes: true}
	jt[CALL] = &Operation{Execute: opCall, ConstantGas: 0, DynamicGas: gasCall, MemorySize: memoryCall,
		MinStack: 7, MaxStack: stackLimit - 6, Writes: true}
	jt[CALLCODE] = &Operation{Execute: opCallCode, ConstantGas: 0, DynamicGas: gasCallCode, MemorySize: memoryCall,
		MinStack: 7, MaxStack: stackLimit - 6, Writes: true}
	jt[RETURN] = &Operation{Execute: opReturn, ConstantGas: GasReturn, MemorySize: memSizeOffsetLen(0, 1),
		MinStack: 2, MaxStack: stackLimit, Halts: true}
	jt[DELEGATECALL] = &Operation{Execute: opDelegateCall, ConstantGas: 0, DynamicGas: gasDelegateCall, MemorySize: memoryDelegateCall,
		MinStack: 6, MaxStack: stackLimit - 5}
	jt[CREATE2] = &Operation{Execute: opCreate2, ConstantGas: GasCreate, DynamicGas: gasCreate2,
		MemorySize: memSizeOffsetLen(1, 2), MinStack: 4, MaxStack: stackLimit - 3, Writes: true}
	jt[STATICCALL] = &Operation{Execute: opStaticCall, ConstantGas: 0, DynamicGas: gasStaticCall, MemorySize: memoryDelegateCall,
		MinStack: 6, MaxStack: stackLimit - 5}
	jt[REVERT] = &Operation{Execute: opRevert, ConstantGas: GasRevert, MemorySize: memSizeOffsetLen(0, 1),
		MinStack: 2, MaxStack: stackLimit, Halts: true}
	jt[INVALID] = &Operation{Execute: opInvalid, ConstantGas: 0, MinStack: 0, MaxStack: stackLimit, Halts: true}
	jt[SELFDESTRUCT] = &Operation{Execute: opSelfDestruct, ConstantGas: GasSelfdestruct, DynamicGas: gasSelfDestruct,
		MinStack: 1, MaxStack: stackLimit, Halts: true, Writes: true}

	return &jt
}

func memoryCall(stack *Stack) (uint64, error) {
	argsOff, err := stack.Back(3)
	if err != nil {
		return 0, err
	}
	argsLen, err := stack.Back(4)
	if err != nil {
		return 0, err
	}
	retOff, err := stack.Back(5)
	if err != nil {
		return 0, err
	}
	retLen, err := stack.Back(6)
	if err != nil {
		return 0, err
	}
	if argsOff.BitLen() > 63 || argsLen.BitLen() > 63 || retOff.BitLen() > 63 || retLen.BitLen() > 63 {
		return 0, ErrGasUintOverflow
	}
	argsEnd := argsOff.Uint64() + argsLen.Uint64()
	retEnd := retOff.Uint64() + retLen.Uint64()
	if argsEnd > retEnd {
		return argsEnd, nil
	}
	return retEnd, nil
}

func memoryDelegateCall(stack *Stack) (uint64, error) {
	argsOff, err := stack.Back(2)
	if err != nil {
		return 0, err
	}
	argsLen, err := stack.Back(3)
	if err != nil {
		return 0, err
	}
	retOff, err := stack.Back(4)
	if err != nil {
		return 0, err
	}
	retLen, err := stack.Back(5)
	if err != nil {
		return 0, err
	}
	if argsOff.BitLen() > 63 || argsLen.BitLen() > 63 || retOff.BitLen() > 63 || retLen.BitLen() > 63 {
		return 0, ErrGasUintOverflow
	}
	argsEnd := argsOff.Uint64() + argsLen.Uint64()
	retEnd := retOff.Uint64() + retLen.Uint64()
	if argsEnd > retEnd {
		return argsEnd, nil
	}
	return retEnd, nil
}

// invalidOpHalt is the trap a nil JumpTable entry produces.
func invalidOpHalt() error { return trap.New(trap.InvalidOpcode) }
