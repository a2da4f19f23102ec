package vm

import (
	"sync"

	"github.com/eth2030/zkcore/cryptoutil"
	"github.com/eth2030/zkcore/eei"
	"github.com/eth2030/zkcore/word"
)

// Frame is the per-call execution context the dispatch loop runs a
// contract's code against: caller/address/value/gas/code, the immutable
// identity fields a running frame needs without re-querying the
// environment, and its own operand/return-address stacks and memory.
type Frame struct {
	CallerAddress eei.Address
	Address       eei.Address
	Code          []byte
	CodeHash      [32]byte
	Input         []byte
	Gas           uint64
	Value         *word.Word

	Origin   eei.Address
	GasPrice *word.Word
	Depth    int
	IsStatic bool
	IsCreate bool
	IsDeploy bool
	Nonce    uint64

	Stack       *Stack
	Memory      *Memory
	ReturnStack *ReturnStack

	// LastReturnData holds the output of the most recently completed
	// sub-call this frame made, for RETURNDATASIZE/RETURNDATACOPY.
	LastReturnData []byte

	// messageGasLimit is the gas reserved for a pending sub-call, set by
	// the CALL-family operand computation and cleared by exactly one read
	// when the sub-call actually executes.
	messageGasLimit *uint64

	jumpdestOnce sync.Once
	jumpdests    []bool
	beginsubs    []bool

	warmAddresses map[eei.Address]bool
	warmSlots     map[slotKey]bool
}

type slotKey struct {
	addr eei.Address
	slot [32]byte
}

// MarkAddressWarm records addr as accessed, returning whether it was
// already warm (EIP-2929's cold/warm access-list check).
func (f *Frame) MarkAddressWarm(addr eei.Address) (wasWarm bool) {
	if f.warmAddresses == nil {
		f.warmAddresses = make(map[eei.Address]bool)
	}
	wasWarm = f.warmAddresses[addr]
	f.warmAddresses[addr] = true
	return wasWarm
}

// MarkSlotWarm records (addr, slot) as accessed, returning whether it was
// already warm.
func (f *Frame) MarkSlotWarm(addr eei.Address, slot [32]byte) (wasWarm bool) {
	if f.warmSlots == nil {
		f.warmSlots = make(map[slotKey]bool)
	}
	key := slotKey{addr: addr, slot: slot}
	wasWarm = f.warmSlots[key]
	f.warmSlots[key] = true
	return wasWarm
}

// NewFrame returns a fresh Frame with empty Stack/Memory/ReturnStack ready
// for execution.
func NewFrame(caller, addr eei.Address, value *word.Word, gas uint64) *Frame {
	return &Frame{
		CallerAddress: caller,
		Address:       addr,
		Value:         value,
		Gas:           gas,
		Stack:         NewStack(),
		Memory:        NewMemory(),
		ReturnStack:   NewReturnStack(),
	}
}

// SetCode installs code (and its content hash) for execution, e.g. after
// resolving a CALL target's account code.
func (f *Frame) SetCode(code []byte) {
	f.Code = code
	f.CodeHash = cryptoutil.Keccak256Array(code)
}

// GetOp returns the opcode at position n, or STOP past the end of code —
// the Yellow Paper's implicit-STOP-padding rule.
func (f *Frame) GetOp(n uint64) OpCode {
	if n < uint64(len(f.Code)) {
		return OpCode(f.Code[n])
	}
	return STOP
}

// UseGas attempts to deduct gas; returns false (leaving Gas unchanged) if
// insufficient.
func (f *Frame) UseGas(gas uint64) bool {
	if f.Gas < gas {
		return false
	}
	f.Gas -= gas
	return true
}

// SetMessageGasLimit records the gas a CALL-family operand computation
// reserved for the sub-call, for TakeMessageGasLimit to consume exactly
// once.
func (f *Frame) SetMessageGasLimit(gas uint64) {
	f.messageGasLimit = &gas
}

// TakeMessageGasLimit returns the reserved sub-call gas and clears it. A
// second call before SetMessageGasLimit is called again returns (0, false).
func (f *Frame) TakeMessageGasLimit() (uint64, bool) {
	if f.messageGasLimit == nil {
		return 0, false
	}
	g := *f.messageGasLimit
	f.messageGasLimit = nil
	return g, true
}

// jumpdestCache memoizes jumpdest/beginsub bitmaps by code content hash, so
// repeated execution of identical code (e.g. factory-deployed clones) skips
// the O(len(code)) scan after the first frame.
var jumpdestCache sync.Map // map[[32]byte]*bitmaps

type bitmaps struct {
	jumpdests []bool
	beginsubs []bool
}

// analyze scans Code once, splitting it into opcode positions and PUSH-data
// positions, and records which opcode positions are JUMPDEST or BEGINSUB.
// A position inside a PUSH's immediate data is never a valid jump target
// even if its byte value equals JUMPDEST's or BEGINSUB's opcode byte.
func (f *Frame) analyze() {
	f.jumpdestOnce.Do(func() {
		key := cryptoutil.Keccak256Array(f.Code)
		if cached, ok := jumpdestCache.Load(key); ok {
			b := cached.(*bitmaps)
			f.jumpdests = b.jumpdests
			f.beginsubs = b.beginsubs
			return
		}
		n := len(f.Code)
		jd := make([]bool, n)
		bs := make([]bool, n)
		for i := 0; i < n; {
			op := OpCode(f.Code[i])
			switch op {
			case JUMPDEST:
				jd[i] = true
			case BEGINSUB:
				bs[i] = true
			}
			if op.IsPush() {
				i += int(op-PUSH1) + 2
				continue
			}
			i++
		}
		b := &bitmaps{jumpdests: jd, beginsubs: bs}
		jumpdestCache.Store(key, b)
		f.jumpdests = jd
		f.beginsubs = bs
	})
}

// ValidJumpdest reports whether dest is an in-bounds JUMPDEST that is not
// inside PUSH immediate data.
func (f *Frame) ValidJumpdest(dest *word.Word) bool {
	if dest.BitLen() > 63 {
		return false
	}
	udest := dest.Uint64()
	if udest >= uint64(len(f.Code)) {
		return false
	}
	f.analyze()
	return f.jumpdests[udest]
}

// ValidBeginsub reports whether dest is an in-bounds BEGINSUB.
func (f *Frame) ValidBeginsub(dest *word.Word) bool {
	if dest.BitLen() > 63 {
		return false
	}
	udest := dest.Uint64()
	if udest >= uint64(len(f.Code)) {
		return false
	}
	f.analyze()
	return f.beginsubs[udest]
}
