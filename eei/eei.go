// Package eei defines the Environment Interface the dispatch loop calls out
// through for everything outside pure computation: identity, block context,
// storage, logs, and sub-calls. It is the abstract boundary between this
// module's opcode core and whatever state backend, networking, and chain
// history a host chooses to wire in — none of which this module implements.
package eei

import (
	"encoding/hex"

	"github.com/eth2030/zkcore/word"
)

// Address is a 20-byte account address.
type Address [20]byte

// Hash is a 32-byte content hash (state root, code hash, block hash, ...).
type Hash [32]byte

func (a Address) String() string { return "0x" + hex.EncodeToString(a[:]) }
func (h Hash) String() string    { return "0x" + hex.EncodeToString(h[:]) }

func (a Address) IsZero() bool { return a == Address{} }
func (h Hash) IsZero() bool    { return h == Hash{} }

// BytesToAddress left-truncates/right-aligns b into a 20-byte Address.
func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > 20 {
		b = b[len(b)-20:]
	}
	copy(a[20-len(b):], b)
	return a
}

// BytesToHash left-truncates/right-aligns b into a 32-byte Hash.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > 32 {
		b = b[len(b)-32:]
	}
	copy(h[32-len(b):], b)
	return h
}

// CallKind distinguishes the sub-call family opcodes dispatch to.
type CallKind int

const (
	CallKindCall CallKind = iota
	CallKindCallCode
	CallKindDelegateCall
	CallKindStaticCall
)

// CallResult is the {returnCode, results} shape every sub-call and create
// returns: ReturnCode 0 means success, 1 means a controlled revert, and
// anything else is a frame-fatal trap the caller must itself propagate or
// absorb per the call family's semantics (CALL/CALLCODE/DELEGATECALL/
// STATICCALL swallow a 1 into a 0 stack push; CREATE surfaces failure as a
// zero address push).
type CallResult struct {
	ReturnCode uint8
	Results    []byte
	GasLeft    uint64
}

// CallParams bundles one sub-call's operands.
type CallParams struct {
	Kind     CallKind
	Caller   Address
	Address  Address
	Value    *word.Word
	Input    []byte
	Gas      uint64
	IsStatic bool
}

// CreateParams bundles one CREATE/CREATE2 operation's operands.
type CreateParams struct {
	Caller   Address
	Value    *word.Word
	InitCode []byte
	Gas      uint64
	Salt     *word.Word // nil for CREATE, set for CREATE2
}

// CreateResult is CREATE/CREATE2's outcome: the deployed address (zero on
// failure), remaining gas, and any revert data surfaced from the init code.
type CreateResult struct {
	Address Address
	GasLeft uint64
	Reverted bool
	Results []byte
}

// Environment is the full surface a running frame calls out through. A host
// binds this to its actual state database, block source, and sub-call
// executor; this module never implements it itself beyond an in-memory
// reference used by tests and the zkrun CLI.
type Environment interface {
	// Identity
	Address() Address
	Caller() Address
	Origin() Address
	CallValue() *word.Word
	CallData() []byte
	GasPrice() *word.Word
	Depth() int
	IsStatic() bool

	// Block context
	BlockNumber() *word.Word
	Timestamp() *word.Word
	GasLimit() uint64
	Coinbase() Address
	Difficulty() *word.Word
	BaseFee() *word.Word
	BlobBaseFee() *word.Word
	ChainID() *word.Word
	// BatchHash returns the hash of the batch numbered n, or zero if n is
	// not one of the 256 most recent batches (the BLOCKHASH window).
	BatchHash(n uint64) Hash

	// Remote account state
	Balance(addr Address) *word.Word
	CodeSize(addr Address) int
	CodeHash(addr Address) Hash
	CodeAt(addr Address) []byte
	Exists(addr Address) bool

	// Storage. Persistent values are the zkEVM state tree's shortest
	// big-endian encoding (zero ⇒ empty byte string), not fixed-width: a
	// zero-length SLoad result means 0. Transient storage (TLOAD/TSTORE)
	// never reaches the state tree and keeps the ordinary fixed-width word.
	SLoad(key Hash) []byte
	SStore(key Hash, value []byte)
	TLoad(key Hash) Hash
	TStore(key, value Hash)

	// Side effects
	Log(topics []Hash, data []byte)
	SelfDestruct(beneficiary Address)
	HasSelfDestructed() bool

	// Sub-calls
	Call(p CallParams) CallResult
	Create(p CreateParams) CreateResult

	// Gas / refunds
	Refund(delta int64)
	RefundBalance() uint64

	// Snapshot / revert for the call family's failure path.
	Snapshot() int
	RevertToSnapshot(id int)
}
