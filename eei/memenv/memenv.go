// Package memenv implements eei.Environment entirely in memory: a
// map-backed account store with no persistence, no networking, and no
// real consensus history. It exists for the zkrun CLI and for the vm
// package's own tests, the same role the teacher's rawdb.MemoryDB plays
// for state trie code — a database good enough to drive real logic
// through, not one any host should run in production.
package memenv

import (
	"sync"

	"github.com/eth2030/zkcore/cryptoutil"
	"github.com/eth2030/zkcore/eei"
	"github.com/eth2030/zkcore/word"
)

// Account is one address's mutable state: balance, code, nonce, and both
// storage classes.
type Account struct {
	Balance    *word.Word
	Code       []byte
	Nonce      uint64
	Storage    map[eei.Hash][]byte // shortest big-endian values; absent key == zero
	Transient  map[eei.Hash]eei.Hash
	destructed bool
}

func newAccount() *Account {
	return &Account{
		Balance:   word.Zero(),
		Storage:   make(map[eei.Hash][]byte),
		Transient: make(map[eei.Hash]eei.Hash),
	}
}

// LogEntry records one LOG opcode's output.
type LogEntry struct {
	Address eei.Address
	Topics  []eei.Hash
	Data    []byte
}

// CallFunc lets a host wire sub-call execution back through a real
// interpreter; Environment itself has no notion of how to run code. nil
// means "no host wired" — Call/Create against an account with code fail
// rather than silently no-op.
type CallFunc func(eei.CallParams) eei.CallResult

// CreateFunc is CallFunc's CREATE/CREATE2 counterpart.
type CreateFunc func(eei.CreateParams) eei.CreateResult

// Environment is the in-memory eei.Environment implementation.
type Environment struct {
	mu       sync.RWMutex
	accounts map[eei.Address]*Account

	batchHashes map[uint64]eei.Hash

	address   eei.Address
	caller    eei.Address
	origin    eei.Address
	callValue *word.Word
	callData  []byte
	gasPrice  *word.Word
	depth     int
	isStatic  bool

	blockNumber *word.Word
	timestamp   *word.Word
	gasLimit    uint64
	coinbase    eei.Address
	difficulty  *word.Word
	baseFee     *word.Word
	blobBaseFee *word.Word
	chainID     *word.Word

	logs           []LogEntry
	refund         uint64
	selfDestructed bool

	snapshots []snapshot

	CallFn   CallFunc
	CreateFn CreateFunc
}

type snapshot struct {
	accounts map[eei.Address]*Account
	refund   uint64
}

// New returns an Environment for one frame's identity/block context. Its
// account store starts empty; callers populate it via SetBalance/SetCode
// before running a frame.
func New(address, caller, origin eei.Address, callValue *word.Word, callData []byte) *Environment {
	return &Environment{
		accounts:    make(map[eei.Address]*Account),
		batchHashes: make(map[uint64]eei.Hash),
		address:     address,
		caller:      caller,
		origin:      origin,
		callValue:   callValue,
		callData:    callData,
		gasPrice:    word.Zero(),
		blockNumber: word.Zero(),
		timestamp:   word.Zero(),
		difficulty:  word.Zero(),
		baseFee:     word.Zero(),
		blobBaseFee: word.Zero(),
		chainID:     word.Zero(),
	}
}

func (e *Environment) account(addr eei.Address) *Account {
	a, ok := e.accounts[addr]
	if !ok {
		a = newAccount()
		e.accounts[addr] = a
	}
	return a
}

// SetBalance sets addr's balance, creating the account if absent.
func (e *Environment) SetBalance(addr eei.Address, bal *word.Word) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.account(addr).Balance = bal
}

// SetCode installs addr's code, creating the account if absent.
func (e *Environment) SetCode(addr eei.Address, code []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.account(addr).Code = code
}

// SetBatchHash records the hash returned for BatchHash(n).
func (e *Environment) SetBatchHash(n uint64, h eei.Hash) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.batchHashes[n] = h
}

// SetBlockContext overwrites the block-context fields BLOCKNUMBER,
// TIMESTAMP, and friends report.
func (e *Environment) SetBlockContext(number, timestamp *word.Word, gasLimit uint64, coinbase eei.Address, baseFee, blobBaseFee, chainID *word.Word) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.blockNumber = number
	e.timestamp = timestamp
	e.gasLimit = gasLimit
	e.coinbase = coinbase
	e.baseFee = baseFee
	e.blobBaseFee = blobBaseFee
	e.chainID = chainID
}

// Logs returns every LOG emitted so far.
func (e *Environment) Logs() []LogEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]LogEntry(nil), e.logs...)
}

// --- eei.Environment ---

func (e *Environment) Address() eei.Address   { return e.address }
func (e *Environment) Caller() eei.Address    { return e.caller }
func (e *Environment) Origin() eei.Address    { return e.origin }
func (e *Environment) CallValue() *word.Word  { return e.callValue }
func (e *Environment) CallData() []byte       { return e.callData }
func (e *Environment) GasPrice() *word.Word   { return e.gasPrice }
func (e *Environment) Depth() int             { return e.depth }
func (e *Environment) IsStatic() bool         { return e.isStatic }

func (e *Environment) BlockNumber() *word.Word { return e.blockNumber }
func (e *Environment) Timestamp() *word.Word   { return e.timestamp }
func (e *Environment) GasLimit() uint64        { return e.gasLimit }
func (e *Environment) Coinbase() eei.Address   { return e.coinbase }
func (e *Environment) Difficulty() *word.Word  { return e.difficulty }
func (e *Environment) BaseFee() *word.Word     { return e.baseFee }
func (e *Environment) BlobBaseFee() *word.Word { return e.blobBaseFee }
func (e *Environment) ChainID() *word.Word     { return e.chainID }

func (e *Environment) BatchHash(n uint64) eei.Hash {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.batchHashes[n]
}

func (e *Environment) Balance(addr eei.Address) *word.Word {
	e.mu.RLock()
	defer e.mu.RUnlock()
	a, ok := e.accounts[addr]
	if !ok {
		return word.Zero()
	}
	return new(word.Word).Set(a.Balance)
}

func (e *Environment) CodeSize(addr eei.Address) int {
	return len(e.CodeAt(addr))
}

func (e *Environment) CodeHash(addr eei.Address) eei.Hash {
	code := e.CodeAt(addr)
	if len(code) == 0 {
		return eei.Hash{}
	}
	var h eei.Hash
	copy(h[:], cryptoutil.PoseidonBytecodeHash(code))
	return h
}

func (e *Environment) CodeAt(addr eei.Address) []byte {
	e.mu.RLock()
	defer e.mu.RUnlock()
	a, ok := e.accounts[addr]
	if !ok {
		return nil
	}
	return a.Code
}

func (e *Environment) Exists(addr eei.Address) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	a, ok := e.accounts[addr]
	return ok && !a.destructed
}

// SLoad returns the shortest big-endian value stored at key, or nil if the
// slot was never written or was last written as zero.
func (e *Environment) SLoad(key eei.Hash) []byte {
	e.mu.RLock()
	defer e.mu.RUnlock()
	a, ok := e.accounts[e.address]
	if !ok {
		return nil
	}
	return a.Storage[key]
}

// SStore records value (already in shortest big-endian form) at key. A
// zero-length value deletes the slot rather than storing an empty entry,
// so SLoad of an unset and a zeroed-then-cleared slot are indistinguishable.
func (e *Environment) SStore(key eei.Hash, value []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	acc := e.account(e.address)
	if len(value) == 0 {
		delete(acc.Storage, key)
		return
	}
	acc.Storage[key] = append([]byte(nil), value...)
}

func (e *Environment) TLoad(key eei.Hash) eei.Hash {
	e.mu.RLock()
	defer e.mu.RUnlock()
	a, ok := e.accounts[e.address]
	if !ok {
		return eei.Hash{}
	}
	return a.Transient[key]
}

func (e *Environment) TStore(key, value eei.Hash) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.account(e.address).Transient[key] = value
}

func (e *Environment) Log(topics []eei.Hash, data []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.logs = append(e.logs, LogEntry{Address: e.address, Topics: topics, Data: data})
}

func (e *Environment) SelfDestruct(beneficiary eei.Address) {
	e.mu.Lock()
	defer e.mu.Unlock()
	self := e.account(e.address)
	ben := e.account(beneficiary)
	ben.Balance = word.Add(ben.Balance, self.Balance)
	self.Balance = word.Zero()
	self.destructed = true
	e.selfDestructed = true
}

func (e *Environment) HasSelfDestructed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.selfDestructed
}

func (e *Environment) Call(p eei.CallParams) eei.CallResult {
	if p.Value != nil && !p.Value.IsZero() {
		e.mu.Lock()
		from := e.account(p.Caller)
		to := e.account(p.Address)
		from.Balance = word.Sub(from.Balance, p.Value)
		to.Balance = word.Add(to.Balance, p.Value)
		e.mu.Unlock()
	}
	if len(e.CodeAt(p.Address)) == 0 {
		// Calling an account with no code always succeeds with empty
		// output, same as a plain value transfer to an EOA.
		return eei.CallResult{ReturnCode: 0, GasLeft: p.Gas}
	}
	if e.CallFn == nil {
		return eei.CallResult{ReturnCode: 2}
	}
	return e.CallFn(p)
}

func (e *Environment) Create(p eei.CreateParams) eei.CreateResult {
	if e.CreateFn == nil {
		return eei.CreateResult{}
	}
	return e.CreateFn(p)
}

func (e *Environment) Refund(delta int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if delta < 0 {
		d := uint64(-delta)
		if d > e.refund {
			d = e.refund
		}
		e.refund -= d
		return
	}
	e.refund += uint64(delta)
}

func (e *Environment) RefundBalance() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.refund
}

func (e *Environment) Snapshot() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	clone := make(map[eei.Address]*Account, len(e.accounts))
	for addr, acc := range e.accounts {
		c := *acc
		c.Storage = make(map[eei.Hash][]byte, len(acc.Storage))
		for k, v := range acc.Storage {
			c.Storage[k] = append([]byte(nil), v...)
		}
		c.Transient = make(map[eei.Hash]eei.Hash, len(acc.Transient))
		for k, v := range acc.Transient {
			c.Transient[k] = v
		}
		c.Balance = new(word.Word).Set(acc.Balance)
		clone[addr] = &c
	}
	e.snapshots = append(e.snapshots, snapshot{accounts: clone, refund: e.refund})
	return len(e.snapshots) - 1
}

func (e *Environment) RevertToSnapshot(id int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if id < 0 || id >= len(e.snapshots) {
		return
	}
	s := e.snapshots[id]
	e.accounts = s.accounts
	e.refund = s.refund
	e.snapshots = e.snapshots[:id]
}
