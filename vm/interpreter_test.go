package vm

import (
	"errors"
	"testing"

	"github.com/eth2030/zkcore/chainconfig"
	"github.com/eth2030/zkcore/eei"
	"github.com/eth2030/zkcore/eei/memenv"
	"github.com/eth2030/zkcore/trap"
	"github.com/eth2030/zkcore/vcm"
	"github.com/eth2030/zkcore/word"
)

func runCode(t *testing.T, code []byte, gas uint64, setup func(env *memenv.Environment, frame *Frame)) ([]byte, *trap.Halt, *vcm.Manager) {
	t.Helper()
	caller := eei.BytesToAddress([]byte{0x11})
	addr := eei.BytesToAddress([]byte{0x22})
	env := memenv.New(addr, caller, caller, word.Zero(), nil)
	env.SetCode(addr, code)

	frame := NewFrame(caller, addr, word.Zero(), gas)
	frame.SetCode(code)
	frame.Origin = caller
	frame.GasPrice = word.Zero()

	if setup != nil {
		setup(env, frame)
	}

	counters := vcm.New()
	evm := NewEVM(chainconfig.Default())
	out, halt := evm.Run(frame, env, counters)
	return out, halt, counters
}

// PUSH1 0x2a PUSH1 0x00 MSTORE PUSH1 0x20 PUSH1 0x00 RETURN
func TestReturnWord(t *testing.T) {
	code := []byte{
		byte(PUSH1), 0x2a,
		byte(PUSH1), 0x00,
		byte(MSTORE),
		byte(PUSH1), 0x20,
		byte(PUSH1), 0x00,
		byte(RETURN),
	}
	out, halt, _ := runCode(t, code, 100000, nil)
	if halt.Code != trap.Return {
		t.Fatalf("halt = %s, want RETURN", halt.Code)
	}
	got := word.FromBytes(out)
	if got.Cmp(word.FromUint64(0x2a)) != 0 {
		t.Fatalf("returned word = %s, want 42", got.Hex())
	}
}

func TestStop(t *testing.T) {
	code := []byte{byte(STOP)}
	out, halt, _ := runCode(t, code, 100000, nil)
	if halt.Code != trap.Stop {
		t.Fatalf("halt = %s, want STOP", halt.Code)
	}
	if out != nil {
		t.Fatalf("STOP returned non-nil output: %x", out)
	}
}

// PUSH1 0x01 PUSH1 0x00 MSTORE PUSH1 0x01 PUSH1 0x1f REVERT
func TestRevertPreservesData(t *testing.T) {
	code := []byte{
		byte(PUSH1), 0x01,
		byte(PUSH1), 0x00,
		byte(MSTORE),
		byte(PUSH1), 0x01,
		byte(PUSH1), 0x1f,
		byte(REVERT),
	}
	out, halt, _ := runCode(t, code, 100000, nil)
	if halt.Code != trap.Revert {
		t.Fatalf("halt = %s, want REVERT", halt.Code)
	}
	if len(out) != 1 || out[0] != 1 {
		t.Fatalf("revert output = %x, want [1]", out)
	}
}

func TestInvalidOpcode(t *testing.T) {
	code := []byte{0xfe}
	_, halt, _ := runCode(t, code, 100000, nil)
	if halt.Code != trap.InvalidOpcode {
		t.Fatalf("halt = %s, want INVALID_OPCODE", halt.Code)
	}
}

// JUMPDEST at pc=3: PUSH1 0x03 JUMP JUMPDEST STOP
func TestJumpToValidDest(t *testing.T) {
	code := []byte{
		byte(PUSH1), 0x03,
		byte(JUMP),
		byte(JUMPDEST),
		byte(STOP),
	}
	_, halt, _ := runCode(t, code, 100000, nil)
	if halt.Code != trap.Stop {
		t.Fatalf("halt = %s, want STOP", halt.Code)
	}
}

// PUSH1 0x02 JUMP (destination 2 is the JUMP opcode itself, not a JUMPDEST).
func TestJumpToInvalidDest(t *testing.T) {
	code := []byte{
		byte(PUSH1), 0x02,
		byte(JUMP),
	}
	_, halt, _ := runCode(t, code, 100000, nil)
	if halt.Code != trap.InvalidJump {
		t.Fatalf("halt = %s, want INVALID_JUMP", halt.Code)
	}
}

// SSTORE then SLOAD round-trips through the environment.
func TestSstoreSload(t *testing.T) {
	code := []byte{
		byte(PUSH1), 0x2a,
		byte(PUSH1), 0x00,
		byte(SSTORE),
		byte(PUSH1), 0x00,
		byte(SLOAD),
		byte(PUSH1), 0x00,
		byte(MSTORE),
		byte(PUSH1), 0x20,
		byte(PUSH1), 0x00,
		byte(RETURN),
	}
	out, halt, _ := runCode(t, code, 100000, nil)
	if halt.Code != trap.Return {
		t.Fatalf("halt = %s, want RETURN", halt.Code)
	}
	if word.FromBytes(out).Cmp(word.FromUint64(0x2a)) != 0 {
		t.Fatalf("SLOAD result = %x, want 42", out)
	}
}

// SSTORE inside a static frame must trap rather than write.
func TestSstoreInStaticFrame(t *testing.T) {
	code := []byte{
		byte(PUSH1), 0x01,
		byte(PUSH1), 0x00,
		byte(SSTORE),
	}
	_, halt, _ := runCode(t, code, 100000, func(env *memenv.Environment, frame *Frame) {
		frame.IsStatic = true
	})
	if halt.Code != trap.StaticStateChange {
		t.Fatalf("halt = %s, want STATIC_STATE_CHANGE", halt.Code)
	}
}

// SELFDESTRUCT inside a static frame must trap before transferring balance.
func TestSelfDestructInStaticFrame(t *testing.T) {
	code := []byte{
		byte(PUSH1), 0x01,
		0xff, // SELFDESTRUCT
	}
	_, halt, _ := runCode(t, code, 100000, func(env *memenv.Environment, frame *Frame) {
		frame.IsStatic = true
	})
	if halt.Code != trap.StaticStateChange {
		t.Fatalf("halt = %s, want STATIC_STATE_CHANGE", halt.Code)
	}
}

// CALL (value 0) to an address with no code succeeds trivially.
func TestCallToEOA(t *testing.T) {
	target := eei.BytesToAddress([]byte{0x33})
	code := []byte{
		byte(PUSH1), 0x00, // retLen
		byte(PUSH1), 0x00, // retOff
		byte(PUSH1), 0x00, // argsLen
		byte(PUSH1), 0x00, // argsOff
		byte(PUSH1), 0x00, // value
		byte(PUSH1), 0x33, // addr
		byte(PUSH2), 0x27, 0x10, // gas = 10000
		0xf1, // CALL
		byte(PUSH1), 0x00,
		byte(MSTORE),
		byte(PUSH1), 0x20,
		byte(PUSH1), 0x00,
		byte(RETURN),
	}
	out, halt, counters := runCode(t, code, 1_000_000, func(env *memenv.Environment, frame *Frame) {
		env.SetBalance(frame.Address, word.FromUint64(1000))
		_ = target
	})
	if halt.Code != trap.Return {
		t.Fatalf("halt = %s, want RETURN", halt.Code)
	}
	if word.FromBytes(out).Cmp(word.One()) != 0 {
		t.Fatalf("CALL success flag = %x, want 1", out)
	}
	if counters.Count(vcm.OpCall) != 1 {
		t.Fatalf("OpCall counter = %d, want 1", counters.Count(vcm.OpCall))
	}
}

// CALL with a nonzero value but executed inside a static frame must trap.
func TestCallWithValueInStaticFrame(t *testing.T) {
	code := []byte{
		byte(PUSH1), 0x00,
		byte(PUSH1), 0x00,
		byte(PUSH1), 0x00,
		byte(PUSH1), 0x00,
		byte(PUSH1), 0x01, // value != 0
		byte(PUSH1), 0x33,
		byte(PUSH2), 0x27, 0x10,
		0xf1,
	}
	_, halt, _ := runCode(t, code, 1_000_000, func(env *memenv.Environment, frame *Frame) {
		frame.IsStatic = true
	})
	if halt.Code != trap.StaticStateChange {
		t.Fatalf("halt = %s, want STATIC_STATE_CHANGE", halt.Code)
	}
}

func TestStackUnderflowTrap(t *testing.T) {
	code := []byte{byte(ADD)}
	_, halt, _ := runCode(t, code, 100000, nil)
	if halt.Code != trap.StackUnderflow {
		t.Fatalf("halt = %s, want STACK_UNDERFLOW", halt.Code)
	}
}

func TestOutOfGasTrap(t *testing.T) {
	code := []byte{byte(PUSH1), 0x01}
	_, halt, _ := runCode(t, code, 2, nil)
	if halt.Code != trap.OutOfGas {
		t.Fatalf("halt = %s, want OUT_OF_GAS", halt.Code)
	}
}

func TestTranslateErrPassesThroughHalt(t *testing.T) {
	h := trap.New(trap.InvalidJump)
	if got := translateErr(h); got != h {
		t.Fatalf("translateErr did not pass through an existing *trap.Halt")
	}
}

// CREATE with a 1-byte init code delegates to env.CreateFn and pushes the
// resulting address.
func TestCreate(t *testing.T) {
	code := []byte{
		byte(PUSH1), 0x01, // size
		byte(PUSH1), 0x00, // offset
		byte(PUSH1), 0x00, // value
		byte(CREATE),
		byte(PUSH1), 0x00,
		byte(MSTORE),
		byte(PUSH1), 0x20,
		byte(PUSH1), 0x00,
		byte(RETURN),
	}
	deployed := eei.BytesToAddress([]byte{0x99})
	_, halt, counters := runCode(t, code, 1_000_000, func(env *memenv.Environment, frame *Frame) {
		env.SetBalance(frame.Address, word.FromUint64(1000))
		frame.Memory.Resize(32)
		frame.Memory.Set(0, 1, []byte{0x60}) // init code byte, irrelevant to the stub
		env.CreateFn = func(p eei.CreateParams) eei.CreateResult {
			return eei.CreateResult{Address: deployed, GasLeft: p.Gas / 2}
		}
	})
	if halt.Code != trap.Return {
		t.Fatalf("halt = %s, want RETURN", halt.Code)
	}
	if counters.Count(vcm.OpCreate) != 1 {
		t.Fatalf("OpCreate counter = %d, want 1", counters.Count(vcm.OpCreate))
	}
}

func TestTranslateErrWrapsSentinels(t *testing.T) {
	if got := translateErr(ErrStackOverflow); got.Code != trap.StackOverflow {
		t.Fatalf("translateErr(ErrStackOverflow) = %s, want STACK_OVERFLOW", got.Code)
	}
	if got := translateErr(errors.New("boom")); got.Code != trap.InvalidOpcode {
		t.Fatalf("translateErr(unknown) = %s, want INVALID_OPCODE", got.Code)
	}
}
