package word

import (
	"testing"

	"github.com/holiman/uint256"
)

func TestAddWraparound(t *testing.T) {
	max := new(Word).Not(Zero()) // 2^256 - 1
	got := Add(max, One())
	if !got.IsZero() {
		t.Fatalf("ADD(2^256-1, 1) = %s, want 0", got.Hex())
	}
}

func TestDivByZero(t *testing.T) {
	seven := FromUint64(7)
	got := Div(seven, Zero())
	if !got.IsZero() {
		t.Fatalf("DIV(7, 0) = %s, want 0", got.Hex())
	}
}

func TestModByZero(t *testing.T) {
	if got := Mod(FromUint64(7), Zero()); !got.IsZero() {
		t.Fatalf("MOD(7, 0) = %s, want 0", got.Hex())
	}
}

func TestSDivByZero(t *testing.T) {
	if got := SDiv(FromUint64(7), Zero()); !got.IsZero() {
		t.Fatalf("SDIV(7, 0) = %s, want 0", got.Hex())
	}
}

func TestSDivMinOverflow(t *testing.T) {
	minI256, _ := uint256.FromHex("0x8000000000000000000000000000000000000000000000000000000000000000")
	negOne := new(Word).Not(Zero())
	got := SDiv(minI256, negOne)
	if got.Cmp(minI256) != 0 {
		t.Fatalf("SDIV(MinI256, -1) = %s, want %s", got.Hex(), minI256.Hex())
	}
}

func TestSModPreservesDividendSign(t *testing.T) {
	// -8 mod 3 in EVM two's-complement terms == -(8 mod 3) == -2.
	negEight := new(Word).Neg(FromUint64(8))
	three := FromUint64(3)
	got := SMod(negEight, three)
	want := new(Word).Neg(FromUint64(2))
	if got.Cmp(want) != 0 {
		t.Fatalf("SMOD(-8, 3) = %s, want %s", got.Hex(), want.Hex())
	}
}

func TestAddModMulModByZeroModulus(t *testing.T) {
	a, b := FromUint64(5), FromUint64(6)
	if got := AddMod(a, b, Zero()); !got.IsZero() {
		t.Fatalf("ADDMOD(5,6,0) = %s, want 0", got.Hex())
	}
	if got := MulMod(a, b, Zero()); !got.IsZero() {
		t.Fatalf("MULMOD(5,6,0) = %s, want 0", got.Hex())
	}
}

func TestExpZeroExponent(t *testing.T) {
	got, byteLen := Exp(FromUint64(42), Zero())
	if got.Cmp(One()) != 0 {
		t.Fatalf("EXP(42,0) = %s, want 1", got.Hex())
	}
	if byteLen != 0 {
		t.Fatalf("byteLen = %d, want 0", byteLen)
	}
}

func TestExpZeroBaseNonzeroExponent(t *testing.T) {
	got, byteLen := Exp(Zero(), FromUint64(3))
	if !got.IsZero() {
		t.Fatalf("EXP(0,3) = %s, want 0", got.Hex())
	}
	if byteLen != 1 {
		t.Fatalf("byteLen = %d, want 1", byteLen)
	}
}

func TestSignExtendBoundary(t *testing.T) {
	// k=0, v=0xff -> sign bit of byte 0 is set -> all ones (2^256-1).
	got := SignExtend(Zero(), FromUint64(0xff))
	allOnes := new(Word).Not(Zero())
	if got.Cmp(allOnes) != 0 {
		t.Fatalf("SIGNEXTEND(0, 0xff) = %s, want all-ones", got.Hex())
	}

	// k=0, v=0x7f -> sign bit clear -> unchanged.
	got = SignExtend(Zero(), FromUint64(0x7f))
	if got.Cmp(FromUint64(0x7f)) != 0 {
		t.Fatalf("SIGNEXTEND(0, 0x7f) = %s, want 0x7f", got.Hex())
	}

	// k=31 -> unchanged regardless of value.
	v := FromUint64(0xdeadbeef)
	got = SignExtend(FromUint64(31), v)
	if got.Cmp(v) != 0 {
		t.Fatalf("SIGNEXTEND(31, v) = %s, want v unchanged", got.Hex())
	}
}

func TestSignExtendIdempotent(t *testing.T) {
	k := FromUint64(3)
	v := FromUint64(0xabcdef)
	once := SignExtend(k, v)
	twice := SignExtend(k, once)
	if once.Cmp(twice) != 0 {
		t.Fatalf("SIGNEXTEND not idempotent: once=%s twice=%s", once.Hex(), twice.Hex())
	}
}

func TestSarWithSign(t *testing.T) {
	// SAR(1, 0x80...00) = 0xc0...00
	signBit, _ := uint256.FromHex("0x8000000000000000000000000000000000000000000000000000000000000000")
	got := Sar(One(), signBit)
	want, _ := uint256.FromHex("0xc000000000000000000000000000000000000000000000000000000000000000")
	if got.Cmp(want) != 0 {
		t.Fatalf("SAR(1, 0x80..00) = %s, want %s", got.Hex(), want.Hex())
	}

	// SAR(256, 0x80...00) = all-ones (shift beyond width with sign bit set).
	got = Sar(FromUint64(256), signBit)
	allOnes := new(Word).Not(Zero())
	if got.Cmp(allOnes) != 0 {
		t.Fatalf("SAR(256, 0x80..00) = %s, want all-ones", got.Hex())
	}
}

func TestShlMatchesMultiplyByPowerOfTwo(t *testing.T) {
	v := FromUint64(7)
	for n := uint64(0); n < 256; n += 17 {
		got := Shl(FromUint64(n), v)
		want := Mul(v, new(Word).Exp(FromUint64(2), FromUint64(n)))
		if got.Cmp(want) != 0 {
			t.Fatalf("SHL(%d, 7) = %s, want %s", n, got.Hex(), want.Hex())
		}
	}
}

func TestShlShrBeyond256(t *testing.T) {
	v := FromUint64(1)
	if got := Shl(FromUint64(256), v); !got.IsZero() {
		t.Fatalf("SHL(256, 1) = %s, want 0", got.Hex())
	}
	if got := Shr(FromUint64(256), v); !got.IsZero() {
		t.Fatalf("SHR(256, 1) = %s, want 0", got.Hex())
	}
}

func TestByteBoundary(t *testing.T) {
	v := FromUint64(0x0102030405060708)
	// Byte 31 (least significant) should be 0x08.
	got := Byte(FromUint64(31), v)
	if got.Cmp(FromUint64(0x08)) != 0 {
		t.Fatalf("BYTE(31, v) = %s, want 0x08", got.Hex())
	}
	// Out of range -> 0.
	got = Byte(FromUint64(32), v)
	if !got.IsZero() {
		t.Fatalf("BYTE(32, v) = %s, want 0", got.Hex())
	}
}

func TestComparisons(t *testing.T) {
	a, b := FromUint64(3), FromUint64(5)
	if !Lt(a, b).Eq(One()) {
		t.Fatal("LT(3,5) should be 1")
	}
	if !Gt(b, a).Eq(One()) {
		t.Fatal("GT(5,3) should be 1")
	}
	if !Eq(a, a).Eq(One()) {
		t.Fatal("EQ(3,3) should be 1")
	}
	if !IsZero(Zero()).Eq(One()) {
		t.Fatal("ISZERO(0) should be 1")
	}
}

func TestSltSgt(t *testing.T) {
	negOne := new(Word).Neg(One())
	one := One()
	if !Slt(negOne, one).Eq(One()) {
		t.Fatal("SLT(-1, 1) should be 1")
	}
	if !Sgt(one, negOne).Eq(One()) {
		t.Fatal("SGT(1, -1) should be 1")
	}
	// Unsigned comparison would say the opposite since -1 is the largest u256.
	if !Gt(negOne, one).Eq(One()) {
		t.Fatal("GT(-1 as u256, 1) should be 1 (unsigned)")
	}
}
