// Package word implements the 256-bit unsigned word arithmetic the EVM
// operates over. It is a thin, EVM-semantics layer on top of
// github.com/holiman/uint256, adding the handful of operations (SIGNEXTEND,
// BYTE, SAR, EXP-with-byte-length) whose Yellow Paper edge cases don't map
// 1:1 onto the library's own method set.
package word

import "github.com/holiman/uint256"

// Word is a 256-bit unsigned integer with wraparound (mod 2^256) arithmetic.
type Word = uint256.Int

// Zero and One are convenience constructors. Each call returns a fresh Word
// so callers can mutate the result without aliasing a shared value.
func Zero() *Word { return new(Word) }

func One() *Word { return new(Word).SetOne() }

// FromUint64 returns a new Word set to v.
func FromUint64(v uint64) *Word { return new(Word).SetUint64(v) }

// FromBytes interprets b as a big-endian integer, left-padding with zero
// bytes and truncating to the low 256 bits if b is longer than 32 bytes.
func FromBytes(b []byte) *Word { return new(Word).SetBytes(b) }

// ShortBE returns w's shortest big-endian encoding: the empty byte string
// for zero, otherwise the minimal-length big-endian representation with no
// leading zero byte. This is the wire format SSTORE's value argument uses
// for zkEVM state-tree hash compatibility, distinct from the fixed 32-byte
// word Bytes32 produces.
func ShortBE(w *Word) []byte { return w.Bytes() }

// Add returns x+y mod 2^256.
func Add(x, y *Word) *Word { return new(Word).Add(x, y) }

// Sub returns x-y mod 2^256.
func Sub(x, y *Word) *Word { return new(Word).Sub(x, y) }

// Mul returns x*y mod 2^256.
func Mul(x, y *Word) *Word { return new(Word).Mul(x, y) }

// Div returns the Euclidean quotient x/y, or zero if y is zero.
func Div(x, y *Word) *Word { return new(Word).Div(x, y) }

// Mod returns x mod y, or zero if y is zero.
func Mod(x, y *Word) *Word { return new(Word).Mod(x, y) }

// SDiv returns the signed (two's-complement) quotient x/y, or zero if y is
// zero. SDiv(MinI256, -1) wraps to MinI256, matching the Yellow Paper's
// fixed-point overflow behavior.
func SDiv(x, y *Word) *Word { return new(Word).SDiv(x, y) }

// SMod returns the signed modulus, preserving the sign of the dividend, or
// zero if y is zero.
func SMod(x, y *Word) *Word { return new(Word).SMod(x, y) }

// AddMod returns (x+y) mod m, or zero if m is zero. The addition is carried
// out without truncating to 256 bits before the reduction.
func AddMod(x, y, m *Word) *Word { return new(Word).AddMod(x, y, m) }

// MulMod returns (x*y) mod m, or zero if m is zero.
func MulMod(x, y, m *Word) *Word { return new(Word).MulMod(x, y, m) }

// Exp returns base**exponent mod 2^256, along with the exponent's minimal
// big-endian byte length (0 for a zero exponent) for gas/VCM accounting.
// EXP(base, 0) = 1; EXP(0, e>0) = 0, both of which uint256.Exp already
// produces correctly.
func Exp(base, exponent *Word) (*Word, int) {
	result := new(Word).Exp(base, exponent)
	return result, expByteLen(exponent)
}

func expByteLen(e *Word) int {
	bits := e.BitLen()
	if bits == 0 {
		return 0
	}
	return (bits + 7) / 8
}

// SignExtend implements SIGNEXTEND(back, num) per the Yellow Paper: if
// back >= 31, num is returned unchanged; otherwise bit (8*back + 7) of num
// is examined and used to sign-extend the value.
func SignExtend(back, num *Word) *Word {
	if back.GtUint64(30) {
		return new(Word).Set(num)
	}
	bit := uint(back.Uint64())*8 + 7
	result := new(Word).Set(num)
	mask := new(Word).Lsh(One(), bit+1)
	mask.Sub(mask, One()) // mask = 2^(bit+1) - 1

	if result.Bit(int(bit)) == 1 {
		// Set all bits above `bit`.
		notMask := new(Word).Not(mask)
		result.Or(result, notMask)
	} else {
		result.And(result, mask)
	}
	return result
}

// Byte implements BYTE(pos, val): the byte of val at position pos, counted
// from the most significant end of the 32-byte representation, or zero if
// pos >= 32.
func Byte(pos, val *Word) *Word {
	if pos.GtUint64(31) {
		return Zero()
	}
	b := val.Bytes32()
	return FromUint64(uint64(b[pos.Uint64()]))
}

// Shl implements SHL(shift, value): value << shift, zero if shift >= 256.
func Shl(shift, value *Word) *Word {
	if shift.GtUint64(255) {
		return Zero()
	}
	return new(Word).Lsh(value, uint(shift.Uint64()))
}

// Shr implements SHR(shift, value): value >> shift (logical), zero if
// shift >= 256.
func Shr(shift, value *Word) *Word {
	if shift.GtUint64(255) {
		return Zero()
	}
	return new(Word).Rsh(value, uint(shift.Uint64()))
}

// Sar implements SAR(shift, value): arithmetic (sign-extending) right shift.
// If shift >= 256, the result is zero when value's sign bit is clear, and
// all-ones (-1) when it is set.
func Sar(shift, value *Word) *Word {
	if shift.GtUint64(255) {
		if value.Sign() >= 0 {
			return Zero()
		}
		allOnes := new(Word)
		allOnes.Not(allOnes)
		return allOnes
	}
	return new(Word).SRsh(value, uint(shift.Uint64()))
}

// Lt, Gt, Eq return 1 or 0 as a Word, matching the EVM comparison opcodes.
func Lt(x, y *Word) *Word { return boolWord(x.Lt(y)) }
func Gt(x, y *Word) *Word { return boolWord(x.Gt(y)) }
func Eq(x, y *Word) *Word { return boolWord(x.Eq(y)) }

// Slt, Sgt are the signed (two's-complement) comparisons.
func Slt(x, y *Word) *Word { return boolWord(x.Slt(y)) }
func Sgt(x, y *Word) *Word { return boolWord(x.Sgt(y)) }

// IsZero implements ISZERO.
func IsZero(x *Word) *Word { return boolWord(x.IsZero()) }

func boolWord(b bool) *Word {
	if b {
		return One()
	}
	return Zero()
}
