// Package poseidon implements the Poseidon sponge hash over the BN254
// scalar field, used in place of Keccak for opcodes whose zk-proving cost
// model favors an algebraic hash (EXTCODEHASH's bytecode digest).
//
// The permutation follows the standard partial-round construction: T-wide
// state, FullRounds full S-box rounds split evenly before and after
// PartialRounds partial rounds (S-box applied only to state[0]), an MDS
// matrix mix after every round, and a fresh round constant added to every
// lane before each round.
package poseidon

import (
	"crypto/sha256"
	"math/big"
)

// bn254ScalarField is the order of the BN254 (alt_bn128) scalar field.
var bn254ScalarField, _ = new(big.Int).SetString(
	"21888242871839275222246405745257275088548364400416034343698204186575808495617", 10)

// Params bundles the permutation's fixed parameters: width, round counts,
// round constants and MDS matrix, all reduced mod Field.
type Params struct {
	T             int
	FullRounds    int
	PartialRounds int
	RoundConstants []*big.Int
	MDS           [][]*big.Int
	Field         *big.Int
}

// DefaultPoseidonParams returns the T=3, 8-full/57-partial-round parameter
// set used throughout this package (rate 2, capacity 1 over BN254).
func DefaultPoseidonParams() *Params {
	const t = 3
	const full = 8
	const partial = 57
	field := bn254ScalarField
	return &Params{
		T:              t,
		FullRounds:     full,
		PartialRounds:  partial,
		RoundConstants: generateRoundConstants(t, full+partial, field),
		MDS:            generateMDS(t, field),
		Field:          field,
	}
}

// SBox returns x^5 mod field, the permutation's non-linear layer.
func SBox(x, field *big.Int) *big.Int {
	v := new(big.Int).Mod(x, field)
	sq := new(big.Int).Mul(v, v)
	sq.Mod(sq, field)
	fourth := new(big.Int).Mul(sq, sq)
	fourth.Mod(fourth, field)
	fifth := new(big.Int).Mul(fourth, v)
	fifth.Mod(fifth, field)
	return fifth
}

// MDSMul returns mds * state (matrix-vector product) reduced mod field.
func MDSMul(state []*big.Int, mds [][]*big.Int, field *big.Int) []*big.Int {
	t := len(state)
	out := make([]*big.Int, t)
	for i := 0; i < t; i++ {
		acc := new(big.Int)
		for j := 0; j < t; j++ {
			term := new(big.Int).Mul(mds[i][j], state[j])
			acc.Add(acc, term)
		}
		acc.Mod(acc, field)
		out[i] = acc
	}
	return out
}

// permute runs the full Poseidon permutation over state in place and
// returns it.
func permute(params *Params, state []*big.Int) []*big.Int {
	t := params.T
	halfFull := params.FullRounds / 2
	round := 0

	applyFull := func() {
		rc := params.RoundConstants[round*t : round*t+t]
		for i := 0; i < t; i++ {
			state[i] = new(big.Int).Add(state[i], rc[i])
			state[i].Mod(state[i], params.Field)
			state[i] = SBox(state[i], params.Field)
		}
		state = MDSMul(state, params.MDS, params.Field)
		round++
	}
	applyPartial := func() {
		rc := params.RoundConstants[round*t : round*t+t]
		for i := 0; i < t; i++ {
			state[i] = new(big.Int).Add(state[i], rc[i])
			state[i].Mod(state[i], params.Field)
		}
		state[0] = SBox(state[0], params.Field)
		state = MDSMul(state, params.MDS, params.Field)
		round++
	}

	for i := 0; i < halfFull; i++ {
		applyFull()
	}
	for i := 0; i < params.PartialRounds; i++ {
		applyPartial()
	}
	for i := 0; i < halfFull; i++ {
		applyFull()
	}
	return state
}

// rate is the number of lanes absorbed/squeezed per permutation call; the
// remaining lane is capacity.
func rate(params *Params) int { return params.T - 1 }

// PoseidonSponge is a sponge construction over the Poseidon permutation,
// absorbing and squeezing params.T-1 field elements per block.
type PoseidonSponge struct {
	params   *Params
	state    []*big.Int
	absorbed int // lanes filled in the current (not yet permuted) block
}

// NewPoseidonSponge returns a sponge with capacity lane zeroed. A nil params
// falls back to DefaultPoseidonParams.
func NewPoseidonSponge(params *Params) *PoseidonSponge {
	if params == nil {
		params = DefaultPoseidonParams()
	}
	state := make([]*big.Int, params.T)
	for i := range state {
		state[i] = new(big.Int)
	}
	return &PoseidonSponge{params: params, state: state}
}

// Absorb folds inputs into the sponge's rate lanes, permuting whenever a
// block fills, in input order.
func (s *PoseidonSponge) Absorb(inputs ...*big.Int) {
	r := rate(s.params)
	for _, in := range inputs {
		v := new(big.Int).Mod(in, s.params.Field)
		lane := 1 + s.absorbed
		s.state[lane] = new(big.Int).Add(s.state[lane], v)
		s.state[lane].Mod(s.state[lane], s.params.Field)
		s.absorbed++
		if s.absorbed == r {
			s.state = permute(s.params, s.state)
			s.absorbed = 0
		}
	}
}

// Squeeze returns n field elements, permuting to refill rate lanes as
// needed. Pending unpermuted absorbed input is flushed with one permutation
// before the first squeeze.
func (s *PoseidonSponge) Squeeze(n int) []*big.Int {
	r := rate(s.params)
	if s.absorbed > 0 {
		s.state = permute(s.params, s.state)
		s.absorbed = 0
	}
	out := make([]*big.Int, 0, n)
	produced := 0
	for len(out) < n {
		if produced == r {
			s.state = permute(s.params, s.state)
			produced = 0
		}
		out = append(out, new(big.Int).Set(s.state[1+produced]))
		produced++
	}
	return out
}

// PoseidonHash absorbs inputs (each reduced mod params.Field; a nil params
// uses DefaultPoseidonParams) and returns the capacity lane state[0] after a
// final permutation. This differs from what PoseidonSponge.Squeeze returns
// for the same inputs, since Squeeze reads the rate lanes.
//
// Order matters: PoseidonHash(a, b) and PoseidonHash(b, a) differ in
// general. Inputs exceeding one rate block are absorbed across several
// permutation calls.
func PoseidonHash(params *Params, inputs ...*big.Int) *big.Int {
	if params == nil {
		params = DefaultPoseidonParams()
	}
	r := rate(params)
	state := make([]*big.Int, params.T)
	for i := range state {
		state[i] = new(big.Int)
	}
	filled := 0
	for _, in := range inputs {
		v := new(big.Int).Mod(in, params.Field)
		state[1+filled] = new(big.Int).Add(state[1+filled], v)
		state[1+filled].Mod(state[1+filled], params.Field)
		filled++
		if filled == r {
			state = permute(params, state)
			filled = 0
		}
	}
	state = permute(params, state)
	return new(big.Int).Set(state[0])
}

// generateRoundConstants deterministically derives t*totalRounds field
// elements by hashing a counter under a fixed domain tag, so independent
// calls with the same parameters always agree (no randomness, no stored
// constant table).
func generateRoundConstants(t, totalRounds int, field *big.Int) []*big.Int {
	n := t * totalRounds
	out := make([]*big.Int, n)
	for i := 0; i < n; i++ {
		out[i] = deriveFieldElement("poseidon-rc", i, field)
	}
	return out
}

// generateMDS builds a t x t Cauchy matrix MDS[i][j] = 1/(x_i - y_j), with
// x and y drawn from disjoint index ranges so no denominator is zero mod
// field. Cauchy matrices are MDS over any field where the x/y values are
// distinct, which holds here since x_i = i and y_j = t+j never collide.
func generateMDS(t int, field *big.Int) [][]*big.Int {
	xs := make([]*big.Int, t)
	ys := make([]*big.Int, t)
	for i := 0; i < t; i++ {
		xs[i] = big.NewInt(int64(i))
		ys[i] = big.NewInt(int64(t + i))
	}
	mds := make([][]*big.Int, t)
	for i := 0; i < t; i++ {
		mds[i] = make([]*big.Int, t)
		for j := 0; j < t; j++ {
			denom := new(big.Int).Sub(xs[i], ys[j])
			denom.Mod(denom, field)
			inv := new(big.Int).ModInverse(denom, field)
			mds[i][j] = inv
		}
	}
	return mds
}

// deriveFieldElement hashes tag||index with SHA-256, repeating with an
// incrementing salt until the digest, read as a big-endian integer, lands
// under field (rejection sampling keeps the distribution unbiased).
func deriveFieldElement(tag string, index int, field *big.Int) *big.Int {
	for salt := 0; ; salt++ {
		h := sha256.New()
		h.Write([]byte(tag))
		h.Write(encodeInt(index))
		h.Write(encodeInt(salt))
		sum := h.Sum(nil)
		v := new(big.Int).SetBytes(sum)
		if v.Cmp(field) < 0 {
			return v
		}
	}
}

func encodeInt(v int) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v & 0xff)
		v >>= 8
	}
	return b
}
