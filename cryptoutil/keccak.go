// Package cryptoutil holds the small set of hash helpers the dispatch core
// needs directly: Keccak-256 for KECCAK256 and the jumpdest-analysis cache
// key, and a thin wrapper for hashing bytecode via Poseidon (EXTCODEHASH).
package cryptoutil

import (
	"golang.org/x/crypto/sha3"

	"github.com/eth2030/zkcore/poseidon"
	"math/big"
)

// Keccak256 returns the Keccak-256 digest of the concatenation of data.
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

// Keccak256Array is Keccak256 returned as a fixed [32]byte, convenient as a
// map/sync.Map key.
func Keccak256Array(data ...[]byte) [32]byte {
	var out [32]byte
	copy(out[:], Keccak256(data...))
	return out
}

// PoseidonBytecodeHash hashes code the way EXTCODEHASH reports it in this
// module: code is chunked into 31-byte limbs (each fits under the BN254
// scalar field with room to spare), each limb absorbed as one field element
// in order, and the sponge squeezed once.
func PoseidonBytecodeHash(code []byte) []byte {
	sponge := poseidon.NewPoseidonSponge(nil)
	const limbSize = 31
	for i := 0; i < len(code); i += limbSize {
		end := i + limbSize
		if end > len(code) {
			end = len(code)
		}
		sponge.Absorb(new(big.Int).SetBytes(code[i:end]))
	}
	out := sponge.Squeeze(1)[0]
	b := out.Bytes()
	var padded [32]byte
	copy(padded[32-len(b):], b)
	return padded[:]
}
