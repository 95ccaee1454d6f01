// Package crypto provides cryptographic primitives for the token ledger:
// BLAKE3 digests over command payloads and Schnorr/secp256k1 signatures
// that principals use to authorize them.
package crypto

import (
	"github.com/DE-labtory/erc20peggy/pkg/types"
	"github.com/zeebo/blake3"
)

// Hash computes a BLAKE3-256 hash of the input data.
func Hash(data []byte) types.Hash {
	return blake3.Sum256(data)
}

// KeyFingerprint returns the BLAKE3 hash of a compressed public key.
// The auth registry stores fingerprints so log lines can reference a
// key without reproducing it.
func KeyFingerprint(pubKey []byte) types.Hash {
	return Hash(pubKey)
}
