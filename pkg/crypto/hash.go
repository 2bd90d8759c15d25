// Package crypto provides the hashing and signing primitives of the ledger.
package crypto

import (
	"github.com/Klingon-tech/klingnet-vesting/pkg/types"
	"github.com/zeebo/blake3"
)

// Hash computes a BLAKE3-256 hash of the input data.
func Hash(data []byte) types.Hash {
	return blake3.Sum256(data)
}

// KeyHashFromPubKey derives the key hash of a compressed public key.
// KeyHash = BLAKE3(compressed_pubkey)[:28].
func KeyHashFromPubKey(pubKey []byte) types.KeyHash {
	h := Hash(pubKey)
	var k types.KeyHash
	copy(k[:], h[:types.CredentialHashSize])
	return k
}

// ScriptHashOf derives the hash of a compiled script under a version tag.
// ScriptHash = BLAKE3(version || code)[:28].
func ScriptHashOf(version byte, code []byte) types.ScriptHash {
	buf := make([]byte, 0, 1+len(code))
	buf = append(buf, version)
	buf = append(buf, code...)
	h := Hash(buf)
	var s types.ScriptHash
	copy(s[:], h[:types.CredentialHashSize])
	return s
}
