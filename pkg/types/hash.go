// Package types defines core primitive types for the vesting ledger.
package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// HashSize is the length of a transaction hash in bytes.
const HashSize = 32

// CredentialHashSize is the length of a key hash or script hash in bytes.
const CredentialHashSize = 28

// Hash represents a 256-bit hash value (transaction ids).
type Hash [HashSize]byte

// KeyHash names a verification key without revealing it.
type KeyHash [CredentialHashSize]byte

// ScriptHash names a compiled validator.
type ScriptHash [CredentialHashSize]byte

// IsZero returns true if the hash is all zeros.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// String returns the hex-encoded hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns a copy of the hash as a byte slice.
func (h Hash) Bytes() []byte {
	b := make([]byte, HashSize)
	copy(b, h[:])
	return b
}

// MarshalJSON encodes the hash as a hex string.
func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// UnmarshalJSON decodes a hex string into a hash.
func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*h = Hash{}
		return nil
	}
	parsed, err := HexToHash(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// HexToHash converts a hex string to a Hash.
// Returns an error if the string is not exactly 64 hex characters.
func HexToHash(s string) (Hash, error) {
	var h Hash
	if err := decodeFixedHex(s, h[:]); err != nil {
		return Hash{}, err
	}
	return h, nil
}

// String returns the hex-encoded key hash.
func (k KeyHash) String() string {
	return hex.EncodeToString(k[:])
}

// IsZero returns true if the key hash is all zeros.
func (k KeyHash) IsZero() bool {
	return k == KeyHash{}
}

// MarshalJSON encodes the key hash as a hex string.
func (k KeyHash) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a hex string into a key hash.
func (k *KeyHash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := HexToKeyHash(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// HexToKeyHash converts a 56-character hex string to a KeyHash.
func HexToKeyHash(s string) (KeyHash, error) {
	var k KeyHash
	if err := decodeFixedHex(s, k[:]); err != nil {
		return KeyHash{}, err
	}
	return k, nil
}

// String returns the hex-encoded script hash.
func (s ScriptHash) String() string {
	return hex.EncodeToString(s[:])
}

func decodeFixedHex(s string, dst []byte) error {
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid hex: %w", err)
	}
	if len(b) != len(dst) {
		return fmt.Errorf("hash must be %d bytes, got %d", len(dst), len(b))
	}
	copy(dst, b)
	return nil
}

// HexBytes is a byte slice that marshals to and from a hex JSON string.
type HexBytes []byte

// String returns the hex encoding.
func (b HexBytes) String() string {
	return hex.EncodeToString(b)
}

// MarshalJSON encodes the bytes as a hex string.
func (b HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(b))
}

// UnmarshalJSON decodes a hex string.
func (b *HexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*b = nil
		return nil
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid hex: %w", err)
	}
	*b = decoded
	return nil
}
