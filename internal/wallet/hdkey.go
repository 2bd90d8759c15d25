package wallet

import (
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip32"

	"github.com/Klingon-tech/klingnet-vesting/pkg/crypto"
	"github.com/Klingon-tech/klingnet-vesting/pkg/types"
)

// CIP-1852 derivation path constants.
// Full path: m/1852'/1815'/account'/role/index
// The identity only uses the external (payment) role.
const (
	Purpose1852  = bip32.FirstHardenedChild + 1852
	CoinTypeAda  = bip32.FirstHardenedChild + 1815
	RoleExternal = 0
)

// HDKey represents a hierarchical deterministic key (BIP-32).
type HDKey struct {
	key *bip32.Key
}

// NewMasterKey creates a master HD key from a 64-byte seed.
func NewMasterKey(seed []byte) (*HDKey, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}
	return &HDKey{key: master}, nil
}

// ParseHDKey decodes a base58 serialized extended key.
func ParseHDKey(s string) (*HDKey, error) {
	k, err := bip32.B58Deserialize(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("parse extended key: %w", err)
	}
	return &HDKey{key: k}, nil
}

// String returns the base58 serialized extended key.
func (k *HDKey) String() string {
	return k.key.B58Serialize()
}

// DeriveChild derives a child key at the given index.
// For hardened derivation, add bip32.FirstHardenedChild to the index.
func (k *HDKey) DeriveChild(index uint32) (*HDKey, error) {
	child, err := k.key.NewChildKey(index)
	if err != nil {
		return nil, fmt.Errorf("derive child %d: %w", index, err)
	}
	return &HDKey{key: child}, nil
}

// DerivePath derives a key along a sequence of indices.
func (k *HDKey) DerivePath(indices ...uint32) (*HDKey, error) {
	current := k
	for _, idx := range indices {
		child, err := current.DeriveChild(idx)
		if err != nil {
			return nil, err
		}
		current = child
	}
	return current, nil
}

// DerivePaymentKey derives the key at m/1852'/1815'/account'/role/index.
func (k *HDKey) DerivePaymentKey(account, role, index uint32) (*HDKey, error) {
	return k.DerivePath(
		Purpose1852,
		CoinTypeAda,
		bip32.FirstHardenedChild+account,
		role,
		index,
	)
}

// PrivateKeyBytes returns the raw 32-byte private key.
// Returns nil if this is a public-only key.
func (k *HDKey) PrivateKeyBytes() []byte {
	if !k.key.IsPrivate {
		return nil
	}
	// bip32 Key.Key is 33 bytes with a leading 0x00 for private keys.
	raw := k.key.Key
	if len(raw) == 33 && raw[0] == 0 {
		return raw[1:]
	}
	return raw
}

// PublicKeyBytes returns the compressed 33-byte public key.
func (k *HDKey) PublicKeyBytes() []byte {
	return k.key.PublicKey().Key
}

// Signer returns a signing key from this HD key's private key.
func (k *HDKey) Signer() (*crypto.PrivateKey, error) {
	priv := k.PrivateKeyBytes()
	if priv == nil {
		return nil, fmt.Errorf("cannot create signer from public key")
	}
	return crypto.PrivateKeyFromBytes(priv)
}

// KeyHash returns the key hash of this key's public key.
func (k *HDKey) KeyHash() types.KeyHash {
	return crypto.KeyHashFromPubKey(k.PublicKeyBytes())
}

// IsPrivate returns true if this key contains a private key.
func (k *HDKey) IsPrivate() bool {
	return k.key.IsPrivate
}

// Depth returns the derivation depth (0 for master).
func (k *HDKey) Depth() uint8 {
	return k.key.Depth
}
