package crypto

import (
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/schnorr"

	"github.com/Klingon-tech/klingnet-vesting/pkg/types"
)

// Witness verification errors.
var (
	ErrBadPublicKey      = errors.New("malformed public key")
	ErrBadSignature      = errors.New("malformed signature")
	ErrSignatureMismatch = errors.New("signature does not match transaction id")
)

// Signer signs transaction ids.
type Signer interface {
	// Sign produces a Schnorr signature over id.
	Sign(id types.Hash) ([]byte, error)
	// PublicKey returns the compressed 33-byte public key.
	PublicKey() []byte
}

// PrivateKey is a secp256k1 payment key. The public key and its hash are
// computed once, at construction.
type PrivateKey struct {
	key     *secp256k1.PrivateKey
	pub     []byte
	keyHash types.KeyHash
}

func newPrivateKey(key *secp256k1.PrivateKey) *PrivateKey {
	pub := key.PubKey().SerializeCompressed()
	return &PrivateKey{key: key, pub: pub, keyHash: KeyHashFromPubKey(pub)}
}

// GenerateKey creates a new random payment key.
func GenerateKey() (*PrivateKey, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return newPrivateKey(key), nil
}

// PrivateKeyFromBytes restores a payment key from its 32-byte scalar.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(b))
	}
	return newPrivateKey(secp256k1.PrivKeyFromBytes(b)), nil
}

// Sign produces a Schnorr signature over a transaction id.
func (pk *PrivateKey) Sign(id types.Hash) ([]byte, error) {
	sig, err := schnorr.Sign(pk.key, id[:])
	if err != nil {
		return nil, fmt.Errorf("schnorr sign: %w", err)
	}
	return sig.Serialize(), nil
}

// PublicKey returns a copy of the compressed public key.
func (pk *PrivateKey) PublicKey() []byte {
	out := make([]byte, len(pk.pub))
	copy(out, pk.pub)
	return out
}

// KeyHash returns the hash naming this key's public half. Addresses and
// required-signer lists carry this value.
func (pk *PrivateKey) KeyHash() types.KeyHash {
	return pk.keyHash
}

// Serialize returns the 32-byte private key scalar.
func (pk *PrivateKey) Serialize() []byte {
	return pk.key.Serialize()
}

// Zero wipes the private scalar. The key must not sign afterwards.
func (pk *PrivateKey) Zero() {
	pk.key.Zero()
}

// VerifyWitness checks that signature is publicKey's Schnorr signature
// over id. The error says which part is wrong.
func VerifyWitness(id types.Hash, signature, publicKey []byte) error {
	pubKey, err := secp256k1.ParsePubKey(publicKey)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadPublicKey, err)
	}
	sig, err := schnorr.ParseSignature(signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	if !sig.Verify(id[:], pubKey) {
		return ErrSignatureMismatch
	}
	return nil
}
