// Package wallet generates, persists and loads the single signing
// identity the vesting tools act as.
package wallet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

// SeedSize is the length of a derived seed in bytes (512 bits).
const SeedSize = 64

// phraseEntropyBits gives 24-word phrases.
const phraseEntropyBits = 256

// ErrInvalidPhrase means a recovery phrase fails the BIP-39 word list or
// checksum.
var ErrInvalidPhrase = errors.New("invalid recovery phrase")

// RecoveryPhrase is the BIP-39 mnemonic an identity's root key is
// derived from.
type RecoveryPhrase string

// NewRecoveryPhrase draws a 24-word phrase from the system's secure
// random source.
func NewRecoveryPhrase() (RecoveryPhrase, error) {
	entropy, err := bip39.NewEntropy(phraseEntropyBits)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("generate mnemonic: %w", err)
	}
	return RecoveryPhrase(mnemonic), nil
}

// normalized collapses runs of whitespace, so pasted phrases still match.
func (p RecoveryPhrase) normalized() string {
	return strings.Join(strings.Fields(strings.ToLower(string(p))), " ")
}

// Words returns the number of words in the phrase.
func (p RecoveryPhrase) Words() int {
	return len(strings.Fields(string(p)))
}

// Valid checks word count, word list and checksum.
func (p RecoveryPhrase) Valid() bool {
	return bip39.IsMnemonicValid(p.normalized())
}

// Seed derives the 512-bit BIP-39 seed (PBKDF2-SHA512) under an
// optional passphrase.
func (p RecoveryPhrase) Seed(passphrase string) ([]byte, error) {
	if !p.Valid() {
		return nil, ErrInvalidPhrase
	}
	seed, err := bip39.NewSeedWithErrorChecking(p.normalized(), passphrase)
	if err != nil {
		return nil, fmt.Errorf("derive seed: %w", err)
	}
	return seed, nil
}
