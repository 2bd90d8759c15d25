package wallet

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// Key file encryption.
//
// Layout: version(1) | salt(32) | memory(4) | iterations(4) | parallelism(1) | nonce(24) | ciphertext
//
// Everything before the nonce is passed to the AEAD as additional data,
// so editing the Argon2 parameters in a key file breaks decryption.
const (
	keyFileVersion = 1
	SaltSize       = 32
	headerSize     = 1 + SaltSize + 4 + 4 + 1

	// EncryptedPrefix marks an encrypted private-key artifact.
	EncryptedPrefix = "encrypted:"
)

var (
	ErrWrongPassword      = errors.New("wrong password or corrupted key file")
	ErrUnsupportedVersion = errors.New("unsupported key file version")
)

// EncryptionParams holds Argon2id parameters.
type EncryptionParams struct {
	Memory      uint32 // in KiB
	Iterations  uint32
	Parallelism uint8
}

// DefaultParams returns the Argon2id cost used for new key files.
func DefaultParams() EncryptionParams {
	return EncryptionParams{
		Memory:      64 * 1024, // 64 MB
		Iterations:  3,
		Parallelism: 4,
	}
}

func (p EncryptionParams) validate() error {
	if p.Memory == 0 || p.Iterations == 0 || p.Parallelism == 0 {
		return fmt.Errorf("argon2 parameters must be positive: %+v", p)
	}
	return nil
}

func sealKey(password, salt []byte, params EncryptionParams) []byte {
	return argon2.IDKey(password, salt, params.Iterations, params.Memory, params.Parallelism, chacha20poly1305.KeySize)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Encrypt seals data under password with Argon2id and XChaCha20-Poly1305.
func Encrypt(data, password []byte, params EncryptionParams) ([]byte, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	header := make([]byte, 0, headerSize)
	header = append(header, keyFileVersion)
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	header = append(header, salt...)
	header = binary.LittleEndian.AppendUint32(header, params.Memory)
	header = binary.LittleEndian.AppendUint32(header, params.Iterations)
	header = append(header, params.Parallelism)

	key := sealKey(password, salt, params)
	defer zero(key)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	out := append(header, nonce...)
	return aead.Seal(out, nonce, data, header), nil
}

// Decrypt opens data sealed by Encrypt.
func Decrypt(sealed, password []byte) ([]byte, error) {
	minSize := headerSize + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead
	if len(sealed) < minSize {
		return nil, fmt.Errorf("encrypted data too short: %d bytes, need at least %d", len(sealed), minSize)
	}
	if sealed[0] != keyFileVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, sealed[0])
	}

	header := sealed[:headerSize]
	salt := header[1 : 1+SaltSize]
	params := EncryptionParams{
		Memory:      binary.LittleEndian.Uint32(header[1+SaltSize:]),
		Iterations:  binary.LittleEndian.Uint32(header[1+SaltSize+4:]),
		Parallelism: header[1+SaltSize+8],
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	nonce := sealed[headerSize : headerSize+chacha20poly1305.NonceSizeX]
	ciphertext := sealed[headerSize+chacha20poly1305.NonceSizeX:]

	key := sealKey(password, salt, params)
	defer zero(key)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, header)
	if err != nil {
		return nil, ErrWrongPassword
	}
	return plaintext, nil
}

// IsEncryptedText reports whether an artifact's text is encrypted.
func IsEncryptedText(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), EncryptedPrefix)
}

// EncryptText returns "encrypted:<hex>" for plaintext.
func EncryptText(plaintext string, password []byte, params EncryptionParams) (string, error) {
	enc, err := Encrypt([]byte(plaintext), password, params)
	if err != nil {
		return "", err
	}
	return EncryptedPrefix + hex.EncodeToString(enc), nil
}

// DecryptText reverses EncryptText.
func DecryptText(s string, password []byte) (string, error) {
	body, ok := strings.CutPrefix(strings.TrimSpace(s), EncryptedPrefix)
	if !ok {
		return "", fmt.Errorf("text is not encrypted")
	}
	raw, err := hex.DecodeString(body)
	if err != nil {
		return "", fmt.Errorf("invalid encrypted text: %w", err)
	}
	plain, err := Decrypt(raw, password)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
