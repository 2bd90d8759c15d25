package wallet

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Klingon-tech/klingnet-vesting/pkg/crypto"
	"github.com/Klingon-tech/klingnet-vesting/pkg/types"
)

// Artifact errors.
var (
	ErrArtifact         = errors.New("identity artifact")
	ErrPasswordRequired = errors.New("private key is encrypted and no password was supplied")
	ErrAddressMismatch  = errors.New("address artifact does not match private key")
)

// Default artifact file names.
const (
	DefaultKeyFile  = "me.sk"
	DefaultAddrFile = "me.addr"
)

// Identity is the signing identity: a root key, the payment key derived
// from it, and the base address whose payment and stake parts are both
// that key's hash.
type Identity struct {
	Network types.Network
	KeyHash types.KeyHash
	Address types.Address

	root *HDKey
	key  *crypto.PrivateKey
}

// Generate creates a new identity from fresh BIP-39 entropy.
func Generate(network types.Network) (*Identity, error) {
	phrase, err := NewRecoveryPhrase()
	if err != nil {
		return nil, err
	}
	return FromPhrase(phrase, "", network)
}

// FromPhrase restores the identity a recovery phrase generates.
func FromPhrase(phrase RecoveryPhrase, passphrase string, network types.Network) (*Identity, error) {
	seed, err := phrase.Seed(passphrase)
	if err != nil {
		return nil, err
	}
	root, err := NewMasterKey(seed)
	if err != nil {
		return nil, err
	}
	return FromRoot(root, network)
}

// FromRoot derives the identity at m/1852'/1815'/0'/0/0 under root.
func FromRoot(root *HDKey, network types.Network) (*Identity, error) {
	if !root.IsPrivate() {
		return nil, fmt.Errorf("root key has no private part")
	}
	child, err := root.DerivePaymentKey(0, RoleExternal, 0)
	if err != nil {
		return nil, fmt.Errorf("derive payment key: %w", err)
	}
	key, err := child.Signer()
	if err != nil {
		return nil, err
	}
	kh := key.KeyHash()
	return &Identity{
		Network: network,
		KeyHash: kh,
		Address: types.NewBaseAddress(network, kh),
		root:    root,
		key:     key,
	}, nil
}

// Signer returns the payment signing key.
func (id *Identity) Signer() *crypto.PrivateKey {
	return id.key
}

// Root returns the serialized root key.
func (id *Identity) Root() string {
	return id.root.String()
}

// Artifacts names the two files an identity is persisted to.
type Artifacts struct {
	KeyPath  string
	AddrPath string
}

// DefaultArtifacts returns me.sk and me.addr inside dir.
func DefaultArtifacts(dir string) Artifacts {
	return Artifacts{
		KeyPath:  filepath.Join(dir, DefaultKeyFile),
		AddrPath: filepath.Join(dir, DefaultAddrFile),
	}
}

// Exists reports whether either artifact is already present.
func (a Artifacts) Exists() bool {
	for _, p := range []string{a.KeyPath, a.AddrPath} {
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}
	return false
}

// Save writes the root key and the address, replacing any previous
// identity at the same paths. A non-empty password encrypts the key file.
func (a Artifacts) Save(id *Identity, password []byte, params EncryptionParams) error {
	keyText := id.Root()
	if len(password) > 0 {
		enc, err := EncryptText(keyText, password, params)
		if err != nil {
			return fmt.Errorf("%w: encrypt %s: %v", ErrArtifact, a.KeyPath, err)
		}
		keyText = enc
	}
	if err := writeFile(a.KeyPath, keyText, 0o600); err != nil {
		return err
	}
	return writeFile(a.AddrPath, id.Address.String(), 0o644)
}

func writeFile(path, text string, perm os.FileMode) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("%w: create %s: %v", ErrArtifact, dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(text), perm); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrArtifact, path, err)
	}
	return nil
}

// PasswordFunc supplies the password for an encrypted key file.
type PasswordFunc func() ([]byte, error)

// Load reads both artifacts and checks that the address matches the key.
// password is only called when the key file is encrypted and may be nil.
func (a Artifacts) Load(network types.Network, password PasswordFunc) (*Identity, error) {
	raw, err := os.ReadFile(a.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrArtifact, a.KeyPath, err)
	}
	keyText := strings.TrimSpace(string(raw))

	if IsEncryptedText(keyText) {
		if password == nil {
			return nil, fmt.Errorf("%w: %w: %s", ErrArtifact, ErrPasswordRequired, a.KeyPath)
		}
		pw, err := password()
		if err != nil {
			return nil, fmt.Errorf("read password: %w", err)
		}
		keyText, err = DecryptText(keyText, pw)
		zero(pw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrArtifact, a.KeyPath, err)
		}
	}

	root, err := ParseHDKey(keyText)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifact, a.KeyPath, err)
	}
	id, err := FromRoot(root, network)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifact, a.KeyPath, err)
	}

	addr, err := a.LoadAddress()
	if err != nil {
		return nil, err
	}
	if addr != id.Address {
		return nil, fmt.Errorf("%w: %w: %s holds %s, key derives %s", ErrArtifact, ErrAddressMismatch, a.AddrPath, addr, id.Address)
	}
	return id, nil
}

// LoadAddress reads and parses the address artifact.
func (a Artifacts) LoadAddress() (types.Address, error) {
	raw, err := os.ReadFile(a.AddrPath)
	if err != nil {
		return types.Address{}, fmt.Errorf("%w: read %s: %v", ErrArtifact, a.AddrPath, err)
	}
	addr, err := types.ParseAddress(strings.TrimSpace(string(raw)))
	if err != nil {
		return types.Address{}, fmt.Errorf("%w: %s: %v", ErrArtifact, a.AddrPath, err)
	}
	return addr, nil
}
