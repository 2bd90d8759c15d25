package types

import (
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// Network identifies which ledger an address belongs to.
type Network byte

const (
	Testnet Network = 0
	Mainnet Network = 1
)

// Address HRP (human-readable part) constants for bech32 encoding.
const (
	MainnetHRP = "addr"
	TestnetHRP = "addr_test"
)

// HRP returns the bech32 human-readable part for the network.
func (n Network) HRP() string {
	if n == Mainnet {
		return MainnetHRP
	}
	return TestnetHRP
}

// String returns "mainnet" or "testnet".
func (n Network) String() string {
	if n == Mainnet {
		return "mainnet"
	}
	return "testnet"
}

// CredentialType distinguishes key-locked from script-locked credentials.
type CredentialType uint8

const (
	KeyCredential    CredentialType = 0
	ScriptCredential CredentialType = 1
)

// Credential is a payment or stake credential.
type Credential struct {
	Type CredentialType
	Hash [CredentialHashSize]byte
}

// KeyHashCredential returns a key credential for k.
func KeyHashCredential(k KeyHash) Credential {
	return Credential{Type: KeyCredential, Hash: k}
}

// ScriptHashCredential returns a script credential for s.
func ScriptHashCredential(s ScriptHash) Credential {
	return Credential{Type: ScriptCredential, Hash: s}
}

// Address header types (high nibble of the header byte).
const (
	headerBaseKeyKey       = 0x0
	headerBaseScriptKey    = 0x1
	headerEnterpriseKey    = 0x6
	headerEnterpriseScript = 0x7
)

const (
	baseAddressSize       = 1 + 2*CredentialHashSize
	enterpriseAddressSize = 1 + CredentialHashSize
)

// Address is a payment credential with an optional stake credential.
// It is comparable and can be used as a map key.
type Address struct {
	Network  Network
	Payment  Credential
	Stake    Credential
	HasStake bool
}

// NewBaseAddress returns an address whose payment and stake parts are both key k.
func NewBaseAddress(n Network, k KeyHash) Address {
	return Address{
		Network:  n,
		Payment:  KeyHashCredential(k),
		Stake:    KeyHashCredential(k),
		HasStake: true,
	}
}

// NewScriptAddress returns an enterprise (no stake) address for script s.
func NewScriptAddress(n Network, s ScriptHash) Address {
	return Address{Network: n, Payment: ScriptHashCredential(s)}
}

// IsZero returns true if the address is the zero value.
func (a Address) IsZero() bool {
	return a == Address{}
}

// IsScript returns true if the payment part is locked by a script.
func (a Address) IsScript() bool {
	return a.Payment.Type == ScriptCredential
}

// PaymentKeyHash returns the payment key hash if the payment part is a key.
func (a Address) PaymentKeyHash() (KeyHash, bool) {
	if a.Payment.Type != KeyCredential {
		return KeyHash{}, false
	}
	return KeyHash(a.Payment.Hash), true
}

// Bytes returns the raw header-prefixed address bytes.
func (a Address) Bytes() []byte {
	var header byte
	switch {
	case a.HasStake && a.Payment.Type == KeyCredential:
		header = headerBaseKeyKey
	case a.HasStake:
		header = headerBaseScriptKey
	case a.Payment.Type == KeyCredential:
		header = headerEnterpriseKey
	default:
		header = headerEnterpriseScript
	}
	out := make([]byte, 0, baseAddressSize)
	out = append(out, header<<4|byte(a.Network)&0x0f)
	out = append(out, a.Payment.Hash[:]...)
	if a.HasStake {
		out = append(out, a.Stake.Hash[:]...)
	}
	return out
}

// String returns the bech32-encoded address (e.g. "addr_test1...").
func (a Address) String() string {
	s, err := bech32.EncodeFromBase256(a.Network.HRP(), a.Bytes())
	if err != nil {
		return ""
	}
	return s
}

// MarshalJSON encodes the address as a bech32 string.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes a bech32 string into an address.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*a = Address{}
		return nil
	}
	parsed, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAddress parses a bech32 address string.
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return Address{}, fmt.Errorf("empty address")
	}
	hrp, data, err := bech32.DecodeNoLimit(s)
	if err != nil {
		return Address{}, fmt.Errorf("invalid bech32 address: %w", err)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("invalid bech32 address: %w", err)
	}
	a, err := AddressFromBytes(raw)
	if err != nil {
		return Address{}, err
	}
	if hrp != a.Network.HRP() {
		return Address{}, fmt.Errorf("address prefix %q does not match network %s", hrp, a.Network)
	}
	return a, nil
}

// AddressFromBytes decodes header-prefixed address bytes.
func AddressFromBytes(raw []byte) (Address, error) {
	if len(raw) == 0 {
		return Address{}, fmt.Errorf("empty address bytes")
	}
	header := raw[0] >> 4
	network := Network(raw[0] & 0x0f)
	if network != Testnet && network != Mainnet {
		return Address{}, fmt.Errorf("unknown network id %d", network)
	}

	a := Address{Network: network}
	switch header {
	case headerBaseKeyKey, headerBaseScriptKey:
		if len(raw) != baseAddressSize {
			return Address{}, fmt.Errorf("base address must be %d bytes, got %d", baseAddressSize, len(raw))
		}
		a.Payment.Type = KeyCredential
		if header == headerBaseScriptKey {
			a.Payment.Type = ScriptCredential
		}
		copy(a.Payment.Hash[:], raw[1:1+CredentialHashSize])
		a.Stake.Type = KeyCredential
		copy(a.Stake.Hash[:], raw[1+CredentialHashSize:])
		a.HasStake = true
	case headerEnterpriseKey, headerEnterpriseScript:
		if len(raw) != enterpriseAddressSize {
			return Address{}, fmt.Errorf("enterprise address must be %d bytes, got %d", enterpriseAddressSize, len(raw))
		}
		a.Payment.Type = KeyCredential
		if header == headerEnterpriseScript {
			a.Payment.Type = ScriptCredential
		}
		copy(a.Payment.Hash[:], raw[1:])
	default:
		return Address{}, fmt.Errorf("unsupported address type %d", header)
	}
	return a, nil
}
