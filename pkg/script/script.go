// Package script derives deterministic script references from compiled
// validator bytecode.
package script

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/Klingon-tech/klingnet-vesting/pkg/crypto"
	"github.com/Klingon-tech/klingnet-vesting/pkg/types"
)

// Version is the script language version tag.
type Version uint8

const (
	V1 Version = 1
	V2 Version = 2
	V3 Version = 3
)

// ErrUnknownVersion is returned for version tags other than V1, V2, V3.
var ErrUnknownVersion = errors.New("unknown script version")

// String returns "V1", "V2" or "V3".
func (v Version) String() string {
	switch v {
	case V1, V2, V3:
		return fmt.Sprintf("V%d", uint8(v))
	default:
		return fmt.Sprintf("Version(%d)", uint8(v))
	}
}

// Valid reports whether v is a known version.
func (v Version) Valid() bool {
	return v >= V1 && v <= V3
}

// ParseVersion accepts "V3", "v3" or "3".
func ParseVersion(s string) (Version, error) {
	switch strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "V") {
	case "1":
		return V1, nil
	case "2":
		return V2, nil
	case "3":
		return V3, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVersion, s)
}

// ParamApplier bakes compile-time parameters into validator bytecode.
type ParamApplier interface {
	Apply(code []byte, params []any) ([]byte, error)
}

// ParamApplierFunc adapts a function to ParamApplier.
type ParamApplierFunc func(code []byte, params []any) ([]byte, error)

// Apply calls f.
func (f ParamApplierFunc) Apply(code []byte, params []any) ([]byte, error) {
	return f(code, params)
}

var paramEnc = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// CBORApplier is the default ParamApplier. With no parameters it returns
// the bytecode unchanged; otherwise it returns the deterministic CBOR
// array [code, params].
type CBORApplier struct{}

// Apply implements ParamApplier.
func (CBORApplier) Apply(code []byte, params []any) ([]byte, error) {
	if len(params) == 0 {
		return bytes.Clone(code), nil
	}
	b, err := paramEnc.Marshal([]any{code, params})
	if err != nil {
		return nil, fmt.Errorf("apply params: %w", err)
	}
	return b, nil
}

// Reference is a located script: the applied bytecode and where it lives.
type Reference struct {
	Code    []byte
	Params  []any
	Version Version
	Hash    types.ScriptHash
	Address types.Address
}

// Locator derives script references for one network and version.
type Locator struct {
	Network types.Network
	Version Version
	Applier ParamApplier
}

// NewLocator returns a locator using the CBOR parameter applier.
func NewLocator(network types.Network, version Version) *Locator {
	return &Locator{Network: network, Version: version, Applier: CBORApplier{}}
}

// Locate applies params to code and derives the script hash and address.
// Identical inputs always give an identical reference.
func (l *Locator) Locate(code []byte, params ...any) (*Reference, error) {
	if len(code) == 0 {
		return nil, errors.New("empty script bytecode")
	}
	if !l.Version.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVersion, l.Version)
	}
	applier := l.Applier
	if applier == nil {
		applier = CBORApplier{}
	}
	applied, err := applier.Apply(code, params)
	if err != nil {
		return nil, err
	}
	hash := crypto.ScriptHashOf(byte(l.Version), applied)
	return &Reference{
		Code:    applied,
		Params:  params,
		Version: l.Version,
		Hash:    hash,
		Address: types.NewScriptAddress(l.Network, hash),
	}, nil
}

// Locate is a shorthand for NewLocator(network, version).Locate(code, params...).
func Locate(network types.Network, version Version, code []byte, params ...any) (*Reference, error) {
	return NewLocator(network, version).Locate(code, params...)
}
