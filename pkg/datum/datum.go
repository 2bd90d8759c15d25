// Package datum defines the vesting datum and redeemer and their ledger
// byte encoding.
//
// The datum is a two-field structured value:
//
//	{ "owner": "keyHash-<hex key hash>", "deadline": <POSIX milliseconds> }
//
// encoded with CBOR core deterministic encoding, so equal records always
// produce identical bytes. The redeemer is the unit value (an empty map).
package datum

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/Klingon-tech/klingnet-vesting/pkg/types"
)

// OwnerPrefix tags the owner field as a key-hash reference.
const OwnerPrefix = "keyHash-"

// Datum errors.
var (
	ErrMalformed    = errors.New("malformed vesting datum")
	ErrInvalidOwner = errors.New("invalid owner reference")
)

var (
	encMode = mustEncMode()
	decMode = mustDecMode()
)

func mustEncMode() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}

func mustDecMode() cbor.DecMode {
	dm, err := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}

// Vesting is the logical vesting record attached to a locked output.
type Vesting struct {
	Owner    types.KeyHash
	Deadline int64 // POSIX milliseconds, no timezone adjustment.
}

// wireVesting is the on-ledger shape. Pointers detect missing fields.
type wireVesting struct {
	Owner    *string `cbor:"owner"`
	Deadline *int64  `cbor:"deadline"`
}

// New returns the record for owner with a deadline at t.
func New(owner types.KeyHash, t time.Time) Vesting {
	return Vesting{Owner: owner, Deadline: t.UnixMilli()}
}

// DeadlineTime returns the deadline as a UTC time.
func (v Vesting) DeadlineTime() time.Time {
	return time.UnixMilli(v.Deadline).UTC()
}

// Unlockable reports whether a transaction whose validity starts at
// validFromMillis satisfies the deadline. At or after is valid.
func (v Vesting) Unlockable(validFromMillis int64) bool {
	return validFromMillis >= v.Deadline
}

// Encode returns the ledger bytes of the record.
func Encode(v Vesting) ([]byte, error) {
	owner := OwnerTag(v.Owner)
	deadline := v.Deadline
	b, err := encMode.Marshal(wireVesting{Owner: &owner, Deadline: &deadline})
	if err != nil {
		return nil, fmt.Errorf("encode datum: %w", err)
	}
	return b, nil
}

// MustEncode is Encode for records known to be well formed.
func MustEncode(v Vesting) []byte {
	b, err := Encode(v)
	if err != nil {
		panic(err)
	}
	return b
}

// Decode parses ledger bytes back into a record.
func Decode(b []byte) (Vesting, error) {
	var w wireVesting
	if err := decMode.Unmarshal(b, &w); err != nil {
		return Vesting{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if w.Owner == nil {
		return Vesting{}, fmt.Errorf("%w: missing owner", ErrMalformed)
	}
	if w.Deadline == nil {
		return Vesting{}, fmt.Errorf("%w: missing deadline", ErrMalformed)
	}
	owner, err := ParseOwnerTag(*w.Owner)
	if err != nil {
		return Vesting{}, err
	}
	return Vesting{Owner: owner, Deadline: *w.Deadline}, nil
}

// OwnerTag renders a key hash as "keyHash-<hex>".
func OwnerTag(k types.KeyHash) string {
	return OwnerPrefix + k.String()
}

// ParseOwnerTag parses "keyHash-<hex>".
func ParseOwnerTag(s string) (types.KeyHash, error) {
	hexPart, ok := strings.CutPrefix(s, OwnerPrefix)
	if !ok {
		return types.KeyHash{}, fmt.Errorf("%w: %q lacks %q prefix", ErrInvalidOwner, s, OwnerPrefix)
	}
	k, err := types.HexToKeyHash(hexPart)
	if err != nil {
		return types.KeyHash{}, fmt.Errorf("%w: %v", ErrInvalidOwner, err)
	}
	return k, nil
}

// unitRedeemer is the CBOR empty map.
var unitRedeemer = []byte{0xa0}

// UnitRedeemer returns the redeemer supplied when unlocking.
func UnitRedeemer() []byte {
	out := make([]byte, len(unitRedeemer))
	copy(out, unitRedeemer)
	return out
}

// IsUnit reports whether b decodes to the unit redeemer.
func IsUnit(b []byte) bool {
	var m map[string]any
	if err := decMode.Unmarshal(b, &m); err != nil {
		return false
	}
	return m != nil && len(m) == 0
}
