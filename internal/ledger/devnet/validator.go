package devnet

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-vesting/pkg/datum"
	"github.com/Klingon-tech/klingnet-vesting/pkg/tx"
)

// Script validation errors.
var (
	ErrBadRedeemer        = errors.New("redeemer is not the unit value")
	ErrOwnerNotSigned     = errors.New("owner did not sign")
	ErrDeadlineNotReached = errors.New("deadline not reached")
)

// Validator decides whether t may spend the script input in.
type Validator interface {
	Validate(in tx.ScriptInput, t *tx.Transaction) error
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(in tx.ScriptInput, t *tx.Transaction) error

// Validate calls f.
func (f ValidatorFunc) Validate(in tx.ScriptInput, t *tx.Transaction) error {
	return f(in, t)
}

// VestingValidator releases a vesting output to the owner its datum names
// once the transaction's lower validity bound is at or past the deadline.
func VestingValidator(in tx.ScriptInput, t *tx.Transaction) error {
	v, err := datum.Decode(in.Datum)
	if err != nil {
		return err
	}
	if !datum.IsUnit(in.Redeemer) {
		return ErrBadRedeemer
	}
	if !t.RequiresSigner(v.Owner) {
		return fmt.Errorf("%w: %s is not a required signer", ErrOwnerNotSigned, v.Owner)
	}
	if !t.WitnessKeyHashes()[v.Owner] {
		return fmt.Errorf("%w: no witness for %s", ErrOwnerNotSigned, v.Owner)
	}
	if t.ValidFrom == 0 || !v.Unlockable(t.ValidFrom) {
		return fmt.Errorf("%w: valid from %d, deadline %d", ErrDeadlineNotReached, t.ValidFrom, v.Deadline)
	}
	return nil
}
