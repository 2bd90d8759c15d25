package tx

import (
	"errors"
	"fmt"
	"math"

	"github.com/Klingon-tech/klingnet-vesting/pkg/crypto"
	"github.com/Klingon-tech/klingnet-vesting/pkg/types"
)

// Structural limits.
const (
	MaxInputs     = 256
	MaxOutputs    = 256
	MaxDatumSize  = 8 * 1024
	MaxScriptSize = 64 * 1024
)

// Validation errors.
var (
	ErrNoInputs        = errors.New("transaction has no inputs")
	ErrNoOutputs       = errors.New("transaction has no outputs")
	ErrDuplicateInput  = errors.New("duplicate input")
	ErrOutputOverflow  = errors.New("output values overflow")
	ErrZeroOutput      = errors.New("output carries no lovelace")
	ErrZeroQuantity    = errors.New("asset quantity is zero")
	ErrMissingScript   = errors.New("script input missing script")
	ErrMissingDatum    = errors.New("script input missing datum")
	ErrMissingRedeemer = errors.New("script input missing redeemer")
	ErrDatumTooLarge   = errors.New("datum too large")
	ErrScriptTooLarge  = errors.New("script too large")
	ErrInvalidInterval = errors.New("validity interval is empty")
	ErrMissingSig      = errors.New("witness missing signature")
	ErrInvalidSig      = errors.New("invalid signature")
	ErrMissingWitness  = errors.New("required signer did not witness")
	ErrTooManyInputs   = errors.New("too many inputs")
	ErrTooManyOutputs  = errors.New("too many outputs")
)

// Validate checks transaction structure and basic rules.
// This does NOT check UTXO existence (that requires the UTXO set).
func (tx *Transaction) Validate() error {
	nIn := len(tx.Inputs) + len(tx.ScriptInputs)
	if nIn == 0 {
		return ErrNoInputs
	}
	if len(tx.Outputs) == 0 {
		return ErrNoOutputs
	}
	if nIn > MaxInputs {
		return fmt.Errorf("%w: %d inputs, max %d", ErrTooManyInputs, nIn, MaxInputs)
	}
	if len(tx.Outputs) > MaxOutputs {
		return fmt.Errorf("%w: %d outputs, max %d", ErrTooManyOutputs, len(tx.Outputs), MaxOutputs)
	}

	seen := make(map[types.Outpoint]bool, nIn)
	for i, op := range tx.Spends() {
		if seen[op] {
			return fmt.Errorf("input %d (%s): %w", i, op, ErrDuplicateInput)
		}
		seen[op] = true
	}

	for i, in := range tx.ScriptInputs {
		switch {
		case len(in.Script) == 0:
			return fmt.Errorf("script input %d: %w", i, ErrMissingScript)
		case len(in.Script) > MaxScriptSize:
			return fmt.Errorf("script input %d: %w: %d bytes", i, ErrScriptTooLarge, len(in.Script))
		case len(in.Datum) == 0:
			return fmt.Errorf("script input %d: %w", i, ErrMissingDatum)
		case len(in.Datum) > MaxDatumSize:
			return fmt.Errorf("script input %d: %w: %d bytes", i, ErrDatumTooLarge, len(in.Datum))
		case len(in.Redeemer) == 0:
			return fmt.Errorf("script input %d: %w", i, ErrMissingRedeemer)
		}
	}

	var totalOutput uint64
	for i, out := range tx.Outputs {
		q := out.Amount.Lovelace()
		if q == 0 {
			return fmt.Errorf("output %d: %w", i, ErrZeroOutput)
		}
		for _, a := range out.Amount {
			if a.Quantity == 0 {
				return fmt.Errorf("output %d unit %q: %w", i, a.Unit, ErrZeroQuantity)
			}
		}
		if len(out.Datum) > MaxDatumSize {
			return fmt.Errorf("output %d: %w: %d bytes, max %d", i, ErrDatumTooLarge, len(out.Datum), MaxDatumSize)
		}
		if totalOutput > math.MaxUint64-q {
			return fmt.Errorf("output %d: %w", i, ErrOutputOverflow)
		}
		totalOutput += q
	}

	if tx.ValidUntil != 0 && tx.ValidFrom > tx.ValidUntil {
		return fmt.Errorf("%w: from %d until %d", ErrInvalidInterval, tx.ValidFrom, tx.ValidUntil)
	}

	return nil
}

// VerifySignatures checks that every witness signs this transaction and
// that every required signer has a witness.
func (tx *Transaction) VerifySignatures() error {
	hash := tx.Hash()
	for i, w := range tx.Witnesses {
		if len(w.Signature) == 0 {
			return fmt.Errorf("witness %d: %w", i, ErrMissingSig)
		}
		if err := crypto.VerifyWitness(hash, w.Signature, w.PubKey); err != nil {
			return fmt.Errorf("witness %d: %w: %w", i, ErrInvalidSig, err)
		}
	}
	signed := tx.WitnessKeyHashes()
	for _, k := range tx.RequiredSigners {
		if !signed[k] {
			return fmt.Errorf("%w: %s", ErrMissingWitness, k)
		}
	}
	return nil
}
