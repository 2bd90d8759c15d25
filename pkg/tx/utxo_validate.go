package tx

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/Klingon-tech/klingnet-vesting/pkg/crypto"
	"github.com/Klingon-tech/klingnet-vesting/pkg/types"
)

// UTXO-aware validation errors.
var (
	ErrInputNotFound    = errors.New("input UTXO not found")
	ErrValueNotBalanced = errors.New("inputs do not equal outputs plus fee")
	ErrInputOverflow    = errors.New("input values overflow")
	ErrScriptMismatch   = errors.New("script does not match UTXO address")
	ErrKeyMismatch      = errors.New("input address is not a key address")
	ErrScriptAsKey      = errors.New("script-locked UTXO spent as key input")
	ErrDatumMismatch    = errors.New("datum does not match UTXO datum")
)

// UTXOProvider provides read-only access to the UTXO set for validation.
type UTXOProvider interface {
	GetOutput(outpoint types.Outpoint) (Output, error)
}

// ValidateWithUTXOs performs full validation of a transaction against the
// UTXO set. It checks that all inputs exist, that key inputs are witnessed
// by their owner, that script inputs carry the script their address names
// and the datum stored on the output, that signatures are valid, and that
// value is conserved per unit. Returns the spent outputs in Spends() order.
//
// Validator logic of script inputs is not evaluated here.
func (tx *Transaction) ValidateWithUTXOs(provider UTXOProvider) ([]Output, error) {
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	if err := tx.VerifySignatures(); err != nil {
		return nil, err
	}

	signed := tx.WitnessKeyHashes()
	spent := make([]Output, 0, len(tx.Inputs)+len(tx.ScriptInputs))

	for i, in := range tx.Inputs {
		out, err := provider.GetOutput(in.PrevOut)
		if err != nil {
			return nil, fmt.Errorf("input %d (%s): %w", i, in.PrevOut, err)
		}
		if out.Address.IsScript() {
			return nil, fmt.Errorf("input %d (%s): %w", i, in.PrevOut, ErrScriptAsKey)
		}
		owner, ok := out.Address.PaymentKeyHash()
		if !ok {
			return nil, fmt.Errorf("input %d (%s): %w", i, in.PrevOut, ErrKeyMismatch)
		}
		if !signed[owner] {
			return nil, fmt.Errorf("input %d (%s): %w: %s", i, in.PrevOut, ErrMissingWitness, owner)
		}
		spent = append(spent, out)
	}

	for i, in := range tx.ScriptInputs {
		out, err := provider.GetOutput(in.PrevOut)
		if err != nil {
			return nil, fmt.Errorf("script input %d (%s): %w", i, in.PrevOut, err)
		}
		if !out.Address.IsScript() {
			return nil, fmt.Errorf("script input %d (%s): %w", i, in.PrevOut, ErrScriptMismatch)
		}
		if crypto.ScriptHashOf(in.Version, in.Script) != types.ScriptHash(out.Address.Payment.Hash) {
			return nil, fmt.Errorf("script input %d (%s): %w", i, in.PrevOut, ErrScriptMismatch)
		}
		if !bytes.Equal(in.Datum, out.Datum) {
			return nil, fmt.Errorf("script input %d (%s): %w", i, in.PrevOut, ErrDatumMismatch)
		}
		spent = append(spent, out)
	}

	in, err := sumUnits(spent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputOverflow, err)
	}
	out, err := sumUnits(tx.Outputs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutputOverflow, err)
	}
	if out[types.Lovelace] > math.MaxUint64-tx.Fee {
		return nil, ErrOutputOverflow
	}
	out[types.Lovelace] += tx.Fee

	if len(in) != len(out) {
		return nil, fmt.Errorf("%w: %d units in, %d out", ErrValueNotBalanced, len(in), len(out))
	}
	for unit, q := range in {
		if out[unit] != q {
			return nil, fmt.Errorf("%w: %s in=%d out+fee=%d", ErrValueNotBalanced, unit, q, out[unit])
		}
	}
	return spent, nil
}

func sumUnits(outs []Output) (map[string]uint64, error) {
	totals := make(map[string]uint64)
	for _, o := range outs {
		for _, a := range o.Amount {
			if totals[a.Unit] > math.MaxUint64-a.Quantity {
				return nil, fmt.Errorf("unit %s overflows", a.Unit)
			}
			totals[a.Unit] += a.Quantity
		}
	}
	return totals, nil
}
