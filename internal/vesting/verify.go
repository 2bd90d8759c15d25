package vesting

import (
	"bytes"
	"fmt"

	"github.com/Klingon-tech/klingnet-vesting/internal/ledger"
	"github.com/Klingon-tech/klingnet-vesting/pkg/tx"
)

// checkBuilt makes sure a remotely built transaction is the one asked for
// before it is signed. Outputs beyond those requested must pay the change
// address.
func checkBuilt(t *tx.Transaction, spec *ledger.TxSpec) error {
	if t == nil {
		return fmt.Errorf("%w: empty transaction", ErrUnexpectedTx)
	}

	used := make([]bool, len(t.Outputs))
	for i, want := range spec.Outputs {
		found := false
		for j, got := range t.Outputs {
			if !used[j] && sameOutput(got, want) {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: output %d missing", ErrUnexpectedTx, i)
		}
	}
	for j, got := range t.Outputs {
		if !used[j] && got.Address != spec.ChangeAddress {
			return fmt.Errorf("%w: output %d pays %s", ErrUnexpectedTx, j, got.Address)
		}
	}

	if len(t.ScriptInputs) != len(spec.ScriptInputs) {
		return fmt.Errorf("%w: %d script inputs, want %d", ErrUnexpectedTx, len(t.ScriptInputs), len(spec.ScriptInputs))
	}
	for i, want := range spec.ScriptInputs {
		got := t.ScriptInputs[i]
		if got.PrevOut != want.PrevOut || got.Version != want.Version ||
			!bytes.Equal(got.Script, want.Script) || !bytes.Equal(got.Datum, want.Datum) ||
			!bytes.Equal(got.Redeemer, want.Redeemer) {
			return fmt.Errorf("%w: script input %d altered", ErrUnexpectedTx, i)
		}
	}

	for _, k := range spec.RequiredSigners {
		if !t.RequiresSigner(k) {
			return fmt.Errorf("%w: required signer %s dropped", ErrUnexpectedTx, k)
		}
	}
	if t.ValidFrom != spec.ValidFrom || t.ValidUntil != spec.ValidUntil {
		return fmt.Errorf("%w: validity interval changed", ErrUnexpectedTx)
	}
	return nil
}

func sameOutput(a, b tx.Output) bool {
	if a.Address != b.Address || !bytes.Equal(a.Datum, b.Datum) || len(a.Amount) != len(b.Amount) {
		return false
	}
	for i := range a.Amount {
		if a.Amount[i] != b.Amount[i] {
			return false
		}
	}
	return true
}
