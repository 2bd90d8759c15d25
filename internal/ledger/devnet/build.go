package devnet

import (
	"context"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-vesting/internal/ledger"
	"github.com/Klingon-tech/klingnet-vesting/internal/utxo"
	"github.com/Klingon-tech/klingnet-vesting/internal/wallet"
	"github.com/Klingon-tech/klingnet-vesting/pkg/tx"
	"github.com/Klingon-tech/klingnet-vesting/pkg/types"
)

// maxFeeRounds bounds the select/re-price loop in Build.
const maxFeeRounds = 8

// Build funds spec from the change address and prices it. The returned
// transaction is unsigned.
func (l *Ledger) Build(ctx context.Context, spec *ledger.TxSpec) (*tx.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, ledger.Reject(ledger.StageBuild, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	scriptValue, err := l.scriptInputValue(spec.ScriptInputs)
	if err != nil {
		return nil, ledger.Reject(ledger.StageBuild, err)
	}
	outValues := make([]types.Value, len(spec.Outputs))
	for i, out := range spec.Outputs {
		if !out.Amount.OnlyLovelace() {
			return nil, ledger.Reject(ledger.StageBuild, fmt.Errorf("output %d carries native assets", i))
		}
		outValues[i] = out.Amount
	}
	outTotal, err := types.SumLovelace(outValues...)
	if err != nil {
		return nil, ledger.Reject(ledger.StageBuild, err)
	}

	candidates, err := l.spendable(spec)
	if err != nil {
		return nil, err
	}
	changeKey, _ := spec.ChangeAddress.PaymentKeyHash()

	var fee uint64
	for round := 0; round < maxFeeRounds; round++ {
		need := outTotal + fee
		if need < outTotal {
			return nil, ledger.Reject(ledger.StageBuild, tx.ErrOutputOverflow)
		}

		var inputs []*utxo.UTXO
		inTotal := scriptValue
		if need > scriptValue {
			sel, err := wallet.SelectCoins(candidates, need-scriptValue)
			if err != nil {
				if errors.Is(err, wallet.ErrInsufficientFunds) || errors.Is(err, wallet.ErrNoUTXOs) {
					return nil, fmt.Errorf("%w: %s cannot cover %d lovelace: %v",
						ledger.ErrInsufficientFunds, spec.ChangeAddress, need-scriptValue, err)
				}
				return nil, ledger.Reject(ledger.StageBuild, err)
			}
			inputs = sel.Inputs
			inTotal += sel.Total
		}

		t := assemble(spec, inputs, fee, inTotal-need)
		witnesses := signerCount(spec.RequiredSigners, changeKey, len(inputs) > 0)
		required := tx.RequiredFee(t, l.fees, witnesses)
		if fee >= required {
			l.logger.Debug().
				Int("inputs", len(t.Inputs)).
				Int("script_inputs", len(t.ScriptInputs)).
				Uint64("fee", fee).
				Int("rounds", round+1).
				Msg("Built transaction")
			return t, nil
		}
		fee = required
	}
	return nil, ledger.Reject(ledger.StageBuild, fmt.Errorf("fee did not converge after %d rounds", maxFeeRounds))
}

// scriptInputValue sums the lovelace locked in the outputs ins spend.
func (l *Ledger) scriptInputValue(ins []tx.ScriptInput) (uint64, error) {
	values := make([]types.Value, len(ins))
	for i, in := range ins {
		out, err := l.utxos.GetOutput(in.PrevOut)
		if err != nil {
			return 0, fmt.Errorf("script input %d (%s): %w", i, in.PrevOut, err)
		}
		if !out.Address.IsScript() {
			return 0, fmt.Errorf("script input %d (%s): %w", i, in.PrevOut, tx.ErrScriptMismatch)
		}
		if !out.Amount.OnlyLovelace() {
			return 0, fmt.Errorf("script input %d (%s) carries native assets", i, in.PrevOut)
		}
		values[i] = out.Amount
	}
	return types.SumLovelace(values...)
}

// spendable returns the plain lovelace outputs at the change address that
// spec does not already spend.
func (l *Ledger) spendable(spec *ledger.TxSpec) ([]*utxo.UTXO, error) {
	all, err := l.utxos.GetByAddress(spec.ChangeAddress)
	if err != nil {
		return nil, err
	}
	taken := make(map[types.Outpoint]bool, len(spec.ScriptInputs))
	for _, in := range spec.ScriptInputs {
		taken[in.PrevOut] = true
	}
	out := all[:0]
	for _, u := range all {
		if taken[u.Input] || len(u.Output.Datum) > 0 || !u.Output.Amount.OnlyLovelace() {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func assemble(spec *ledger.TxSpec, inputs []*utxo.UTXO, fee, change uint64) *tx.Transaction {
	b := tx.NewBuilder()
	for _, u := range inputs {
		b.AddInput(u.Input)
	}
	for _, in := range spec.ScriptInputs {
		b.AddScriptInput(in.PrevOut, in.Version, in.Script, in.Datum, in.Redeemer)
	}
	for _, out := range spec.Outputs {
		b.AddDatumOutput(out.Address, out.Amount, out.Datum)
	}
	if change > 0 {
		b.AddOutput(spec.ChangeAddress, types.NewLovelace(change))
	}
	for _, k := range spec.RequiredSigners {
		b.AddRequiredSigner(k)
	}
	return b.SetFee(fee).
		SetValidFrom(spec.ValidFrom).
		SetValidUntil(spec.ValidUntil).
		Build()
}

// signerCount is the number of distinct keys expected to witness.
func signerCount(required []types.KeyHash, changeKey types.KeyHash, fundsFromChange bool) int {
	keys := make(map[types.KeyHash]bool, len(required)+1)
	for _, k := range required {
		keys[k] = true
	}
	if fundsFromChange {
		keys[changeKey] = true
	}
	return len(keys)
}
