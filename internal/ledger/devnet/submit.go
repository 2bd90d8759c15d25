package devnet

import (
	"context"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-vesting/internal/ledger"
	"github.com/Klingon-tech/klingnet-vesting/internal/utxo"
	"github.com/Klingon-tech/klingnet-vesting/pkg/tx"
	"github.com/Klingon-tech/klingnet-vesting/pkg/types"
)

// Interval and fee errors.
var (
	ErrNotYetValid = errors.New("transaction not yet valid")
	ErrExpired     = errors.New("transaction expired")
	ErrFeeTooLow   = errors.New("fee below minimum")
)

// Submit validates t against the UTXO set and the clock, runs the script
// validator on every script input, then applies it atomically.
func (l *Ledger) Submit(ctx context.Context, t *tx.Transaction) (types.Hash, error) {
	if err := ctx.Err(); err != nil {
		return types.Hash{}, err
	}
	if t == nil {
		return types.Hash{}, ledger.Reject(ledger.StageSubmit, fmt.Errorf("nil transaction"))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	id := t.Hash()
	if err := l.check(t); err != nil {
		l.logger.Debug().Err(err).Str("tx", id.String()).Msg("Rejected transaction")
		return types.Hash{}, ledger.Reject(ledger.StageSubmit, err)
	}

	created := make([]*utxo.UTXO, len(t.Outputs))
	for i, out := range t.Outputs {
		created[i] = &utxo.UTXO{
			Input:  types.Outpoint{TxID: id, Index: uint32(i)},
			Output: out,
		}
	}
	if err := l.utxos.Apply(t.Spends(), created); err != nil {
		return types.Hash{}, fmt.Errorf("apply %s: %w", id, err)
	}

	l.logger.Info().
		Str("tx", id.String()).
		Int("inputs", len(t.Inputs)+len(t.ScriptInputs)).
		Int("outputs", len(t.Outputs)).
		Uint64("fee", t.Fee).
		Msg("Accepted transaction")
	return id, nil
}

func (l *Ledger) check(t *tx.Transaction) error {
	if _, err := t.ValidateWithUTXOs(l.utxos); err != nil {
		return err
	}

	now := l.now().UnixMilli()
	if t.ValidFrom > now {
		return fmt.Errorf("%w: valid from %d, ledger time %d", ErrNotYetValid, t.ValidFrom, now)
	}
	if t.ValidUntil != 0 && now > t.ValidUntil {
		return fmt.Errorf("%w: valid until %d, ledger time %d", ErrExpired, t.ValidUntil, now)
	}

	if floor := tx.RequiredFee(t, l.fees, 0); t.Fee < floor {
		return fmt.Errorf("%w: %d < %d", ErrFeeTooLow, t.Fee, floor)
	}

	for i, in := range t.ScriptInputs {
		if err := l.validator.Validate(in, t); err != nil {
			return fmt.Errorf("script input %d (%s): %w", i, in.PrevOut, err)
		}
	}
	return nil
}
