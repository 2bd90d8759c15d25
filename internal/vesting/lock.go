package vesting

import (
	"context"
	"fmt"

	"github.com/Klingon-tech/klingnet-vesting/internal/ledger"
	"github.com/Klingon-tech/klingnet-vesting/internal/wallet"
	"github.com/Klingon-tech/klingnet-vesting/pkg/datum"
	"github.com/Klingon-tech/klingnet-vesting/pkg/script"
	"github.com/Klingon-tech/klingnet-vesting/pkg/tx"
	"github.com/Klingon-tech/klingnet-vesting/pkg/types"
	"github.com/rs/zerolog"
)

// Locker deposits lovelace at a vesting script.
type Locker struct {
	ledger ledger.Service
	params Params
	logger zerolog.Logger
}

// NewLocker returns a locker that submits through l.
func NewLocker(l ledger.Service, p Params, logger zerolog.Logger) *Locker {
	return &Locker{ledger: l, params: p, logger: logger}
}

// Lock deposits the configured amount under the configured deadline,
// owned by id.
func (lk *Locker) Lock(ctx context.Context, id *wallet.Identity, ref *script.Reference) (types.Hash, error) {
	if err := lk.params.Validate(); err != nil {
		return types.Hash{}, err
	}
	return lk.LockRecord(ctx, id, ref, lk.params.Record(id.KeyHash), lk.params.LockAmount)
}

// LockRecord pays amount lovelace to ref's address with record as the
// inline datum. Funding and change use id's address.
func (lk *Locker) LockRecord(ctx context.Context, id *wallet.Identity, ref *script.Reference, record datum.Vesting, amount uint64) (types.Hash, error) {
	if amount == 0 {
		return types.Hash{}, fmt.Errorf("lock amount must be positive")
	}
	if record.Owner != id.KeyHash {
		return types.Hash{}, fmt.Errorf("%w: %s", ErrForeignOwner, record.Owner)
	}
	if ref.Address.Network != id.Network {
		return types.Hash{}, fmt.Errorf("%w: script on %s, identity on %s", ErrNetworkMismatch, ref.Address.Network, id.Network)
	}

	d, err := datum.Encode(record)
	if err != nil {
		return types.Hash{}, err
	}
	deposit := tx.Output{Address: ref.Address, Amount: types.NewLovelace(amount), Datum: d}
	spec := &ledger.TxSpec{
		ChangeAddress: id.Address,
		Outputs:       []tx.Output{deposit},
	}

	unsigned, err := lk.ledger.Build(ctx, spec)
	if err != nil {
		return types.Hash{}, fmt.Errorf("build lock transaction: %w", err)
	}
	if err := checkBuilt(unsigned, spec); err != nil {
		return types.Hash{}, err
	}
	if err := unsigned.Sign(id.Signer()); err != nil {
		return types.Hash{}, fmt.Errorf("sign lock transaction: %w", err)
	}
	txID, err := lk.ledger.Submit(ctx, unsigned)
	if err != nil {
		return types.Hash{}, fmt.Errorf("submit lock transaction: %w", err)
	}

	lk.logger.Info().
		Str("tx", txID.String()).
		Str("script", ref.Address.String()).
		Uint64("lovelace", amount).
		Time("deadline", record.DeadlineTime()).
		Uint64("fee", unsigned.Fee).
		Msg("Locked funds")
	return txID, nil
}
