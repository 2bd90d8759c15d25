package vesting

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/Klingon-tech/klingnet-vesting/internal/ledger"
	"github.com/Klingon-tech/klingnet-vesting/internal/wallet"
	"github.com/Klingon-tech/klingnet-vesting/pkg/datum"
	"github.com/Klingon-tech/klingnet-vesting/pkg/script"
	"github.com/Klingon-tech/klingnet-vesting/pkg/tx"
	"github.com/Klingon-tech/klingnet-vesting/pkg/types"
	"github.com/rs/zerolog"
)

// Unlocker releases a vesting output to its owner.
type Unlocker struct {
	ledger        ledger.Service
	resolver      *Resolver
	params        Params
	logger        zerolog.Logger
	now           func() time.Time
	checkDeadline bool
}

// UnlockOption configures an Unlocker.
type UnlockOption func(*Unlocker)

// WithClock replaces the wall clock that sets the validity lower bound.
func WithClock(now func() time.Time) UnlockOption {
	return func(u *Unlocker) { u.now = now }
}

// WithDeadlineCheck makes Unlock fail with ErrTooEarly instead of
// submitting a transaction the validator will reject.
func WithDeadlineCheck(enabled bool) UnlockOption {
	return func(u *Unlocker) { u.checkDeadline = enabled }
}

// NewUnlocker returns an unlocker that resolves and submits through l.
func NewUnlocker(l ledger.Service, p Params, logger zerolog.Logger, opts ...UnlockOption) *Unlocker {
	u := &Unlocker{
		ledger:   l,
		resolver: NewResolver(l, logger),
		params:   p,
		logger:   logger,
		now:      time.Now,
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

// UnlockResult describes a completed withdrawal.
type UnlockResult struct {
	TxID     types.Hash
	Spent    types.Outpoint
	Released uint64 // lovelace held by the spent output
	Fee      uint64
}

// Unlock spends the script output created by lockTx back to id. The datum
// is rebuilt from the configured Params rather than copied from the ledger.
func (u *Unlocker) Unlock(ctx context.Context, id *wallet.Identity, ref *script.Reference, lockTx types.Hash) (*UnlockResult, error) {
	if ref.Address.Network != id.Network {
		return nil, fmt.Errorf("%w: script on %s, identity on %s", ErrNetworkMismatch, ref.Address.Network, id.Network)
	}
	record := u.params.Record(id.KeyHash)
	d, err := datum.Encode(record)
	if err != nil {
		return nil, err
	}

	now := u.now().UnixMilli()
	if !record.Unlockable(now) {
		if u.checkDeadline {
			return nil, fmt.Errorf("%w: deadline %s", ErrTooEarly, record.DeadlineTime().Format(time.RFC3339))
		}
		u.logger.Warn().
			Time("deadline", record.DeadlineTime()).
			Msg("Deadline has not passed, the ledger will reject this transaction")
	}

	locked, err := u.resolver.Resolve(ctx, lockTx, id.Address, ref.Address)
	if err != nil {
		return nil, err
	}
	if len(locked.Output.Datum) > 0 && !bytes.Equal(locked.Output.Datum, d) {
		u.logger.Warn().
			Str("outpoint", locked.Input.String()).
			Msg("Datum on the ledger differs from the configured record")
	}

	spec := &ledger.TxSpec{
		ChangeAddress: id.Address,
		ScriptInputs: []tx.ScriptInput{{
			PrevOut:  locked.Input,
			Version:  uint8(ref.Version),
			Script:   ref.Code,
			Datum:    d,
			Redeemer: datum.UnitRedeemer(),
		}},
		RequiredSigners: []types.KeyHash{id.KeyHash},
		ValidFrom:       now,
	}

	unsigned, err := u.ledger.Build(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("build unlock transaction: %w", err)
	}
	if err := checkBuilt(unsigned, spec); err != nil {
		return nil, err
	}
	if err := unsigned.Sign(id.Signer()); err != nil {
		return nil, fmt.Errorf("sign unlock transaction: %w", err)
	}
	txID, err := u.ledger.Submit(ctx, unsigned)
	if err != nil {
		return nil, fmt.Errorf("submit unlock transaction: %w", err)
	}

	res := &UnlockResult{
		TxID:     txID,
		Spent:    locked.Input,
		Released: locked.Lovelace(),
		Fee:      unsigned.Fee,
	}
	u.logger.Info().
		Str("tx", txID.String()).
		Str("spent", res.Spent.String()).
		Uint64("lovelace", res.Released).
		Uint64("fee", res.Fee).
		Msg("Unlocked funds")
	return res, nil
}
