package vesting

import (
	"context"

	"github.com/Klingon-tech/klingnet-vesting/internal/ledger"
	"github.com/Klingon-tech/klingnet-vesting/internal/utxo"
	"github.com/Klingon-tech/klingnet-vesting/pkg/types"
	"github.com/rs/zerolog"
)

type tierOutcome int

const (
	tierEmpty tierOutcome = iota
	tierFound
	tierError
)

func (o tierOutcome) String() string {
	switch o {
	case tierFound:
		return "found"
	case tierError:
		return "error"
	default:
		return "empty"
	}
}

type tierResult struct {
	outcome tierOutcome
	utxo    *utxo.UTXO
	err     error
}

// Resolver turns a lock transaction id back into its script output.
type Resolver struct {
	ledger ledger.Service
	logger zerolog.Logger
}

// NewResolver returns a resolver querying l.
func NewResolver(l ledger.Service, logger zerolog.Logger) *Resolver {
	return &Resolver{ledger: l, logger: logger}
}

// Resolve finds the output of transaction id held at scriptAddr. It looks
// in the wallet view of owner first and falls back to listing scriptAddr.
// Any failure is reported as a *NotFoundError.
func (r *Resolver) Resolve(ctx context.Context, id types.Hash, owner, scriptAddr types.Address) (*utxo.UTXO, error) {
	primary := r.tier(func() ([]*utxo.UTXO, error) {
		return r.ledger.UTXOs(ctx, owner)
	}, id, scriptAddr)
	if primary.outcome == tierFound {
		r.logger.Debug().Str("outpoint", primary.utxo.Input.String()).Msg("Resolved from wallet view")
		return primary.utxo, nil
	}

	ev := r.logger.Warn().Str("tx", id.String()).Str("tier", primary.outcome.String())
	if primary.err != nil {
		ev = ev.Err(primary.err)
	}
	ev.Msg("Lock output not in wallet view, listing script address")

	fallback := r.tier(func() ([]*utxo.UTXO, error) {
		return r.ledger.AddressUTXOs(ctx, scriptAddr)
	}, id, scriptAddr)
	if fallback.outcome == tierFound {
		r.logger.Debug().Str("outpoint", fallback.utxo.Input.String()).Msg("Resolved from script address")
		return fallback.utxo, nil
	}

	r.logger.Warn().Str("tx", id.String()).Str("tier", fallback.outcome.String()).Msg("Lock output not at script address")
	return nil, &NotFoundError{
		TxID:          id,
		ScriptAddress: scriptAddr,
		PrimaryErr:    primary.err,
		FallbackErr:   fallback.err,
	}
}

// tier runs one lookup and matches by transaction id and script address.
// The lowest output index wins when several match.
func (r *Resolver) tier(list func() ([]*utxo.UTXO, error), id types.Hash, scriptAddr types.Address) tierResult {
	utxos, err := list()
	if err != nil {
		return tierResult{outcome: tierError, err: err}
	}
	var best *utxo.UTXO
	for _, u := range utxos {
		if u.Input.TxID != id || u.Output.Address != scriptAddr {
			continue
		}
		if best == nil || u.Input.Index < best.Input.Index {
			best = u
		}
	}
	if best == nil {
		return tierResult{outcome: tierEmpty}
	}
	return tierResult{outcome: tierFound, utxo: best}
}
