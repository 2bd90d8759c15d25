// Package devnet is a single-node, in-process ledger over a storage.DB.
// Transactions are funded by coin selection at build time and fully
// validated, script inputs included, at submission.
package devnet

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Klingon-tech/klingnet-vesting/internal/ledger"
	klog "github.com/Klingon-tech/klingnet-vesting/internal/log"
	"github.com/Klingon-tech/klingnet-vesting/internal/storage"
	"github.com/Klingon-tech/klingnet-vesting/internal/utxo"
	"github.com/Klingon-tech/klingnet-vesting/pkg/crypto"
	"github.com/Klingon-tech/klingnet-vesting/pkg/datum"
	"github.com/Klingon-tech/klingnet-vesting/pkg/tx"
	"github.com/Klingon-tech/klingnet-vesting/pkg/types"
	"github.com/rs/zerolog"
)

var _ ledger.Service = (*Ledger)(nil)

// Storage namespaces. The UTXO set and the ledger's own bookkeeping share
// one database.
var (
	utxoNamespace = []byte("utxo/")
	metaNamespace = []byte("meta/")

	faucetSeqKey = []byte("faucet")
)

// Ledger is a devnet ledger. All mutations are serialised, so an output is
// consumed by at most one transaction.
type Ledger struct {
	mu        sync.Mutex
	network   types.Network
	meta      *storage.PrefixDB
	utxos     *utxo.Store
	fees      tx.FeeParams
	validator Validator
	now       func() time.Time
	logger    zerolog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock replaces the wall clock used for validity intervals.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithFees sets the fee schedule.
func WithFees(p tx.FeeParams) Option {
	return func(l *Ledger) { l.fees = p }
}

// WithValidator replaces the script validator run for every script input.
func WithValidator(v Validator) Option {
	return func(l *Ledger) { l.validator = v }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// New opens a devnet ledger over db.
func New(db storage.DB, network types.Network, opts ...Option) *Ledger {
	l := &Ledger{
		network:   network,
		meta:      storage.NewPrefixDB(db, metaNamespace),
		utxos:     utxo.NewStore(storage.NewPrefixDB(db, utxoNamespace), utxo.WithOwnerIndex(datumOwner)),
		fees:      tx.DefaultFeeParams(),
		validator: ValidatorFunc(VestingValidator),
		now:       time.Now,
		logger:    klog.WithComponent("ledger"),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// datumOwner attributes a script output to the owner its vesting datum names.
func datumOwner(out tx.Output) (types.KeyHash, bool) {
	if !out.Address.IsScript() || len(out.Datum) == 0 {
		return types.KeyHash{}, false
	}
	v, err := datum.Decode(out.Datum)
	if err != nil {
		return types.KeyHash{}, false
	}
	return v.Owner, true
}

// Network returns the network the ledger serves.
func (l *Ledger) Network() types.Network {
	return l.network
}

// Fees returns the fee schedule.
func (l *Ledger) Fees() tx.FeeParams {
	return l.fees
}

// UTXOs returns the outputs at addr plus script outputs whose datum names
// the payment key of addr.
func (l *Ledger) UTXOs(ctx context.Context, addr types.Address) ([]*utxo.UTXO, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	utxos, err := l.utxos.GetByAddress(addr)
	if err != nil {
		return nil, err
	}
	kh, ok := addr.PaymentKeyHash()
	if !ok {
		return utxos, nil
	}
	owned, err := l.utxos.GetByOwner(kh)
	if err != nil {
		return nil, err
	}
	seen := make(map[types.Outpoint]bool, len(utxos))
	for _, u := range utxos {
		seen[u.Input] = true
	}
	for _, u := range owned {
		if !seen[u.Input] {
			utxos = append(utxos, u)
		}
	}
	return utxos, nil
}

// AddressUTXOs lists the outputs at addr.
func (l *Ledger) AddressUTXOs(ctx context.Context, addr types.Address) ([]*utxo.UTXO, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.utxos.GetByAddress(addr)
}

// Fund mints amount lovelace to addr out of thin air.
func (l *Ledger) Fund(ctx context.Context, addr types.Address, amount uint64) (types.Outpoint, error) {
	if err := ctx.Err(); err != nil {
		return types.Outpoint{}, err
	}
	if addr.IsZero() {
		return types.Outpoint{}, fmt.Errorf("fund: address required")
	}
	if amount == 0 {
		return types.Outpoint{}, fmt.Errorf("fund: amount must be positive")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	seq, err := l.nextFaucetSeq()
	if err != nil {
		return types.Outpoint{}, fmt.Errorf("fund: %w", err)
	}
	seed := make([]byte, 0, 64)
	seed = append(seed, "faucet"...)
	seed = binary.LittleEndian.AppendUint64(seed, seq)
	seed = binary.LittleEndian.AppendUint64(seed, uint64(l.now().UnixNano()))
	seed = append(seed, addr.Bytes()...)

	op := types.Outpoint{TxID: crypto.Hash(seed)}
	u := &utxo.UTXO{Input: op, Output: tx.Output{Address: addr, Amount: types.NewLovelace(amount)}}
	if err := l.utxos.Put(u); err != nil {
		return types.Outpoint{}, fmt.Errorf("fund: %w", err)
	}
	l.logger.Info().Str("address", addr.String()).Uint64("amount", amount).Str("outpoint", op.String()).Msg("Funded address")
	return op, nil
}

// nextFaucetSeq bumps the persisted faucet counter. Callers hold l.mu.
func (l *Ledger) nextFaucetSeq() (uint64, error) {
	var seq uint64
	raw, err := l.meta.Get(faucetSeqKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return 0, err
	case len(raw) != 8:
		return 0, fmt.Errorf("faucet counter is %d bytes", len(raw))
	default:
		seq = binary.BigEndian.Uint64(raw)
	}
	seq++
	if err := l.meta.Put(faucetSeqKey, binary.BigEndian.AppendUint64(nil, seq)); err != nil {
		return 0, err
	}
	return seq, nil
}

// Reset empties the ledger: every output and the faucet counter go.
func (l *Ledger) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.utxos.ClearAll(); err != nil {
		return fmt.Errorf("reset utxo set: %w", err)
	}
	if err := l.meta.DeleteAll(); err != nil {
		return fmt.Errorf("reset metadata: %w", err)
	}
	l.logger.Warn().Str("network", l.network.String()).Msg("Ledger reset")
	return nil
}

// Info summarises the ledger.
func (l *Ledger) Info(ctx context.Context) (*ledger.Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	count, err := l.utxos.Count()
	if err != nil {
		return nil, err
	}
	root, err := utxo.Commitment(l.utxos)
	if err != nil {
		return nil, err
	}
	return &ledger.Info{
		Network:    l.network.String(),
		Now:        l.now().UnixMilli(),
		UTXOs:      count,
		Commitment: root,
		Fees:       l.fees,
	}, nil
}
