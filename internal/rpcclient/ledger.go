package rpcclient

import (
	"context"
	"errors"

	"github.com/Klingon-tech/klingnet-vesting/internal/ledger"
	"github.com/Klingon-tech/klingnet-vesting/internal/rpc"
	"github.com/Klingon-tech/klingnet-vesting/internal/utxo"
	"github.com/Klingon-tech/klingnet-vesting/pkg/tx"
	"github.com/Klingon-tech/klingnet-vesting/pkg/types"
)

// Ledger is a ledger.Service backed by a remote node.
type Ledger struct {
	c *Client
}

var _ ledger.Service = (*Ledger)(nil)

// NewLedger wraps c as a ledger.Service.
func NewLedger(c *Client) *Ledger {
	return &Ledger{c: c}
}

// call invokes method and restores ledger errors from their remote codes.
func (l *Ledger) call(ctx context.Context, method string, params, result interface{}) error {
	err := l.c.Call(ctx, method, params, result)
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		if lerr := ledger.FromCode(rpcErr.Code, rpcErr.Message); lerr != nil {
			return lerr
		}
	}
	return err
}

// UTXOs returns the wallet view of addr.
func (l *Ledger) UTXOs(ctx context.Context, addr types.Address) ([]*utxo.UTXO, error) {
	var result rpc.UTXOListResult
	if err := l.call(ctx, "ledger_getUtxos", rpc.AddressParam{Address: addr.String()}, &result); err != nil {
		return nil, err
	}
	return result.UTXOs, nil
}

// AddressUTXOs lists the outputs sitting at addr.
func (l *Ledger) AddressUTXOs(ctx context.Context, addr types.Address) ([]*utxo.UTXO, error) {
	var result rpc.UTXOListResult
	if err := l.call(ctx, "ledger_getAddressUtxos", rpc.AddressParam{Address: addr.String()}, &result); err != nil {
		return nil, err
	}
	return result.UTXOs, nil
}

// Build asks the node to fund and price spec.
func (l *Ledger) Build(ctx context.Context, spec *ledger.TxSpec) (*tx.Transaction, error) {
	var result rpc.TxBuildResult
	if err := l.call(ctx, "tx_build", rpc.TxBuildParam{Spec: spec}, &result); err != nil {
		return nil, err
	}
	if result.Transaction == nil {
		return nil, errors.New("tx_build returned no transaction")
	}
	return result.Transaction, nil
}

// Submit sends a signed transaction.
func (l *Ledger) Submit(ctx context.Context, t *tx.Transaction) (types.Hash, error) {
	var result rpc.TxSubmitResult
	if err := l.call(ctx, "tx_submit", rpc.TxSubmitParam{Transaction: t}, &result); err != nil {
		return types.Hash{}, err
	}
	return result.TxID, nil
}

// Fund asks a devnet node to pay amount lovelace to addr.
func (l *Ledger) Fund(ctx context.Context, addr types.Address, amount uint64) (types.Outpoint, error) {
	var result rpc.FundResult
	if err := l.call(ctx, "ledger_fund", rpc.FundParam{Address: addr.String(), Amount: amount}, &result); err != nil {
		return types.Outpoint{}, err
	}
	return result.Outpoint, nil
}

// Info returns the node's ledger summary.
func (l *Ledger) Info(ctx context.Context) (*ledger.Info, error) {
	var info ledger.Info
	if err := l.call(ctx, "ledger_getInfo", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
