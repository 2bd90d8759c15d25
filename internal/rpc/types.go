package rpc

import (
	"github.com/Klingon-tech/klingnet-vesting/internal/ledger"
	"github.com/Klingon-tech/klingnet-vesting/internal/utxo"
	"github.com/Klingon-tech/klingnet-vesting/pkg/tx"
	"github.com/Klingon-tech/klingnet-vesting/pkg/types"
)

// JSON-RPC 2.0 error codes. Ledger rejections use the codes in package
// ledger.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeNotFound       = -32000
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      interface{} `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ── Param types ─────────────────────────────────────────────────────────

// AddressParam is used by ledger_getUtxos and ledger_getAddressUtxos.
type AddressParam struct {
	Address string `json:"address"`
}

// FundParam is used by ledger_fund.
type FundParam struct {
	Address string `json:"address"`
	Amount  uint64 `json:"amount,string"` // lovelace
}

// TxBuildParam is used by tx_build.
type TxBuildParam struct {
	Spec *ledger.TxSpec `json:"spec"`
}

// TxSubmitParam is used by tx_submit.
type TxSubmitParam struct {
	Transaction *tx.Transaction `json:"transaction"`
}

// ── Result types ────────────────────────────────────────────────────────

// UTXOListResult is returned by ledger_getUtxos and ledger_getAddressUtxos.
type UTXOListResult struct {
	Address string       `json:"address"`
	UTXOs   []*utxo.UTXO `json:"utxos"`
}

// TxBuildResult is returned by tx_build.
type TxBuildResult struct {
	Transaction *tx.Transaction `json:"transaction"`
	Fee         uint64          `json:"fee,string"`
}

// TxSubmitResult is returned by tx_submit.
type TxSubmitResult struct {
	TxID types.Hash `json:"tx_id"`
}

// FundResult is returned by ledger_fund.
type FundResult struct {
	Outpoint types.Outpoint `json:"outpoint"`
}
