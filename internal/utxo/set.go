// Package utxo manages the UTXO set.
package utxo

import (
	"github.com/Klingon-tech/klingnet-vesting/pkg/tx"
	"github.com/Klingon-tech/klingnet-vesting/pkg/types"
)

// UTXO is an unspent output and the outpoint that created it.
type UTXO struct {
	Input  types.Outpoint `json:"input"`
	Output tx.Output      `json:"output"`
}

// Lovelace returns the native-asset quantity held by the output.
func (u *UTXO) Lovelace() uint64 {
	return u.Output.Amount.Lovelace()
}
