package vesting

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-vesting/pkg/types"
)

// Vesting errors.
var (
	ErrNotFound        = errors.New("locked output not found")
	ErrTooEarly        = errors.New("deadline has not passed")
	ErrForeignOwner    = errors.New("record owner is not the signing identity")
	ErrNetworkMismatch = errors.New("script and identity are on different networks")
	ErrUnexpectedTx    = errors.New("ledger built an unexpected transaction")
)

// NotFoundError reports that neither the wallet view nor the script
// address listing holds an output of the lock transaction. The per-tier
// errors, if any, are kept for diagnostics; the error only ever matches
// ErrNotFound.
type NotFoundError struct {
	TxID          types.Hash
	ScriptAddress types.Address
	PrimaryErr    error
	FallbackErr   error
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("no output of transaction %s at %s", e.TxID, e.ScriptAddress)
	if e.FallbackErr != nil {
		msg += fmt.Sprintf(" (address listing failed: %v)", e.FallbackErr)
	}
	return msg
}

// Is matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
