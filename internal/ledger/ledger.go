// Package ledger defines the narrow interface the vesting flow uses to
// query and extend the ledger, and the errors a ledger reports.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-vesting/internal/utxo"
	"github.com/Klingon-tech/klingnet-vesting/pkg/tx"
	"github.com/Klingon-tech/klingnet-vesting/pkg/types"
)

// Ledger errors.
var (
	ErrRejected          = errors.New("ledger rejected transaction")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Rejection stages.
const (
	StageBuild  = "build"
	StageSubmit = "submit"
)

// RejectionError reports a transaction the ledger refused. It matches
// ErrRejected as well as the underlying cause.
type RejectionError struct {
	Stage string
	Err   error
}

// Reject wraps err as a rejection at stage.
func Reject(stage string, err error) *RejectionError {
	return &RejectionError{Stage: stage, Err: err}
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s rejected: %v", e.Stage, e.Err)
}

func (e *RejectionError) Unwrap() []error {
	return []error{ErrRejected, e.Err}
}

// Service is the ledger as seen by a single signing identity.
type Service interface {
	// UTXOs returns the wallet view of addr: outputs paid to it plus
	// script outputs held on behalf of its payment key.
	UTXOs(ctx context.Context, addr types.Address) ([]*utxo.UTXO, error)

	// AddressUTXOs lists the outputs sitting at addr.
	AddressUTXOs(ctx context.Context, addr types.Address) ([]*utxo.UTXO, error)

	// Build selects funding inputs, computes the fee and returns an
	// unsigned transaction satisfying spec.
	Build(ctx context.Context, spec *TxSpec) (*tx.Transaction, error)

	// Submit validates and applies a signed transaction.
	Submit(ctx context.Context, transaction *tx.Transaction) (types.Hash, error)
}

// TxSpec describes the transaction a caller wants. Funding inputs are
// chosen from ChangeAddress, which also receives any change.
type TxSpec struct {
	ChangeAddress   types.Address    `json:"change_address"`
	Outputs         []tx.Output      `json:"outputs,omitempty"`
	ScriptInputs    []tx.ScriptInput `json:"script_inputs,omitempty"`
	RequiredSigners []types.KeyHash  `json:"required_signers,omitempty"`
	ValidFrom       int64            `json:"valid_from,omitempty"`
	ValidUntil      int64            `json:"valid_until,omitempty"`
}

// Validate checks the spec is buildable at all.
func (s *TxSpec) Validate() error {
	if s.ChangeAddress.IsZero() {
		return fmt.Errorf("change address required")
	}
	if s.ChangeAddress.IsScript() {
		return fmt.Errorf("change address must be a key address")
	}
	if len(s.Outputs) == 0 && len(s.ScriptInputs) == 0 {
		return fmt.Errorf("spec has neither outputs nor script inputs")
	}
	if s.ValidUntil != 0 && s.ValidFrom > s.ValidUntil {
		return fmt.Errorf("%w: from %d until %d", tx.ErrInvalidInterval, s.ValidFrom, s.ValidUntil)
	}
	return nil
}

// Info summarises ledger state.
type Info struct {
	Network    string       `json:"network"`
	Now        int64        `json:"now"` // POSIX ms
	UTXOs      int          `json:"utxos"`
	Commitment types.Hash   `json:"commitment"`
	Fees       tx.FeeParams `json:"fees"`
}
