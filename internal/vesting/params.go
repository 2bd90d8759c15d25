// Package vesting locks lovelace at a vesting script and later releases it
// to its owner once the deadline has passed.
package vesting

import (
	"fmt"
	"time"

	"github.com/Klingon-tech/klingnet-vesting/pkg/datum"
	"github.com/Klingon-tech/klingnet-vesting/pkg/types"
)

// Defaults for a fresh configuration.
const (
	DefaultLockAmount     = 2 * types.LovelacePerAda
	DefaultDeadlineMillis = int64(1735689600000) // 2025-01-01T00:00:00Z
)

// Params are the values shared by lock and unlock. Unlock rebuilds the
// datum from them, so both sides must use the same Params.
type Params struct {
	Network        types.Network
	LockAmount     uint64 // lovelace
	DeadlineMillis int64  // POSIX ms
}

// DefaultParams returns testnet parameters.
func DefaultParams() Params {
	return Params{
		Network:        types.Testnet,
		LockAmount:     DefaultLockAmount,
		DeadlineMillis: DefaultDeadlineMillis,
	}
}

// Validate checks the parameters.
func (p Params) Validate() error {
	if p.Network != types.Testnet && p.Network != types.Mainnet {
		return fmt.Errorf("unknown network %d", p.Network)
	}
	if p.LockAmount == 0 {
		return fmt.Errorf("lock amount must be positive")
	}
	return nil
}

// Record returns the vesting record owned by owner.
func (p Params) Record(owner types.KeyHash) datum.Vesting {
	return datum.Vesting{Owner: owner, Deadline: p.DeadlineMillis}
}

// Deadline returns the release time in UTC.
func (p Params) Deadline() time.Time {
	return time.UnixMilli(p.DeadlineMillis).UTC()
}
