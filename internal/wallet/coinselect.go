package wallet

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Klingon-tech/klingnet-vesting/internal/utxo"
)

// Coin selection errors.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNoUTXOs           = errors.New("no UTXOs available")
)

// CoinSelection holds the result of coin selection.
type CoinSelection struct {
	Inputs []*utxo.UTXO // Selected UTXOs to spend.
	Total  uint64       // Sum of selected input lovelace.
	Change uint64       // Change = Total - target.
}

// SelectCoins chooses UTXOs to cover target lovelace.
// It tries two strategies:
//  1. Single UTXO: the smallest single UTXO that covers the target.
//  2. Largest-first accumulation: greedily adds the largest UTXOs until the target is met.
//
// Returns the strategy that produces the least change.
func SelectCoins(utxos []*utxo.UTXO, target uint64) (*CoinSelection, error) {
	if target == 0 {
		return nil, fmt.Errorf("target must be positive")
	}

	candidates := make([]*utxo.UTXO, 0, len(utxos))
	for _, u := range utxos {
		if u.Lovelace() > 0 {
			candidates = append(candidates, u)
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoUTXOs
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Lovelace() < candidates[j].Lovelace()
	})

	var single *CoinSelection
	for _, u := range candidates {
		if v := u.Lovelace(); v >= target {
			single = &CoinSelection{Inputs: []*utxo.UTXO{u}, Total: v, Change: v - target}
			break // Sorted ascending, first match is smallest.
		}
	}

	var accum *CoinSelection
	var selected []*utxo.UTXO
	var total uint64
	for i := len(candidates) - 1; i >= 0; i-- {
		selected = append(selected, candidates[i])
		total += candidates[i].Lovelace()
		if total >= target {
			accum = &CoinSelection{Inputs: selected, Total: total, Change: total - target}
			break
		}
	}

	switch {
	case single != nil && accum != nil:
		if single.Change <= accum.Change {
			return single, nil
		}
		return accum, nil
	case single != nil:
		return single, nil
	case accum != nil:
		return accum, nil
	default:
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, total, target)
	}
}
