package types

import (
	"fmt"
	"math"
)

// Lovelace is the unit name of the native asset.
const Lovelace = "lovelace"

// LovelacePerAda is the number of minimal units in one whole native coin.
const LovelacePerAda = 1_000_000

// Asset is a quantity of a single unit. Quantity is carried as a decimal
// string on the wire.
type Asset struct {
	Unit     string `json:"unit"`
	Quantity uint64 `json:"quantity,string"`
}

// Value is the amount held by an output.
type Value []Asset

// NewLovelace returns a Value holding only q lovelace.
func NewLovelace(q uint64) Value {
	return Value{{Unit: Lovelace, Quantity: q}}
}

// Quantity returns the summed quantity of unit, or 0.
func (v Value) Quantity(unit string) uint64 {
	var total uint64
	for _, a := range v {
		if a.Unit == unit {
			total += a.Quantity
		}
	}
	return total
}

// Lovelace returns the native-asset quantity.
func (v Value) Lovelace() uint64 {
	return v.Quantity(Lovelace)
}

// OnlyLovelace reports whether v carries nothing but the native asset.
func (v Value) OnlyLovelace() bool {
	for _, a := range v {
		if a.Unit != Lovelace {
			return false
		}
	}
	return true
}

// SumLovelace adds the lovelace of each value, failing on overflow.
func SumLovelace(values ...Value) (uint64, error) {
	var total uint64
	for _, v := range values {
		q := v.Lovelace()
		if total > math.MaxUint64-q {
			return 0, fmt.Errorf("lovelace overflow")
		}
		total += q
	}
	return total, nil
}
