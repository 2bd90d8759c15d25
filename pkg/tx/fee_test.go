package tx

import (
	"testing"

	"github.com/Klingon-tech/klingnet-vesting/pkg/types"
)

func TestFeeParams_Fee(t *testing.T) {
	tests := []struct {
		name string
		p    FeeParams
		size int
		want uint64
	}{
		{"zero schedule", FeeParams{}, 300, 0},
		{"constant only", FeeParams{MinFeeB: 100}, 300, 100},
		{"linear", FeeParams{MinFeeA: 2, MinFeeB: 10}, 300, 610},
		{"default", DefaultFeeParams(), 0, 155_381},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Fee(tt.size); got != tt.want {
				t.Errorf("Fee(%d) = %d, want %d", tt.size, got, tt.want)
			}
		})
	}
}

func TestRequiredFee_CountsWitnesses(t *testing.T) {
	p := FeeParams{MinFeeA: 1}
	tx := &Transaction{
		Inputs:  []Input{{PrevOut: types.Outpoint{Index: 1}}},
		Outputs: []Output{{Amount: types.NewLovelace(1)}},
	}
	size := len(tx.SigningBytes())

	if got := RequiredFee(tx, p, 0); got != uint64(size) {
		t.Errorf("no witnesses: %d, want %d", got, size)
	}
	if got := RequiredFee(tx, p, 2); got != uint64(size+2*WitnessSize) {
		t.Errorf("two witnesses: %d, want %d", got, size+2*WitnessSize)
	}

	tx.Witnesses = make([]Witness, 3)
	if got := RequiredFee(tx, p, 1); got != uint64(size+3*WitnessSize) {
		t.Errorf("existing witnesses should count: %d", got)
	}
}
