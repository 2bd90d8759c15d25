package tx

import (
	"errors"
	"testing"

	"github.com/Klingon-tech/klingnet-vesting/pkg/types"
)

func TestValidate_Valid(t *testing.T) {
	key, addr := testKeyAddr(t)
	tx := simpleTx(addr, 1000)
	tx.RequiredSigners = []types.KeyHash{key.KeyHash()}
	if err := tx.Sign(key); err != nil {
		t.Fatal(err)
	}
	if err := tx.Validate(); err != nil {
		t.Errorf("valid tx should pass: %v", err)
	}
	if err := tx.VerifySignatures(); err != nil {
		t.Errorf("signatures should verify: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	_, addr := testKeyAddr(t)
	dup := types.Outpoint{TxID: types.Hash{0x05}}
	script := ScriptInput{PrevOut: types.Outpoint{TxID: types.Hash{0x06}}, Version: 3, Script: []byte{1}, Datum: []byte{2}, Redeemer: []byte{0xa0}}

	tests := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"no inputs", func(tx *Transaction) { tx.Inputs = nil }, ErrNoInputs},
		{"no outputs", func(tx *Transaction) { tx.Outputs = nil }, ErrNoOutputs},
		{"duplicate key input", func(tx *Transaction) {
			tx.Inputs = []Input{{PrevOut: dup}, {PrevOut: dup}}
		}, ErrDuplicateInput},
		{"duplicate across key and script", func(tx *Transaction) {
			tx.Inputs = []Input{{PrevOut: dup}}
			s := script
			s.PrevOut = dup
			tx.ScriptInputs = []ScriptInput{s}
		}, ErrDuplicateInput},
		{"zero lovelace", func(tx *Transaction) { tx.Outputs[0].Amount = nil }, ErrZeroOutput},
		{"zero asset", func(tx *Transaction) {
			tx.Outputs[0].Amount = append(tx.Outputs[0].Amount, types.Asset{Unit: "x"})
		}, ErrZeroQuantity},
		{"missing script", func(tx *Transaction) {
			s := script
			s.Script = nil
			tx.ScriptInputs = []ScriptInput{s}
		}, ErrMissingScript},
		{"missing datum", func(tx *Transaction) {
			s := script
			s.Datum = nil
			tx.ScriptInputs = []ScriptInput{s}
		}, ErrMissingDatum},
		{"missing redeemer", func(tx *Transaction) {
			s := script
			s.Redeemer = nil
			tx.ScriptInputs = []ScriptInput{s}
		}, ErrMissingRedeemer},
		{"datum too large", func(tx *Transaction) {
			tx.Outputs[0].Datum = make([]byte, MaxDatumSize+1)
		}, ErrDatumTooLarge},
		{"empty interval", func(tx *Transaction) {
			tx.ValidFrom, tx.ValidUntil = 10, 5
		}, ErrInvalidInterval},
		{"too many outputs", func(tx *Transaction) {
			tx.Outputs = make([]Output, MaxOutputs+1)
		}, ErrTooManyOutputs},
		{"output overflow", func(tx *Transaction) {
			tx.Outputs = append(tx.Outputs, Output{Address: addr, Amount: types.NewLovelace(^uint64(0))})
		}, ErrOutputOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := simpleTx(addr, 1000)
			tt.mutate(tx)
			if err := tx.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got: %v", tt.want, err)
			}
		})
	}
}

func TestValidate_OpenUpperBound(t *testing.T) {
	_, addr := testKeyAddr(t)
	tx := simpleTx(addr, 1000)
	tx.ValidFrom = 1735689600000
	if err := tx.Validate(); err != nil {
		t.Errorf("ValidUntil 0 means unbounded: %v", err)
	}
}

func TestVerifySignatures_Errors(t *testing.T) {
	key, addr := testKeyAddr(t)
	other, _ := testKeyAddr(t)

	tx := simpleTx(addr, 1000)
	tx.RequiredSigners = []types.KeyHash{key.KeyHash()}
	if err := tx.Sign(other); err != nil {
		t.Fatal(err)
	}
	if err := tx.VerifySignatures(); !errors.Is(err, ErrMissingWitness) {
		t.Errorf("expected ErrMissingWitness, got: %v", err)
	}

	if err := tx.Sign(key); err != nil {
		t.Fatal(err)
	}
	tx.Fee++ // invalidates both witnesses
	if err := tx.VerifySignatures(); !errors.Is(err, ErrInvalidSig) {
		t.Errorf("expected ErrInvalidSig, got: %v", err)
	}

	tx.Witnesses[0].Signature = nil
	if err := tx.VerifySignatures(); !errors.Is(err, ErrMissingSig) {
		t.Errorf("expected ErrMissingSig, got: %v", err)
	}
}
