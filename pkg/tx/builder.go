package tx

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-vesting/pkg/crypto"
	"github.com/Klingon-tech/klingnet-vesting/pkg/types"
)

// Builder constructs transactions incrementally.
type Builder struct {
	tx *Transaction
}

// NewBuilder creates a new transaction builder.
func NewBuilder() *Builder {
	return &Builder{
		tx: &Transaction{Version: 1},
	}
}

// AddInput adds a key input referencing a previous output.
func (b *Builder) AddInput(prevOut types.Outpoint) *Builder {
	b.tx.Inputs = append(b.tx.Inputs, Input{PrevOut: prevOut})
	return b
}

// AddScriptInput adds a script input with its validator, datum and redeemer.
func (b *Builder) AddScriptInput(prevOut types.Outpoint, version uint8, script, datum, redeemer []byte) *Builder {
	b.tx.ScriptInputs = append(b.tx.ScriptInputs, ScriptInput{
		PrevOut:  prevOut,
		Version:  version,
		Script:   script,
		Datum:    datum,
		Redeemer: redeemer,
	})
	return b
}

// AddOutput adds an output paying value to addr.
func (b *Builder) AddOutput(addr types.Address, value types.Value) *Builder {
	b.tx.Outputs = append(b.tx.Outputs, Output{Address: addr, Amount: value})
	return b
}

// AddDatumOutput adds an output carrying an inline datum.
func (b *Builder) AddDatumOutput(addr types.Address, value types.Value, datum []byte) *Builder {
	b.tx.Outputs = append(b.tx.Outputs, Output{Address: addr, Amount: value, Datum: datum})
	return b
}

// SetFee sets the transaction fee.
func (b *Builder) SetFee(fee uint64) *Builder {
	b.tx.Fee = fee
	return b
}

// SetValidFrom sets the validity lower bound in POSIX milliseconds.
func (b *Builder) SetValidFrom(ms int64) *Builder {
	b.tx.ValidFrom = ms
	return b
}

// SetValidUntil sets the validity upper bound in POSIX milliseconds.
func (b *Builder) SetValidUntil(ms int64) *Builder {
	b.tx.ValidUntil = ms
	return b
}

// AddRequiredSigner declares k as a key that must witness the transaction.
func (b *Builder) AddRequiredSigner(k types.KeyHash) *Builder {
	if !b.tx.RequiresSigner(k) {
		b.tx.RequiredSigners = append(b.tx.RequiredSigners, k)
	}
	return b
}

// Sign adds a witness for key over the current transaction body.
func (b *Builder) Sign(key crypto.Signer) error {
	if err := b.tx.Sign(key); err != nil {
		return fmt.Errorf("builder: %w", err)
	}
	return nil
}

// Build returns the constructed transaction.
// Does NOT validate; call tx.Validate() separately.
func (b *Builder) Build() *Transaction {
	return b.tx
}
