// Package tx defines transaction types and validation.
package tx

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Klingon-tech/klingnet-vesting/pkg/crypto"
	"github.com/Klingon-tech/klingnet-vesting/pkg/types"
)

// Transaction moves value between outputs. Script inputs carry the data
// their validator needs; key inputs are authorised by witnesses.
type Transaction struct {
	Version         uint32          `json:"version"`
	Inputs          []Input         `json:"inputs"`
	ScriptInputs    []ScriptInput   `json:"script_inputs,omitempty"`
	Outputs         []Output        `json:"outputs"`
	Fee             uint64          `json:"fee,string"`
	ValidFrom       int64           `json:"valid_from,omitempty"`  // POSIX ms, 0 = unbounded
	ValidUntil      int64           `json:"valid_until,omitempty"` // POSIX ms, 0 = unbounded
	RequiredSigners []types.KeyHash `json:"required_signers,omitempty"`
	Witnesses       []Witness       `json:"witnesses,omitempty"`
}

// Input references a key-locked UTXO being spent.
type Input struct {
	PrevOut types.Outpoint `json:"prevout"`
}

// ScriptInput references a script-locked UTXO being spent together with
// the validator bytecode, the datum and the redeemer.
type ScriptInput struct {
	PrevOut  types.Outpoint `json:"prevout"`
	Version  uint8          `json:"version"`
	Script   types.HexBytes `json:"script"`
	Datum    types.HexBytes `json:"datum"`
	Redeemer types.HexBytes `json:"redeemer"`
}

// Output defines a new UTXO. Datum is an optional inline datum.
type Output struct {
	Address types.Address  `json:"address"`
	Amount  types.Value    `json:"amount"`
	Datum   types.HexBytes `json:"datum,omitempty"`
}

// Witness is a public key and its signature over the transaction hash.
type Witness struct {
	PubKey    types.HexBytes `json:"pubkey"`
	Signature types.HexBytes `json:"signature"`
}

// Hash computes the transaction ID (BLAKE3 hash of the serialized signing data).
// Witnesses are excluded so the ID is stable across signing.
func (tx *Transaction) Hash() types.Hash {
	return crypto.Hash(tx.SigningBytes())
}

// SigningBytes returns the canonical byte representation used for signing.
// Variable-length fields are prefixed with a uint32 length; integers are
// little endian.
func (tx *Transaction) SigningBytes() []byte {
	var buf []byte

	buf = binary.LittleEndian.AppendUint32(buf, tx.Version)

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		buf = appendOutpoint(buf, in.PrevOut)
	}

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(tx.ScriptInputs)))
	for _, in := range tx.ScriptInputs {
		buf = appendOutpoint(buf, in.PrevOut)
		buf = append(buf, in.Version)
		buf = appendBytes(buf, in.Script)
		buf = appendBytes(buf, in.Datum)
		buf = appendBytes(buf, in.Redeemer)
	}

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		buf = appendBytes(buf, out.Address.Bytes())
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(out.Amount)))
		for _, a := range out.Amount {
			buf = appendBytes(buf, []byte(a.Unit))
			buf = binary.LittleEndian.AppendUint64(buf, a.Quantity)
		}
		buf = appendBytes(buf, out.Datum)
	}

	buf = binary.LittleEndian.AppendUint64(buf, tx.Fee)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(tx.ValidFrom))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(tx.ValidUntil))

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(tx.RequiredSigners)))
	for _, k := range tx.RequiredSigners {
		buf = append(buf, k[:]...)
	}

	return buf
}

func appendOutpoint(buf []byte, op types.Outpoint) []byte {
	buf = append(buf, op.TxID[:]...)
	return binary.LittleEndian.AppendUint32(buf, op.Index)
}

func appendBytes(buf, b []byte) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(b)))
	return append(buf, b...)
}

// Spends returns every outpoint consumed, key inputs first.
func (tx *Transaction) Spends() []types.Outpoint {
	ops := make([]types.Outpoint, 0, len(tx.Inputs)+len(tx.ScriptInputs))
	for _, in := range tx.Inputs {
		ops = append(ops, in.PrevOut)
	}
	for _, in := range tx.ScriptInputs {
		ops = append(ops, in.PrevOut)
	}
	return ops
}

// TotalOutputValue returns the sum of all output lovelace.
// Returns an error if the sum overflows uint64.
func (tx *Transaction) TotalOutputValue() (uint64, error) {
	var total uint64
	for _, out := range tx.Outputs {
		q := out.Amount.Lovelace()
		if total > math.MaxUint64-q {
			return 0, fmt.Errorf("output value overflow")
		}
		total += q
	}
	return total, nil
}

// Sign adds a witness for key, replacing any earlier witness by the same key.
func (tx *Transaction) Sign(key crypto.Signer) error {
	sig, err := key.Sign(tx.Hash())
	if err != nil {
		return fmt.Errorf("sign tx: %w", err)
	}
	w := Witness{PubKey: key.PublicKey(), Signature: sig}
	want := crypto.KeyHashFromPubKey(w.PubKey)
	for i := range tx.Witnesses {
		if crypto.KeyHashFromPubKey(tx.Witnesses[i].PubKey) == want {
			tx.Witnesses[i] = w
			return nil
		}
	}
	tx.Witnesses = append(tx.Witnesses, w)
	return nil
}

// WitnessKeyHashes returns the key hash of every witness public key.
func (tx *Transaction) WitnessKeyHashes() map[types.KeyHash]bool {
	out := make(map[types.KeyHash]bool, len(tx.Witnesses))
	for _, w := range tx.Witnesses {
		out[crypto.KeyHashFromPubKey(w.PubKey)] = true
	}
	return out
}

// RequiresSigner reports whether k is listed as a required signer.
func (tx *Transaction) RequiresSigner(k types.KeyHash) bool {
	for _, s := range tx.RequiredSigners {
		if s == k {
			return true
		}
	}
	return false
}
