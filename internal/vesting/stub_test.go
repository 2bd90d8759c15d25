package vesting

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Klingon-tech/klingnet-vesting/internal/ledger"
	"github.com/Klingon-tech/klingnet-vesting/internal/utxo"
	"github.com/Klingon-tech/klingnet-vesting/internal/wallet"
	"github.com/Klingon-tech/klingnet-vesting/pkg/script"
	"github.com/Klingon-tech/klingnet-vesting/pkg/tx"
	"github.com/Klingon-tech/klingnet-vesting/pkg/types"
)

const stubFee = 180_000

var validatorCode = []byte("compiled vesting validator")

// stubLedger is a ledger.Service with canned answers and call counters.
// When expectDatum is set, Submit rejects script inputs carrying any
// other datum.
type stubLedger struct {
	mu sync.Mutex

	walletUTXOs []*utxo.UTXO
	walletErr   error
	addrUTXOs   []*utxo.UTXO
	addrErr     error
	buildErr    error
	submitErr   error
	expectDatum []byte
	tamper      func(*tx.Transaction)

	calls     map[string]int
	specs     []*ledger.TxSpec
	submitted []*tx.Transaction
}

var _ ledger.Service = (*stubLedger)(nil)

func (s *stubLedger) count(method string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[method]++
}

func (s *stubLedger) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

func (s *stubLedger) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

func (s *stubLedger) UTXOs(_ context.Context, _ types.Address) ([]*utxo.UTXO, error) {
	s.count("UTXOs")
	return s.walletUTXOs, s.walletErr
}

func (s *stubLedger) AddressUTXOs(_ context.Context, _ types.Address) ([]*utxo.UTXO, error) {
	s.count("AddressUTXOs")
	return s.addrUTXOs, s.addrErr
}

func (s *stubLedger) Build(_ context.Context, spec *ledger.TxSpec) (*tx.Transaction, error) {
	s.count("Build")
	s.specs = append(s.specs, spec)
	if s.buildErr != nil {
		return nil, s.buildErr
	}
	b := tx.NewBuilder().AddInput(types.Outpoint{TxID: types.Hash{0xfe}})
	for _, in := range spec.ScriptInputs {
		b.AddScriptInput(in.PrevOut, in.Version, in.Script, in.Datum, in.Redeemer)
	}
	for _, out := range spec.Outputs {
		b.AddDatumOutput(out.Address, out.Amount, out.Datum)
	}
	b.AddOutput(spec.ChangeAddress, types.NewLovelace(1_000_000))
	for _, k := range spec.RequiredSigners {
		b.AddRequiredSigner(k)
	}
	t := b.SetFee(stubFee).SetValidFrom(spec.ValidFrom).SetValidUntil(spec.ValidUntil).Build()
	if s.tamper != nil {
		s.tamper(t)
	}
	return t, nil
}

func (s *stubLedger) Submit(_ context.Context, t *tx.Transaction) (types.Hash, error) {
	s.count("Submit")
	s.submitted = append(s.submitted, t)
	if s.submitErr != nil {
		return types.Hash{}, s.submitErr
	}
	if err := t.VerifySignatures(); err != nil {
		return types.Hash{}, ledger.Reject(ledger.StageSubmit, err)
	}
	for _, in := range t.ScriptInputs {
		if s.expectDatum != nil && !bytes.Equal(in.Datum, s.expectDatum) {
			return types.Hash{}, ledger.Reject(ledger.StageSubmit, errors.New("datum does not match locked output"))
		}
	}
	return t.Hash(), nil
}

// testIdentity returns a fresh testnet identity.
func testIdentity(t *testing.T) *wallet.Identity {
	t.Helper()
	id, err := wallet.Generate(types.Testnet)
	require.NoError(t, err)
	return id
}

func testScript(t *testing.T) *script.Reference {
	t.Helper()
	ref, err := script.Locate(types.Testnet, script.V3, validatorCode)
	require.NoError(t, err)
	return ref
}

func lockedUTXO(id types.Hash, index uint32, addr types.Address, lovelace uint64, d []byte) *utxo.UTXO {
	return &utxo.UTXO{
		Input:  types.Outpoint{TxID: id, Index: index},
		Output: tx.Output{Address: addr, Amount: types.NewLovelace(lovelace), Datum: d},
	}
}
