package node

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Klingon-tech/klingnet-vesting/config"
	"github.com/Klingon-tech/klingnet-vesting/internal/rpcclient"
	"github.com/Klingon-tech/klingnet-vesting/pkg/types"
)

func testConfig(t *testing.T, storage string, fund ...string) *config.Config {
	t.Helper()
	cfg := config.Default(config.Testnet)
	cfg.DataDir = t.TempDir()
	cfg.RPC.Port = 0
	cfg.Devnet.Storage = storage
	cfg.Devnet.Fund = fund
	cfg.Log.Level = "error"
	return cfg
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	tests := []struct {
		input, want string
	}{
		{"~/foo/bar", filepath.Join(home, "foo/bar")},
		{"~/.vesting/utxo", filepath.Join(home, ".vesting/utxo")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"", ""},
	}
	for _, tt := range tests {
		got := expandHome(tt.input)
		if got != tt.want {
			t.Errorf("expandHome(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestOpenStorage(t *testing.T) {
	db, where, err := openStorage(testConfig(t, "memory"))
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	db.Close()
	if where != "memory" {
		t.Errorf("where = %q", where)
	}

	cfg := testConfig(t, "badger")
	db, where, err = openStorage(cfg)
	if err != nil {
		t.Fatalf("badger: %v", err)
	}
	db.Close()
	if where != cfg.UTXODir() {
		t.Errorf("where = %q, want %q", where, cfg.UTXODir())
	}

	_, _, err = openStorage(testConfig(t, "bolt"))
	if !errors.Is(err, config.ErrConfiguration) {
		t.Errorf("unknown storage: err = %v", err)
	}
}

func TestNodeServesFundedLedger(t *testing.T) {
	addr := types.NewBaseAddress(types.Testnet, types.KeyHash{1})
	n, err := New(testConfig(t, "memory", addr.String()+":5000000"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := n.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer n.Stop()

	remote := rpcclient.NewLedger(rpcclient.New("http://" + n.RPCAddr() + "/"))
	utxos, err := remote.UTXOs(context.Background(), addr)
	if err != nil {
		t.Fatalf("UTXOs: %v", err)
	}
	if len(utxos) != 1 || utxos[0].Lovelace() != 5_000_000 {
		t.Fatalf("utxos = %+v", utxos)
	}
}

func TestNodeFundsOnlyFreshLedger(t *testing.T) {
	addr := types.NewBaseAddress(types.Testnet, types.KeyHash{2})
	cfg := testConfig(t, "badger", addr.String()+":1000000")

	for i := 0; i < 2; i++ {
		n, err := New(cfg)
		if err != nil {
			t.Fatalf("New #%d: %v", i, err)
		}
		utxos, err := n.Ledger().UTXOs(context.Background(), addr)
		n.Stop()
		if err != nil {
			t.Fatalf("UTXOs: %v", err)
		}
		if len(utxos) != 1 {
			t.Fatalf("start #%d: utxos = %d, want 1", i, len(utxos))
		}
	}

	n, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := n.Ledger().Fund(context.Background(), addr, 7); err != nil {
		t.Fatalf("Fund: %v", err)
	}
	n.Stop()

	cfg.Devnet.Reset = true
	n, err = New(cfg)
	if err != nil {
		t.Fatalf("New with reset: %v", err)
	}
	utxos, err := n.Ledger().UTXOs(context.Background(), addr)
	n.Stop()
	if err != nil {
		t.Fatalf("UTXOs: %v", err)
	}
	if len(utxos) != 1 || utxos[0].Lovelace() != 1_000_000 {
		t.Fatalf("after reset: utxos = %+v, want only the startup funding", utxos)
	}

	if _, err := os.Stat(filepath.Join(cfg.LogsDir(), "vestingd.log")); err != nil {
		t.Errorf("log file: %v", err)
	}
}

func TestNodeRejectsForeignFunding(t *testing.T) {
	addr := types.NewBaseAddress(types.Mainnet, types.KeyHash{3})
	_, err := New(testConfig(t, "memory", addr.String()+":1"))
	if !errors.Is(err, config.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}
