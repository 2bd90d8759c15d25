package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Klingon-tech/klingnet-vesting/config"
	"github.com/Klingon-tech/klingnet-vesting/internal/ledger"
	"github.com/Klingon-tech/klingnet-vesting/internal/ledger/devnet"
	"github.com/Klingon-tech/klingnet-vesting/internal/storage"
	"github.com/Klingon-tech/klingnet-vesting/internal/utxo"
	"github.com/Klingon-tech/klingnet-vesting/internal/vesting"
	"github.com/Klingon-tech/klingnet-vesting/pkg/tx"
	"github.com/Klingon-tech/klingnet-vesting/pkg/types"
)

const blueprint = `{
  "preamble": {"title": "vesting", "plutusVersion": "v3"},
  "validators": [{"title": "vesting.vesting.spend", "compiledCode": "58a101010032323232"}]
}`

var txLine = regexp.MustCompile(`Transaction: ([0-9a-f]{64})`)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

// countingLedger counts every call that reaches the ledger.
type countingLedger struct {
	ledger.Service
	calls int
}

func (c *countingLedger) UTXOs(ctx context.Context, addr types.Address) ([]*utxo.UTXO, error) {
	c.calls++
	return c.Service.UTXOs(ctx, addr)
}

func (c *countingLedger) AddressUTXOs(ctx context.Context, addr types.Address) ([]*utxo.UTXO, error) {
	c.calls++
	return c.Service.AddressUTXOs(ctx, addr)
}

func (c *countingLedger) Build(ctx context.Context, spec *ledger.TxSpec) (*tx.Transaction, error) {
	c.calls++
	return c.Service.Build(ctx, spec)
}

func (c *countingLedger) Submit(ctx context.Context, t *tx.Transaction) (types.Hash, error) {
	c.calls++
	return c.Service.Submit(ctx, t)
}

type harness struct {
	dir       string
	clock     *clock
	devnet    *devnet.Ledger
	ledger    *countingLedger
	dials     int
	passwords []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plutus.json"), []byte(blueprint), 0o644))
	t.Setenv(config.EnvProjectID, "preprodTest")

	c := &clock{t: time.UnixMilli(vesting.DefaultDeadlineMillis).Add(-time.Hour)}
	l := devnet.New(storage.NewMemory(), types.Testnet, devnet.WithClock(c.Now), devnet.WithLogger(zerolog.Nop()))
	return &harness{dir: dir, clock: c, devnet: l, ledger: &countingLedger{Service: l}}
}

func (h *harness) run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	d := deps{
		stdout: &stdout,
		stderr: &stderr,
		dial: func(*config.Config) ledger.Service {
			h.dials++
			return h.ledger
		},
		password: func(string) ([]byte, error) {
			require.NotEmpty(t, h.passwords, "unexpected password prompt")
			pw := h.passwords[0]
			h.passwords = h.passwords[1:]
			return []byte(pw), nil
		},
		now: h.clock.Now,
	}
	argv := append([]string{
		"vesting",
		"--config", filepath.Join(h.dir, "vesting.conf"),
		"--env-file", filepath.Join(h.dir, ".env"),
		"--keyfile", filepath.Join(h.dir, "me.sk"),
		"--addrfile", filepath.Join(h.dir, "me.addr"),
		"--blueprint", filepath.Join(h.dir, "plutus.json"),
		"--log-level", "disabled",
	}, args...)
	code := run(context.Background(), argv, d)
	return code, stdout.String(), stderr.String()
}

func (h *harness) generate(t *testing.T) types.Address {
	t.Helper()
	code, out, errOut := h.run(t, "generate")
	require.Equal(t, exitOK, code, errOut)
	addr, err := types.ParseAddress(strings.TrimSpace(out))
	require.NoError(t, err)
	return addr
}

func txID(t *testing.T, out string) string {
	t.Helper()
	m := txLine.FindStringSubmatch(out)
	require.Len(t, m, 2, "no transaction id in %q", out)
	return m[1]
}

func TestGenerateAndAddress(t *testing.T) {
	h := newHarness(t)
	addr := h.generate(t)
	assert.Equal(t, types.Testnet, addr.Network)
	assert.FileExists(t, filepath.Join(h.dir, "me.sk"))
	assert.FileExists(t, filepath.Join(h.dir, "me.addr"))

	code, out, _ := h.run(t, "address")
	require.Equal(t, exitOK, code)
	assert.Equal(t, addr.String(), strings.TrimSpace(out))

	// Refuses to overwrite without --force.
	code, _, errOut := h.run(t, "generate")
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut, "--force")

	code, out, _ = h.run(t, "generate", "--force")
	require.Equal(t, exitOK, code)
	assert.NotEqual(t, addr.String(), strings.TrimSpace(out))
	assert.Zero(t, h.dials)
}

func TestUnlockMissingArgument(t *testing.T) {
	h := newHarness(t)

	code, _, errOut := h.run(t, "unlock")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, errOut, "usage: vesting unlock <txid>")
	assert.Zero(t, h.dials)
	assert.Zero(t, h.ledger.calls)

	code, _, _ = h.run(t, "unlock", "not-a-txid")
	assert.Equal(t, exitUsage, code)
	assert.Zero(t, h.dials)
}

func TestMissingCredentialFailsFast(t *testing.T) {
	h := newHarness(t)
	h.generate(t)
	os.Unsetenv(config.EnvProjectID)

	for _, args := range [][]string{
		{"lock"},
		{"unlock", strings.Repeat("ab", 32)},
		{"balance"},
	} {
		code, _, errOut := h.run(t, args...)
		assert.Equal(t, exitUsage, code, args)
		assert.Contains(t, errOut, config.EnvProjectID)
	}
	assert.Zero(t, h.dials)
}

func TestCredentialFromEnvFile(t *testing.T) {
	h := newHarness(t)
	h.generate(t)
	os.Unsetenv(config.EnvProjectID)
	t.Cleanup(func() { os.Unsetenv(config.EnvProjectID) })
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, ".env"), []byte(config.EnvProjectID+"=fromfile\n"), 0o600))

	code, _, errOut := h.run(t, "balance")
	require.Equal(t, exitOK, code, errOut)
	assert.Equal(t, 1, h.dials)
}

func TestLockUnlockFlow(t *testing.T) {
	h := newHarness(t)
	addr := h.generate(t)
	_, err := h.devnet.Fund(context.Background(), addr, 10_000_000)
	require.NoError(t, err)

	code, out, errOut := h.run(t, "lock")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "Locked 2 ADA at addr_test1")
	assert.Contains(t, out, "Deadline: Wed, 01 Jan 2025 00:00:00 GMT")
	lockTx := txID(t, out)

	code, out, _ = h.run(t, "balance")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "Locked:    2 ADA")

	// Client-side check refuses before touching the ledger.
	before := h.ledger.calls
	code, _, errOut = h.run(t, "--check-deadline", "unlock", lockTx)
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut, vesting.ErrTooEarly.Error())
	assert.Equal(t, before, h.ledger.calls)

	// Without it the ledger rejects the early spend.
	code, _, errOut = h.run(t, "unlock", lockTx)
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut, "deadline not reached")

	h.clock.t = time.UnixMilli(vesting.DefaultDeadlineMillis).Add(time.Minute)
	code, out, errOut = h.run(t, "unlock", lockTx)
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "Released 2 ADA")
	assert.NotEqual(t, lockTx, txID(t, out))

	// The output is spent.
	code, _, errOut = h.run(t, "unlock", lockTx)
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut, "no output of transaction")
}

func TestLockInsufficientFunds(t *testing.T) {
	h := newHarness(t)
	h.generate(t)

	code, _, errOut := h.run(t, "lock")
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut, "insufficient funds")
}

func TestEncryptedIdentity(t *testing.T) {
	h := newHarness(t)

	h.passwords = []string{"hunter2", "hunter3"}
	code, _, errOut := h.run(t, "generate", "--encrypt")
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut, "do not match")

	h.passwords = []string{"hunter2", "hunter2"}
	code, out, errOut := h.run(t, "generate", "--encrypt")
	require.Equal(t, exitOK, code, errOut)
	addr, err := types.ParseAddress(strings.TrimSpace(out))
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(h.dir, "me.sk"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "encrypted:"))

	_, err = h.devnet.Fund(context.Background(), addr, 10_000_000)
	require.NoError(t, err)
	h.passwords = []string{"hunter2"}
	code, _, errOut = h.run(t, "lock")
	require.Equal(t, exitOK, code, errOut)
	assert.Empty(t, h.passwords)
}

func TestUsageErrors(t *testing.T) {
	h := newHarness(t)

	code, _, _ := h.run(t, "frobnicate")
	assert.Equal(t, exitUsage, code)

	code, _, _ = h.run(t, "--deadline", "someday", "address")
	assert.Equal(t, exitUsage, code)

	code, _, _ = h.run(t, "--network", "devnet", "address")
	assert.Equal(t, exitUsage, code)

	code, _, _ = h.run(t, "generate", "--no-such-flag")
	assert.Equal(t, exitUsage, code)
}

func TestFormatAda(t *testing.T) {
	tests := map[uint64]string{
		0:         "0",
		2_000_000: "2",
		2_500_000: "2.5",
		1:         "0.000001",
		1_234_567: "1.234567",
	}
	for lovelace, want := range tests {
		assert.Equal(t, want, formatAda(lovelace), lovelace)
	}
}
