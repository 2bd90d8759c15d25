package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Klingon-tech/klingnet-vesting/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runDaemon(ctx context.Context, t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(ctx, append([]string{"vestingd"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func canceled() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

func TestInitWritesConfig(t *testing.T) {
	dir := t.TempDir()

	code, out, _ := runDaemon(context.Background(), t, "--datadir", dir, "init")
	require.Equal(t, 0, code)
	path := filepath.Join(dir, "vestingd.conf")
	assert.Contains(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "network = testnet")

	code, _, errOut := runDaemon(context.Background(), t, "--datadir", dir, "init")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "--force")

	code, _, _ = runDaemon(context.Background(), t, "--datadir", dir, "--network", "mainnet", "init", "--force")
	require.Equal(t, 0, code)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "network = mainnet")
}

func TestServeUntilCanceled(t *testing.T) {
	addr := types.NewBaseAddress(types.Testnet, types.KeyHash{9})
	code, out, errOut := runDaemon(canceled(), t,
		"--datadir", t.TempDir(),
		"--storage", "memory",
		"--rpc-port", "0",
		"--fund", addr.String()+":2000000",
		"--log-level", "disabled",
	)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Listening on 127.0.0.1:")
}

func TestServeConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown storage", []string{"--storage", "bolt"}},
		{"bad funding", []string{"--storage", "memory", "--fund", "nope"}},
		{"bad network", []string{"--network", "regtest"}},
		{"unknown flag", []string{"--bogus"}},
		{"unknown command", []string{"serve"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--datadir", t.TempDir(), "--log-level", "disabled"}, tt.args...)
			code, _, errOut := runDaemon(canceled(), t, args...)
			assert.Equal(t, 2, code)
			assert.Contains(t, errOut, "Error:")
		})
	}
}
