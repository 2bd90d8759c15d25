// Package config handles application configuration.
//
// Settings come from three layers, later ones winning: built-in defaults,
// a key = value .conf file, and command-line flags. The ledger access
// credential is only ever read from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/Klingon-tech/klingnet-vesting/pkg/types"
)

// ErrConfiguration marks errors the user fixes by changing configuration,
// flags, arguments or the environment.
var ErrConfiguration = errors.New("configuration error")

// NetworkType identifies mainnet or testnet.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// Ledger returns the address network for n.
func (n NetworkType) Ledger() (types.Network, error) {
	switch n {
	case Mainnet:
		return types.Mainnet, nil
	case Testnet:
		return types.Testnet, nil
	default:
		return 0, fmt.Errorf("%w: network must be %q or %q, got %q", ErrConfiguration, Mainnet, Testnet, n)
	}
}

// Config holds the settings shared by the vesting CLI and the ledger node.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// Identity artifacts
	KeyFile  string `conf:"keyfile"`
	AddrFile string `conf:"addrfile"`

	// Validator
	Script ScriptConfig

	// Remote ledger
	Ledger LedgerConfig

	// Lock/unlock parameters
	Vesting VestingConfig

	// Ledger node
	RPC    RPCConfig
	Devnet DevnetConfig

	// Logging
	Log LogConfig
}

// ScriptConfig locates the compiled validator.
type ScriptConfig struct {
	Blueprint string `conf:"blueprint"`      // Path to plutus.json
	Validator string `conf:"validator"`      // Validator title ("" = first)
	Version   string `conf:"script.version"` // V1, V2 or V3
}

// LedgerConfig points the CLI at a ledger node.
type LedgerConfig struct {
	URL       string        `conf:"ledger.url"`
	Timeout   time.Duration `conf:"ledger.timeout"`
	ProjectID string        // From VESTING_PROJECT_ID only (not persisted in config file).
}

// VestingConfig holds the values lock and unlock must agree on.
type VestingConfig struct {
	Amount        uint64 `conf:"vesting.amount"`        // lovelace
	Deadline      int64  `conf:"vesting.deadline"`      // POSIX ms
	CheckDeadline bool   `conf:"vesting.checkdeadline"` // refuse to unlock early
}

// RPCConfig holds RPC server settings.
type RPCConfig struct {
	Addr        string   `conf:"rpc.addr"`
	Port        int      `conf:"rpc.port"`
	AllowedIPs  []string `conf:"rpc.allowed"`
	CORSOrigins []string `conf:"rpc.cors"`       // Allowed CORS origins ("*" = all).
	ProjectIDs  []string `conf:"rpc.projectids"` // Accepted credentials (empty = open).
}

// ListenAddr returns host:port for the RPC listener.
func (r RPCConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", r.Addr, r.Port)
}

// DevnetConfig holds devnet ledger settings.
type DevnetConfig struct {
	Storage string   `conf:"devnet.storage"` // badger or memory
	Fund    []string `conf:"devnet.fund"`    // address:lovelace pairs funded at startup
	Reset   bool     // Wipe the ledger at startup (vestingd --reset only).
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// =============================================================================
// Directory helpers
// =============================================================================

// DefaultDataDir returns the platform-specific default data directory of
// the ledger node.
//
//	Linux:   ~/.vesting
//	macOS:   ~/Library/Application Support/Vesting
//	Windows: %APPDATA%\Vesting
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vesting"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Vesting")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "Vesting")
		}
		return filepath.Join(home, "AppData", "Roaming", "Vesting")
	default:
		return filepath.Join(home, ".vesting")
	}
}

// LedgerDataDir returns the network-specific ledger directory.
func (c *Config) LedgerDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// UTXODir returns the UTXO database directory.
func (c *Config) UTXODir() string {
	return filepath.Join(c.LedgerDataDir(), "utxo")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the node config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "vestingd.conf")
}
