package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadFile loads configuration from a .conf file. A missing file yields
// no values.
// Format: key = value (one per line, # for comments)
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse key = value
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		values[key] = value
	}

	return values, scanner.Err()
}

// Load reads path and returns the network's defaults with the file applied
// on top. An empty network means the one the file names, or testnet.
func Load(path string, network NetworkType) (*Config, error) {
	values, err := LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfiguration, path, err)
	}
	if network == "" {
		network = Testnet
		if n, ok := values["network"]; ok {
			network = NetworkType(n)
		}
	}
	cfg := Default(network)
	if err := ApplyFileConfig(cfg, values); err != nil {
		return nil, err
	}
	cfg.Network = network
	return cfg, nil
}

// ApplyFileConfig applies file configuration to a Config struct.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("%w: config key %q: %v", ErrConfiguration, key, err)
		}
	}
	return nil
}

// setConfigValue sets a config value by key.
func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	// Core
	case "network":
		cfg.Network = NetworkType(value)
	case "datadir":
		cfg.DataDir = value

	// Identity artifacts
	case "keyfile":
		cfg.KeyFile = value
	case "addrfile":
		cfg.AddrFile = value

	// Validator
	case "blueprint":
		cfg.Script.Blueprint = value
	case "validator":
		cfg.Script.Validator = value
	case "script.version":
		cfg.Script.Version = value

	// Remote ledger
	case "ledger.url":
		cfg.Ledger.URL = value
	case "ledger.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		cfg.Ledger.Timeout = d

	// Vesting
	case "vesting.amount":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		cfg.Vesting.Amount = n
	case "vesting.deadline":
		ms, err := ParseDeadline(value)
		if err != nil {
			return err
		}
		cfg.Vesting.Deadline = ms
	case "vesting.checkdeadline":
		cfg.Vesting.CheckDeadline = parseBool(value)

	// RPC
	case "rpc.addr":
		cfg.RPC.Addr = value
	case "rpc.port":
		port, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.RPC.Port = port
	case "rpc.allowed":
		cfg.RPC.AllowedIPs = parseStringList(value)
	case "rpc.cors":
		cfg.RPC.CORSOrigins = parseStringList(value)
	case "rpc.projectids":
		cfg.RPC.ProjectIDs = parseStringList(value)

	// Devnet
	case "devnet.storage":
		cfg.Devnet.Storage = strings.ToLower(value)
	case "devnet.fund":
		cfg.Devnet.Fund = parseStringList(value)

	// Logging
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	default:
		// Unknown keys are ignored
	}
	return nil
}

// ParseDeadline accepts POSIX milliseconds or an RFC 3339 timestamp.
func ParseDeadline(s string) (int64, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, fmt.Errorf("deadline must be POSIX ms or RFC 3339, got %q", s)
	}
	return t.UnixMilli(), nil
}

// parseBool parses a boolean value.
func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// parseStringList parses a comma-separated list.
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// WriteDefaultConfig writes a default configuration file.
func WriteDefaultConfig(path string, network NetworkType) error {
	cfg := Default(network)
	content := `# Vesting configuration
#
# Lock and unlock must run with the same vesting.* values: unlock rebuilds
# the datum from them.

# Network: mainnet or testnet
network = ` + string(network) + `

# ============================================================================
# Identity
# ============================================================================

keyfile = ` + cfg.KeyFile + `
addrfile = ` + cfg.AddrFile + `

# ============================================================================
# Validator
# ============================================================================

blueprint = ` + cfg.Script.Blueprint + `
# Validator title in the blueprint (default: the first one)
# validator = vesting.vesting.spend
script.version = ` + cfg.Script.Version + `

# ============================================================================
# Ledger
# ============================================================================

# The access credential is read from VESTING_PROJECT_ID (or .env), never
# from this file.
ledger.url = ` + cfg.Ledger.URL + `
ledger.timeout = ` + cfg.Ledger.Timeout.String() + `

# ============================================================================
# Vesting
# ============================================================================

vesting.amount = ` + strconv.FormatUint(cfg.Vesting.Amount, 10) + `
# POSIX milliseconds or RFC 3339
vesting.deadline = ` + strconv.FormatInt(cfg.Vesting.Deadline, 10) + `
# Refuse to unlock before the deadline instead of letting the ledger reject it
# vesting.checkdeadline = false

# ============================================================================
# Ledger node (vestingd)
# ============================================================================

# datadir = ~/.vesting
rpc.addr = ` + cfg.RPC.Addr + `
rpc.port = ` + strconv.Itoa(cfg.RPC.Port) + `
rpc.allowed = 127.0.0.1
# Accepted project_id values (comma-separated, empty = open)
# rpc.projectids =
# CORS allowed origins ("*" for all)
# rpc.cors = http://localhost:3000
devnet.storage = ` + cfg.Devnet.Storage + `
# devnet.fund = addr_test1...:10000000

# ============================================================================
# Logging
# ============================================================================

log.level = ` + cfg.Log.Level + `
# log.file =
log.json = false
`
	return os.WriteFile(path, []byte(content), 0644)
}
