package config

import "time"

// DefaultConfigFile is the CLI config file, read from the working directory.
const DefaultConfigFile = "vesting.conf"

// DefaultMainnet returns the default configuration for mainnet.
func DefaultMainnet() *Config {
	return &Config{
		Network:  Mainnet,
		DataDir:  DefaultDataDir(),
		KeyFile:  "me.sk",
		AddrFile: "me.addr",
		Script: ScriptConfig{
			Blueprint: "plutus.json",
			Version:   "V3",
		},
		Ledger: LedgerConfig{
			URL:     "http://127.0.0.1:8745/",
			Timeout: 30 * time.Second,
		},
		Vesting: VestingConfig{
			Amount:   2_000_000,
			Deadline: 1735689600000, // 2025-01-01T00:00:00Z
		},
		RPC: RPCConfig{
			Addr:       "127.0.0.1",
			Port:       8745,
			AllowedIPs: []string{"127.0.0.1"},
		},
		Devnet: DevnetConfig{
			Storage: "badger",
		},
		Log: LogConfig{
			Level: "warn",
			JSON:  false,
		},
	}
}

// DefaultTestnet returns the default configuration for testnet.
func DefaultTestnet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Testnet
	cfg.Ledger.URL = "http://127.0.0.1:8845/"
	cfg.RPC.Port = 8845
	return cfg
}

// Default returns the default configuration for the given network.
func Default(network NetworkType) *Config {
	switch network {
	case Mainnet:
		return DefaultMainnet()
	default:
		return DefaultTestnet()
	}
}
