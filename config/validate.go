package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	klog "github.com/Klingon-tech/klingnet-vesting/internal/log"
	"github.com/Klingon-tech/klingnet-vesting/pkg/script"
	"github.com/Klingon-tech/klingnet-vesting/pkg/types"
)

// Validate checks config for obvious operator mistakes. Every error
// matches ErrConfiguration.
func Validate(cfg *Config) error {
	if err := validate(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return nil
}

func validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Network != Mainnet && cfg.Network != Testnet {
		return fmt.Errorf("network must be %q or %q", Mainnet, Testnet)
	}
	if cfg.KeyFile == "" || cfg.AddrFile == "" {
		return fmt.Errorf("keyfile and addrfile must be set")
	}
	if _, err := script.ParseVersion(cfg.Script.Version); err != nil {
		return fmt.Errorf("script.version: %v", err)
	}

	u, err := url.Parse(cfg.Ledger.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("ledger.url must be an http(s) URL, got %q", cfg.Ledger.URL)
	}
	if cfg.Ledger.Timeout <= 0 {
		return fmt.Errorf("ledger.timeout must be positive")
	}

	if cfg.Vesting.Amount == 0 {
		return fmt.Errorf("vesting.amount must be positive")
	}

	if cfg.RPC.Port < 0 || cfg.RPC.Port > 65535 {
		return fmt.Errorf("rpc.port must be in range [0, 65535]")
	}
	switch cfg.Devnet.Storage {
	case "badger", "memory":
	default:
		return fmt.Errorf("devnet.storage must be badger or memory")
	}
	if _, err := ParseFunding(cfg.Devnet.Fund); err != nil {
		return err
	}

	if !klog.ValidLevel(cfg.Log.Level) {
		return fmt.Errorf("log.level must be debug, info, warn, error or disabled")
	}
	return nil
}

// Funding is one startup faucet payment.
type Funding struct {
	Address  types.Address
	Lovelace uint64
}

// ParseFunding parses address:lovelace entries.
func ParseFunding(entries []string) ([]Funding, error) {
	out := make([]Funding, 0, len(entries))
	for i, e := range entries {
		addrText, amountText, ok := strings.Cut(strings.TrimSpace(e), ":")
		if !ok {
			return nil, fmt.Errorf("devnet.fund[%d] must be address:lovelace", i)
		}
		addr, err := types.ParseAddress(addrText)
		if err != nil {
			return nil, fmt.Errorf("devnet.fund[%d]: %v", i, err)
		}
		amount, err := strconv.ParseUint(amountText, 10, 64)
		if err != nil || amount == 0 {
			return nil, fmt.Errorf("devnet.fund[%d]: amount must be a positive integer", i)
		}
		out = append(out, Funding{Address: addr, Lovelace: amount})
	}
	return out, nil
}
