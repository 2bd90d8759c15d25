package node

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Klingon-tech/klingnet-vesting/config"
	klog "github.com/Klingon-tech/klingnet-vesting/internal/log"
	"github.com/Klingon-tech/klingnet-vesting/internal/storage"
)

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// openStorage opens the UTXO database the config asks for.
func openStorage(cfg *config.Config) (storage.DB, string, error) {
	switch cfg.Devnet.Storage {
	case "memory":
		return storage.NewMemory(), "memory", nil
	case "badger", "":
		dir := expandHome(cfg.UTXODir())
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, "", fmt.Errorf("create %s: %w", dir, err)
		}
		db, err := storage.NewBadger(dir, storage.WithBadgerLogger(klog.Storage))
		if err != nil {
			return nil, "", fmt.Errorf("open database at %s: %w", dir, err)
		}
		return db, dir, nil
	default:
		return nil, "", fmt.Errorf("%w: unknown storage %q", config.ErrConfiguration, cfg.Devnet.Storage)
	}
}
