package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// EnvProjectID names the environment variable holding the ledger access
// credential.
const EnvProjectID = "VESTING_PROJECT_ID"

// DefaultEnvFile is loaded from the working directory when present.
const DefaultEnvFile = ".env"

// LoadEnv loads path into the process environment if it exists. Variables
// already set are not overridden.
func LoadEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: load %s: %v", ErrConfiguration, path, err)
	}
	return nil
}

// RequireCredential reads the ledger access credential into cfg and fails
// when it is unset or blank.
func RequireCredential(cfg *Config) error {
	id, ok := os.LookupEnv(EnvProjectID)
	if !ok || id == "" {
		return fmt.Errorf("%w: %s is not set", ErrConfiguration, EnvProjectID)
	}
	cfg.Ledger.ProjectID = id
	return nil
}
