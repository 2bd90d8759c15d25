package script

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrValidatorNotFound is returned when a blueprint has no matching validator.
var ErrValidatorNotFound = errors.New("validator not found in blueprint")

// Blueprint is the subset of a CIP-57 plutus.json this package reads.
type Blueprint struct {
	Preamble struct {
		Title         string `json:"title"`
		Version       string `json:"version"`
		PlutusVersion string `json:"plutusVersion"`
	} `json:"preamble"`
	Validators []Validator `json:"validators"`
}

// Validator is one compiled validator in a blueprint.
type Validator struct {
	Title        string `json:"title"`
	CompiledCode string `json:"compiledCode"`
	Hash         string `json:"hash"`
}

// Code decodes the hex compiled code.
func (v Validator) Code() ([]byte, error) {
	b, err := hex.DecodeString(v.CompiledCode)
	if err != nil {
		return nil, fmt.Errorf("validator %q: invalid compiled code: %w", v.Title, err)
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("validator %q: empty compiled code", v.Title)
	}
	return b, nil
}

// LoadBlueprint reads and parses a blueprint file.
func LoadBlueprint(path string) (*Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read blueprint: %w", err)
	}
	return ParseBlueprint(data)
}

// ParseBlueprint parses blueprint JSON.
func ParseBlueprint(data []byte) (*Blueprint, error) {
	var bp Blueprint
	if err := json.Unmarshal(data, &bp); err != nil {
		return nil, fmt.Errorf("parse blueprint: %w", err)
	}
	return &bp, nil
}

// Validator returns the validator with the given title, or the first one
// when title is empty.
func (bp *Blueprint) Validator(title string) (Validator, error) {
	if len(bp.Validators) == 0 {
		return Validator{}, ErrValidatorNotFound
	}
	if title == "" {
		return bp.Validators[0], nil
	}
	for _, v := range bp.Validators {
		if v.Title == title {
			return v, nil
		}
	}
	return Validator{}, fmt.Errorf("%w: %q", ErrValidatorNotFound, title)
}

// Version returns the preamble's plutusVersion, defaulting to V3.
func (bp *Blueprint) Version() (Version, error) {
	if bp.Preamble.PlutusVersion == "" {
		return V3, nil
	}
	return ParseVersion(bp.Preamble.PlutusVersion)
}
