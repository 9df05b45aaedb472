package config

import (
	"errors"

	"gopkg.in/yaml.v3"

	"github.com/xact-systems/xact/pkg/util"
)

// ApplyOverrides applies alternating address/value override pairs to the
// generic mapping form of a config. Addresses are delimiter-separated
// paths; values are parsed as YAML scalars so numbers and booleans keep
// their types. Every address must already exist in the config.
func ApplyOverrides(data map[string]any, overrides []string, delim string) error {
	if len(overrides) == 0 {
		return nil
	}
	if len(overrides)%2 != 0 {
		return NewCfgError(
			"config overrides must be given as address value pairs, got %d items", len(overrides))
	}
	if delim == "" {
		delim = "."
	}
	for i := 0; i < len(overrides); i += 2 {
		address := overrides[i]
		value := parseOverrideValue(overrides[i+1])
		if err := util.SetPath(data, address, value, delim); err != nil {
			if errors.Is(err, util.ErrNotFound) {
				return NewCfgError("config override address not found: %s", address)
			}
			return WrapCfgError("cannot apply config override", err)
		}
	}
	return nil
}

func parseOverrideValue(raw string) any {
	var value any
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
		return raw
	}
	return value
}
