package config

import (
	"github.com/go-viper/mapstructure/v2"

	"github.com/xact-systems/xact/pkg/util"
)

// Placeholder values for runtime identifiers that are not yet known.
const (
	PlaceholderID        = "tbd"
	PlaceholderTimestamp = "00000000000000"
	PlaceholderRun       = "00000000"
)

// PrepareOptions carries the inputs to Prepare. At least one of Path and
// ConfigString must be set; when both are, the serialized string is
// merged over the on-disk config.
type PrepareOptions struct {
	Path          string
	ConfigString  string
	AddrDelim     string
	Overrides     []string
	DoMakeReady   bool
	IsDistributed bool
}

// Prepare loads, merges, overrides, stamps, decodes, and validates a
// system configuration. The returned config is normalized; callers run
// Denormalize before using the derived fields.
func Prepare(opts PrepareOptions) (*Config, error) {
	if opts.Path == "" && opts.ConfigString == "" {
		return nil, NewCfgError("no configuration supplied")
	}

	data := make(map[string]any)
	if opts.Path != "" {
		loaded, err := fromPath(opts.Path)
		if err != nil {
			return nil, err
		}
		data = loaded
	}
	if opts.ConfigString != "" {
		inline, err := deserializeRaw(opts.ConfigString)
		if err != nil {
			return nil, err
		}
		data = util.MergeMaps(data, inline)
	}

	if err := ApplyOverrides(data, opts.Overrides, opts.AddrDelim); err != nil {
		return nil, err
	}

	// The digest covers the merged config before any runtime block is
	// stamped in, so re-preparing the same inputs gives the same id_cfg.
	delete(data, "runtime")
	digest, err := Hexdigest(data)
	if err != nil {
		return nil, WrapCfgError("cannot compute config digest", err)
	}
	idCfg := digest[:16]

	cfg, err := decode(data)
	if err != nil {
		return nil, err
	}

	cfg.Runtime = &RuntimeConfig{
		Opt: RuntimeOptions{
			DoMakeReady:   opts.DoMakeReady,
			IsDistributed: opts.IsDistributed,
		},
		ID: RuntimeID{
			IDSystem:  cfg.System.IDSystem,
			IDCfg:     idCfg,
			IDHost:    PlaceholderID,
			IDProcess: PlaceholderID,
			IDNode:    PlaceholderID,
			IDRun:     PlaceholderRun,
			TsRun:     PlaceholderTimestamp,
		},
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode converts the generic mapping form into the typed Config.
// Unknown keys are rejected so misspelt config sections fail loudly.
func decode(data map[string]any) (*Config, error) {
	var cfg Config
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		TagName:          "mapstructure",
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, WrapCfgError("cannot build config decoder", err)
	}
	if err := dec.Decode(data); err != nil {
		return nil, WrapCfgError("config does not match schema", err)
	}
	return &cfg, nil
}
