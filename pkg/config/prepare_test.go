package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xact-systems/xact/internal/testutil"
	"github.com/xact-systems/xact/pkg/config"
)

func TestPrepareFromToken(t *testing.T) {
	cfg, err := testutil.Prepare(testutil.CounterSystem(100))
	require.NoError(t, err)

	require.Equal(t, "test_counter", cfg.System.IDSystem)
	require.NotNil(t, cfg.Runtime)
	require.Len(t, cfg.Runtime.ID.IDCfg, 16)
	require.Equal(t, config.PlaceholderID, cfg.Runtime.ID.IDHost)
	require.Equal(t, config.PlaceholderID, cfg.Runtime.ID.IDProcess)
	require.Equal(t, config.PlaceholderRun, cfg.Runtime.ID.IDRun)
	require.Equal(t, config.PlaceholderTimestamp, cfg.Runtime.ID.TsRun)
}

func TestPrepareStableConfigID(t *testing.T) {
	first, err := testutil.Prepare(testutil.CounterSystem(100))
	require.NoError(t, err)
	second, err := testutil.Prepare(testutil.CounterSystem(100))
	require.NoError(t, err)
	require.Equal(t, first.Runtime.ID.IDCfg, second.Runtime.ID.IDCfg)

	changed, err := testutil.Prepare(testutil.CounterSystem(200))
	require.NoError(t, err)
	require.NotEqual(t, first.Runtime.ID.IDCfg, changed.Runtime.ID.IDCfg)
}

func TestPrepareAppliesOverrides(t *testing.T) {
	token, err := config.SerializeRaw(testutil.CounterSystem(100))
	require.NoError(t, err)

	cfg, err := config.Prepare(config.PrepareOptions{
		ConfigString: token,
		Overrides:    []string{"node.limit.functionality.args.threshold", "7"},
	})
	require.NoError(t, err)
	require.EqualValues(t, 7, cfg.Node["limit"].Functionality.Args["threshold"])
}

func TestPrepareOverrideChangesConfigID(t *testing.T) {
	token, err := config.SerializeRaw(testutil.CounterSystem(100))
	require.NoError(t, err)

	plain, err := config.Prepare(config.PrepareOptions{ConfigString: token})
	require.NoError(t, err)
	overridden, err := config.Prepare(config.PrepareOptions{
		ConfigString: token,
		Overrides:    []string{"node.limit.functionality.args.threshold", "7"},
	})
	require.NoError(t, err)
	require.NotEqual(t, plain.Runtime.ID.IDCfg, overridden.Runtime.ID.IDCfg)
}

func TestPrepareNoSource(t *testing.T) {
	_, err := config.Prepare(config.PrepareOptions{})
	require.True(t, config.IsCfgError(err), "error = %v", err)
}

func TestPrepareRejectsUnknownSections(t *testing.T) {
	raw := testutil.CounterSystem(100)
	raw["mystery_section"] = map[string]any{"a": 1}
	_, err := testutil.Prepare(raw)
	require.True(t, config.IsCfgError(err), "error = %v", err)
}

func TestPrepareRejectsBrokenReferences(t *testing.T) {
	raw := testutil.CounterSystem(100)
	raw["process"] = map[string]any{
		"main": map[string]any{"host": "no_such_host"},
	}
	_, err := testutil.Prepare(raw)
	require.True(t, config.IsCfgError(err), "error = %v", err)
}

func TestPrepareRejectsBadIdent(t *testing.T) {
	raw := testutil.CounterSystem(100)
	raw["system"] = map[string]any{"id_system": "Has-Capitals"}
	_, err := testutil.Prepare(raw)
	require.True(t, config.IsCfgError(err), "error = %v", err)
}

func TestPrepareRejectsDuplicateSrcPort(t *testing.T) {
	raw := testutil.CounterSystem(100)
	raw["edge"] = []any{
		map[string]any{
			"owner": "counter", "data": "count_record",
			"src": "counter.outputs.output", "dst": "limit.inputs.input",
		},
		map[string]any{
			"owner": "counter", "data": "count_record",
			"src": "counter.outputs.output", "dst": "limit.inputs.other",
		},
	}
	_, err := testutil.Prepare(raw)
	require.True(t, config.IsCfgError(err), "error = %v", err)
}

func TestPrepareRejectsDuplicateDstPort(t *testing.T) {
	raw := testutil.CounterSystem(100)
	raw["edge"] = []any{
		map[string]any{
			"owner": "counter", "data": "count_record",
			"src": "counter.outputs.output", "dst": "limit.inputs.input",
		},
		map[string]any{
			"owner": "counter", "data": "count_record",
			"src": "limit.outputs.other", "dst": "limit.inputs.input",
		},
	}
	_, err := testutil.Prepare(raw)
	require.True(t, config.IsCfgError(err), "error = %v", err)
}
