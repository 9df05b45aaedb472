package config_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xact-systems/xact/internal/testutil"
	"github.com/xact-systems/xact/pkg/config"
)

func prepareDenormalized(t *testing.T, raw map[string]any) *config.Config {
	t.Helper()
	cfg, err := testutil.Prepare(raw)
	require.NoError(t, err)
	require.NoError(t, config.Denormalize(cfg))
	return cfg
}

func TestDenormalizeIntraProcess(t *testing.T) {
	cfg := prepareDenormalized(t, testutil.CounterSystem(100))

	require.Equal(t, "localhost", cfg.Node["counter"].Host)
	require.Equal(t, "localhost", cfg.Node["limit"].Host)

	edge := cfg.Edge[0]
	require.Equal(t, "counter.outputs.output-limit.inputs.input", edge.IDEdge)
	require.Equal(t, config.IPCIntraProcess, edge.IPCType)
	require.Equal(t, "counter", edge.IDNodeSrc)
	require.Equal(t, "limit", edge.IDNodeDst)
	require.Equal(t, []string{"counter", "outputs", "output"}, edge.RelpathSrc)
	require.Equal(t, []string{"limit", "inputs", "input"}, edge.RelpathDst)
	require.Equal(t, config.DirnFeedforward, edge.Dirn)
	require.Equal(t, []string{"main"}, edge.ListIDProcess)
	require.Equal(t, []string{"localhost"}, edge.ListIDHost)
	require.Nil(t, edge.IdxEdge)
	require.False(t, cfg.Host["localhost"].IsInterHostEdgeOwner)
}

func TestDenormalizeInterProcess(t *testing.T) {
	cfg := prepareDenormalized(t, testutil.TwoProcessSystem(50))

	var crossing *config.EdgeConfig
	for _, edge := range cfg.Edge {
		if edge.IDNodeSrc == "counter" {
			crossing = edge
		}
	}
	require.NotNil(t, crossing)
	require.Equal(t, config.IPCInterProcess, crossing.IPCType)
	require.Equal(t, []string{"producer", "consumer"}, crossing.ListIDProcess)
	require.Nil(t, crossing.IdxEdge)
}

func TestDenormalizeInterHost(t *testing.T) {
	cfg := prepareDenormalized(t, testutil.TwoHostSystem(50))

	var crossing *config.EdgeConfig
	for _, edge := range cfg.Edge {
		if edge.IPCType == config.IPCInterHost {
			crossing = edge
		}
	}
	require.NotNil(t, crossing)
	require.Equal(t, "alpha", crossing.IDHostSrc)
	require.Equal(t, "beta", crossing.IDHostDst)
	require.Equal(t, "alpha", crossing.IDHostOwner)
	require.NotNil(t, crossing.IdxEdge)
	require.Equal(t, 0, *crossing.IdxEdge)
	require.True(t, cfg.Host["alpha"].IsInterHostEdgeOwner)
	require.False(t, cfg.Host["beta"].IsInterHostEdgeOwner)

	port, err := cfg.EdgePort(crossing)
	require.NoError(t, err)
	require.Equal(t, 41200, port)
}

func TestDenormalizeQueueDefaults(t *testing.T) {
	cfg := prepareDenormalized(t, testutil.CounterSystem(100))
	require.Equal(t, "unix", cfg.Queue["inter_process"])
	require.Equal(t, "tcp_server", cfg.Queue["inter_host_server"])
	require.Equal(t, "tcp_client", cfg.Queue["inter_host_client"])
}

func TestDenormalizeKeepsConfiguredQueue(t *testing.T) {
	raw := testutil.TwoHostSystem(50)
	raw["queue"] = map[string]any{
		"inter_host_server": "redis",
		"inter_host_client": "redis",
	}
	cfg := prepareDenormalized(t, raw)
	require.Equal(t, "redis", cfg.Queue["inter_host_server"])
	require.Equal(t, "redis", cfg.Queue["inter_host_client"])
	require.Equal(t, "unix", cfg.Queue["inter_process"])
}

func TestDenormalizeIdempotent(t *testing.T) {
	cfg, err := testutil.Prepare(testutil.TwoHostSystem(50))
	require.NoError(t, err)
	require.NoError(t, config.Denormalize(cfg))

	before := make([]config.EdgeConfig, len(cfg.Edge))
	for i, edge := range cfg.Edge {
		before[i] = *edge
	}

	require.NoError(t, config.Denormalize(cfg))
	for i, edge := range cfg.Edge {
		if !reflect.DeepEqual(before[i], *edge) {
			t.Errorf("edge %d changed on second denormalize:\n  before %+v\n  after  %+v",
				i, before[i], *edge)
		}
	}
}

func TestDenormalizeRejectsForeignOwner(t *testing.T) {
	raw := testutil.TwoHostSystem(50)
	raw["host"].(map[string]any)["gamma"] = map[string]any{
		"hostname":   "localhost",
		"port_range": "41300-41310",
	}
	raw["process"].(map[string]any)["extra"] = map[string]any{"host": "gamma"}
	raw["node"].(map[string]any)["bystander"] = map[string]any{
		"process": "extra",
		"functionality": map[string]any{
			"entry_point": "demo.noop",
		},
	}
	raw["edge"].([]any)[0].(map[string]any)["owner"] = "bystander"

	cfg, err := testutil.Prepare(raw)
	require.NoError(t, err)
	err = config.Denormalize(cfg)
	require.True(t, config.IsCfgError(err), "error = %v", err)
}

func TestDenormalizeRejectsIntraProcessCycle(t *testing.T) {
	raw := testutil.CounterSystem(100)
	raw["edge"] = []any{
		map[string]any{
			"owner": "counter", "data": "count_record",
			"src": "counter.outputs.output", "dst": "limit.inputs.input",
		},
		map[string]any{
			"owner": "limit", "data": "count_record",
			"src": "limit.outputs.output", "dst": "counter.inputs.input",
		},
	}
	cfg, err := testutil.Prepare(raw)
	require.NoError(t, err)
	err = config.Denormalize(cfg)
	require.True(t, config.IsCfgError(err), "error = %v", err)
}

func TestDenormalizeFeedbackEdgeBreaksCycle(t *testing.T) {
	raw := testutil.CounterSystem(100)
	raw["edge"] = []any{
		map[string]any{
			"owner": "counter", "data": "count_record",
			"src": "counter.outputs.output", "dst": "limit.inputs.input",
		},
		map[string]any{
			"owner": "limit", "data": "count_record",
			"src": "limit.outputs.output", "dst": "counter.inputs.input",
			"dirn": "feedback",
		},
	}
	cfg, err := testutil.Prepare(raw)
	require.NoError(t, err)
	require.NoError(t, config.Denormalize(cfg))
}

func TestEdgePortBudgetExhausted(t *testing.T) {
	raw := testutil.TwoHostSystem(50)
	raw["host"].(map[string]any)["alpha"].(map[string]any)["port_range"] = "41200-41200"
	cfg, err := testutil.Prepare(raw)
	require.NoError(t, err)
	// One inter-host edge fits exactly in a single-port range.
	require.NoError(t, config.Denormalize(cfg))

	raw["host"].(map[string]any)["alpha"].(map[string]any)["port_range"] = "41200-41199"
	_, err = testutil.Prepare(raw)
	require.Error(t, err)
}
