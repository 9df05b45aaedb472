// Package testutil provides shared config fixtures and helpers for
// tests.
package testutil

import (
	"github.com/xact-systems/xact/pkg/config"
)

// CounterSystem builds a single-process counter graph: a demo.counter
// source feeding a demo.limit sink that halts at threshold.
func CounterSystem(threshold int) map[string]any {
	return map[string]any{
		"system": map[string]any{"id_system": "test_counter"},
		"host": map[string]any{
			"localhost": map[string]any{
				"hostname":   "localhost",
				"port_range": "41000-41099",
			},
		},
		"process": map[string]any{
			"main": map[string]any{"host": "localhost"},
		},
		"node": map[string]any{
			"counter": map[string]any{
				"process": "main",
				"functionality": map[string]any{
					"entry_point": "demo.counter",
				},
				"state_type": "counter_state",
			},
			"limit": map[string]any{
				"process": "main",
				"functionality": map[string]any{
					"entry_point": "demo.limit",
					"args":        map[string]any{"threshold": threshold},
				},
			},
		},
		"edge": []any{
			map[string]any{
				"owner": "counter",
				"data":  "count_record",
				"src":   "counter.outputs.output",
				"dst":   "limit.inputs.input",
			},
		},
		"data": map[string]any{
			"counter_state": []any{map[string]any{"count": "int64"}},
			"count_record":  []any{map[string]any{"count": "int64"}},
		},
	}
}

// TwoProcessSystem builds a two-process graph on one host: a coroutine
// counter in one process feeding a relay and limit in another.
func TwoProcessSystem(threshold int) map[string]any {
	return map[string]any{
		"system": map[string]any{"id_system": "test_two_process"},
		"host": map[string]any{
			"localhost": map[string]any{
				"hostname":   "localhost",
				"port_range": "41100-41199",
			},
		},
		"process": map[string]any{
			"producer": map[string]any{"host": "localhost"},
			"consumer": map[string]any{"host": "localhost"},
		},
		"node": map[string]any{
			"counter": map[string]any{
				"process": "producer",
				"functionality": map[string]any{
					"entry_point": "demo.counter_coro",
				},
			},
			"relay": map[string]any{
				"process": "consumer",
				"functionality": map[string]any{
					"entry_point": "demo.relay",
				},
			},
			"limit": map[string]any{
				"process": "consumer",
				"functionality": map[string]any{
					"entry_point": "demo.limit",
					"args":        map[string]any{"threshold": threshold},
				},
			},
		},
		"edge": []any{
			map[string]any{
				"owner": "counter",
				"data":  "count_record",
				"src":   "counter.outputs.output",
				"dst":   "relay.inputs.input",
			},
			map[string]any{
				"owner": "relay",
				"data":  "count_record",
				"src":   "relay.outputs.output",
				"dst":   "limit.inputs.input",
			},
		},
		"data": map[string]any{
			"count_record": []any{map[string]any{"count": "int64"}},
		},
	}
}

// TwoHostSystem builds a graph spanning two hosts, which makes the
// connecting edge inter-host.
func TwoHostSystem(threshold int) map[string]any {
	cfg := TwoProcessSystem(threshold)
	cfg["system"] = map[string]any{"id_system": "test_two_host"}
	cfg["host"] = map[string]any{
		"alpha": map[string]any{
			"hostname":   "localhost",
			"port_range": "41200-41249",
		},
		"beta": map[string]any{
			"hostname":   "localhost",
			"port_range": "41250-41299",
		},
	}
	cfg["process"] = map[string]any{
		"producer": map[string]any{"host": "alpha"},
		"consumer": map[string]any{"host": "beta"},
	}
	return cfg
}

// Prepare turns a fixture mapping into a prepared config, failing the
// calling test on error.
func Prepare(raw map[string]any) (*config.Config, error) {
	token, err := config.SerializeRaw(raw)
	if err != nil {
		return nil, err
	}
	return config.Prepare(config.PrepareOptions{ConfigString: token})
}
