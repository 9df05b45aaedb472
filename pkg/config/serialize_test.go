package config

import (
	"strings"
	"testing"
)

func TestSerializeRoundTrip(t *testing.T) {
	cfg := &Config{
		System: SystemConfig{IDSystem: "roundtrip"},
		Host: map[string]*HostConfig{
			"localhost": {Hostname: "localhost", PortRange: "40000-40099"},
		},
		Process: map[string]*ProcessConfig{"main": {Host: "localhost"}},
		Node: map[string]*NodeConfig{
			"counter": {
				Process:       "main",
				Functionality: &FunctionalityConfig{EntryPoint: "demo.counter"},
			},
		},
		Edge: []*EdgeConfig{
			{Owner: "counter", Data: "rec", Src: "counter.outputs.output", Dst: "counter.inputs.input"},
		},
		Data:    map[string]any{"rec": "map"},
		Runtime: &RuntimeConfig{ID: RuntimeID{IDSystem: "roundtrip", IDHost: "localhost"}},
	}

	token, err := Serialize(cfg)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if strings.ContainsAny(token, " \t\n") {
		t.Errorf("token is not shell-safe: %q", token)
	}

	got, err := Deserialize(token)
	if err != nil {
		t.Fatalf("Deserialize() error = %v", err)
	}
	if got.System.IDSystem != "roundtrip" {
		t.Errorf("id_system = %q", got.System.IDSystem)
	}
	if got.Host["localhost"].PortRange != "40000-40099" {
		t.Errorf("port_range lost in round trip")
	}
	if got.Runtime == nil || got.Runtime.ID.IDHost != "localhost" {
		t.Errorf("runtime block lost in round trip")
	}
	if len(got.Edge) != 1 || got.Edge[0].Src != "counter.outputs.output" {
		t.Errorf("edges lost in round trip: %+v", got.Edge)
	}
}

func TestDeserializeRejectsGarbage(t *testing.T) {
	if _, err := Deserialize("not base64 at all!"); !IsCfgError(err) {
		t.Errorf("error = %v, want CfgError", err)
	}
	// Valid base64, not zlib.
	if _, err := Deserialize("aGVsbG8gd29ybGQ="); !IsCfgError(err) {
		t.Errorf("error = %v, want CfgError", err)
	}
}

func TestHexdigestStable(t *testing.T) {
	data := map[string]any{
		"zeta":  1,
		"alpha": map[string]any{"nested": []any{"a", "b"}},
		"mid":   "value",
	}
	first, err := Hexdigest(data)
	if err != nil {
		t.Fatalf("Hexdigest() error = %v", err)
	}
	for i := 0; i < 20; i++ {
		again, err := Hexdigest(data)
		if err != nil {
			t.Fatalf("Hexdigest() error = %v", err)
		}
		if again != first {
			t.Fatalf("digest not stable: %s != %s", again, first)
		}
	}
	if len(first) != 128 {
		t.Errorf("digest length = %d, want 128 hex chars", len(first))
	}
}

func TestHexdigestSensitive(t *testing.T) {
	first, _ := Hexdigest(map[string]any{"a": 1})
	second, _ := Hexdigest(map[string]any{"a": 2})
	if first == second {
		t.Error("different configs produced the same digest")
	}
}
