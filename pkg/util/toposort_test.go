package util

import (
	"errors"
	"reflect"
	"testing"
)

func TestTopologicalTranches(t *testing.T) {
	tests := []struct {
		name    string
		forward map[string][]string
		want    [][]string
	}{
		{
			name:    "linear chain",
			forward: map[string][]string{"a": {"b"}, "b": {"c"}},
			want:    [][]string{{"a"}, {"b"}, {"c"}},
		},
		{
			name:    "diamond",
			forward: map[string][]string{"a": {"b", "c"}, "b": {"d"}, "c": {"d"}},
			want:    [][]string{{"a"}, {"b", "c"}, {"d"}},
		},
		{
			name:    "independent vertices in one tranche, sorted",
			forward: map[string][]string{"z": nil, "a": nil, "m": nil},
			want:    [][]string{{"a", "m", "z"}},
		},
		{
			name:    "vertex known only as successor",
			forward: map[string][]string{"a": {"b"}},
			want:    [][]string{{"a"}, {"b"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TopologicalTranches(tt.forward)
			if err != nil {
				t.Fatalf("TopologicalTranches() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("TopologicalTranches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTopologicalTranchesCycle(t *testing.T) {
	_, err := TopologicalTranches(map[string][]string{"a": {"b"}, "b": {"a"}})
	if !errors.Is(err, ErrCycle) {
		t.Errorf("error = %v, want ErrCycle", err)
	}
}

func TestTopologicalTranchesEmpty(t *testing.T) {
	got, err := TopologicalTranches(nil)
	if err != nil {
		t.Fatalf("TopologicalTranches() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("TopologicalTranches(nil) = %v, want empty", got)
	}
}
