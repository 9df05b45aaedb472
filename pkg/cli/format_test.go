package cli

import (
	"strings"
	"testing"
)

func TestColorFunctions(t *testing.T) {
	tests := []struct {
		name   string
		fn     func(string) string
		prefix string
	}{
		{"Green", Green, "\033[32m"},
		{"Yellow", Yellow, "\033[33m"},
		{"Red", Red, "\033[31m"},
		{"Bold", Bold, "\033[1m"},
		{"Dim", Dim, "\033[2m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.fn("intra_process")
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("%s(%q) = %q, want prefix %q", tt.name, "intra_process", got, tt.prefix)
			}
			if !strings.Contains(got, "intra_process") {
				t.Errorf("%s should contain the input string, got %q", tt.name, got)
			}
			if !strings.HasSuffix(got, "\033[0m") {
				t.Errorf("%s should end with the reset code, got %q", tt.name, got)
			}
		})
	}
}

func TestColorDisabled(t *testing.T) {
	old := colorEnabled
	colorEnabled = false
	defer func() { colorEnabled = old }()

	if got := Red("inter_host"); got != "inter_host" {
		t.Errorf("Red with color disabled = %q, want input unchanged", got)
	}
	if got := Bold("system"); got != "system" {
		t.Errorf("Bold with color disabled = %q, want input unchanged", got)
	}
}
