// Package cli provides the output formatting used by the xact CLI:
// ANSI color helpers and column-aligned tables for the system show and
// runs views.
package cli

import (
	"os"
)

// colorEnabled is false when NO_COLOR env var is set (per no-color.org).
var colorEnabled = os.Getenv("NO_COLOR") == ""

// wrap surrounds s with an ANSI escape, or returns it unchanged when
// color is disabled.
func wrap(code, s string) string {
	if !colorEnabled {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

// Green renders s in green. Used for intra-process edges and clean runs.
func Green(s string) string {
	return wrap("32", s)
}

// Yellow renders s in yellow. Used for inter-process edges.
func Yellow(s string) string {
	return wrap("33", s)
}

// Red renders s in red. Used for inter-host edges and failed runs.
func Red(s string) string {
	return wrap("31", s)
}

// Bold renders s in bold.
func Bold(s string) string {
	return wrap("1", s)
}

// Dim renders s dimmed.
func Dim(s string) string {
	return wrap("2", s)
}
