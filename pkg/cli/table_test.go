package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestTableAlignsColumns(t *testing.T) {
	var buf bytes.Buffer
	table := NewTableTo(&buf, "NODE", "PROCESS", "ENTRY POINT")
	table.Row("counter", "producer", "demo.counter")
	table.Row("limit", "consumer", "demo.limit")
	table.Flush()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, divider and 2 rows, got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "NODE") {
		t.Errorf("header line = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "----") {
		t.Errorf("divider line = %q", lines[1])
	}

	// Every row starts its second column at the same offset.
	procCol := strings.Index(lines[0], "PROCESS")
	if procCol < 0 {
		t.Fatalf("header missing PROCESS column: %q", lines[0])
	}
	for _, line := range lines[2:] {
		cell := line[procCol:]
		if !strings.HasPrefix(cell, "producer") && !strings.HasPrefix(cell, "consumer") {
			t.Errorf("misaligned row: %q", line)
		}
	}
}

func TestTableEmptyPrintsNothing(t *testing.T) {
	var buf bytes.Buffer
	table := NewTableTo(&buf, "EDGE", "IPC")
	table.Flush()
	if buf.Len() != 0 {
		t.Errorf("empty table printed %q", buf.String())
	}
}

func TestTableHeaderEmittedOnce(t *testing.T) {
	var buf bytes.Buffer
	table := NewTableTo(&buf, "HOST", "HOSTNAME")
	table.Row("alpha", "alpha.example.com")
	table.Row("beta", "beta.example.com")
	table.Flush()

	if got := strings.Count(buf.String(), "HOSTNAME"); got != 1 {
		t.Errorf("header appeared %d times, want 1:\n%s", got, buf.String())
	}
}
