package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// Table renders column-aligned rows under a header line and a dash
// divider. The header block is emitted with the first row, so a table
// that never receives a row prints nothing.
type Table struct {
	tw      *tabwriter.Writer
	headers []string
	started bool
}

// NewTable returns a table writing to stdout.
func NewTable(headers ...string) *Table {
	return NewTableTo(os.Stdout, headers...)
}

// NewTableTo returns a table writing to w.
func NewTableTo(w io.Writer, headers ...string) *Table {
	return &Table{
		tw:      tabwriter.NewWriter(w, 0, 0, 2, ' ', 0),
		headers: headers,
	}
}

// Row appends one row of cell values, one per column.
func (t *Table) Row(values ...string) {
	if !t.started {
		t.started = true
		dividers := make([]string, len(t.headers))
		for i, header := range t.headers {
			dividers[i] = strings.Repeat("-", len(header))
		}
		fmt.Fprintln(t.tw, strings.Join(t.headers, "\t"))
		fmt.Fprintln(t.tw, strings.Join(dividers, "\t"))
	}
	fmt.Fprintln(t.tw, strings.Join(values, "\t"))
}

// Flush writes the buffered table.
func (t *Table) Flush() {
	if !t.started {
		return
	}
	t.tw.Flush()
}
