package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xact-systems/xact/pkg/audit"
	"github.com/xact-systems/xact/pkg/cli"
)

var (
	runsSystem string
	runsOp     string
	runsFailed bool
	runsLimit  int
)

var systemRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show run history",
	Long: `Show the recorded history of system operations.

Every system start, stop, pause and step is recorded to
~/.xact/runs.log with its run identity and outcome.

Examples:
  xact system runs
  xact system runs --system counter --failed
  xact system runs --op start --limit 5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		history := runHistory()
		defer history.Close()

		events, err := history.Query(audit.Filter{
			IDSystem:    runsSystem,
			Operation:   runsOp,
			FailureOnly: runsFailed,
			Limit:       runsLimit,
		})
		if err != nil {
			return fmt.Errorf("reading run history: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No matching runs recorded.")
			return nil
		}

		t := cli.NewTable("WHEN", "SYSTEM", "OP", "RUN", "HOSTS", "RESULT")
		for _, event := range events {
			result := cli.Green("ok")
			if !event.Success {
				result = cli.Red(fmt.Sprintf("code %d", event.ReturnCode))
				if event.Error != "" {
					result = cli.Red(event.Error)
				}
			}
			hosts := strings.Join(event.Hosts, ",")
			if event.Distributed {
				hosts += " (distributed)"
			}
			t.Row(
				event.Timestamp.Local().Format("2006-01-02 15:04:05"),
				event.IDSystem,
				event.Operation,
				event.IDRun,
				hosts,
				result,
			)
		}
		t.Flush()
		return nil
	},
}

func init() {
	systemRunsCmd.Flags().StringVar(&runsSystem, "system", "", "Only show runs of this system")
	systemRunsCmd.Flags().StringVar(&runsOp, "op", "", "Only show this operation (start, stop, pause, step)")
	systemRunsCmd.Flags().BoolVar(&runsFailed, "failed", false, "Only show failed runs")
	systemRunsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum runs to show, most recent kept")
}
