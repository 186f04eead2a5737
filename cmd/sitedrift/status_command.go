package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"sitedrift/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show site readiness and state store counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			results := preflight.RunAll(cmd.Context(), cfg)
			lock := preflight.CheckRunLock(cfg)
			storeResult, counts := preflight.CheckStateStore(cmd.Context(), cfg)

			writeLines(out, renderSectionHeader("Site", colorize))
			for _, r := range results {
				fmt.Fprintln(out, renderPreflightLine(r, colorize))
			}
			fmt.Fprintln(out)

			writeLines(out, renderSectionHeader("State", colorize))
			fmt.Fprintln(out, renderPreflightLine(lock, colorize))
			fmt.Fprintln(out, renderPreflightLine(storeResult, colorize))
			if storeResult.Passed {
				fmt.Fprintln(out, renderTable(
					[]string{"Item", "Count"},
					[][]string{
						{"Open tasks", strconv.Itoa(counts.OpenTasks)},
						{"Pending messages", strconv.Itoa(counts.PendingMessages)},
					},
					[]columnAlignment{alignLeft, alignRight},
				))
			}
			fmt.Fprintln(out)

			writeLines(out, renderSectionHeader("Configuration", colorize))
			fmt.Fprintln(out, renderStatusLine("Invariants", statusInfo,
				fmt.Sprintf("%d declared (version %d)", len(cfg.Invariants), cfg.InvariantsVersion), colorize))
			fmt.Fprintln(out, renderStatusLine("Canonical source", statusInfo, cfg.Canonical.Source, colorize))
			fmt.Fprintln(out, renderStatusLine("Notifications", statusInfo, cfg.Notifications.Sink, colorize))
			fmt.Fprintln(out, renderStatusLine("Tasks enabled", statusInfo, yesNo(cfg.Tasks.Enabled), colorize))
			fmt.Fprintln(out, renderStatusLine("Audit enabled", statusInfo, yesNo(cfg.Audit.Enabled), colorize))

			failed := preflight.Failed(append(results, storeResult))
			if len(failed) > 0 {
				return fmt.Errorf("%d readiness checks failed", len(failed))
			}
			return nil
		},
	}
}

func renderPreflightLine(r preflight.Result, colorize bool) string {
	kind := statusOK
	if !r.Passed {
		kind = statusError
	}
	return renderStatusLine(r.Name, kind, r.Detail, colorize)
}

func writeLines(out io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
}
