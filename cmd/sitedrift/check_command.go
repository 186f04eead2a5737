package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"sitedrift/internal/drift"
	"sitedrift/internal/pipeline"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var fix bool
	var jsonOut bool
	var all bool
	var noNotify bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Detect drift across every page, optionally fixing it",
		Long: `Evaluate every declared invariant against every page.

With --fix, substitution drift (canonical slot values and link shapes) is
patched from the canonical source, changed pages are rewritten atomically,
and the site is checked again. The command exits non-zero while any check
still fails or cannot be evaluated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunner(func(runner *pipeline.Runner) error {
				outcome, err := runner.Check(cmd.Context(), pipeline.CheckOptions{Fix: fix, Notify: !noNotify})
				if outcome == nil {
					return wrapRunError(err)
				}
				if jsonOut {
					if encErr := writeJSON(cmd, outcome); encErr != nil {
						return encErr
					}
					return err
				}
				out := cmd.OutOrStdout()
				if printErr := printOutcome(out, outcome, all, shouldColorize(out)); printErr != nil {
					return printErr
				}
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "Reconcile substitution drift and rewrite changed pages")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the run outcome as JSON")
	cmd.Flags().BoolVar(&all, "all", false, "List passing checks as well as failures")
	cmd.Flags().BoolVar(&noNotify, "no-notify", false, "Skip the run summary notification")
	return cmd
}

func printOutcome(out io.Writer, outcome *pipeline.Outcome, all bool, colorize bool) error {
	if outcome.Fix {
		fmt.Fprintf(out, "Applied %d fixes, wrote %d pages\n", len(outcome.Applied), len(outcome.Written))
		for _, skipped := range outcome.Skipped {
			fmt.Fprintf(out, "  skipped: %s\n", skipped)
		}
		for _, slug := range slices.Sorted(maps.Keys(outcome.WriteFailures)) {
			fmt.Fprintf(out, "  write failed: %s: %s\n", slug, outcome.WriteFailures[slug])
		}
	}

	report := outcome.Final
	if all {
		if err := drift.WriteText(out, report); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	} else {
		if failures := report.Failures(); len(failures) > 0 {
			fmt.Fprintln(out, renderFindings(failures, colorize))
		}
		fmt.Fprintf(out, "%d checks, %d passed, %d failed\n", len(report.Findings), report.Passed(), len(report.Findings)-report.Passed())
	}

	if outcome.TasksOpened > 0 || outcome.TasksResolved > 0 {
		fmt.Fprintf(out, "Tasks: %d opened, %d resolved\n", outcome.TasksOpened, outcome.TasksResolved)
	}
	return nil
}

func renderFindings(findings []drift.Finding, colorize bool) string {
	rows := make([][]string, 0, len(findings))
	for _, f := range findings {
		rows = append(rows, []string{
			colorizeText(strings.ToUpper(string(f.Status)), findingKind(f.Status), colorize),
			f.Slug,
			f.Invariant,
			f.Evidence,
		})
	}
	return renderTable([]string{"Status", "Page", "Invariant", "Evidence"}, rows, nil)
}
