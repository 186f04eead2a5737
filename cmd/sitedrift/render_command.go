package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sitedrift/internal/pipeline"
)

func newRenderMissingCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "render-missing",
		Short: "Render pages for entities that have none",
		Long: `Render the page template for every entity without a page.

Existing pages are never touched. If any entity fails to render, nothing is
written and every failing entity is reported.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunner(func(runner *pipeline.Runner) error {
				result, err := runner.RenderMissing(cmd.Context())
				if err != nil {
					return wrapRunError(err)
				}
				out := cmd.OutOrStdout()
				if len(result.Created) == 0 {
					fmt.Fprintf(out, "No missing pages (%d existing)\n", result.Existing)
					return nil
				}
				for _, slug := range result.Created {
					fmt.Fprintf(out, "created %s\n", slug)
				}
				fmt.Fprintf(out, "Rendered %d pages from template %s (%d existing)\n",
					len(result.Created), result.TemplateVersion, result.Existing)
				return nil
			})
		},
	}
}
