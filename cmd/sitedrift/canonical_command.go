package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sitedrift/internal/canonical"
	"sitedrift/internal/config"
	"sitedrift/internal/corpus"
	"sitedrift/internal/entity"
)

func newCanonicalCommand(ctx *commandContext) *cobra.Command {
	canonicalCmd := &cobra.Command{
		Use:   "canonical",
		Short: "Canonical source utilities",
	}
	canonicalCmd.AddCommand(newCanonicalProjectCommand(ctx))
	return canonicalCmd
}

func newCanonicalProjectCommand(ctx *commandContext) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "project",
		Short: "Write the canonical values every invariant needs as a table",
		Long: `Read the configured canonical source and write the slot values and link
shapes the declared invariants use as a canonical table (JSON or YAML by
extension). Without --out the table is printed as JSON.

The output is a generated projection; edit the authoritative source instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			slugs, err := knownSlugs(cfg)
			if err != nil {
				return err
			}
			src, err := canonical.Open(cfg, slugs)
			if err != nil {
				return fmt.Errorf("load canonical source: %w", err)
			}
			slots, linkInvariants := projectionKeys(cfg.Invariants)
			table := canonical.Project(src, slots, linkInvariants)

			target := strings.TrimSpace(outPath)
			if target == "" {
				data, err := table.Encode("canonical.json")
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			expanded, err := config.ExpandPath(target)
			if err != nil {
				return fmt.Errorf("resolve output path: %w", err)
			}
			if cfg.Canonical.Source == config.SourceTable && expanded == cfg.Paths.Canonical {
				return fmt.Errorf("refusing to overwrite the authoritative table %s", expanded)
			}
			if err := table.Save(expanded); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d entities to %s\n", len(table.Slots), expanded)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Destination file (.json, .yaml or .yml)")
	return cmd
}

// knownSlugs unions the slugs of existing pages and entity records.
func knownSlugs(cfg *config.Config) ([]string, error) {
	pages, err := corpus.Load(cfg.Paths.PagesDir, cfg.Paths.PageExtension, cfg.Paths.Template, cfg.Paths.ListingPage)
	if err != nil && !corpus.IsNotExist(err) {
		return nil, err
	}
	seen := map[string]struct{}{}
	var slugs []string
	for _, slug := range pages.Slugs() {
		seen[slug] = struct{}{}
		slugs = append(slugs, slug)
	}
	if records, err := entity.Load(cfg.Paths.Entities); err == nil {
		for _, slug := range records.Slugs() {
			if _, ok := seen[slug]; !ok {
				slugs = append(slugs, slug)
			}
		}
	}
	return slugs, nil
}

func projectionKeys(invs []config.Invariant) (slots []string, linkInvariants []string) {
	seen := map[string]struct{}{}
	for _, inv := range invs {
		switch inv.Kind {
		case config.KindCrossArtifactEquality:
			if _, ok := seen[inv.Slot]; !ok {
				seen[inv.Slot] = struct{}{}
				slots = append(slots, inv.Slot)
			}
		case config.KindLinkShape:
			linkInvariants = append(linkInvariants, inv.Name)
		}
	}
	return slots, linkInvariants
}
