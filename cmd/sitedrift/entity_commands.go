package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"sitedrift/internal/entity"
	"sitedrift/internal/textutil"
)

func newEntityCommand(ctx *commandContext) *cobra.Command {
	entityCmd := &cobra.Command{
		Use:   "entity",
		Short: "Inspect and amend entity data",
	}
	entityCmd.AddCommand(newEntityListCommand(ctx))
	entityCmd.AddCommand(newEntityAmendCommand(ctx))
	return entityCmd
}

func newEntityListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entities and their fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			records, err := entity.Load(cfg.Paths.Entities)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOut {
				data, err := entity.Encode("entities.json", records)
				if err != nil {
					return err
				}
				_, err = out.Write(data)
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(out, "No entities")
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, slug := range records.Slugs() {
				rec := records[slug]
				name := textutil.DisplayName(slug)
				if v, ok := rec.Field("name"); ok && !v.IsList && v.Text != "" {
					name = v.Text
				}
				rows = append(rows, []string{slug, name, strings.Join(rec.FieldNames(), ", ")})
			}
			fmt.Fprintln(out, renderTable([]string{"Slug", "Name", "Fields"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print entities as JSON")
	return cmd
}

func newEntityAmendCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "amend <slug> <key=value>...",
		Short: "Set fields on an entity",
		Long: `Set one or more fields on an entity and save the data file.

Use key=value for text and key=a|b|c for lists. Fields not named are kept.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			slug := textutil.NormalizeSlug(args[0])
			fields := make(map[string]entity.Value, len(args)-1)
			for _, arg := range args[1:] {
				key, value, err := entity.ParseAssignment(arg)
				if err != nil {
					return err
				}
				fields[key] = value
			}

			records, err := entity.Load(cfg.Paths.Entities)
			if err != nil {
				return err
			}
			changed, err := records.Amend(slug, fields)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !changed {
				fmt.Fprintf(out, "%s unchanged\n", slug)
				return nil
			}
			if err := entity.Save(cfg.Paths.Entities, records); err != nil {
				return err
			}
			names := make([]string, 0, len(fields))
			for name := range fields {
				names = append(names, name)
			}
			slices.Sort(names)
			fmt.Fprintf(out, "Updated %s: %s\n", slug, strings.Join(names, ", "))
			return nil
		},
	}
}
