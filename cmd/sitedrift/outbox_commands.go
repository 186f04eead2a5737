package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sitedrift/internal/tasks"
)

func newOutboxCommand(ctx *commandContext) *cobra.Command {
	outboxCmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect queued notification messages",
	}

	outboxCmd.AddCommand(newOutboxListCommand(ctx))
	outboxCmd.AddCommand(newOutboxAckCommand(ctx))
	return outboxCmd
}

func newOutboxListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List messages awaiting delivery",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *tasks.Store) error {
				msgs, err := store.PendingMessages(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOut {
					if msgs == nil {
						msgs = []*tasks.Message{}
					}
					return writeJSON(cmd, msgs)
				}
				out := cmd.OutOrStdout()
				if len(msgs) == 0 {
					fmt.Fprintln(out, "Outbox empty")
					return nil
				}
				rows := make([][]string, 0, len(msgs))
				for _, msg := range msgs {
					rows = append(rows, []string{
						msg.ID,
						msg.Destination,
						firstLine(msg.Body),
						msg.CreatedAt.Local().Format(time.DateTime),
					})
				}
				fmt.Fprintln(out, renderTable([]string{"ID", "Destination", "Subject", "Queued"}, rows, nil))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print messages as JSON")
	return cmd
}

func newOutboxAckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ack <id>...",
		Short: "Mark messages as delivered",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *tasks.Store) error {
				out := cmd.OutOrStdout()
				for _, id := range args {
					id = strings.TrimSpace(id)
					if err := store.AckMessage(cmd.Context(), id); err != nil {
						if errors.Is(err, tasks.ErrNotFound) {
							return fmt.Errorf("message %s not pending", id)
						}
						return err
					}
					fmt.Fprintf(out, "Acknowledged %s\n", id)
				}
				return nil
			})
		},
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
