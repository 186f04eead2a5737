package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sitedrift/internal/config"
	"sitedrift/internal/notifications"
	"sitedrift/internal/tasks"
)

func newNotifyCommand(ctx *commandContext) *cobra.Command {
	notifyCmd := &cobra.Command{
		Use:   "notify",
		Short: "Notification utilities",
	}
	notifyCmd.AddCommand(newNotifyTestCommand(ctx))
	return notifyCmd
}

func newNotifyTestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Send a test notification through the configured sink",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			out := cmd.OutOrStdout()
			if cfg.Notifications.Sink == config.SinkNone {
				fmt.Fprintln(out, "Notifications disabled (notifications.sink = \"none\")")
				return nil
			}
			return ctx.withStore(func(store *tasks.Store) error {
				svc := notifications.NewService(cfg, store)
				if err := svc.TestNotification(cmd.Context()); err != nil {
					return fmt.Errorf("test notification: %w", err)
				}
				switch cfg.Notifications.Sink {
				case config.SinkFile:
					fmt.Fprintf(out, "Test notification written to %s\n", cfg.Notifications.OutboxDir)
				default:
					fmt.Fprintf(out, "Test notification queued for %s\n", cfg.Notifications.Destination)
				}
				return nil
			})
		},
	}
}
