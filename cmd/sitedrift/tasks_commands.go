package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sitedrift/internal/tasks"
)

func newTasksCommand(ctx *commandContext) *cobra.Command {
	tasksCmd := &cobra.Command{
		Use:   "tasks",
		Short: "Manage authoring tasks",
	}

	tasksCmd.AddCommand(newTasksListCommand(ctx))
	tasksCmd.AddCommand(newTasksAddCommand(ctx))
	tasksCmd.AddCommand(newTasksDoneCommand(ctx))
	return tasksCmd
}

func newTasksListCommand(ctx *commandContext) *cobra.Command {
	var all bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open authoring tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *tasks.Store) error {
				var statuses []tasks.Status
				if !all {
					statuses = []tasks.Status{tasks.StatusOpen}
				}
				items, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if jsonOut {
					if items == nil {
						items = []*tasks.Task{}
					}
					return writeJSON(cmd, items)
				}
				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintln(out, "No tasks")
					return nil
				}
				fmt.Fprintln(out, renderTasks(items))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include completed tasks")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print tasks as JSON")
	return cmd
}

func renderTasks(items []*tasks.Task) string {
	rows := make([][]string, 0, len(items))
	for _, task := range items {
		subject := task.Key
		if task.Kind == tasks.KindIdea {
			subject = "-"
		}
		rows = append(rows, []string{
			strconv.FormatInt(task.ID, 10),
			string(task.Kind),
			string(task.Status),
			subject,
			task.Detail,
			task.UpdatedAt.Local().Format(time.DateTime),
		})
	}
	return renderTable(
		[]string{"ID", "Kind", "Status", "Page/Invariant", "Detail", "Updated"},
		rows,
		[]columnAlignment{alignRight},
	)
}

func newTasksAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <text...>",
		Short: "Record a free-form authoring idea",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *tasks.Store) error {
				task, err := store.AddIdea(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added task %d\n", task.ID)
				return nil
			})
		},
	}
}

func newTasksDoneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>...",
		Short: "Mark tasks as done",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseTaskIDs(args)
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *tasks.Store) error {
				out := cmd.OutOrStdout()
				for _, id := range ids {
					if err := store.MarkDone(cmd.Context(), id); err != nil {
						if errors.Is(err, tasks.ErrNotFound) {
							return fmt.Errorf("task %d not found", id)
						}
						return err
					}
					fmt.Fprintf(out, "Task %d done\n", id)
				}
				return nil
			})
		},
	}
}

func parseTaskIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid task id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
