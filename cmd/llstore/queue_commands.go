package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"llstore/internal/ipc"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the install queue",
	}
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueClearHistoryCommand(ctx))
	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool
	var historyFlag bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the active install, pending queue, and history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueList()
				if err != nil {
					return err
				}
				if jsonFlag {
					return writeJSON(cmd, resp)
				}
				printQueueList(cmd.OutOrStdout(), resp, historyFlag)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit JSON output")
	cmd.Flags().BoolVar(&historyFlag, "history", false, "Include finished tasks")
	return cmd
}

func printQueueList(out io.Writer, resp *ipc.QueueListResponse, includeHistory bool) {
	colorize := shouldColorize(out)

	live := make([]ipc.TaskItem, 0, len(resp.Queue)+1)
	if resp.Current != nil {
		live = append(live, *resp.Current)
	}
	live = append(live, resp.Queue...)

	if len(live) == 0 {
		fmt.Fprintln(out, "Install queue is empty")
	} else {
		fmt.Fprintln(out, renderTaskTable(live, colorize))
	}

	if !includeHistory {
		return
	}
	if len(resp.History) == 0 {
		fmt.Fprintln(out, "No finished tasks")
		return
	}
	fmt.Fprintln(out, "Recent tasks:")
	fmt.Fprintln(out, renderTaskTable(resp.History, colorize))
}

func renderTaskTable(tasks []ipc.TaskItem, colorize bool) string {
	rows := make([][]string, 0, len(tasks))
	for i := range tasks {
		t := &tasks[i]
		rows = append(rows, []string{
			shortID(t.ID),
			taskLabel(t),
			formatStatus(t.Status, colorize),
			formatProgress(t),
			taskMessage(t),
		})
	}
	return renderTable(
		[]string{"Task", "App", "Status", "Progress", "Message"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <task-id>",
		Short: "Remove a pending task from the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueRemove(args[0])
				if err != nil {
					return err
				}
				if !resp.Removed {
					return fmt.Errorf("no pending task with id %s", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Task %s removed\n", shortID(args[0]))
				return nil
			})
		},
	}
}

func newQueueClearHistoryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-history",
		Short: "Drop all finished tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.ClearHistory(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "History cleared")
				return nil
			})
		},
	}
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "status <app-id>",
		Short: "Show the install task for one app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.AppStatus(args[0])
				if err != nil {
					return err
				}
				if resp.Task == nil {
					return fmt.Errorf("no install task for %s", args[0])
				}
				if jsonFlag {
					return writeJSON(cmd, resp.Task)
				}
				printTaskDetail(cmd.OutOrStdout(), resp.Task)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit JSON output")
	return cmd
}

func printTaskDetail(out io.Writer, t *ipc.TaskItem) {
	colorize := shouldColorize(out)
	fmt.Fprintf(out, "App:      %s\n", taskLabel(t))
	fmt.Fprintf(out, "App ID:   %s\n", t.AppID)
	fmt.Fprintf(out, "Task:     %s\n", t.ID)
	fmt.Fprintf(out, "Status:   %s\n", formatStatus(t.Status, colorize))
	fmt.Fprintf(out, "Progress: %s\n", formatProgress(t))
	if t.Version != "" {
		fmt.Fprintf(out, "Version:  %s\n", t.Version)
	}
	if msg := taskMessage(t); msg != "" {
		fmt.Fprintf(out, "Message:  %s\n", msg)
	}
	if t.ErrorCode != nil {
		fmt.Fprintf(out, "Code:     %d\n", *t.ErrorCode)
	}
	if t.ErrorDetail != "" {
		fmt.Fprintf(out, "Detail:   %s\n", t.ErrorDetail)
	}
}
