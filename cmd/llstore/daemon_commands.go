package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"llstore/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and queue status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Status()
				if err != nil {
					return err
				}
				if jsonFlag {
					return writeJSON(cmd, resp)
				}

				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Running:   %s\n", yesNo(resp.Running))
				fmt.Fprintf(stdout, "PID:       %d\n", resp.PID)
				if resp.Running && !resp.StartedAt.IsZero() {
					fmt.Fprintf(stdout, "Uptime:    %s\n", time.Since(resp.StartedAt).Round(time.Second))
				}
				fmt.Fprintf(stdout, "State DB:  %s\n", resp.StateDBPath)
				fmt.Fprintf(stdout, "Lock:      %s\n", resp.LockPath)
				fmt.Fprintf(stdout, "Queue:     %d installing, %d pending, %d finished\n",
					resp.QueueStats["installing"], resp.QueueStats["pending"], resp.QueueStats["history"])

				if len(resp.Dependencies) > 0 {
					fmt.Fprintln(stdout, "Dependencies:")
					for _, dep := range resp.Dependencies {
						marker := "ok"
						if !dep.Available {
							marker = "missing"
							if dep.Optional {
								marker = "missing (optional)"
							}
						}
						detail := dep.Detail
						if detail == "" {
							detail = dep.Command
						}
						fmt.Fprintf(stdout, "  %-10s %-18s %s\n", dep.Name, marker, detail)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit JSON output")
	return cmd
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the llstored daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Stop()
				if err != nil {
					return err
				}
				if !resp.Stopped {
					return fmt.Errorf("daemon declined the stop request")
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon stopping")
				return nil
			})
		},
	}
}

func newPruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove unused package layers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Prune()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if resp.Report != "" {
					fmt.Fprintln(stdout, resp.Report)
				}
				fmt.Fprintln(stdout, "Prune complete")
				return nil
			})
		},
	}
}

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification through the daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TestNotification()
				if err != nil {
					return err
				}
				if !resp.Sent {
					return fmt.Errorf("notification test failed: %s", resp.Message)
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				return nil
			})
		},
	}
}
