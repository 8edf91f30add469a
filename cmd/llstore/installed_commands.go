package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"llstore/internal/ipc"
)

func newInstalledCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "installed",
		Short: "List installed apps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Installed()
				if err != nil {
					return err
				}
				if jsonFlag {
					return writeJSON(cmd, resp)
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Apps) == 0 {
					fmt.Fprintln(stdout, "No apps installed")
					return nil
				}
				rows := make([][]string, 0, len(resp.Apps))
				for _, app := range resp.Apps {
					rows = append(rows, []string{app.ID, app.Name, app.Version, app.Channel})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"App ID", "Name", "Version", "Channel"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit JSON output")
	return cmd
}

func newUpdatesCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool
	var applyFlag bool

	cmd := &cobra.Command{
		Use:   "updates",
		Short: "List apps with a newer version in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Updates()
				if err != nil {
					return err
				}
				if jsonFlag {
					return writeJSON(cmd, resp)
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Updates) == 0 {
					fmt.Fprintln(stdout, "All apps are up to date")
					return nil
				}
				rows := make([][]string, 0, len(resp.Updates))
				for _, update := range resp.Updates {
					rows = append(rows, []string{update.AppID, update.Name, update.Installed, update.Available})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"App ID", "Name", "Installed", "Available"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
				))

				if !applyFlag {
					return nil
				}
				items := make([]ipc.InstallRequest, 0, len(resp.Updates))
				for _, update := range resp.Updates {
					items = append(items, ipc.InstallRequest{AppID: update.AppID})
				}
				batch, err := client.InstallBatch(items)
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "Queued %d of %d updates\n", len(batch.TaskIDs), len(items))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit JSON output")
	cmd.Flags().BoolVar(&applyFlag, "apply", false, "Queue installs for every listed update")
	return cmd
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search the store catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Search(args[0])
				if err != nil {
					return err
				}
				if jsonFlag {
					return writeJSON(cmd, resp)
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Results) == 0 {
					fmt.Fprintf(stdout, "No catalog entries match %q\n", args[0])
					return nil
				}
				rows := make([][]string, 0, len(resp.Results))
				for _, result := range resp.Results {
					rows = append(rows, []string{result.AppID, result.DisplayName(), result.Version, result.Description})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"App ID", "Name", "Version", "Description"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit JSON output")
	return cmd
}
