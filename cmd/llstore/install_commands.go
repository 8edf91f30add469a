package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"llstore/internal/ipc"
	"llstore/internal/version"
)

func newInstallCommand(ctx *commandContext) *cobra.Command {
	var versionFlag string
	var forceFlag bool
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "install <app-id> [app-id...]",
		Short: "Queue one or more app installs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if versionFlag != "" && len(args) > 1 {
				return errors.New("--version applies to a single app only")
			}

			return ctx.withClient(func(client *ipc.Client) error {
				stdout := cmd.OutOrStdout()

				if len(args) == 1 {
					if versionFlag != "" && !forceFlag {
						if err := checkDowngrade(client, args[0], versionFlag); err != nil {
							return err
						}
					}
					resp, err := client.Install(args[0], versionFlag, forceFlag)
					if err != nil {
						return err
					}
					if jsonFlag {
						return writeJSON(cmd, resp)
					}
					if resp.Created {
						fmt.Fprintf(stdout, "Queued install of %s (task %s)\n", args[0], shortID(resp.TaskID))
					} else {
						fmt.Fprintf(stdout, "%s is already queued (task %s)\n", args[0], shortID(resp.TaskID))
					}
					return nil
				}

				items := make([]ipc.InstallRequest, 0, len(args))
				for _, appID := range args {
					items = append(items, ipc.InstallRequest{AppID: appID, Force: forceFlag})
				}
				resp, err := client.InstallBatch(items)
				if err != nil {
					return err
				}
				if jsonFlag {
					return writeJSON(cmd, resp)
				}
				fmt.Fprintf(stdout, "Queued %d of %d installs\n", len(resp.TaskIDs), len(args))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&versionFlag, "version", "", "Pin the install to a specific version")
	cmd.Flags().BoolVar(&forceFlag, "force", false, "Reinstall even when the version is already installed")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit JSON output")
	return cmd
}

// checkDowngrade refuses a pinned install older than what is on disk unless
// the user forces it.
func checkDowngrade(client *ipc.Client, appID, pinned string) error {
	resp, err := client.Installed()
	if err != nil {
		return err
	}
	for _, app := range resp.Apps {
		if app.ID != appID {
			continue
		}
		if version.Newer(app.Version, pinned) {
			return fmt.Errorf("%s %s is newer than %s; pass --force to downgrade", appID, app.Version, pinned)
		}
		return nil
	}
	return nil
}

func newCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <app-id>",
		Short: "Cancel a running or queued install",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Cancel(args[0])
				if err != nil {
					return err
				}
				if !resp.Cancelled {
					return fmt.Errorf("cancel %s: %s", args[0], resp.Message)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], resp.Message)
				return nil
			})
		},
	}
}
