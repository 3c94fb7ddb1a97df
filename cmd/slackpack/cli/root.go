// Package cli wires the Slack-Pack engine into a Cobra command tree:
// "run" packs a single generated stream onto a sheet, "compare" runs
// several parameter scenarios side by side.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/piwi3910/slackpack/internal/config"
)

// Execute builds and runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "slackpack",
		Short: "Pack a harmonic detail stream onto a sheet with the Slack-Pack algorithm",
	}
	root.AddCommand(newRunCmd())
	root.AddCommand(newCompareCmd())
	return root
}

// configPathFlag returns the --config flag's effective path, falling
// back to config.DefaultPath() when unset.
func configPathFlag(cmd *cobra.Command) (string, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return "", err
	}
	if path == "" {
		path = config.DefaultPath()
	}
	return path, nil
}
