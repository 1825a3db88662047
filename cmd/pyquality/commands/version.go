package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/basalt-metrics/pyquality/pkg/version"
)

// NewVersionCommand reports the build version, commit, and date.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pyquality %s (commit: %s, built: %s)\n",
				version.Version, version.Commit, version.Date)
		},
	}
}
