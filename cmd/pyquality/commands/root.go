// Package commands holds the pyquality CLI's cobra command tree.
package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	noColor bool
)

// NewRootCommand builds the top-level pyquality command with its
// subcommands wired in, mirroring the teacher's cmd/codefang/main.go
// root-command shape.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "pyquality",
		Short: "Python code-quality metrics over git history",
		Long: `pyquality computes raw, cyclomatic, and Halstead metrics plus a
maintainability index for Python source, either for one working tree
(analyze) or across a repository's commit history (history).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			color.NoColor = noColor
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (accepted but not read by any command)")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	root.AddCommand(NewHistoryCommand())
	root.AddCommand(NewAnalyzeCommand())
	root.AddCommand(NewVersionCommand())

	return root
}
