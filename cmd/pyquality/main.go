// Package main provides the entry point for the pyquality CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/basalt-metrics/pyquality/cmd/pyquality/commands"
	"github.com/basalt-metrics/pyquality/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	if err := commands.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
