// Command vdbconsole serves the vector database console API.
//
// Configuration is read from a YAML file (--config, VDBCONSOLE_CONFIG,
// ./config.yaml or /etc/vdbconsole/config.yaml) and VDBCONSOLE_* environment
// variables. See pkg/config for the full list.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		slog.Error("vdbconsole failed", "error", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	serve := newServeCommand()

	root := &cobra.Command{
		Use:           "vdbconsole",
		Short:         "Vector database console server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(
		serve,
		newVersionCommand(),
		newConfigCommand(),
	)
	return root
}
