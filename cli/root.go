package cli

import (
	"github.com/spf13/cobra"
)

const defaultConfigFile = "catalog.yaml"

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "catalog",
		Short:         "Catalog persistence tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", defaultConfigFile, "Path to the config file")
	flags.String("host", "", "Proxy host")
	flags.String("database", "", "Database name")
	flags.String("ssl-mode", "", "SSL mode (disable, allow, prefer, require, verify-ca, verify-full)")
	flags.Duration("acquire-timeout", 0, "Bound on waiting for a pooled connection")
	flags.Duration("statement-timeout", 0, "Bound on each statement")
	flags.String("log-level", "info", "Log level (debug, info, warn, error, disabled)")
	flags.Bool("log-json", false, "Log as JSON")
	flags.Bool("log-source", false, "Include source locations in logs")

	root.AddCommand(
		PingCmd(),
		ProductCmd(),
		ConfigCmd(),
	)

	return root
}
