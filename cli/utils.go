package cli

import (
	"github.com/spf13/cobra"
)

// extractCLIFlags maps explicitly set flags onto config paths.
func extractCLIFlags(cmd *cobra.Command, flags map[string]any) {
	addFlag := func(flagName, key string, getter func(string) (any, error)) {
		if cmd.Flags().Changed(flagName) {
			if value, err := getter(flagName); err == nil {
				flags[key] = value
			}
		}
	}

	getString := func(name string) (any, error) { return cmd.Flags().GetString(name) }
	getBool := func(name string) (any, error) { return cmd.Flags().GetBool(name) }
	getDuration := func(name string) (any, error) { return cmd.Flags().GetDuration(name) }

	flagDefs := []struct {
		flagName string
		key      string
		getter   func(string) (any, error)
	}{
		{"host", "postgres.host", getString},
		{"database", "postgres.database", getString},
		{"ssl-mode", "postgres.ssl_mode", getString},
		{"acquire-timeout", "postgres.acquire_timeout", getDuration},
		{"statement-timeout", "postgres.statement_timeout", getDuration},
		{"log-level", "log.level", getString},
		{"log-json", "log.json", getBool},
		{"log-source", "log.source", getBool},
	}

	for _, def := range flagDefs {
		addFlag(def.flagName, def.key, def.getter)
	}
}
