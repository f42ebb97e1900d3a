package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/intrence/catalog/pkg/config"
	"github.com/intrence/catalog/engine/core"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const redacted = "[REDACTED]"

// ConfigCmd returns the config command
func ConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration diagnostics",
	}
	cmd.AddCommand(configShowCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	var (
		format      string
		showSources bool
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration values and their sources",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, service, err := loadUnifiedConfig(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			values, err := flattenConfig(cfg)
			if err != nil {
				return err
			}
			sources := make(map[string]config.SourceType, len(values))
			for key := range values {
				source := service.GetSource(key)
				if source == "" {
					source = config.SourceDefault
				}
				sources[key] = source
			}
			return formatConfigOutput(cmd.OutOrStdout(), values, sources, format, showSources)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (json, yaml, table)")
	cmd.Flags().BoolVarP(&showSources, "sources", "s", false, "Show configuration sources")
	return cmd
}

// flattenConfig renders every leaf as a string keyed by its config path.
// Sensitive paths are masked and connection strings lose their credentials.
func flattenConfig(cfg *config.Config) (map[string]string, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(cfg, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to flatten configuration: %w", err)
	}
	result := make(map[string]string)
	for key, value := range k.All() {
		if config.IsSensitiveConfigPath(key) {
			if fmt.Sprint(value) != "" {
				result[key] = redacted
			} else {
				result[key] = ""
			}
			continue
		}
		result[key] = core.RedactString(fmt.Sprint(value))
	}
	return result, nil
}

func formatConfigOutput(
	w io.Writer,
	values map[string]string,
	sources map[string]config.SourceType,
	format string,
	showSources bool,
) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(configDocument(values, sources, showSources))
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		return encoder.Encode(configDocument(values, sources, showSources))
	case "table":
		return outputTable(w, values, sources, showSources)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func configDocument(values map[string]string, sources map[string]config.SourceType, showSources bool) map[string]any {
	output := map[string]any{"config": values}
	if showSources && len(sources) > 0 {
		output["sources"] = sources
	}
	return output
}

func outputTable(w io.Writer, values map[string]string, sources map[string]config.SourceType, showSources bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if showSources {
		fmt.Fprintln(tw, "KEY\tVALUE\tSOURCE")
		fmt.Fprintln(tw, "---\t-----\t------")
	} else {
		fmt.Fprintln(tw, "KEY\tVALUE")
		fmt.Fprintln(tw, "---\t-----")
	}
	for _, key := range keys {
		if showSources {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", key, values[key], sources[key])
		} else {
			fmt.Fprintf(tw, "%s\t%s\n", key, values[key])
		}
	}
	return tw.Flush()
}
