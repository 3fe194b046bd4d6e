// Package configcmder provides the config command for managing persistent
// keepsake configuration stored in the .keepsake/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/keepsake/pkg/cliui"
	"github.com/papercomputeco/keepsake/pkg/config"
)

const configLongDesc string = `Manage persistent keepsake configuration.

Configuration is stored as config.toml in the .keepsake/ directory and
provides default values for command flags. CLI flags and KEEPSAKE_*
environment variables take precedence over config file values.

Keys use dotted notation matching the TOML section structure, for example:
  memory.data_dir, memory.buffer_size, memory.episodic_interval,
  vector_store.provider, vector_store.target,
  embedding.provider, embedding.model, embedding.dimensions,
  completion.provider, completion.model,
  conversation_log.provider, event_stream.brokers,
  api.listen, client.api_target, cache.session_ttl

Use subcommands to get, set, or list configuration values:
  keepsake config set <key> <value>    Set a configuration value
  keepsake config get <key>            Get a configuration value
  keepsake config list                 List all configuration values

Examples:
  keepsake config set vector_store.provider local
  keepsake config set embedding.model nomic-embed-text
  keepsake config get completion.provider
  keepsake config list`

const configShortDesc string = "Manage persistent keepsake configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func validateKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func printTarget(w io.Writer, cfger *config.Configer) {
	if cfger.Exists() {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(cfger.GetTarget()),
		)
		return
	}
	fmt.Fprintf(w, "\n  %s %s\n\n",
		cliui.DimStyle.Render("No config file at"),
		cliui.DimStyle.Render(cfger.GetTarget()+". Using defaults."),
	)
}
