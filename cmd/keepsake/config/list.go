package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/keepsake/pkg/cliui"
	"github.com/papercomputeco/keepsake/pkg/config"
)

const listLongDesc string = `List all configuration values.

Prints every key grouped by its config.toml section, with unset keys
marked. Values come from the config.toml file in the .keepsake/ directory.

Examples:
  keepsake config list`

const listShortDesc string = "List all configuration values"

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runList(cmd, configDir)
		},
	}
}

func runList(cmd *cobra.Command, configDir string) error {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	w := cmd.OutOrStdout()
	printTarget(w, cfger)

	keys := config.ValidConfigKeys()
	width := 0
	for _, k := range keys {
		width = max(width, len(k))
	}

	section := ""
	for _, key := range keys {
		if s, _, ok := strings.Cut(key, "."); ok && s != section {
			if section != "" {
				fmt.Fprintln(w)
			}
			section = s
			fmt.Fprintf(w, "  %s\n", cliui.HeaderStyle.Render("["+s+"]"))
		}

		value, err := cfger.GetConfigValue(key)
		if err != nil {
			return err
		}
		cliui.KeyValue(w, width, key, value)
	}
	fmt.Fprintln(w)

	return nil
}
