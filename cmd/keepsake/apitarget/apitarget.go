// Package apitarget resolves the keepsake API server that client commands
// talk to.
package apitarget

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/keepsake/api/client"
	"github.com/papercomputeco/keepsake/pkg/config"
)

// AddFlag registers --api-target on cmd.
func AddFlag(cmd *cobra.Command) {
	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, new(string))
}

// Resolve returns the API target for cmd. Precedence follows viper: the
// --api-target flag, KEEPSAKE_CLIENT_API_TARGET, config.toml, then the
// default.
func Resolve(cmd *cobra.Command) (string, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return "", fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagAPITarget})

	return config.FromViper(v).Client.APITarget, nil
}

// NewClient builds an API client for the resolved target.
func NewClient(cmd *cobra.Command) (*client.Client, error) {
	target, err := Resolve(cmd)
	if err != nil {
		return nil, err
	}
	return client.New(target, nil)
}
