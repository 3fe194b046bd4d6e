// Package versioncmder
package versioncmder

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/keepsake/pkg/utils"
)

type VersionCommander struct {
	jsonOut bool
}

func NewVersionCmd() *cobra.Command {
	cmder := &VersionCommander{}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "displays version",
		Long:  "displays the version, commit and build time of this CLI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print version information as JSON")

	return cmd
}

func (c *VersionCommander) run(cmd *cobra.Command) error {
	w := cmd.OutOrStdout()
	if c.jsonOut {
		return json.NewEncoder(w).Encode(map[string]string{
			"version":   utils.Version,
			"sha":       utils.Sha,
			"buildtime": utils.Buildtime,
		})
	}

	fmt.Fprintf(w, "Version: %s\nSha: %s\nBuilt at: %s\n", utils.Version, utils.Sha, utils.Buildtime)
	return nil
}
