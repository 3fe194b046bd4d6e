// Package exportcmder provides the export command for dumping everything
// keepsake holds for a user.
package exportcmder

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/keepsake/cmd/keepsake/apitarget"
	"github.com/papercomputeco/keepsake/pkg/cliui"
	"github.com/papercomputeco/keepsake/pkg/utils"
)

const exportLongDesc string = `Export a user's memory as JSON.

The export holds the profile, conversation summary and history, semantic
memories, episodic entries and their summary card. Parts that could not be
read are empty and described in the "error" field.

Examples:
  keepsake export alice
  keepsake export alice --output alice.json`

const exportShortDesc string = "Export a user's memory as JSON"

func NewExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <user>",
		Short: exportShortDesc,
		Long:  exportLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args[0], output)
		},
	}

	apitarget.AddFlag(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the export to a file instead of stdout")

	return cmd
}

func runExport(cmd *cobra.Command, userID, output string) error {
	cl, err := apitarget.NewClient(cmd)
	if err != nil {
		return err
	}

	exp, err := cl.Export(cmd.Context(), userID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(exp, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}
	data = append(data, '\n')

	if output == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}

	if err := utils.WriteFileAtomic(output, data, 0o600); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "  %s Exported %s to %s\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(userID),
		cliui.DimStyle.Render(output),
	)
	if exp.Error != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "  %s %s\n", cliui.WarnStyle.Render("!"), exp.Error)
	}
	return nil
}
