// Package clearcmder provides the clear command for erasing a user's memory.
package clearcmder

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/keepsake/cmd/keepsake/apitarget"
	"github.com/papercomputeco/keepsake/pkg/cliui"
)

// ErrAborted is returned when the confirmation prompt is declined.
var ErrAborted = errors.New("aborted")

const clearLongDesc string = `Erase everything keepsake holds for a user.

Removes the conversation window, semantic memories, episodic entries, the
profile and cached contexts. Without --yes the command asks for confirmation.

Examples:
  keepsake clear alice
  keepsake clear alice --yes`

const clearShortDesc string = "Erase a user's memory"

func NewClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear <user>",
		Short: clearShortDesc,
		Long:  clearLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				ok, err := confirm(cmd, args[0])
				if err != nil {
					return err
				}
				if !ok {
					return ErrAborted
				}
			}
			return runClear(cmd, args[0])
		},
	}

	apitarget.AddFlag(cmd)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func confirm(cmd *cobra.Command, userID string) (bool, error) {
	fmt.Fprintf(cmd.OutOrStdout(), "Erase all memory for %s? [y/N]: ", cliui.NameStyle.Render(userID))

	scanner := bufio.NewScanner(cmd.InOrStdin())
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return false, fmt.Errorf("reading confirmation: %w", err)
		}
		return false, nil
	}

	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func runClear(cmd *cobra.Command, userID string) error {
	cl, err := apitarget.NewClient(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	res, err := cl.Clear(cmd.Context(), userID)
	if err != nil {
		for _, e := range res.Errors {
			fmt.Fprintf(out, "  %s %s\n", cliui.FailMark, e)
		}
		return err
	}

	fmt.Fprintf(out, "\n  %s Cleared memory for %s\n\n", cliui.SuccessMark, cliui.NameStyle.Render(userID))
	return nil
}
