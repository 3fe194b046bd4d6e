// Package contextcmder provides the context command for printing the memory
// context assembled for a user.
package contextcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/keepsake/cmd/keepsake/apitarget"
	"github.com/papercomputeco/keepsake/pkg/cliui"
)

type contextCommander struct {
	pretty bool
}

const contextLongDesc string = `Print the memory context for a user.

The context joins the conversation summary, recent messages, semantic
memories relevant to the optional message, episodic insights and profile
traits. Without a message no semantic memories are included.

Use --pretty to render the context as markdown in the terminal.

Examples:
  keepsake context alice
  keepsake context alice "what should I cook tonight?"
  keepsake context alice "weekend plans" --pretty`

const contextShortDesc string = "Print the memory context for a user"

func NewContextCmd() *cobra.Command {
	cmder := &contextCommander{}

	cmd := &cobra.Command{
		Use:   "context <user> [message]",
		Short: contextShortDesc,
		Long:  contextLongDesc,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := ""
			if len(args) == 2 {
				message = args[1]
			}
			return cmder.run(cmd, args[0], message)
		},
	}

	apitarget.AddFlag(cmd)
	cmd.Flags().BoolVarP(&cmder.pretty, "pretty", "p", false, "Render the context as markdown")

	return cmd
}

func (c *contextCommander) run(cmd *cobra.Command, userID, message string) error {
	cl, err := apitarget.NewClient(cmd)
	if err != nil {
		return err
	}

	resp, err := cl.Context(cmd.Context(), userID, message)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if strings.TrimSpace(resp.Context) == "" {
		fmt.Fprintf(out, "No memory recorded for %s yet.\n", userID)
		return nil
	}

	if !c.pretty {
		fmt.Fprintln(out, resp.Context)
		return nil
	}

	rendered, err := cliui.RenderMarkdown(cliui.ContextMarkdown(resp.Context))
	if err != nil {
		return fmt.Errorf("rendering context: %w", err)
	}
	fmt.Fprint(out, rendered)
	return nil
}
