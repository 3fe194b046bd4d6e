// Package searchcmder provides the search command for semantic search over a
// user's memories.
package searchcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/keepsake/api"
	"github.com/papercomputeco/keepsake/cmd/keepsake/apitarget"
	"github.com/papercomputeco/keepsake/pkg/cliui"
	"github.com/papercomputeco/keepsake/pkg/utils"
)

var (
	queryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	previewStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	branchStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// previewLength is the rune length of the first line shown per memory.
const previewLength = 80

type searchCommander struct {
	topK  int
	quiet bool
}

const searchLongDesc string = `Search a user's semantic memories.

Returns the memories most relevant to the query text, best match first.
Requires a running keepsake server.

Use --quiet to print each memory on a single line with no decoration.

Examples:
  keepsake search alice "hiking"
  keepsake search alice "family birthdays" --top 10
  keepsake search alice "allergies" --quiet`

const searchShortDesc string = "Search a user's memories"

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <user> <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args[0], args[1])
		},
	}

	apitarget.AddFlag(cmd)
	cmd.Flags().IntVarP(&cmder.topK, "top", "k", 5, "Number of memories to return")
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Print one memory per line without styling")

	return cmd
}

func (c *searchCommander) run(cmd *cobra.Command, userID, query string) error {
	if c.topK <= 0 {
		return fmt.Errorf("--top must be positive, got %d", c.topK)
	}

	cl, err := apitarget.NewClient(cmd)
	if err != nil {
		return err
	}

	resp, err := cl.Search(cmd.Context(), userID, query, c.topK)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if resp.Count == 0 {
		if !c.quiet {
			fmt.Fprintln(out, "No memories found.")
		}
		return nil
	}

	if c.quiet {
		for _, m := range resp.Memories {
			fmt.Fprintln(out, strings.Join(strings.Fields(m), " "))
		}
		return nil
	}

	printResults(out, resp)
	return nil
}

func printResults(w io.Writer, resp *api.SearchResponse) {
	fmt.Fprintf(w, "\n%s %s %s\n\n",
		cliui.HeaderStyle.Render("Memories of"),
		cliui.NameStyle.Render(resp.UserID),
		queryStyle.Render(fmt.Sprintf("for %q", resp.Query)),
	)

	for i, m := range resp.Memories {
		lines := strings.Split(strings.TrimSpace(m), "\n")

		fmt.Fprintf(w, "  %s  %s\n",
			cliui.RankStyle.Render(fmt.Sprintf("#%d", i+1)),
			previewStyle.Render(utils.Truncate(lines[0], previewLength)),
		)
		for _, l := range lines[1:] {
			fmt.Fprintf(w, "  %s %s\n",
				branchStyle.Render(" ├─"),
				branchStyle.Render(utils.Truncate(l, previewLength)),
			)
		}
		fmt.Fprintln(w)
	}
}
