// Package recordcmder provides the record command for storing one
// human/agent exchange.
package recordcmder

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/keepsake/api"
	"github.com/papercomputeco/keepsake/cmd/keepsake/apitarget"
	"github.com/papercomputeco/keepsake/pkg/cliui"
	"github.com/papercomputeco/keepsake/pkg/importance"
	"github.com/papercomputeco/keepsake/pkg/memory"
)

type recordCommander struct {
	important bool
	metadata  map[string]string
	jsonOut   bool
}

const recordLongDesc string = `Record a human/agent exchange for a user.

The exchange is added to the user's conversation window, scored for
importance and, when important enough, stored as a semantic memory. Every
third exchange also produces an episodic entry.

Requires a running keepsake server (keepsake serve).

Examples:
  keepsake record alice "I moved to Lisbon last month" "How are you settling in?"
  keepsake record alice "My sister's name is Ana" "Noted!" --important
  keepsake record alice "hi" "hello" --meta channel=slack --json`

const recordShortDesc string = "Record a human/agent exchange"

func NewRecordCmd() *cobra.Command {
	cmder := &recordCommander{}

	cmd := &cobra.Command{
		Use:   "record <user> <human> <agent>",
		Short: recordShortDesc,
		Long:  recordLongDesc,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args[0], args[1], args[2])
		},
	}

	apitarget.AddFlag(cmd)
	cmd.Flags().BoolVar(&cmder.important, "important", false, "Mark the exchange as important")
	cmd.Flags().StringToStringVarP(&cmder.metadata, "meta", "m", nil, "Metadata key=value pairs attached to the exchange")
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print the raw result as JSON")

	return cmd
}

func (c *recordCommander) run(cmd *cobra.Command, userID, human, agent string) error {
	cl, err := apitarget.NewClient(cmd)
	if err != nil {
		return err
	}

	res, err := cl.Record(cmd.Context(), userID, api.RecordRequest{
		Human:    human,
		Agent:    agent,
		Metadata: c.requestMetadata(),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if c.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	printResult(out, res)
	return nil
}

func (c *recordCommander) requestMetadata() map[string]any {
	if len(c.metadata) == 0 && !c.important {
		return nil
	}
	md := make(map[string]any, len(c.metadata)+1)
	for k, v := range c.metadata {
		md[k] = v
	}
	if c.important {
		md[importance.FlagKey] = true
	}
	return md
}

func printResult(w io.Writer, res *memory.RecordResult) {
	mark := cliui.SuccessMark
	if res.Degraded() {
		mark = cliui.WarnStyle.Render("!")
	}

	fmt.Fprintf(w, "\n  %s Recorded exchange for %s\n\n", mark, cliui.NameStyle.Render(res.UserID))

	const width = 14
	cliui.KeyValue(w, width, "conversation", strconv.Itoa(res.ConversationCount))
	cliui.KeyValue(w, width, "importance", strconv.FormatFloat(res.Importance, 'f', 2, 64))
	cliui.KeyValue(w, width, "semantic", res.MemoryID)
	if res.Episode != nil {
		cliui.KeyValue(w, width, "episode", res.Episode.Text())
	}

	for _, e := range res.Errors {
		fmt.Fprintf(w, "  %s %s\n", cliui.WarnStyle.Render("!"), cliui.DimStyle.Render(e))
	}
	fmt.Fprintln(w)
}
