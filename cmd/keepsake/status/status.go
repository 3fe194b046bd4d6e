// Package statuscmder provides the status command for displaying server and
// per-user memory state.
package statuscmder

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/keepsake/api/client"
	"github.com/papercomputeco/keepsake/cmd/keepsake/apitarget"
	"github.com/papercomputeco/keepsake/pkg/cliui"
	"github.com/papercomputeco/keepsake/pkg/memory"
)

const statusLongDesc string = `Show keepsake memory state.

Without a user, shows the server's store mode, resident users and cache
sizes. With a user, shows that user's counters.

Examples:
  keepsake status
  keepsake status alice`

const statusShortDesc string = "Show server or user memory state"

const keyWidth = 20

func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [user]",
		Short: statusShortDesc,
		Long:  statusLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := apitarget.NewClient(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				return runUserStatus(cmd, cl, args[0])
			}
			return runStatus(cmd, cl)
		},
	}

	apitarget.AddFlag(cmd)

	return cmd
}

func runStatus(cmd *cobra.Command, cl *client.Client) error {
	st, err := cl.Stats(cmd.Context())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "\n  %s\n\n", cliui.HeaderStyle.Render("keepsake server"))
	cliui.KeyValue(w, keyWidth, "store", st.StoreMode)
	cliui.KeyValue(w, keyWidth, "resident users", strconv.Itoa(st.ResidentUsers))
	cliui.KeyValue(w, keyWidth, "session cache", strconv.Itoa(st.SessionCache))
	cliui.KeyValue(w, keyWidth, "fast cache", strconv.Itoa(st.FastCache))
	cliui.KeyValue(w, keyWidth, "profile cache", strconv.Itoa(st.ProfileCache))
	fmt.Fprintln(w)
	return nil
}

func runUserStatus(cmd *cobra.Command, cl *client.Client, userID string) error {
	st, err := cl.UserStats(cmd.Context(), userID)
	if err != nil {
		return err
	}

	printUserStats(cmd.OutOrStdout(), st)
	return nil
}

func printUserStats(w io.Writer, st *memory.UserStats) {
	semantic := strconv.Itoa(st.SemanticRecords)
	if st.SemanticRecords < 0 {
		semantic = "unavailable"
	}

	fmt.Fprintf(w, "\n  %s\n\n", cliui.NameStyle.Render(st.UserID))
	cliui.KeyValue(w, keyWidth, "conversations", strconv.Itoa(st.ConversationCount))
	cliui.KeyValue(w, keyWidth, "since last episode", strconv.Itoa(st.InteractionsSinceEpisode))
	cliui.KeyValue(w, keyWidth, "buffered messages", strconv.Itoa(st.BufferedMessages))
	cliui.KeyValue(w, keyWidth, "summary", strconv.FormatBool(st.HasSummary))
	cliui.KeyValue(w, keyWidth, "episodes", strconv.Itoa(st.Episodes))
	cliui.KeyValue(w, keyWidth, "traits", strconv.Itoa(st.Traits))
	cliui.KeyValue(w, keyWidth, "semantic records", semantic)
	fmt.Fprintln(w)
}
