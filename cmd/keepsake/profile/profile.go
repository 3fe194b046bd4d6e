// Package profilecmder provides the profile command for setting a user's
// profile traits.
package profilecmder

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/keepsake/cmd/keepsake/apitarget"
	"github.com/papercomputeco/keepsake/pkg/cliui"
)

const profileLongDesc string = `Set profile traits for a user.

Each argument is a key=value pair. Values that parse as JSON (numbers,
booleans, arrays, objects, quoted strings) are stored as such; anything else
is stored as a plain string. Existing traits with other keys are kept.

Examples:
  keepsake profile alice name=Alice city=Lisbon
  keepsake profile alice age=34 vegetarian=true
  keepsake profile alice 'languages=["en","pt"]'`

const profileShortDesc string = "Set profile traits for a user"

func NewProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile <user> <key=value>...",
		Short: profileShortDesc,
		Long:  profileLongDesc,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			traits, err := ParseTraits(args[1:])
			if err != nil {
				return err
			}
			return runProfile(cmd, args[0], traits)
		},
	}

	apitarget.AddFlag(cmd)

	return cmd
}

// ParseTraits turns key=value pairs into a trait map.
func ParseTraits(pairs []string) (map[string]any, error) {
	traits := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, raw, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid trait %q: expected key=value", p)
		}

		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		traits[key] = v
	}
	return traits, nil
}

func runProfile(cmd *cobra.Command, userID string, traits map[string]any) error {
	cl, err := apitarget.NewClient(cmd)
	if err != nil {
		return err
	}

	st, err := cl.UpdateProfile(cmd.Context(), userID, traits)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n  %s Updated %d trait(s) for %s %s\n\n",
		cliui.SuccessMark,
		len(traits),
		cliui.NameStyle.Render(userID),
		cliui.DimStyle.Render(fmt.Sprintf("(%d total)", st.Traits)),
	)
	return nil
}
