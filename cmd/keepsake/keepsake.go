// Package keepsakecmder
package keepsakecmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/keepsake/cmd/keepsake/auth"
	clearcmder "github.com/papercomputeco/keepsake/cmd/keepsake/clear"
	configcmder "github.com/papercomputeco/keepsake/cmd/keepsake/config"
	contextcmder "github.com/papercomputeco/keepsake/cmd/keepsake/context"
	exportcmder "github.com/papercomputeco/keepsake/cmd/keepsake/export"
	initcmder "github.com/papercomputeco/keepsake/cmd/keepsake/init"
	profilecmder "github.com/papercomputeco/keepsake/cmd/keepsake/profile"
	recordcmder "github.com/papercomputeco/keepsake/cmd/keepsake/record"
	searchcmder "github.com/papercomputeco/keepsake/cmd/keepsake/search"
	servecmder "github.com/papercomputeco/keepsake/cmd/keepsake/serve"
	statuscmder "github.com/papercomputeco/keepsake/cmd/keepsake/status"
	versioncmder "github.com/papercomputeco/keepsake/cmd/version"
)

const keepsakeLongDesc string = `keepsake is long-term memory for conversational agents.

It keeps a short conversation window per user, scores each exchange for
importance, stores the important ones as semantic memories, extracts
episodic insights and persists a user profile.

Run the server:
  keepsake serve        Run the memory API and MCP server

Talk to a running server:
  keepsake record       Record a human/agent exchange
  keepsake context      Print the memory context for a user
  keepsake search       Search a user's memories
  keepsake profile      Set profile traits
  keepsake status       Show server or user memory state
  keepsake export       Export a user's memory as JSON
  keepsake clear        Erase a user's memory

Manage local state:
  keepsake init         Initialize a local .keepsake/ directory
  keepsake config       Manage config.toml
  keepsake auth         Store provider API keys`

const keepsakeShortDesc string = "keepsake - Agent Memory"

func NewKeepsakeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "keepsake",
		Short:        keepsakeShortDesc,
		Long:         keepsakeLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .keepsake/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(recordcmder.NewRecordCmd())
	cmd.AddCommand(contextcmder.NewContextCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(profilecmder.NewProfileCmd())
	cmd.AddCommand(statuscmder.NewStatusCmd())
	cmd.AddCommand(exportcmder.NewExportCmd())
	cmd.AddCommand(clearcmder.NewClearCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
