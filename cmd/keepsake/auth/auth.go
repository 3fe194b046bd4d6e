// Package authcmder provides the auth command for storing API credentials.
package authcmder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/keepsake/pkg/cliui"
	"github.com/papercomputeco/keepsake/pkg/credentials"
)

const authLongDesc string = `Store API credentials for completion, embedding and vector store providers.

Credentials are stored in credentials.toml in the .keepsake/ directory. A key
set in config.toml takes precedence; the matching environment variable is
used when neither is present.

Supported providers: openai, anthropic, qdrant, chroma

Examples:
  keepsake auth openai              Prompt for an OpenAI API key
  keepsake auth qdrant              Prompt for a Qdrant Cloud API key
  keepsake auth --list              List stored credentials
  keepsake auth --remove openai     Remove stored OpenAI credentials
  echo $KEY | keepsake auth openai  Pipe the API key from stdin`

const authShortDesc string = "Store API credentials for providers"

func NewAuthCmd() *cobra.Command {
	var listFlag bool
	var removeFlag string

	cmd := &cobra.Command{
		Use:   "auth [provider]",
		Short: authShortDesc,
		Long:  authLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			switch {
			case listFlag:
				return runList(cmd.OutOrStdout(), configDir)
			case removeFlag != "":
				return runRemove(cmd.OutOrStdout(), removeFlag, configDir)
			default:
				if len(args) == 0 {
					return fmt.Errorf("provider argument required\n\nSupported providers: %s",
						strings.Join(credentials.SupportedProviders(), ", "))
				}
				return runAuth(cmd, args[0], configDir)
			}
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return credentials.SupportedProviders(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
	}

	cmd.Flags().BoolVar(&listFlag, "list", false, "List stored credentials")
	cmd.Flags().StringVar(&removeFlag, "remove", "", "Remove stored credentials for a provider")

	return cmd
}

func runAuth(cmd *cobra.Command, provider, configDir string) error {
	provider = strings.ToLower(strings.TrimSpace(provider))

	if !credentials.IsSupportedProvider(provider) {
		return fmt.Errorf("%w: %q\n\nSupported providers: %s",
			credentials.ErrUnsupportedProvider, provider, strings.Join(credentials.SupportedProviders(), ", "))
	}

	w := cmd.OutOrStdout()
	apiKey, err := readAPIKey(w, cmd.InOrStdin(), provider)
	if err != nil {
		return err
	}

	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}
	if err := mgr.SetKey(provider, strings.TrimSpace(apiKey)); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n  %s Stored %s credentials %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(provider),
		cliui.DimStyle.Render("(overrides "+credentials.EnvVarForProvider(provider)+")"),
	)
	return nil
}

// runList prints stored keys masked, then providers that would fall back to
// a set environment variable.
func runList(w io.Writer, configDir string) error {
	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	stored, err := mgr.ListProviders()
	if err != nil {
		return err
	}

	if len(stored) == 0 {
		fmt.Fprintf(w, "\n  %s No stored credentials.\n", cliui.DimStyle.Render("●"))
		fmt.Fprintf(w, "  Use 'keepsake auth <provider>' to store credentials.\n")
		fmt.Fprintf(w, "  Supported providers: %s\n", strings.Join(credentials.SupportedProviders(), ", "))
	} else {
		fmt.Fprintf(w, "\n  %s\n\n", cliui.HeaderStyle.Render("Stored credentials"))
		for _, p := range stored {
			key, _ := mgr.GetKey(p)
			line := fmt.Sprintf("  %s  %s  %s", cliui.SuccessMark, cliui.NameStyle.Render(p), cliui.ValueStyle.Render(credentials.Mask(key)))
			if envVar := credentials.EnvVarForProvider(p); envVar != "" {
				line += "  " + cliui.DimStyle.Render("overrides "+envVar)
			}
			fmt.Fprintln(w, line)
		}
	}

	var fromEnv []string
	for _, p := range credentials.SupportedProviders() {
		if _, src := credentials.Lookup(mgr, p, ""); src == credentials.SourceEnv {
			fromEnv = append(fromEnv, p)
		}
	}
	if len(fromEnv) > 0 {
		fmt.Fprintf(w, "\n  %s\n\n", cliui.HeaderStyle.Render("From environment"))
		for _, p := range fromEnv {
			fmt.Fprintf(w, "  %s  %s  %s\n",
				cliui.DimStyle.Render("●"),
				cliui.NameStyle.Render(p),
				cliui.DimStyle.Render(credentials.EnvVarForProvider(p)),
			)
		}
	}
	fmt.Fprintln(w)

	return nil
}

func runRemove(w io.Writer, provider, configDir string) error {
	provider = strings.ToLower(strings.TrimSpace(provider))

	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}
	if err := mgr.RemoveKey(provider); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n  %s Removed %s credentials.\n\n", cliui.SuccessMark, cliui.NameStyle.Render(provider))
	return nil
}

// readAPIKey reads an API key from in. A terminal gets a hidden prompt;
// anything else is read up to the first newline.
func readAPIKey(w io.Writer, in io.Reader, provider string) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(w, "Enter API key for %s (%s): ", provider, credentials.EnvVarForProvider(provider))

		keyBytes, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(w)
		if err != nil {
			return "", fmt.Errorf("reading API key: %w", err)
		}
		return string(keyBytes), nil
	}

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return "", errors.New("no input received on stdin")
}
