// Package initcmder provides the init command for initializing a local
// .keepsake directory in the current working directory.
package initcmder

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/keepsake/pkg/cliui"
	"github.com/papercomputeco/keepsake/pkg/config"
	"github.com/papercomputeco/keepsake/pkg/utils"
)

const (
	dirName = ".keepsake"

	fetchTimeout = 15 * time.Second
	maxPreset    = 1 << 20
)

const initLongDesc string = `Initialize a new .keepsake/ directory in the current working directory.

Creates a local .keepsake/ directory that takes precedence over the default
~/.keepsake/ directory for configuration, credentials, profiles and local
memories. A config.toml is written with defaults unless one already exists.

Use --preset to start from a provider preset (openai, anthropic, ollama,
offline) or from a config.toml served at an http(s) URL. A preset always
overwrites an existing config.toml.

Examples:
  keepsake init
  keepsake init --preset offline
  keepsake init --preset https://example.com/keepsake/config.toml`

const initShortDesc string = "Initialize a local .keepsake/ directory"

func NewInitCmd() *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, preset)
		},
		ValidArgsFunction: cobra.NoFileCompletions,
	}

	cmd.Flags().StringVar(&preset, "preset", "", "Provider preset name or URL of a config.toml")

	return cmd
}

func runInit(cmd *cobra.Command, preset string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)
	w := cmd.OutOrStdout()

	var cfg *config.Config
	if preset != "" {
		cfg, err = resolvePreset(cmd, preset)
		if err != nil {
			return err
		}
	}

	info, err := os.Stat(dir)
	existed := err == nil && info.IsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .keepsake directory: %w", err)
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	configPath := cfger.GetTarget()
	_, statErr := os.Stat(configPath)
	if cfg == nil && statErr == nil {
		fmt.Fprintf(w, "Already initialized: %s\n", dir)
		return nil
	}
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	verb := "Initialized"
	if existed {
		verb = "Updated"
	}
	fmt.Fprintf(w, "  %s %s .keepsake directory: %s\n", cliui.SuccessMark, verb, dir)
	fmt.Fprintf(w, "  %s\n", cliui.DimStyle.Render("config: "+configPath))
	return nil
}

// resolvePreset returns the named preset, or fetches and parses a
// config.toml when preset is an http(s) URL.
func resolvePreset(cmd *cobra.Command, preset string) (*config.Config, error) {
	if !strings.HasPrefix(preset, "http://") && !strings.HasPrefix(preset, "https://") {
		return config.PresetConfig(preset)
	}

	var cfg *config.Config
	err := cliui.Step(cmd.ErrOrStderr(), "Fetching "+preset, func() error {
		var err error
		cfg, err = fetchPreset(cmd.Context(), preset)
		return err
	})
	return cfg, err
}

func fetchPreset(ctx context.Context, preset string) (*config.Config, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, preset, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}
	req.Header.Set("User-Agent", utils.UserAgent())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching remote config: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPreset))
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}

	return config.ParseConfigTOML(data)
}
