// Package servecmder provides the serve command that runs the keepsake
// memory API server.
package servecmder

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/keepsake/api"
	"github.com/papercomputeco/keepsake/pkg/config"
	"github.com/papercomputeco/keepsake/pkg/credentials"
	"github.com/papercomputeco/keepsake/pkg/dotdir"
	"github.com/papercomputeco/keepsake/pkg/logger"
	memoryutils "github.com/papercomputeco/keepsake/pkg/memory/utils"
)

type serveCommander struct {
	configDir string
	debug     bool
	noMCP     bool
	logJSON   bool
	logFile   string

	config *config.Config
	logger *slog.Logger
}

const serveLongDesc string = `Run the keepsake memory server.

The server records human/agent exchanges and serves assembled memory context
over HTTP. The MCP tools memory_record, memory_context and memory_search are
mounted at /mcp unless --no-mcp is given.

Settings come from flags, KEEPSAKE_* environment variables, config.toml in the
.keepsake/ directory and built-in defaults, in that order.

Examples:
  keepsake serve
  keepsake serve --listen :9000 --vector-store-provider local
  keepsake serve --completion-provider openai --completion-model gpt-4o-mini
  keepsake serve --log-file .keepsake/serve.log`

const serveShortDesc string = "Run the keepsake memory server"

var serveFlags = append([]string{config.FlagAPIListen}, config.MemoryFlags...)

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, serveFlags)
			cmder.config = config.FromViper(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(cmd)
		},
	}

	config.AddFlags(cmd, config.Flags, serveFlags)
	cmd.Flags().BoolVar(&cmder.noMCP, "no-mcp", false, "Do not mount the MCP endpoint")
	cmd.Flags().BoolVar(&cmder.logJSON, "log-json", false, "Write logs as JSON")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also append JSON logs to this file")

	return cmd
}

func (c *serveCommander) run(cmd *cobra.Command) error {
	var closer io.Closer
	var err error
	c.logger, closer, err = c.newLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	server, stack, err := c.newServer(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if err := stack.Close(); err != nil {
			c.logger.Error("closing memory stack", "error", err)
		}
	}()

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return server.Shutdown()
	case <-cmd.Context().Done():
		c.logger.Info("context cancelled, shutting down")
		return server.Shutdown()
	}
}

// newLogger writes to w and, with --log-file, tees JSON records to the file.
// The closer is nil when no file is open.
func (c *serveCommander) newLogger(w io.Writer) (*slog.Logger, io.Closer, error) {
	console := logger.New(
		logger.WithDebug(c.debug),
		logger.WithPretty(!c.logJSON),
		logger.WithJSON(c.logJSON),
		logger.WithWriter(w),
	)
	if c.logFile == "" {
		return console, nil, nil
	}

	file, closer, err := logger.NewFile(c.logFile, logger.WithDebug(c.debug))
	if err != nil {
		return nil, nil, err
	}
	return logger.Multi(console, file), closer, nil
}

// newServer builds the memory stack and the API server around it. The
// caller owns the returned stack.
func (c *serveCommander) newServer(cmd *cobra.Command) (*api.Server, *memoryutils.Stack, error) {
	loc, err := dotdir.NewManager().Locate(c.configDir)
	if err != nil {
		return nil, nil, err
	}
	c.logger.Debug("using keepsake directory", "path", loc.Path, "origin", loc.Origin)

	creds, err := credentials.NewManager(c.configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("loading credentials: %w", err)
	}

	stack, err := memoryutils.NewOrchestrator(cmd.Context(), &memoryutils.NewOrchestratorOpts{
		Config:      c.config,
		BaseDir:     loc.Path,
		Credentials: creds,
		Logger:      c.logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("building memory stack: %w", err)
	}

	server, err := api.NewServer(api.Config{
		ListenAddr: c.config.API.Listen,
		DisableMCP: c.noMCP,
	}, stack.Orchestrator, c.logger)
	if err != nil {
		_ = stack.Close()
		return nil, nil, fmt.Errorf("creating API server: %w", err)
	}

	return server, stack, nil
}
