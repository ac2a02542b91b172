// Package cli implements the boxpack command-line interface.
//
// The CLI reads box trees from TOML or JSON files and runs them through the
// same layout service as the HTTP API, backed by an in-memory store.
//
// # Commands
//
//   - pack: pack the items of a file into one container and print the layout
//   - fit: check whether a box fits inside a container
//
// # Logging
//
// Logs go to stderr in console format. Only warnings are shown unless
// --verbose (-v) is given.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hapkiduki/boxpack/internal/application/service"
	"github.com/hapkiduki/boxpack/internal/infrastructure/config"
	"github.com/hapkiduki/boxpack/internal/infrastructure/logging"
	"github.com/hapkiduki/boxpack/internal/infrastructure/persistance/memory"
	"github.com/hapkiduki/boxpack/pkg/logger"
)

// Log levels accepted by the CLI logger.
const (
	LogWarn  = "warn"
	LogDebug = "debug"
)

// CLI holds the command state shared by all subcommands.
type CLI struct {
	out     io.Writer
	errOut  io.Writer
	version string

	verbose    bool
	configFile string

	log *logger.Logger
	svc *service.LayoutService
}

// New creates a CLI writing results to out and logs to errOut.
func New(out, errOut io.Writer, version string) *CLI {
	return &CLI{out: out, errOut: errOut, version: version}
}

// RootCommand builds the boxpack command tree.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "boxpack",
		Short:         "Pack boxes into containers and check fits",
		Version:       c.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return c.setup()
		},
	}
	root.SetOut(c.out)
	root.SetErr(c.errOut)
	root.SetVersionTemplate("boxpack {{.Version}}\n")

	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "config file with packing limits")

	root.AddCommand(c.packCommand(), c.fitCommand())
	return root
}

// setup builds the logger and the service once flags are parsed.
func (c *CLI) setup() error {
	level := LogWarn
	if c.verbose {
		level = LogDebug
	}
	log, err := logger.New(logger.Config{Level: level, Format: "console", Output: c.errOut})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	c.log = log

	limits := service.DefaultLimits()
	if c.configFile != "" {
		cfg, err := config.LoadFile(c.configFile)
		if err != nil {
			return err
		}
		limits = service.Limits{
			DefaultUnit: cfg.Packing.DefaultUnit,
			MaxChildren: cfg.Packing.MaxChildren,
			MaxDepth:    cfg.Packing.MaxDepth,
		}
		c.log.Debug("Loaded packing limits", "file", c.configFile, "max_children", limits.MaxChildren, "max_depth", limits.MaxDepth)
	}

	c.svc = service.NewLayoutService(memory.NewLayoutRepository(), logging.NewAdapter(c.log), limits)
	return nil
}

// Execute runs the CLI against the process streams. Errors are printed to
// stderr before being returned.
func Execute(ctx context.Context, version string) error {
	c := New(os.Stdout, os.Stderr, version)
	err := c.RootCommand().ExecuteContext(ctx)
	if err != nil {
		printError(c.errOut, err)
	}
	return err
}
