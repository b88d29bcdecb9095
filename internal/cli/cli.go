// Package cli implements the popover command-line interface.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/popover/pkg/buildinfo"
	"github.com/matzehuels/popover/pkg/config"
	"github.com/matzehuels/popover/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = "popover"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is the --config flag; empty means the default location.
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Popover computes where anchored overlay panels should go",
		Long: `Popover is a placement engine for anchored overlays such as menus and popovers.

Given an anchor's bounding box, the viewport and the panel's size it picks a
side, computes offsets and size limits, and switches to bottom-sheet or
navigation-panel layouts on small devices.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/popover/config.toml)")

	// Register all subcommands
	root.AddCommand(c.placeCommand())
	root.AddCommand(c.sweepCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.initCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// loadConfig reads the configuration selected by --config.
func (c *CLI) loadConfig() (*config.Config, error) {
	return config.Load(c.configPath)
}

// newRunner creates a pipeline runner from the configuration. A cache that
// cannot be opened is reported and replaced by no caching.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config, noCache bool) *pipeline.Runner {
	store, err := cfg.Cache.Open(ctx, noCache)
	if err != nil {
		c.Logger.Warn("caching disabled", "error", err)
		store = nil
	}
	return pipeline.NewRunner(store, nil, c.Logger, cfg.NewEngine())
}

// pipelineOptions returns per-call options derived from the configuration.
func pipelineOptions(cfg *config.Config) pipeline.Options {
	return pipeline.Options{TTL: cfg.Cache.TTL}
}
