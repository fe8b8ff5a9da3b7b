// Package cli implements the jrevolver command-line interface.
//
// # Commands
//
//   - generate: resolve layout files and write their permutations
//   - resolve: print the permutations of one layout
//   - graph: show the include graph of a layout
//   - browse: page through permutations interactively
//   - serve: run the HTTP resolve API
//   - cache: manage the resolution cache
//   - init: write a default jrevolver.toml
//
// # Configuration
//
// Settings are read from jrevolver.toml in the working directory, or from
// the file named by --config. Flags override the file.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/jrevolver/pkg/buildinfo"
	"github.com/matzehuels/jrevolver/pkg/cache"
	"github.com/matzehuels/jrevolver/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "jrevolver"

	// redisDialTimeout bounds the connection check of a configured Redis cache.
	redisDialTimeout = 5 * time.Second
)

// Log levels accepted by New.
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

	// Out receives the documents printed by resolve, graph and cache path.
	Out io.Writer

	configPath string
	verbose    bool
	config     *Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "jrevolver generates JSON mocks from templated layouts",
		Long: `jrevolver resolves JSON layouts into concrete documents. Layouts combine
other files with --include, expand alternatives with --map, and combine
values with --concat and --zipperMerge.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ./"+defaultConfigFile+" if present)")

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.initCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the configuration once per process.
func (c *CLI) loadConfig() error {
	if c.config != nil {
		return nil
	}
	cfg, path, err := LoadConfig(c.configPath)
	if err != nil {
		return err
	}
	if path != "" {
		c.Logger.Debug("loaded config", "path", path)
	}
	c.config = cfg
	return nil
}

// cfg returns the loaded configuration, or the defaults before loading.
func (c *CLI) cfg() *Config {
	if c.config == nil {
		c.config = DefaultConfig()
	}
	return c.config
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	store, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	keyer := cache.NewScopedKeyer(nil, buildinfo.CacheScope())
	return pipeline.NewRunner(store, keyer, c.Logger), nil
}

// newCache opens the configured cache. A cache that cannot be opened
// disables caching with a warning instead of failing the command.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.cfg().Cache
	if noCache || !cfg.Enabled {
		return cache.NewNullCache(), nil
	}

	if cfg.RedisURL != "" {
		dialCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
		defer cancel()
		rc, err := cache.NewRedisCache(dialCtx, cfg.RedisURL)
		if err != nil {
			c.Logger.Warn("redis cache unavailable, caching disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		return rc, nil
	}

	dir, err := c.cacheDir()
	if err != nil {
		c.Logger.Warn("no cache directory, caching disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return fc, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory, or the platform default
// (~/.cache/jrevolver/ on Linux).
func (c *CLI) cacheDir() (string, error) {
	if dir := c.cfg().Cache.Dir; dir != "" {
		return dir, nil
	}
	return cache.DefaultDir()
}

// =============================================================================
// Options Helpers
// =============================================================================

// pipelineOptions builds pipeline options from the configuration.
// Command flags are applied on top by the caller.
func (c *CLI) pipelineOptions(input string) pipeline.Options {
	cfg := c.cfg()
	return pipeline.Options{
		Input:            input,
		OutputDir:        cfg.OutputDir,
		IncludeDirs:      append([]string(nil), cfg.IncludeDirs...),
		Indent:           cfg.Indent,
		PreserveKeyOrder: !cfg.SortKeys,
		MaxPermutations:  cfg.MaxPermutations,
		MaxPasses:        cfg.MaxPasses,
		Concurrency:      cfg.Concurrency,
		IgnoreFile:       cfg.IgnoreFile,
		Extension:        cfg.Extension,
		CacheTTL:         cfg.Cache.TTL.Duration,
		Logger:           c.Logger,
	}
}
