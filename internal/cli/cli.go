package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/clausetree/pkg/buildinfo"
	"github.com/matzehuels/clausetree/pkg/cache"
	"github.com/matzehuels/clausetree/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "clausetree"
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
	Config *Config

	configPath string
	verbose    bool
}

// New creates a new CLI instance with a default logger and configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: DefaultConfig(),
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
		Short: "Clausetree draws layered clause-structure diagrams",
		Long: `Clausetree turns a sentence described as a list of units (surface form,
optional category attachment, operators) into a layered projection diagram
and renders it through Graphviz as DOT, SVG, PNG, PDF or a JSON graph.`,
		Version:           buildinfo.Get().Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.preRun,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/clausetree/config.toml)")

	// Register all subcommands
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.dotCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.fmtCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// preRun applies --verbose, loads the config file and attaches the logger to
// the command context.
func (c *CLI) preRun(cmd *cobra.Command, args []string) error {
	level := LogInfo
	if c.verbose {
		level = LogDebug
	}
	c.SetLogLevel(level)

	path, explicit := c.configPath, c.configPath != ""
	if !explicit {
		p, err := defaultConfigPath()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		cfg, undecoded, err := LoadConfig(path, explicit)
		if err != nil {
			return err
		}
		for _, key := range undecoded {
			c.Logger.Warn("unknown config key", "key", key, "file", path)
		}
		c.Config = cfg
	}

	if c.verbose {
		registerDebugHooks(c.Logger)
	}
	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	store, keyer, err := newCache(ctx, c.Config.Cache, noCache, c.Logger)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(store, keyer, c.Logger)
	if c.Config.Cache.TTL > 0 {
		r.TTL = c.Config.Cache.TTL
	}
	return r, nil
}

// newCache opens the configured cache backend. The file backend falls back
// to no caching when no cache directory can be determined.
func newCache(ctx context.Context, cfg CacheConfig, noCache bool, logger *log.Logger) (cache.Cache, cache.Keyer, error) {
	var keyer cache.Keyer = cache.NewDefaultKeyer()
	prefix := ""
	if cfg.Namespace != "" {
		prefix = cfg.Namespace + ":"
		keyer = cache.NewScopedKeyer(keyer, prefix)
	}
	if noCache {
		return cache.NewNullCache(), keyer, nil
	}

	switch cfg.Backend {
	case BackendNone:
		return cache.NewNullCache(), keyer, nil

	case BackendFile, "":
		dir := cfg.Dir
		if dir == "" {
			d, err := cacheDir()
			if err != nil {
				logger.Debug("no cache directory, caching disabled", "error", err)
				return cache.NewNullCache(), keyer, nil
			}
			dir = d
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, nil, fmt.Errorf("open file cache: %w", err)
		}
		return fc, keyer, nil

	case BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL, prefix)
		if err != nil {
			return nil, nil, err
		}
		return rc, keyer, nil

	case BackendMongo:
		mc, err := cache.NewMongoCache(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
		if err != nil {
			return nil, nil, err
		}
		return mc, keyer, nil

	default:
		return nil, nil, fmt.Errorf("unknown cache backend: %q (must be file, redis, mongo or none)", cfg.Backend)
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/clausetree/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// configDir returns the config directory using XDG standard (~/.config/clausetree/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// defaultConfigPath returns the config file looked up when --config is not given.
func defaultConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}
