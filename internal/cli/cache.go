package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/matzehuels/clausetree/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the artifact cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := newCache(cmd.Context(), c.Config.Cache, false, c.Logger)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			defer store.Close()

			clearer, ok := store.(cache.Clearer)
			if !ok {
				printInfo("Caching is disabled")
				return nil
			}

			count, err := clearer.Clear(cmd.Context())
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			if count == 0 {
				printInfo("Cache is empty")
			} else {
				printSuccess("Cleared %d cached entries", count)
			}
			printDetail("Backend: %s", c.cacheLocation())
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache location",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(stdout, c.cacheLocation())
			return nil
		},
	}
}

// cacheLocation describes where the configured backend stores entries.
func (c *CLI) cacheLocation() string {
	cfg := c.Config.Cache
	switch cfg.Backend {
	case BackendRedis:
		return redact(cfg.RedisURL)
	case BackendMongo:
		coll := cfg.MongoCollection
		if coll == "" {
			coll = cache.DefaultMongoCollection
		}
		return fmt.Sprintf("%s (%s.%s)", redact(cfg.MongoURI), cfg.MongoDatabase, coll)
	case BackendNone:
		return "none"
	}
	if cfg.Dir != "" {
		return cfg.Dir
	}
	dir, err := cacheDir()
	if err != nil {
		return "none"
	}
	return dir
}

// redact hides the password in a connection URL before it is printed.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Redacted()
}
