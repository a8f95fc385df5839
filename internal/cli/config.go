package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/clausetree/pkg/cache"
	"github.com/matzehuels/clausetree/pkg/pipeline"
	"github.com/matzehuels/clausetree/pkg/server"
)

// Cache backends selectable in the config file.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// defaultNamespace scopes keys in shared cache backends.
const defaultNamespace = appName

// Config holds persistent defaults. Command-line flags override it.
//
// Example config.toml:
//
//	format = "svg,png"
//	render_timeout = "45s"
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//	ttl = "72h"
//
//	[server]
//	addr = "0.0.0.0:8080"
type Config struct {
	Format        string        `toml:"format"`
	RenderTimeout time.Duration `toml:"render_timeout"`
	FontName      string        `toml:"font"`
	Cache         CacheConfig   `toml:"cache"`
	Server        ServerConfig  `toml:"server"`
}

// CacheConfig selects and configures the artifact cache.
type CacheConfig struct {
	Backend         string        `toml:"backend"`
	TTL             time.Duration `toml:"ttl"`
	Namespace       string        `toml:"namespace"`
	Dir             string        `toml:"dir"`
	RedisURL        string        `toml:"redis_url"`
	MongoURI        string        `toml:"mongo_uri"`
	MongoDatabase   string        `toml:"mongo_database"`
	MongoCollection string        `toml:"mongo_collection"`
}

// ServerConfig configures `clausetree serve`.
type ServerConfig struct {
	Addr         string `toml:"addr"`
	MaxBodyBytes int64  `toml:"max_body_bytes"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Format:        pipeline.DefaultFormat,
		RenderTimeout: pipeline.DefaultRenderTimeout,
		Cache: CacheConfig{
			Backend:   BackendFile,
			TTL:       cache.DefaultTTL,
			Namespace: defaultNamespace,
		},
		Server: ServerConfig{
			Addr:         server.DefaultAddr,
			MaxBodyBytes: server.DefaultMaxBodyBytes,
		},
	}
}

// LoadConfig reads a TOML config file over the defaults. A missing file is
// only an error when required is set. It also returns the keys the file sets
// that no field consumed.
func LoadConfig(path string, required bool) (*Config, []string, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if required {
			return nil, nil, fmt.Errorf("config file not found: %s", path)
		}
		return cfg, nil, nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, nil, fmt.Errorf("config %s: %w", path, err)
	}

	var undecoded []string
	for _, key := range md.Undecoded() {
		undecoded = append(undecoded, key.String())
	}
	return cfg, undecoded, nil
}

func (c *Config) validate() error {
	if c.Format != "" {
		if _, err := pipeline.ParseFormats(c.Format); err != nil {
			return err
		}
	}
	if c.RenderTimeout < 0 {
		return fmt.Errorf("render_timeout must not be negative")
	}
	switch c.Cache.Backend {
	case BackendFile, BackendNone, "":
	case BackendRedis:
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("cache.redis_url is required for the redis backend")
		}
	case BackendMongo:
		if c.Cache.MongoURI == "" || c.Cache.MongoDatabase == "" {
			return fmt.Errorf("cache.mongo_uri and cache.mongo_database are required for the mongo backend")
		}
	default:
		return fmt.Errorf("unknown cache.backend %q (must be file, redis, mongo or none)", c.Cache.Backend)
	}
	return nil
}
