package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/gridlookout/pkg/pipeline"
)

// configFileName is looked up in the working directory before the user
// config dir.
const configFileName = "gridlookout.toml"

const (
	cacheBackendFile   = "file"
	cacheBackendMemory = "memory"
	cacheBackendRedis  = "redis"
	cacheBackendNone   = "none"

	storeBackendMemory = "memory"
	storeBackendMongo  = "mongo"
)

// Config is the optional gridlookout.toml file:
//
//	[cache]
//	backend = "redis"        # file (default), memory, redis or none
//	redis_addr = "localhost:6379"
//	namespace = "team-a"
//
//	[store]
//	backend = "mongo"        # memory (default) or mongo
//	mongo_uri = "mongodb://localhost:27017"
//
//	[server]
//	addr = ":8080"
//
//	[resolve]
//	units = "%"
//
//	[render]
//	content = "content.yaml"
//
// Command-line flags override every value.
type Config struct {
	Cache   CacheConfig   `toml:"cache"`
	Store   StoreConfig   `toml:"store"`
	Server  ServerConfig  `toml:"server"`
	Resolve ResolveConfig `toml:"resolve"`
	Render  RenderConfig  `toml:"render"`

	// Path is the file the config was read from, empty for defaults.
	Path string `toml:"-"`
}

// CacheConfig selects the layout and artifact cache.
type CacheConfig struct {
	Backend     string `toml:"backend"`
	Dir         string `toml:"dir"`
	RedisAddr   string `toml:"redis_addr"`
	RedisPrefix string `toml:"redis_prefix"`
	Namespace   string `toml:"namespace"`
}

// StoreConfig selects the snapshot store used by serve.
type StoreConfig struct {
	Backend    string `toml:"backend"`
	MongoURI   string `toml:"mongo_uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// ServerConfig holds serve defaults.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// ResolveConfig holds resolve defaults.
type ResolveConfig struct {
	Units     string  `toml:"units"`
	Snap      bool    `toml:"snap"`
	Tolerance float64 `toml:"tolerance"`
}

// RenderConfig holds render defaults.
type RenderConfig struct {
	Content  string  `toml:"content"`
	Scale    float64 `toml:"scale"`
	Outlines bool    `toml:"outlines"`
}

func defaultConfig() Config {
	return Config{
		Cache: CacheConfig{
			Backend:     cacheBackendFile,
			RedisAddr:   "localhost:6379",
			RedisPrefix: appName + ":",
		},
		Store: StoreConfig{
			Backend:    storeBackendMemory,
			Database:   appName,
			Collection: "snapshots",
		},
		Server:  ServerConfig{Addr: ":8080"},
		Resolve: ResolveConfig{Units: pipeline.DefaultUnits, Tolerance: pipeline.DefaultTolerance},
		Render:  RenderConfig{Scale: pipeline.DefaultScale},
	}
}

// loadConfig reads the config at path. With an empty path the first existing
// file of configPaths is used; when none exists the defaults are returned.
func loadConfig(path string) (Config, error) {
	if path == "" {
		for _, p := range configPaths() {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// configPaths lists the implicit config locations in lookup order.
func configPaths() []string {
	paths := []string{configFileName}
	if dir, err := configDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "config.toml"))
	}
	return paths
}

func (c Config) validate() error {
	var errs []error
	switch c.Cache.Backend {
	case cacheBackendFile, cacheBackendMemory, cacheBackendNone:
	case cacheBackendRedis:
		if c.Cache.RedisAddr == "" {
			errs = append(errs, errors.New("cache.redis_addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid cache.backend %q (must be file, memory, redis or none)", c.Cache.Backend))
	}
	switch c.Store.Backend {
	case storeBackendMemory:
	case storeBackendMongo:
		if c.Store.MongoURI == "" {
			errs = append(errs, errors.New("store.mongo_uri is required for the mongo backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid store.backend %q (must be memory or mongo)", c.Store.Backend))
	}
	if err := pipeline.ValidateUnits(c.Resolve.Units); err != nil {
		errs = append(errs, fmt.Errorf("resolve.units: %w", err))
	}
	return errors.Join(errs...)
}
