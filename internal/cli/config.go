package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/jrevolver/pkg/cache"
	"github.com/matzehuels/jrevolver/pkg/output"
	"github.com/matzehuels/jrevolver/pkg/pipeline"
	"github.com/matzehuels/jrevolver/pkg/resolve"
)

// defaultConfigFile is read from the working directory when --config is not
// given.
const defaultConfigFile = "jrevolver.toml"

// Config is the contents of jrevolver.toml.
type Config struct {
	IncludeDirs     []string `toml:"include_dirs"`
	OutputDir       string   `toml:"output_dir"`
	Indent          int      `toml:"indent"`
	SortKeys        bool     `toml:"sort_keys"`
	MaxPermutations int      `toml:"max_permutations"`
	MaxPasses       int      `toml:"max_passes"`
	Concurrency     int      `toml:"concurrency"`
	IgnoreFile      string   `toml:"ignore_file"`
	Extension       string   `toml:"extension"`

	Cache CacheConfig `toml:"cache"`
	Serve ServeConfig `toml:"serve"`
}

// CacheConfig configures the resolution cache.
type CacheConfig struct {
	Enabled bool `toml:"enabled"`
	// Dir defaults to the platform user cache directory.
	Dir string `toml:"dir"`
	// RedisURL selects a Redis cache instead of files.
	RedisURL string   `toml:"redis_url"`
	TTL      duration `toml:"ttl"`
}

// ServeConfig configures the serve command.
type ServeConfig struct {
	Addr    string `toml:"addr"`
	Metrics bool   `toml:"metrics"`
}

// duration reads durations written as strings such as "168h".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// DefaultConfig returns the configuration used without a config file.
func DefaultConfig() *Config {
	return &Config{
		OutputDir:   "mockgen",
		Indent:      output.DefaultIndent,
		SortKeys:    true,
		MaxPasses:   resolve.DefaultMaxPasses,
		Concurrency: pipeline.DefaultConcurrency,
		IgnoreFile:  pipeline.DefaultIgnoreFile,
		Extension:   pipeline.DefaultExtension,
		Cache: CacheConfig{
			Enabled: true,
			TTL:     duration{cache.DefaultTTL},
		},
		Serve: ServeConfig{
			Addr:    ":8080",
			Metrics: true,
		},
	}
}

// LoadConfig reads the config file at path over the defaults. With an empty
// path, jrevolver.toml in the working directory is read if it exists. The
// returned path is the file that was read, or "".
func LoadConfig(path string) (*Config, string, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	md, err := toml.DecodeFile(path, cfg)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return cfg, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, "", fmt.Errorf("config %s: unknown keys %v", path, undecoded)
	}
	return cfg, path, nil
}

// WriteDefaultConfig writes the default configuration to path. It refuses
// to overwrite an existing file.
func WriteDefaultConfig(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(DefaultConfig())
}
