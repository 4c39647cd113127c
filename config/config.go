// Package config resolves runtime settings from defaults, an optional TOML
// file, environment variables and command-line flags, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"todo-app/kv"
)

const (
	envBackend   = "TODO_BACKEND"
	envDataDir   = "TODO_DATA_DIR"
	envLogFile   = "TODO_LOG_FILE"
	envLogLevel  = "TODO_LOG_LEVEL"
	envLogFormat = "TODO_LOG_FORMAT"
)

const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	appDir           = "todo"
	configFileName   = "config.toml"
	sqliteFileName   = "todo.db"
	logFileName      = "todo.log"
)

var ErrInvalid = errors.New("invalid configuration")

// Config captures runtime configuration for the application.
type Config struct {
	Storage Storage `toml:"storage"`
	Log     Logging `toml:"log"`

	// File is the config file that was read, if any.
	File string `toml:"-"`
}

type Storage struct {
	Backend string `toml:"backend"`
	DataDir string `toml:"data_dir"`
}

type Logging struct {
	File   string `toml:"file"`
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Overrides holds values given on the command line. Empty fields are ignored.
type Overrides struct {
	Backend  string
	DataDir  string
	LogFile  string
	LogLevel string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Storage: Storage{
			Backend: kv.BackendFile,
			DataDir: defaultDataDir(),
		},
		Log: Logging{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load builds the configuration. An explicit path must exist; otherwise the
// user config file is read when present.
func Load(path string, flags Overrides) (Config, error) {
	cfg := Default()

	if path != "" {
		path = expandPath(path)
		if err := loadFile(&cfg, path); err != nil {
			return Config{}, fmt.Errorf("loading config file %s: %w", path, err)
		}
	} else if found := findUserConfigFile(); found != "" {
		if err := loadFile(&cfg, found); err != nil {
			return Config{}, fmt.Errorf("loading config file %s: %w", found, err)
		}
	}

	loadFromEnv(&cfg)
	cfg.apply(flags)
	cfg.finalize()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("%w: unknown keys %s", ErrInvalid, strings.Join(keys, ", "))
	}
	cfg.File = path
	return nil
}

func loadFromEnv(cfg *Config) {
	if v := os.Getenv(envBackend); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv(envDataDir); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv(envLogFile); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv(envLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv(envLogFormat); v != "" {
		cfg.Log.Format = v
	}
}

func (c *Config) apply(o Overrides) {
	if o.Backend != "" {
		c.Storage.Backend = o.Backend
	}
	if o.DataDir != "" {
		c.Storage.DataDir = o.DataDir
	}
	if o.LogFile != "" {
		c.Log.File = o.LogFile
	}
	if o.LogLevel != "" {
		c.Log.Level = o.LogLevel
	}
}

func (c *Config) finalize() {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	c.Storage.DataDir = expandPath(c.Storage.DataDir)
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	if c.Log.File == "" {
		c.Log.File = filepath.Join(c.Storage.DataDir, logFileName)
	}
	c.Log.File = expandPath(c.Log.File)
}

// Validate rejects settings the application cannot run with.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case kv.BackendFile, kv.BackendSQLite, kv.BackendMemory:
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalid, c.Storage.Backend)
	}
	if c.Storage.Backend != kv.BackendMemory && c.Storage.DataDir == "" {
		return fmt.Errorf("%w: data_dir is required for the %s backend", ErrInvalid, c.Storage.Backend)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log level %q", ErrInvalid, c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json", "logfmt":
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalid, c.Log.Format)
	}
	return nil
}

// StoragePath is the location handed to kv.Open for the configured backend.
func (c Config) StoragePath() string {
	switch c.Storage.Backend {
	case kv.BackendSQLite:
		return filepath.Join(c.Storage.DataDir, sqliteFileName)
	case kv.BackendMemory:
		return ""
	default:
		return c.Storage.DataDir
	}
}

func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appDir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", appDir)
}

func findUserConfigFile() string {
	var candidates []string
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		candidates = append(candidates, filepath.Join(dir, appDir, configFileName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", appDir, configFileName))
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// expandPath expands environment variables and a leading ~.
func expandPath(p string) string {
	if p == "" {
		return p
	}
	expanded := os.ExpandEnv(p)
	if expanded == "~" || strings.HasPrefix(expanded, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return expanded
		}
		return filepath.Join(home, expanded[1:])
	}
	return expanded
}
