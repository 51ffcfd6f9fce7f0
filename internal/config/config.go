package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fakeyudi/tabkeep/internal/kv"
)

// Config holds all configurable tabkeep settings.
type Config struct {
	Backend    string `json:"backend" yaml:"backend"`         // "file" | "sqlite" | "redis" | "memory"
	DataDir    string `json:"data_dir" yaml:"data_dir"`       // default $XDG_DATA_HOME/tabkeep
	SQLitePath string `json:"sqlite_path" yaml:"sqlite_path"` // default <data_dir>/tabkeep.db
	RedisURL   string `json:"redis_url" yaml:"redis_url"`
	WindowFile string `json:"window_file" yaml:"window_file"` // default <data_dir>/window.json
	DebounceMS int    `json:"debounce_ms" yaml:"debounce_ms"`
	LogLevel   string `json:"log_level" yaml:"log_level"`
	ExportDir  string `json:"export_dir" yaml:"export_dir"`
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		Backend:    "file",
		DebounceMS: 2000,
		LogLevel:   "warn",
		ExportDir:  ".",
	}
}

var globalNames = []string{"config.yaml", "config.yml", "config.json"}

var localNames = []string{".tabkeep.yaml", ".tabkeep.yml", ".tabkeep.json"}

// LoadGlobal reads the first of ~/.config/tabkeep/config.{yaml,yml,json}.
// Returns defaults if none exists.
func LoadGlobal() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(home, ".config", "tabkeep")
	for _, name := range globalNames {
		cfg, err := loadFile(filepath.Join(dir, name))
		if err != nil || cfg != nil {
			return cfg, err
		}
	}
	d := Defaults()
	return &d, nil
}

// LoadLocal reads .tabkeep.{yaml,yml,json} in the current working directory.
// Returns nil (no error) if none exists.
func LoadLocal() (*Config, error) {
	for _, name := range localNames {
		cfg, err := loadFile(name)
		if err != nil || cfg != nil {
			return cfg, err
		}
	}
	return nil, nil
}

// loadFile parses path as JSON when it ends in .json and as YAML otherwise.
// Returns nil when the file is absent.
func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var cfg Config
	if filepath.Ext(path) == ".json" {
		err = json.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge combines global and local configs, with local taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, local *Config) Config {
	result := Defaults()
	for _, layer := range []*Config{global, local} {
		if layer == nil {
			continue
		}
		overlay(&result, *layer)
	}
	return result
}

func overlay(dst *Config, src Config) {
	setString(&dst.Backend, src.Backend)
	setString(&dst.DataDir, src.DataDir)
	setString(&dst.SQLitePath, src.SQLitePath)
	setString(&dst.RedisURL, src.RedisURL)
	setString(&dst.WindowFile, src.WindowFile)
	setString(&dst.LogLevel, src.LogLevel)
	setString(&dst.ExportDir, src.ExportDir)
	if src.DebounceMS > 0 {
		dst.DebounceMS = src.DebounceMS
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// ApplyEnv overrides cfg with any TABKEEP_* environment variables that are set.
func ApplyEnv(cfg *Config) error {
	env := Config{
		Backend:    os.Getenv("TABKEEP_BACKEND"),
		DataDir:    os.Getenv("TABKEEP_DATA_DIR"),
		SQLitePath: os.Getenv("TABKEEP_SQLITE_PATH"),
		RedisURL:   os.Getenv("TABKEEP_REDIS_URL"),
		WindowFile: os.Getenv("TABKEEP_WINDOW_FILE"),
		LogLevel:   os.Getenv("TABKEEP_LOG_LEVEL"),
		ExportDir:  os.Getenv("TABKEEP_EXPORT_DIR"),
	}
	if s := os.Getenv("TABKEEP_DEBOUNCE_MS"); s != "" {
		ms, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid TABKEEP_DEBOUNCE_MS: %w", err)
		}
		env.DebounceMS = ms
	}
	overlay(cfg, env)
	return nil
}

// Load merges defaults, the global file, the local file and the environment,
// in increasing precedence, and validates the result.
func Load() (Config, error) {
	global, err := LoadGlobal()
	if err != nil {
		return Config{}, err
	}
	local, err := LoadLocal()
	if err != nil {
		return Config{}, err
	}
	cfg := Merge(global, local)
	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise fail later and less
// clearly.
func (c Config) Validate() error {
	switch c.Backend {
	case "file", "sqlite", "memory":
	case "redis":
		if c.RedisURL == "" {
			return errors.New("backend redis requires redis_url")
		}
	default:
		return fmt.Errorf("unknown backend %q (want file, sqlite, redis or memory)", c.Backend)
	}
	if c.DebounceMS < 0 {
		return fmt.Errorf("debounce_ms must not be negative, got %d", c.DebounceMS)
	}
	return nil
}

// Dir returns the data directory, defaulting to $XDG_DATA_HOME/tabkeep.
func (c Config) Dir() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	return kv.DataDir()
}

// Window returns the path of the browser window file.
func (c Config) Window() string {
	if c.WindowFile != "" {
		return c.WindowFile
	}
	return filepath.Join(c.Dir(), "window.json")
}

// Debounce returns the auto-save quiescence window.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// StoreOptions returns the kv backend selection for c.
func (c Config) StoreOptions() kv.Options {
	sqlitePath := c.SQLitePath
	if sqlitePath == "" {
		sqlitePath = filepath.Join(c.Dir(), "tabkeep.db")
	}
	return kv.Options{
		Backend:    c.Backend,
		FilePath:   filepath.Join(c.Dir(), "store.json"),
		SQLitePath: sqlitePath,
		RedisURL:   c.RedisURL,
	}
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
