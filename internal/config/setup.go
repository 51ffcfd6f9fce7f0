package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fakeyudi/tabkeep/internal/fsutil"
)

// GlobalPath returns the path setup writes to, ~/.config/tabkeep/config.yaml.
func GlobalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "tabkeep", "config.yaml"), nil
}

// SaveGlobal writes cfg as YAML to GlobalPath, creating the directory if
// needed.
func SaveGlobal(cfg Config) (string, error) {
	path, err := GlobalPath()
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}
	if err := fsutil.WriteFileAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// RunSetup prompts on w for each setting, reading answers from r. An empty
// answer, or end of input, keeps the value from existing. The result is
// validated.
func RunSetup(r io.Reader, w io.Writer, existing Config) (Config, error) {
	br := bufio.NewReader(r)

	ask := func(prompt, defaultVal string) (string, error) {
		if defaultVal != "" {
			fmt.Fprintf(w, "%s [%s]: ", prompt, defaultVal)
		} else {
			fmt.Fprintf(w, "%s: ", prompt)
		}
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return defaultVal, nil
		}
		return line, nil
	}

	cfg := existing

	fmt.Fprintln(w)
	fmt.Fprintln(w, "  ┌─────────────────────────────────┐")
	fmt.Fprintln(w, "  │        tabkeep — setup          │")
	fmt.Fprintln(w, "  └─────────────────────────────────┘")
	fmt.Fprintln(w)

	var err error
	if cfg.Backend, err = ask("  Store backend (file/sqlite/redis)", cfg.Backend); err != nil {
		return Config{}, err
	}
	switch cfg.Backend {
	case "sqlite":
		if cfg.SQLitePath, err = ask("  SQLite database path", cfg.StoreOptions().SQLitePath); err != nil {
			return Config{}, err
		}
	case "redis":
		if cfg.RedisURL, err = ask("  Redis URL", cfg.RedisURL); err != nil {
			return Config{}, err
		}
	}

	if cfg.WindowFile, err = ask("  Window file written by the browser bridge", cfg.Window()); err != nil {
		return Config{}, err
	}

	debounce, err := ask("  Auto-save debounce in milliseconds", strconv.Itoa(cfg.DebounceMS))
	if err != nil {
		return Config{}, err
	}
	if cfg.DebounceMS, err = strconv.Atoi(debounce); err != nil {
		return Config{}, fmt.Errorf("debounce must be a number of milliseconds: %w", err)
	}

	if cfg.LogLevel, err = ask("  Log level (debug/info/warn/error)", cfg.LogLevel); err != nil {
		return Config{}, err
	}
	if cfg.ExportDir, err = ask("  Default export directory", cfg.ExportDir); err != nil {
		return Config{}, err
	}

	fmt.Fprintln(w)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
