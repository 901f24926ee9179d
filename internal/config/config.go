package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Watch mode selectors.
const (
	ModeEvent = "event"
	ModePoll  = "poll"
)

// ScratchDirName is the working directory metasweep keeps inside the watched
// tree. Drivers skip it and the cleaner stages temp copies there.
const ScratchDirName = ".metasweep-tmp"

// Paths contains directory configuration.
type Paths struct {
	WatchDir  string `toml:"watch_dir"`
	LogDir    string `toml:"log_dir"`
	StatePath string `toml:"state_path"`
}

// Watch contains configuration for the filesystem watch drivers.
type Watch struct {
	Mode         string   `toml:"mode"`
	PollInterval int      `toml:"poll_interval"`
	Recursive    bool     `toml:"recursive"`
	Extensions   []string `toml:"extensions"`
	SettleMillis int      `toml:"settle_millis"`
}

// Cleaning contains configuration for metadata stripping.
type Cleaning struct {
	Enabled        bool   `toml:"enabled"`
	ExiftoolBinary string `toml:"exiftool_binary"`
	QpdfBinary     string `toml:"qpdf_binary"`
	Timeout        int    `toml:"timeout"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic       string `toml:"ntfy_topic"`
	RequestTimeout  int    `toml:"request_timeout"`
	MaxSummaryChars int    `toml:"max_summary_chars"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for metasweep.
//
// Configuration sections by subsystem:
//   - Paths: watched directory, log directory, optional seen-state database
//   - Watch: event vs. poll mode, interval, recursion, extension filter
//   - Cleaning: external tool binaries and the auto-clean toggle
//   - Notifications: ntfy topic and message shaping
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Watch         Watch         `toml:"watch"`
	Cleaning      Cleaning      `toml:"cleaning"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/metasweep/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("metasweep.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// ScratchDir returns the working directory kept inside the watched tree.
func (c *Config) ScratchDir() string {
	return filepath.Join(c.Paths.WatchDir, ScratchDirName)
}

// EnsureDirectories creates required directories for monitor operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir, c.ScratchDir()}
	if strings.TrimSpace(c.Paths.StatePath) != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.StatePath))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
