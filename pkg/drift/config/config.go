package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level        string            `mapstructure:"level"`
	Path         string            `mapstructure:"path"`
	ConsoleLevel string            `mapstructure:"console_level"`
	Components   map[string]string `mapstructure:"components"`
}

// CacheConfig configures the digest cache.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// ManifestConfig configures manifest placement.
type ManifestConfig struct {
	// Dir overrides where manifests are written and located. Empty means
	// inside the audited root itself.
	Dir string `mapstructure:"dir"`
}

// Config represents the application configuration.
type Config struct {
	Workers        int            `mapstructure:"workers"`
	Exclude        []string       `mapstructure:"exclude"`
	FollowSymlinks bool           `mapstructure:"follow_symlinks"`
	Cache          CacheConfig    `mapstructure:"cache"`
	Manifest       ManifestConfig `mapstructure:"manifest"`
	Logging        LoggingConfig  `mapstructure:"logging"`
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/drift/config.yaml
//   - $HOME/.config/drift/config.yaml
//
// Environment variables are prefixed with DRIFT_ (e.g., DRIFT_WORKERS).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		v.AddConfigPath(filepath.Join(xdgConfigHome, "drift"))
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	v.AddConfigPath(filepath.Join(homeDir, ".config", "drift"))

	v.SetEnvPrefix("DRIFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; defaults apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if strings.HasPrefix(cfg.Cache.Path, "~") {
		cfg.Cache.Path = filepath.Join(homeDir, cfg.Cache.Path[1:])
	}
	if strings.HasPrefix(cfg.Manifest.Dir, "~") {
		cfg.Manifest.Dir = filepath.Join(homeDir, cfg.Manifest.Dir[1:])
	}

	return &cfg, nil
}

// SetDefaults registers every configuration default on v. Shared between
// Load and the CLI's viper instance so flag-only runs see the same
// values.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("workers", DefaultWorkers)
	v.SetDefault("exclude", DefaultExclusions)
	v.SetDefault("follow_symlinks", DefaultFollowSymlinks)
	v.SetDefault("cache.enabled", DefaultCacheEnabled)
	v.SetDefault("cache.path", DefaultCachePath())
	v.SetDefault("manifest.dir", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.console_level", "")
	v.SetDefault("logging.components", map[string]string{})
}

// DefaultCachePath returns the digest cache location under the XDG cache
// directory.
func DefaultCachePath() string {
	return filepath.Join(xdg.CacheHome, "drift", "digests")
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "drift"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "drift"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, path[1:]), nil
}

// WriteDefault writes a default config file if none exists.
// Returns nil if a config file already exists.
func WriteDefault() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, "config.yaml")

	if _, err := os.Stat(path); err == nil {
		return nil
	}

	content := `# drift configuration
#
# Traversal and hashing worker count; 0 picks a value for this host.
workers: 0

# Glob patterns excluded from every scan, matched against relative paths
# and base names.
exclude: []

# Include symlinks to regular files, hashing the target content.
# Symlinked directories are never entered.
follow_symlinks: false

cache:
  # Reuse digests for files whose size and mtime are unchanged.
  enabled: true
  # path: ~/.cache/drift/digests

manifest:
  # Directory for manifest files. Empty stores them inside the audited
  # root, which is the canonical place: the scanner knows to skip them.
  dir: ""

logging:
  level: info
  # path: ~/.local/state/drift/drift.log
  # console_level: warn
  components: {}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}
	return nil
}
