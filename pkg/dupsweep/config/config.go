package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
)

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Daily      bool   `mapstructure:"daily"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// CacheConfig configures the digest cache.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// ManifestConfig configures the removal history.
type ManifestConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// Config represents the application configuration.
type Config struct {
	Exclude   []string       `mapstructure:"exclude"`
	BlockSize string         `mapstructure:"block_size"`
	FilesOnly bool           `mapstructure:"files_only"`
	Output    string         `mapstructure:"output"`
	Workers   int            `mapstructure:"workers"`
	Cache     CacheConfig    `mapstructure:"cache"`
	Manifest  ManifestConfig `mapstructure:"manifest"`
	Logging   LoggingConfig  `mapstructure:"logging"`
}

// BlockSizeBytes parses BlockSize ("64KiB", "1MB", "4096").
func (c *Config) BlockSizeBytes() (int, error) {
	if c.BlockSize == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(c.BlockSize)
	if err != nil {
		return 0, fmt.Errorf("invalid block_size %q: %w", c.BlockSize, err)
	}
	if n == 0 || n > 1<<30 {
		return 0, fmt.Errorf("invalid block_size %q: must be between 1 B and 1 GiB", c.BlockSize)
	}
	return int(n), nil
}

// Setup points v at the config file (cfgFile, or config.yaml in the
// config directories), enables DUPSWEEP_ environment overrides and sets
// defaults. It does not read the file.
func Setup(v *viper.Viper, cfgFile string) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, dir := range configDirs() {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	SetDefaults(v)
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("exclude", DefaultExclusions)
	v.SetDefault("block_size", DefaultBlockSize)
	v.SetDefault("files_only", false)
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("workers", DefaultWorkers)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.path", "") // Empty means DefaultCachePath

	v.SetDefault("manifest.enabled", false)
	v.SetDefault("manifest.path", "") // Empty means ManifestDir
	v.SetDefault("manifest.retention_days", DefaultRetentionDays)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "") // Empty means DefaultLogPath
	v.SetDefault("logging.rotation.max_size", "10MB")
	v.SetDefault("logging.rotation.max_age", 30)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.rotation.daily", true)
	v.SetDefault("logging.components", map[string]string{})
}

// Read reads the config file into v. A missing file is not an error
// unless it was named explicitly.
func Read(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// FromViper unmarshals v and fills in derived paths.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var err error
	if cfg.Cache.Path, err = ExpandPath(cfg.Cache.Path); err != nil {
		return nil, err
	}
	if cfg.Manifest.Path, err = ExpandPath(cfg.Manifest.Path); err != nil {
		return nil, err
	}
	if cfg.Logging.Path, err = ExpandPath(cfg.Logging.Path); err != nil {
		return nil, err
	}

	if cfg.Cache.Path == "" {
		cfg.Cache.Path = DefaultCachePath()
	}
	if cfg.Manifest.Path == "" {
		cfg.Manifest.Path = ManifestDir()
	}

	return &cfg, nil
}

// Load reads configuration from the default locations and the
// environment using a fresh viper instance.
func Load() (*Config, error) {
	v := viper.New()
	Setup(v, "")
	if err := Read(v); err != nil {
		return nil, err
	}
	return FromViper(v)
}

// configDirs lists where config.yaml is looked for, in order.
func configDirs() []string {
	var dirs []string
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		dirs = append(dirs, filepath.Join(xdgConfigHome, AppName))
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(homeDir, ".config", AppName))
	}
	return dirs
}

// ConfigDir returns the directory config.yaml is written to.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, AppName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", AppName), nil
}

// ConfigPath returns the default config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// WriteDefault writes a commented default config file and returns its
// path. An existing file is left alone.
func WriteDefault() (string, error) {
	path, err := ConfigPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	content := fmt.Sprintf(`# dupsweep configuration

# Paths or glob patterns to skip while scanning
exclude: []

# Read size used when hashing files
block_size: %s

# Only look for duplicate files, never whole directories
files_only: false

# Report format: pretty, plain, json, yaml, csv, paths
output: %s

# Walk concurrency (0 = automatic). Hashing is always sequential.
workers: 0

# Digest cache keyed by path, size and mtime
cache:
  enabled: false
  # Empty means $XDG_CACHE_HOME/dupsweep/digests
  path: ""

# History of removals
manifest:
  enabled: false
  # Empty means $XDG_DATA_HOME/dupsweep/history
  path: ""
  retention_days: %d

logging:
  # debug, info, warn, error
  level: info
  # Empty means $XDG_STATE_HOME/dupsweep/dupsweep.log
  path: ""
  rotation:
    max_size: 10MB
    max_age: 30       # days
    max_backups: 5
    daily: true
  # Per-component levels, e.g. walker: debug
  components: {}
`, DefaultBlockSize, DefaultOutput, DefaultRetentionDays)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write default config: %w", err)
	}
	return path, nil
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

// DataDir returns $XDG_DATA_HOME/dupsweep.
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// StateDir returns $XDG_STATE_HOME/dupsweep, which holds the log file.
func StateDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}

// CacheDir returns $XDG_CACHE_HOME/dupsweep.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// DefaultCachePath returns the default digest cache directory.
func DefaultCachePath() string {
	return filepath.Join(CacheDir(), "digests")
}

// ManifestDir returns the default history directory.
func ManifestDir() string {
	return filepath.Join(DataDir(), "history")
}
