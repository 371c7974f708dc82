package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/config"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.PersistentPreRunE = initializeLogging
}

// initializeLogging creates the XDG directories and starts file logging.
// It runs before every command.
func initializeLogging(_ *cobra.Command, _ []string) error {
	if err := ensureDirectories(); err != nil {
		return err
	}

	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logCfg := logging.Config{
		Level:      cfg.Logging.Level,
		Path:       cfg.Logging.Path,
		Rotation:   parseRotationConfig(cfg.Logging.Rotation),
		Components: cfg.Logging.Components,
	}
	if getVerbose() {
		logCfg.Level = "debug"
		logCfg.ConsoleLevel = "debug"
	}

	if err := logging.Init(logCfg); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	return nil
}

// ensureDirectories creates the config, data and state directories.
func ensureDirectories() error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}

	for _, dir := range []string{configDir, config.DataDir(), config.StateDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// parseRotationConfig converts the config file's rotation settings. An
// empty or unparseable max_size falls back to the default.
func parseRotationConfig(rc config.RotationConfig) logging.RotationConfig {
	out := logging.RotationConfig{
		MaxSize:    logging.DefaultRotationConfig().MaxSize,
		MaxAge:     rc.MaxAge,
		MaxBackups: rc.MaxBackups,
		Daily:      rc.Daily,
	}

	if rc.MaxSize == "" {
		return out
	}
	size, err := humanize.ParseBytes(rc.MaxSize)
	if err != nil || size == 0 {
		printVerbose("invalid logging.rotation.max_size %q, using default", rc.MaxSize)
		return out
	}
	out.MaxSize = int64(size)
	return out
}
