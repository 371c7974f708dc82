package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jamesainslie/dupsweep/pkg/dupsweep/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage dupsweep configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/dupsweep/config.yaml (if set)
  2. ~/.config/dupsweep/config.yaml

Environment variables override config file settings using the DUPSWEEP_ prefix:
  DUPSWEEP_OUTPUT=json
  DUPSWEEP_CACHE_ENABLED=true
  DUPSWEEP_EXCLUDE=.git,node_modules`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration merged from all sources, as YAML.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long:  `Create a default configuration file if one doesn't exist.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// effectiveConfig is the YAML shape printed by config show.
type effectiveConfig struct {
	Exclude   []string `yaml:"exclude"`
	BlockSize string   `yaml:"block_size"`
	FilesOnly bool     `yaml:"files_only"`
	Output    string   `yaml:"output"`
	Workers   int      `yaml:"workers"`
	Cache     struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"cache"`
	Manifest struct {
		Enabled       bool   `yaml:"enabled"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"manifest"`
	Logging struct {
		Level      string            `yaml:"level"`
		Path       string            `yaml:"path"`
		Components map[string]string `yaml:"components,omitempty"`
	} `yaml:"logging"`
}

func toEffective(cfg *config.Config) effectiveConfig {
	var e effectiveConfig
	e.Exclude = cfg.Exclude
	e.BlockSize = cfg.BlockSize
	e.FilesOnly = cfg.FilesOnly
	e.Output = cfg.Output
	e.Workers = cfg.Workers
	e.Cache.Enabled = cfg.Cache.Enabled
	e.Cache.Path = cfg.Cache.Path
	e.Manifest.Enabled = cfg.Manifest.Enabled
	e.Manifest.Path = cfg.Manifest.Path
	e.Manifest.RetentionDays = cfg.Manifest.RetentionDays
	e.Logging.Level = cfg.Logging.Level
	e.Logging.Path = cfg.Logging.Path
	e.Logging.Components = cfg.Logging.Components
	return e
}

// runConfigShow displays the current configuration.
func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	if configFile := viper.ConfigFileUsed(); configFile != "" {
		fmt.Fprintf(out, "# config file: %s\n", configFile)
	} else {
		fmt.Fprintln(out, "# config file: none found, using defaults")
	}

	data, err := yaml.Marshal(toEffective(cfg))
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	_, err = out.Write(data)
	return err
}

// runConfigInit creates a default config file.
func runConfigInit(cmd *cobra.Command, _ []string) error {
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		printInfo("Config file already exists: %s", path)
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	if _, err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	printInfo("Created default config file: %s", path)
	return nil
}

// runConfigPath shows the config file path.
func runConfigPath(cmd *cobra.Command, _ []string) error {
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)

	if _, err := os.Stat(path); err == nil {
		printVerbose("File exists")
	} else if os.IsNotExist(err) {
		printVerbose("File does not exist (will use defaults)")
	}
	return nil
}
