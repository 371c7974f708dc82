package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jamesainslie/dupsweep/pkg/dupsweep/config"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "dupsweep <path>",
		Short: "Find and remove duplicate files and directories",
		Long: `Dupsweep scans a directory tree for files with identical content and
directories with identical files, then removes the copies you choose.

Duplicate directories are handled first. A directory's identity is the set of
names and contents of the files directly inside it; subdirectories are not
compared. At least one copy of every group is always kept.

Examples:
  dupsweep ~/Photos              # Prompt for each duplicate group
  dupsweep -y ~/Downloads        # Keep the first copy, remove the rest
  dupsweep -d -y .               # Show what would be removed
  dupsweep --files-only -o json .
  dupsweep history               # View removal history`,
		Args:          cobra.ExactArgs(1),
		RunE:          runDedupe,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/dupsweep/config.yaml)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")

	rootCmd.Flags().BoolP("yes", "y", false, "remove every duplicate without asking, keeping the first copy")
	rootCmd.Flags().BoolP("dry-run", "d", false, "show what would be removed without deleting")
	rootCmd.Flags().StringSliceP("exclude", "e", nil, "paths or glob patterns to skip (repeatable)")
	rootCmd.Flags().Bool("files-only", false, "only look for duplicate files")
	rootCmd.Flags().StringP("output", "o", "", "report format: pretty, plain, json, yaml, csv, paths")
	rootCmd.Flags().Bool("no-tui", false, "use a plain line prompt")
	rootCmd.Flags().Bool("cache", false, "reuse digests of unchanged files")
	rootCmd.Flags().IntP("workers", "w", 0, "walk concurrency (0=auto)")
	rootCmd.Flags().String("block-size", "", "hashing read size (e.g. 64KiB, 1MiB)")

	// Bind flags to viper
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("yes", rootCmd.Flags().Lookup("yes"))
	_ = viper.BindPFlag("dry_run", rootCmd.Flags().Lookup("dry-run"))
	_ = viper.BindPFlag("exclude", rootCmd.Flags().Lookup("exclude"))
	_ = viper.BindPFlag("files_only", rootCmd.Flags().Lookup("files-only"))
	_ = viper.BindPFlag("output", rootCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("no_tui", rootCmd.Flags().Lookup("no-tui"))
	_ = viper.BindPFlag("cache.enabled", rootCmd.Flags().Lookup("cache"))
	_ = viper.BindPFlag("workers", rootCmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("block_size", rootCmd.Flags().Lookup("block-size"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	config.Setup(viper.GetViper(), cfgFile)
	if err := config.Read(viper.GetViper()); err != nil {
		printError("%v", err)
	}
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			if exit.err != nil {
				printError("%v", exit.err)
			}
			return exit.code
		}
		printError("%v", err)
		if pipeline.IsPrecondition(err) {
			printInfo("Run 'dupsweep --help' for usage.")
		}
		return 1
	}
	return 0
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...any) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message to stderr unless quiet mode is enabled.
// Stdout is reserved for the report.
func printInfo(format string, args ...any) {
	if !getQuiet() {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
