package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/cache"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the digest cache",
	Long: `Commands for managing the digest cache.

With --cache (or cache.enabled: true), file digests are stored keyed by path,
size and modification time, so unchanged files are not rehashed on the next
run. The cache lives in the XDG cache directory (typically
~/.cache/dupsweep/digests).`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all cached digests",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := cachePath()
		if err != nil {
			return err
		}

		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			fmt.Fprintln(cmd.OutOrStdout(), "Cache is already empty.")
			return nil
		}

		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
		return nil
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Long:  `Displays the cache location, the number of cached digests, and its size on disk.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := cachePath()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			fmt.Fprintln(out, "Cache: empty (no cache directory)")
			fmt.Fprintf(out, "Cache location: %s\n", path)
			return nil
		}

		c, err := cache.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		count, countErr := c.Len()
		if err := c.Close(); err != nil {
			return fmt.Errorf("failed to close cache: %w", err)
		}
		if countErr != nil {
			return fmt.Errorf("failed to count cache entries: %w", countErr)
		}

		size, err := dirSize(path)
		if err != nil {
			return fmt.Errorf("failed to calculate cache size: %w", err)
		}

		fmt.Fprintf(out, "Cache location: %s\n", path)
		fmt.Fprintf(out, "Cached digests: %s\n", humanize.Comma(int64(count)))
		fmt.Fprintf(out, "Cache size: %s\n", humanize.IBytes(uint64(size)))
		return nil
	},
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show cache location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := cachePath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePathCmd)
	rootCmd.AddCommand(cacheCmd)
}

// cachePath returns the configured cache directory.
func cachePath() (string, error) {
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return "", fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg.Cache.Path, nil
}

// dirSize sums the sizes of regular files under dir.
func dirSize(dir string) (int64, error) {
	var size int64
	err := filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			size += info.Size()
		}
		return nil
	})
	return size, err
}
