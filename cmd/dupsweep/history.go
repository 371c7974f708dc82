package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jamesainslie/dupsweep/pkg/dupsweep/config"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/manifest"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View removal history",
	Long: `View the history of runs that removed duplicates.

History is recorded only when manifest.enabled is set in the configuration.
Each entry lists the removed paths with their sizes and digests.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show details of a recorded run",
	Long:  `Display every path a run removed. A unique ID prefix is enough.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean up old history entries",
	Long:  `Remove history entries older than the retention period.`,
	Args:  cobra.NoArgs,
	RunE:  runHistoryClean,
}

var historyLimit int

// historyShowLimit caps the paths printed by history show.
const historyShowLimit = 50

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of entries to show")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

// openManifest opens the configured history directory.
func openManifest() (*manifest.Manifest, *config.Config, error) {
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	m, err := manifest.New(cfg.Manifest.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize manifest: %w", err)
	}
	return m, cfg, nil
}

// runHistory lists recent runs.
func runHistory(cmd *cobra.Command, _ []string) error {
	m, cfg, err := openManifest()
	if err != nil {
		return err
	}

	entries, err := m.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(entries) == 0 {
		printInfo("No history entries found.")
		if !cfg.Manifest.Enabled {
			printInfo("Set manifest.enabled: true in the config file to record removals.")
		}
		return nil
	}

	writeHistoryList(cmd.OutOrStdout(), entries)
	return nil
}

func writeHistoryList(w io.Writer, entries []manifest.Entry) {
	fmt.Fprintf(w, "%-36s  %-16s  %-7s  %-7s  %-10s  %s\n", "ID", "DATE", "REMOVED", "FAILED", "SIZE", "ROOT")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for _, e := range entries {
		id := e.ID
		if e.DryRun {
			id += "*"
		}
		fmt.Fprintf(w, "%-36s  %-16s  %-7d  %-7d  %-10s  %s\n",
			truncateString(id, 36),
			e.Timestamp.Local().Format("2006-01-02 15:04"),
			e.Summary.Removed,
			e.Summary.Failed,
			types.FormatSize(e.Summary.TotalBytes),
			e.Root,
		)
	}

	fmt.Fprintln(w, strings.Repeat("-", 100))
	fmt.Fprintln(w, "* dry run")
	fmt.Fprintln(w, "Use 'dupsweep history show <id>' for details on a specific entry.")
}

// runHistoryShow displays one recorded run.
func runHistoryShow(cmd *cobra.Command, args []string) error {
	m, _, err := openManifest()
	if err != nil {
		return err
	}

	entry, err := m.Get(args[0])
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}

	writeHistoryEntry(cmd.OutOrStdout(), entry)
	return nil
}

func writeHistoryEntry(w io.Writer, e *manifest.Entry) {
	fmt.Fprintln(w, "Run Details")
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "ID:          %s\n", e.ID)
	fmt.Fprintf(w, "Timestamp:   %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Root:        %s\n", e.Root)
	fmt.Fprintf(w, "Dry run:     %t\n", e.DryRun)
	if e.Interrupted {
		fmt.Fprintln(w, "Interrupted: true")
	}
	fmt.Fprintf(w, "Removed:     %d (%d files, %s)\n", e.Summary.Removed, e.Summary.Files, types.FormatSize(e.Summary.TotalBytes))
	fmt.Fprintf(w, "Failed:      %d\n", e.Summary.Failed)

	if len(e.Removed) > 0 {
		fmt.Fprintln(w, "\nRemoved:")
		writeRemovals(w, e.Removed)
	}
	if len(e.Failed) > 0 {
		fmt.Fprintln(w, "\nFailed:")
		writeRemovals(w, e.Failed)
	}
}

func writeRemovals(w io.Writer, rs []manifest.Removal) {
	fmt.Fprintln(w, strings.Repeat("-", 60))
	limit := min(len(rs), historyShowLimit)
	for _, r := range rs[:limit] {
		path := r.Path
		if r.Kind == types.KindDir {
			path += "/"
		}
		line := fmt.Sprintf("%-10s  %-4s  %s", types.FormatSize(r.Size), r.Kind, path)
		if r.Error != "" {
			line += "  (" + r.Error + ")"
		}
		fmt.Fprintln(w, line)
	}
	if len(rs) > limit {
		fmt.Fprintf(w, "... and %d more\n", len(rs)-limit)
	}
}

// runHistoryClean removes old history entries.
func runHistoryClean(_ *cobra.Command, _ []string) error {
	m, cfg, err := openManifest()
	if err != nil {
		return err
	}

	retentionDays := cfg.Manifest.RetentionDays
	if retentionDays <= 0 {
		retentionDays = config.DefaultRetentionDays
	}

	n, err := m.Cleanup(retentionDays)
	if err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}

	printInfo("Removed %d history entries older than %d days.", n, retentionDays)
	return nil
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
