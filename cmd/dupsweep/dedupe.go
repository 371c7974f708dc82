package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/x/term"
	"github.com/jamesainslie/dupsweep/cmd/dupsweep/tui"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/cache"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/config"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/hasher"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/index"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/logging"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/manifest"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/output"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/pipeline"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/planner"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/remover"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/walker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var logger = logging.Get("cli")

// runDedupe is the root command handler.
func runDedupe(cmd *cobra.Command, args []string) error {
	expanded, err := config.ExpandPath(args[0])
	if err != nil {
		return fmt.Errorf("failed to expand path: %w", err)
	}
	root, err := pipeline.ValidateRoot(expanded)
	if err != nil {
		return err
	}

	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	format := cfg.Output
	if format == "" {
		format = config.DefaultOutput
	}
	formatter, err := output.Get(format)
	if err != nil {
		return fmt.Errorf("unknown output format %q: available formats are %v", format, output.Available())
	}

	blockSize, err := cfg.BlockSizeBytes()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dryRun := viper.GetBool("dry_run")
	stderrTTY := term.IsTerminal(os.Stderr.Fd())

	var report *pipeline.Report
	digester, closeDigester := openDigester(cfg, blockSize)
	defer func() { closeDigester(report) }()

	opts := pipeline.Options{
		Root:      root,
		Exclude:   cfg.Exclude,
		FilesOnly: cfg.FilesOnly,
		Workers:   cfg.Workers,
		DryRun:    dryRun,
		Selector:  buildSelector(cancel),
		Deleter:   buildDeleter(dryRun),
		Digester:  digester,
		Observer:  buildObserver(dryRun, stderrTTY),
	}

	if dryRun {
		printInfo("Dry run: nothing will be deleted.")
	}
	printVerbose("root=%s block_size=%d workers=%d files_only=%t cache=%t",
		root, blockSize, walker.ResolveWorkers(cfg.Workers), cfg.FilesOnly, cfg.Cache.Enabled)

	report, err = pipeline.Run(ctx, opts)
	if err != nil {
		return err
	}

	if !getQuiet() || output.IsStructured(format) {
		var buf bytes.Buffer
		if err := formatter.Format(&buf, report); err != nil {
			return fmt.Errorf("failed to format report: %w", err)
		}
		if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	if cfg.Manifest.Enabled {
		recordHistory(cfg, report)
	}

	if report.Interrupted {
		printInfo("Interrupted.")
		return &exitError{code: exitInterrupted}
	}
	return nil
}

// openDigester returns the hasher, wrapped by the digest cache when it is
// enabled. The returned function flushes the cache, drops the digests of
// paths the run removed and closes it. Its report may be nil.
func openDigester(cfg *config.Config, blockSize int) (index.Digester, func(*pipeline.Report)) {
	h := hasher.New(hasher.Options{BlockSize: blockSize})
	if !cfg.Cache.Enabled {
		return h, func(*pipeline.Report) {}
	}

	c, err := cache.Open(cfg.Cache.Path)
	if err != nil {
		logger.Warn("digest cache unavailable", "path", cfg.Cache.Path, "err", err)
		printInfo("Warning: digest cache unavailable, hashing everything: %v", err)
		return h, func(*pipeline.Report) {}
	}

	cached := cache.NewHasher(c, h)
	return cached, func(report *pipeline.Report) {
		hits, misses := cached.Stats()
		printVerbose("cache: %d hits, %d misses", hits, misses)
		if err := cached.Flush(); err != nil {
			logger.Warn("failed to flush digest cache", "err", err)
		}
		if err := c.Forget(removedPaths(report)); err != nil {
			logger.Warn("failed to drop removed paths from digest cache", "err", err)
		}
		if err := c.Close(); err != nil {
			logger.Warn("failed to close digest cache", "err", err)
		}
	}
}

// removedPaths lists the paths a run actually deleted. Dry runs delete
// nothing.
func removedPaths(report *pipeline.Report) []string {
	if report == nil || report.DryRun {
		return nil
	}
	var paths []string
	for _, a := range report.Actions {
		if a.OK() {
			paths = append(paths, a.Path)
		}
	}
	return paths
}

// buildSelector picks how groups are resolved: automatically with --yes,
// otherwise by prompting. The Bubble Tea prompt needs a terminal on stdin.
func buildSelector(cancel context.CancelFunc) planner.Selector {
	if viper.GetBool("yes") {
		return planner.Auto{}
	}

	if viper.GetBool("no_tui") || !term.IsTerminal(os.Stdin.Fd()) {
		return planner.NewPrompt(planner.NewConsoleReader(os.Stdin, os.Stderr))
	}

	reader := tui.NewPromptReader(os.Stdin, os.Stderr)
	reader.OnAbort = cancel
	return planner.NewPrompt(reader)
}

func buildDeleter(dryRun bool) remover.Deleter {
	if dryRun {
		return &remover.DryRunDeleter{}
	}
	return remover.OSDeleter{}
}

// buildObserver writes live events to stderr. Quiet auto-confirm runs
// print nothing; prompting always needs the group listings.
func buildObserver(dryRun, stderrTTY bool) pipeline.Observer {
	if getQuiet() && viper.GetBool("yes") {
		return pipeline.NopObserver{}
	}

	console := output.NewConsole(os.Stderr, stderrTTY, dryRun)
	if stderrTTY && !getQuiet() {
		return tui.WithProgress(console, os.Stderr)
	}
	console.ShowProgress = !getQuiet()
	return console
}

// recordHistory writes a manifest entry for runs that removed something.
// Failures are reported but do not change the exit status.
func recordHistory(cfg *config.Config, report *pipeline.Report) {
	entry := manifest.FromReport(report)
	if entry == nil {
		return
	}

	m, err := manifest.New(cfg.Manifest.Path)
	if err == nil {
		err = m.Log(entry)
	}
	if err != nil {
		logger.Warn("failed to record history", "err", err)
		printInfo("Warning: failed to record history: %v", err)
		return
	}
	printVerbose("history entry %s written", entry.ID)

	retention := cfg.Manifest.RetentionDays
	if retention <= 0 {
		retention = config.DefaultRetentionDays
	}
	if n, err := m.Cleanup(retention); err != nil {
		logger.Warn("history cleanup failed", "err", err)
	} else if n > 0 {
		printVerbose("removed %d old history entries", n)
	}
}
