package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sunrisies/rustkill/internal/archiver"
	"github.com/Sunrisies/rustkill/internal/deleter"
	"github.com/Sunrisies/rustkill/internal/logger"
	"github.com/Sunrisies/rustkill/internal/report"
	"github.com/Sunrisies/rustkill/internal/scanner"
	"github.com/Sunrisies/rustkill/internal/tui"
	"github.com/Sunrisies/rustkill/pkg/sizefmt"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		targets     []string
		dryRun      bool
		force       bool
		verbose     bool
		noTUI       bool
		jsonOut     bool
		archive     bool
		archiveDir  string
		deleteAfter bool
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "rustkill [dir]",
		Short: "Find and clean build-artifact directories",
		Long: `rustkill scans a directory tree for build-artifact and dependency
directories (target, node_modules, ...), shows their sizes and lets you
delete or archive them.

Examples:
  rustkill                      scan the current directory interactively
  rustkill ~/code -d target     scan for Rust target directories only
  rustkill --no-tui --dry-run   list matches without touching anything
  rustkill --json .             machine-readable listing
  rustkill --archive --delete-after .   zip matches, then remove them`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			absRoot, err := filepath.Abs(root)
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			info, err := os.Stat(absRoot)
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return fmt.Errorf("not a directory: %s", absRoot)
			}

			level := "info"
			if verbose {
				level = "debug"
			}
			log := logger.New(os.Stderr, level)
			opts := scanner.Options{Targets: targets, Concurrency: concurrency}

			if !noTUI && !jsonOut && !archive {
				return tui.Run(absRoot, opts, dryRun, log)
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			start := time.Now()
			entries, stats, err := scanner.Collect(ctx, absRoot, opts, log)
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			if jsonOut {
				return report.JSON(os.Stdout, absRoot, entries, stats, elapsed)
			}
			report.Table(os.Stdout, absRoot, entries, stats, elapsed)
			if len(entries) == 0 {
				return nil
			}

			refs := make([]*scanner.FileEntry, len(entries))
			for i := range entries {
				refs[i] = &entries[i]
			}

			if archive {
				sum := archiver.ArchiveEntries(ctx, refs, archiver.Options{OutDir: archiveDir, DeleteAfter: deleteAfter}, log)
				for _, f := range sum.Failures {
					log.Errorf("archive %s: %v", f.Path, f.Err)
				}
				fmt.Printf("Archived %d directories (%s written)\n", len(sum.Archived), sizefmt.Bytes(uint64(sum.Written)))
				if len(sum.Failures) > 0 {
					return fmt.Errorf("%d archives failed", len(sum.Failures))
				}
				return nil
			}

			if dryRun {
				fmt.Printf("Dry run: would delete %d directories, freeing %s\n", stats.Entries, sizefmt.Bytes(stats.TotalSize))
				return nil
			}
			if !force && !confirm(stats.Entries, stats.TotalSize) {
				fmt.Println("Aborted.")
				return nil
			}

			lc := deleter.NewLifecycle(false)
			sum := lc.DeleteAll(ctx, refs, concurrency, nil)
			for _, f := range sum.Failures {
				log.Errorf("delete %s: %v", f.Path, f.Err)
			}
			fmt.Printf("Deleted %d directories, freed %s\n", len(sum.Successes), sizefmt.Bytes(sum.Freed))
			if len(sum.Failures) > 0 {
				return fmt.Errorf("%d deletions failed", len(sum.Failures))
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&targets, "dir", "d", []string{"target", "node_modules"}, "directory name to clean (repeatable)")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "show what would be deleted without deleting")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "delete without confirmation (non-interactive mode)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "print results instead of the interactive UI")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output JSON (implies --no-tui, listing only)")
	cmd.Flags().BoolVar(&archive, "archive", false, "zip matched directories instead of deleting")
	cmd.Flags().StringVar(&archiveDir, "archive-dir", "", "directory to write archives into (default: next to each match)")
	cmd.Flags().BoolVar(&deleteAfter, "delete-after", false, "with --archive, remove the source after archiving")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0, "max parallel branches per directory (0 = auto)")

	return cmd
}

func confirm(count int, size uint64) bool {
	fmt.Printf("Delete %d directories, freeing %s? [y/N]: ", count, sizefmt.Bytes(size))
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
