// Package report renders one-shot scan results for non-interactive runs.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/Sunrisies/rustkill/internal/scanner"
	"github.com/Sunrisies/rustkill/pkg/sizefmt"
)

var (
	headerColor = color.New(color.Bold)
	sizeColor   = color.New(color.FgCyan)
	totalColor  = color.New(color.FgGreen, color.Bold)
)

// Table writes a console table of entries followed by a totals box.
func Table(w io.Writer, root string, entries []scanner.FileEntry, stats scanner.Stats, elapsed time.Duration) {
	fmt.Fprintf(w, "rustkill scan\nroot: %s\n", root)
	headerColor.Fprintf(w, "%-4s %-5s %10s  %s\n", "TYPE", "PERM", "SIZE", "PATH")
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, e := range entries {
		fmt.Fprintf(w, "%-4s %-5s %s  %s\n",
			e.FileType, e.Permissions, sizeColor.Sprintf("%10s", e.SizeDisplay), e.Path)
	}
	fmt.Fprintln(w, strings.Repeat("-", 60))
	totalColor.Fprintf(w, "total: %d  size: %s  elapsed: %s\n",
		stats.Entries, sizefmt.Bytes(stats.TotalSize), elapsed.Round(time.Millisecond))
}

type payload struct {
	Root             string              `json:"root"`
	TotalSize        uint64              `json:"totalSize"`
	TotalSizeDisplay string              `json:"totalSizeDisplay"`
	Entries          []scanner.FileEntry `json:"entries"`
	Duration         string              `json:"duration"`
}

// JSON writes the scan result as indented JSON.
func JSON(w io.Writer, root string, entries []scanner.FileEntry, stats scanner.Stats, elapsed time.Duration) error {
	if entries == nil {
		entries = []scanner.FileEntry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload{
		Root:             root,
		TotalSize:        stats.TotalSize,
		TotalSizeDisplay: sizefmt.Bytes(stats.TotalSize),
		Entries:          entries,
		Duration:         elapsed.String(),
	})
}
