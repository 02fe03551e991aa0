package scanner

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/Sunrisies/rustkill/internal/logger"
	"github.com/Sunrisies/rustkill/pkg/sizefmt"
)

// Options configures a scan.
type Options struct {
	// Targets is the set of directory names considered deletion candidates.
	// Matching is by exact name equality.
	Targets []string
	// Concurrency bounds parallel branches per directory level; <=0 uses
	// GOMAXPROCS.
	Concurrency int
}

func (o Options) limit() int {
	if o.Concurrency > 0 {
		return o.Concurrency
	}
	return runtime.GOMAXPROCS(0)
}

// Stats summarizes a completed scan.
type Stats struct {
	Entries   int
	TotalSize uint64
}

// Stream walks root and sends a FileEntry for every directory whose name
// equals one of the target names. Entries are delivered as they are found;
// progress events arrive on the second channel, ending with a single
// Completed once all branches have joined. Both channels are closed when the
// walk finishes. Cancel ctx to abandon the walk; in-flight branches stop at
// their next entry boundary.
func Stream(ctx context.Context, root string, opts Options, log *logger.Logger) (<-chan FileEntry, <-chan ScanStatus) {
	out := make(chan FileEntry, 16)
	status := make(chan ScanStatus, 64)
	c := newCollector(opts, NewSink(status, log), out)
	go func() {
		c.walkRoot(ctx, root)
		// Close the entry stream before the terminal status send so a
		// consumer draining entries first can never deadlock against a
		// full status buffer.
		close(out)
		done := Completed{
			TotalFiles: int(c.found.Load()),
			TotalSize:  sizefmt.Bytes(c.size.Load()),
		}
		// Best-effort like every other status send: a consumer that
		// stopped draining status must never wedge the walker.
		select {
		case status <- done:
		default:
		}
		close(status)
	}()
	return out, status
}

// Collect is the buffered variant of Stream: it drains the walk into a slice
// for one-shot consumers. Progress events are discarded (warnings still reach
// the logger). Returns ctx's error if the walk was cancelled.
func Collect(ctx context.Context, root string, opts Options, log *logger.Logger) ([]FileEntry, Stats, error) {
	out, status := Stream(ctx, root, opts, log)
	go func() {
		for range status {
		}
	}()
	var entries []FileEntry
	var stats Stats
	for e := range out {
		entries = append(entries, e)
		stats.Entries++
		stats.TotalSize += e.SizeRaw
	}
	return entries, stats, ctx.Err()
}

type collector struct {
	targets map[string]struct{}
	sink    Sink
	limit   int
	out     chan<- FileEntry

	found atomic.Int64
	size  atomic.Uint64
}

func newCollector(opts Options, sink Sink, out chan<- FileEntry) *collector {
	targets := make(map[string]struct{}, len(opts.Targets))
	for _, t := range opts.Targets {
		if t != "" {
			targets[t] = struct{}{}
		}
	}
	return &collector{targets: targets, sink: sink, limit: opts.limit(), out: out}
}

func (c *collector) match(name string) bool {
	_, ok := c.targets[name]
	return ok
}

// walkRoot lists the root in name-sorted order so the top-level traversal is
// deterministic, and reports per-child progress against the root listing.
func (c *collector) walkRoot(ctx context.Context, root string) {
	ents, err := os.ReadDir(root)
	if err != nil {
		c.sink.Warnf("cannot read directory %s: %v", root, err)
		return
	}
	total := len(ents)
	for i, ent := range ents {
		if ctx.Err() != nil {
			return
		}
		path := filepath.Join(root, ent.Name())
		c.sink.Status(Scanning{
			CurrentPath:     path,
			ProgressPercent: percent(i+1, total),
			TotalItems:      total,
			ProcessedItems:  i + 1,
		})
		if !ent.IsDir() {
			continue
		}
		c.visit(ctx, path, ent.Name(), 1)
	}
}

// visit classifies one directory: a target match becomes a leaf result, a
// non-match is explored further.
func (c *collector) visit(ctx context.Context, path, name string, depth int) {
	if c.match(name) {
		size := Aggregate(ctx, path, c.sink, c.limit)
		if ctx.Err() != nil {
			return
		}
		c.emit(ctx, c.newEntry(path, size))
		return
	}
	c.descend(ctx, path, depth)
}

// descend explores the children of a non-matching directory. Hidden entries
// are skipped here (but not at the root listing) to keep the walk out of
// version-control and tool-cache trees.
func (c *collector) descend(ctx context.Context, path string, depth int) {
	ents, err := os.ReadDir(path)
	if err != nil {
		c.sink.Warnf("cannot read directory %s: %v", path, err)
		return
	}
	type subdir struct {
		path string
		name string
	}
	var dirs []subdir
	for _, ent := range ents {
		if strings.HasPrefix(ent.Name(), ".") {
			continue
		}
		if !ent.IsDir() {
			continue
		}
		dirs = append(dirs, subdir{path: filepath.Join(path, ent.Name()), name: ent.Name()})
	}

	if !Decide(depth, len(dirs), len(ents)) {
		for _, d := range dirs {
			if ctx.Err() != nil {
				return
			}
			c.visit(ctx, d.path, d.name, depth+1)
		}
		return
	}

	// Entries from concurrent branches merge by concatenation on the output
	// channel; no ordering is guaranteed across siblings.
	g := new(errgroup.Group)
	g.SetLimit(c.limit)
	for _, d := range dirs {
		d := d
		g.Go(func() error {
			c.visit(ctx, d.path, d.name, depth+1)
			return nil
		})
	}
	_ = g.Wait()
}

func (c *collector) newEntry(path string, size uint64) FileEntry {
	perms := Permissions{}
	if info, err := os.Stat(path); err == nil {
		perms = PermissionsFromMode(info.Mode())
	}
	return FileEntry{
		FileType:     FileTypeDirectory,
		Permissions:  perms,
		SizeDisplay:  sizefmt.Bytes(size),
		SizeRaw:      size,
		Path:         canonicalPath(path),
		DeleteStatus: NotDeleted,
	}
}

func (c *collector) emit(ctx context.Context, e FileEntry) {
	select {
	case c.out <- e:
		c.found.Add(1)
		c.size.Add(e.SizeRaw)
		c.sink.Status(Scanning{
			CurrentPath:     e.Path,
			ProgressPercent: 100,
			TotalItems:      1,
			ProcessedItems:  1,
		})
	case <-ctx.Done():
	}
}
