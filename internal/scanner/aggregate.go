package scanner

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Aggregate sums the byte size of every regular file under path. Unreadable
// directories and entries contribute zero; failure is never fatal to the
// aggregation. Fan-out across subdirectories is decided per directory by
// Decide, with at most limit concurrent branches per level (<=0 uses
// GOMAXPROCS).
func Aggregate(ctx context.Context, path string, sink Sink, limit int) uint64 {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	w := &sizeWalker{sink: sink, limit: limit}
	return w.walk(ctx, path, 0)
}

type sizeWalker struct {
	sink  Sink
	limit int
	// decide overrides the fan-out policy; nil means Decide.
	decide func(depth, dirCount, totalItems int) bool
}

func (w *sizeWalker) shouldFanOut(depth, dirCount, totalItems int) bool {
	if w.decide != nil {
		return w.decide(depth, dirCount, totalItems)
	}
	return Decide(depth, dirCount, totalItems)
}

func (w *sizeWalker) walk(ctx context.Context, path string, depth int) uint64 {
	ents, err := os.ReadDir(path)
	if err != nil {
		w.sink.Warnf("cannot read directory %s: %v", path, err)
		return 0
	}

	interval := TickInterval(depth)
	var total uint64
	var subdirs []string
	for i, ent := range ents {
		if i%interval == 0 {
			w.sink.Status(Scanning{
				CurrentPath:     path,
				ProgressPercent: percent(i, len(ents)),
				TotalItems:      len(ents),
				ProcessedItems:  i,
			})
		}
		if ctx.Err() != nil {
			// branch abandoned; partial sum is discarded by the caller anyway
			return total
		}
		info, err := ent.Info()
		if err != nil {
			continue
		}
		if info.IsDir() {
			subdirs = append(subdirs, filepath.Join(path, ent.Name()))
		} else {
			total += uint64(info.Size())
		}
	}

	if !w.shouldFanOut(depth, len(subdirs), len(ents)) {
		for _, sub := range subdirs {
			total += w.walk(ctx, sub, depth+1)
		}
		return total
	}

	// Sibling order is irrelevant: sums combine by addition only.
	sums := make([]uint64, len(subdirs))
	g := new(errgroup.Group)
	g.SetLimit(w.limit)
	for i, sub := range subdirs {
		i, sub := i, sub
		g.Go(func() error {
			sums[i] = w.walk(ctx, sub, depth+1)
			return nil
		})
	}
	_ = g.Wait()
	for _, s := range sums {
		total += s
	}
	return total
}
