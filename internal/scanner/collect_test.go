package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectPaths(entries []FileEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Path)
	}
	sort.Strings(out)
	return out
}

func TestCollect_FindsTargetsWithoutDescending(t *testing.T) {
	root := t.TempDir()
	// root/a/node_modules with ~100KB, root/b/src with small files,
	// root/node_modules with 5KB
	writeFileOfSize(t, filepath.Join(root, "a", "node_modules", "big.bin"), 100*1024)
	writeFileOfSize(t, filepath.Join(root, "a", "node_modules", "pkg", "inner.bin"), 1)
	for i := 0; i < 10; i++ {
		writeFileOfSize(t, filepath.Join(root, "b", "src", "f"+string(rune('0'+i))+".go"), 100)
	}
	writeFileOfSize(t, filepath.Join(root, "node_modules", "dep.bin"), 5*1024)

	entries, stats, err := Collect(context.Background(), root, Options{Targets: []string{"node_modules"}}, nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	want := []string{
		canonicalPath(filepath.Join(root, "a", "node_modules")),
		canonicalPath(filepath.Join(root, "node_modules")),
	}
	sort.Strings(want)
	assert.Equal(t, want, collectPaths(entries))

	bySize := map[string]uint64{}
	for _, e := range entries {
		bySize[filepath.Base(filepath.Dir(e.Path))] = e.SizeRaw
	}
	assert.Equal(t, uint64(100*1024+1), bySize["a"])
	assert.Equal(t, stats.TotalSize, entries[0].SizeRaw+entries[1].SizeRaw)
	assert.Equal(t, 2, stats.Entries)

	for _, e := range entries {
		assert.Equal(t, FileTypeDirectory, e.FileType)
		assert.Equal(t, NotDeleted, e.DeleteStatus)
		assert.NotEmpty(t, e.SizeDisplay)
	}
}

func TestCollect_ExactMatchOnly(t *testing.T) {
	root := t.TempDir()
	writeFileOfSize(t, filepath.Join(root, "proj", "node_modules", "a.bin"), 10)
	writeFileOfSize(t, filepath.Join(root, "proj", "my_node_modules_backup", "b.bin"), 10)

	entries, _, err := Collect(context.Background(), root, Options{Targets: []string{"node_modules"}}, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, canonicalPath(filepath.Join(root, "proj", "node_modules")), entries[0].Path)
}

func TestCollect_MultipleTargets(t *testing.T) {
	root := t.TempDir()
	writeFileOfSize(t, filepath.Join(root, "rs", "target", "debug.bin"), 2048)
	writeFileOfSize(t, filepath.Join(root, "js", "node_modules", "dep.bin"), 1024)

	entries, stats, err := Collect(context.Background(), root, Options{Targets: []string{"target", "node_modules"}}, nil)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, uint64(3072), stats.TotalSize)
}

func TestCollect_SkipsHiddenDirsInRecursion(t *testing.T) {
	root := t.TempDir()
	writeFileOfSize(t, filepath.Join(root, "proj", ".git", "node_modules", "x.bin"), 10)
	writeFileOfSize(t, filepath.Join(root, "proj", "web", "node_modules", "y.bin"), 20)

	entries, _, err := Collect(context.Background(), root, Options{Targets: []string{"node_modules"}}, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(20), entries[0].SizeRaw)
}

func TestCollect_HiddenTargetAtRootIsVisible(t *testing.T) {
	// The root listing itself is not filtered; only recursive exploration
	// skips dot-entries.
	root := t.TempDir()
	writeFileOfSize(t, filepath.Join(root, "node_modules", "x.bin"), 10)
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".cache"), 0o755))

	entries, _, err := Collect(context.Background(), root, Options{Targets: []string{"node_modules"}}, nil)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCollect_Idempotent(t *testing.T) {
	root := t.TempDir()
	writeFileOfSize(t, filepath.Join(root, "x", "node_modules", "a.bin"), 111)
	writeFileOfSize(t, filepath.Join(root, "y", "z", "node_modules", "b.bin"), 222)

	opts := Options{Targets: []string{"node_modules"}}
	first, _, err := Collect(context.Background(), root, opts, nil)
	require.NoError(t, err)
	second, _, err := Collect(context.Background(), root, opts, nil)
	require.NoError(t, err)

	assert.Equal(t, collectPaths(first), collectPaths(second))
	firstSizes := map[string]uint64{}
	for _, e := range first {
		firstSizes[e.Path] = e.SizeRaw
	}
	for _, e := range second {
		assert.Equal(t, firstSizes[e.Path], e.SizeRaw)
	}
}

func TestCollect_UnreadableSubtreeDoesNotAbort(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	root := t.TempDir()
	locked := filepath.Join(root, "locked")
	writeFileOfSize(t, filepath.Join(locked, "inner", "node_modules", "x.bin"), 10)
	writeFileOfSize(t, filepath.Join(root, "open", "node_modules", "y.bin"), 20)
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	entries, _, err := Collect(context.Background(), root, Options{Targets: []string{"node_modules"}}, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(20), entries[0].SizeRaw)
}

func TestStream_EmitsSingleCompleted(t *testing.T) {
	root := t.TempDir()
	writeFileOfSize(t, filepath.Join(root, "p", "node_modules", "a.bin"), 1024)

	out, status := Stream(context.Background(), root, Options{Targets: []string{"node_modules"}}, nil)
	for range out {
	}
	completed := 0
	var last Completed
	for st := range status {
		if c, ok := st.(Completed); ok {
			completed++
			last = c
		}
	}
	require.Equal(t, 1, completed)
	assert.Equal(t, 1, last.TotalFiles)
	assert.Equal(t, "1.0KB", last.TotalSize)
}

func TestStream_FinishesWithoutStatusConsumer(t *testing.T) {
	// A consumer may legitimately drain only the entry channel. Even when
	// the status buffer fills, the walker must finish and close both
	// channels rather than block on the terminal event.
	root := t.TempDir()
	for i := 0; i < 200; i++ {
		writeFileOfSize(t, filepath.Join(root, fmt.Sprintf("d%03d", i), "node_modules", "a.bin"), 1)
	}

	out, status := Stream(context.Background(), root, Options{Targets: []string{"node_modules"}}, nil)
	n := 0
	for range out {
		n++
	}
	require.Equal(t, 200, n)

	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-status:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("status channel never closed after the walk finished")
		}
	}
}

func TestStream_CancelStopsWalk(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 5; i++ {
		writeFileOfSize(t, filepath.Join(root, "d"+string(rune('0'+i)), "node_modules", "a.bin"), 10)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, status := Stream(ctx, root, Options{Targets: []string{"node_modules"}}, nil)
	n := 0
	for range out {
		n++
	}
	for range status {
	}
	assert.Zero(t, n)
}
