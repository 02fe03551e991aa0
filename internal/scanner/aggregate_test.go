package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFileOfSize(t *testing.T, path string, size int64) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := f.Truncate(size); err != nil {
		t.Fatalf("truncate %s: %v", path, err)
	}
}

func buildSizedTree(t *testing.T) (string, uint64) {
	t.Helper()
	root := t.TempDir()
	var total uint64
	sizes := []struct {
		rel  string
		size int64
	}{
		{"a/x.bin", 1024},
		{"a/y.bin", 2048},
		{"a/deep/one/two/z.bin", 512},
		{"b/w.bin", 4096},
		{"c/d/e/f/v.bin", 100},
		{"top.bin", 7},
	}
	for _, s := range sizes {
		writeFileOfSize(t, filepath.Join(root, s.rel), s.size)
		total += uint64(s.size)
	}
	return root, total
}

func TestAggregate_SumsTree(t *testing.T) {
	root, want := buildSizedTree(t)
	got := Aggregate(context.Background(), root, Sink{}, 0)
	if got != want {
		t.Fatalf("Aggregate = %d; want %d", got, want)
	}
}

func TestAggregate_SerialAndParallelAgree(t *testing.T) {
	root, want := buildSizedTree(t)

	serial := &sizeWalker{sink: Sink{}, limit: 1, decide: func(int, int, int) bool { return false }}
	parallel := &sizeWalker{sink: Sink{}, limit: 8, decide: func(int, int, int) bool { return true }}

	sGot := serial.walk(context.Background(), root, 0)
	pGot := parallel.walk(context.Background(), root, 0)
	if sGot != want || pGot != want {
		t.Fatalf("serial=%d parallel=%d; want both %d", sGot, pGot, want)
	}
}

func TestAggregate_UnreadableDirContributesZero(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	root := t.TempDir()
	writeFileOfSize(t, filepath.Join(root, "ok", "a.bin"), 1000)
	locked := filepath.Join(root, "locked")
	writeFileOfSize(t, filepath.Join(locked, "hidden.bin"), 5000)
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	got := Aggregate(context.Background(), root, Sink{}, 0)
	if got != 1000 {
		t.Fatalf("Aggregate = %d; want 1000 (locked subtree skipped)", got)
	}
}

func TestAggregate_MissingPathIsZero(t *testing.T) {
	got := Aggregate(context.Background(), filepath.Join(t.TempDir(), "nope"), Sink{}, 0)
	if got != 0 {
		t.Fatalf("Aggregate = %d; want 0", got)
	}
}

func TestAggregate_EmitsTicks(t *testing.T) {
	root := t.TempDir()
	// enough entries at depth 0 to cross the tick interval
	for i := 0; i < 120; i++ {
		writeFileOfSize(t, filepath.Join(root, "f"+string(rune('a'+i%26))+string(rune('a'+i/26))+".bin"), 1)
	}
	ch := make(chan ScanStatus, 256)
	Aggregate(context.Background(), root, NewSink(ch, nil), 0)
	close(ch)
	ticks := 0
	for range ch {
		ticks++
	}
	if ticks < 2 {
		t.Fatalf("expected at least 2 progress ticks, got %d", ticks)
	}
}
