package archiver

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Sunrisies/rustkill/internal/deleter"
	"github.com/Sunrisies/rustkill/internal/logger"
	"github.com/Sunrisies/rustkill/internal/scanner"
)

type Options struct {
	// OutDir receives the archives; empty means next to each source.
	OutDir string
	// DeleteAfter removes the source directory once its archive is written.
	DeleteAfter bool
}

type Result struct {
	Source  string
	Archive string
	Bytes   int64 // archive size on disk
}

type Failure struct {
	Path string
	Err  error
}

type Summary struct {
	Archived []Result
	Failures []Failure
	Written  int64
}

// ArchiveEntries zips each matched directory into its own archive. Entries
// that fail validation or compression are recorded and skipped; one bad entry
// never aborts the batch. With DeleteAfter removal goes through the deletion
// lifecycle, so state transitions stay owned by one place.
func ArchiveEntries(ctx context.Context, entries []*scanner.FileEntry, opts Options, log *logger.Logger) Summary {
	sum := Summary{}
	lc := deleter.NewLifecycle(false)
	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			for _, rest := range entries[i:] {
				sum.Failures = append(sum.Failures, Failure{Path: rest.Path, Err: err})
			}
			return sum
		}

		info, err := os.Stat(e.Path)
		if err != nil {
			sum.Failures = append(sum.Failures, Failure{Path: e.Path, Err: err})
			continue
		}
		if !info.IsDir() {
			sum.Failures = append(sum.Failures, Failure{Path: e.Path, Err: fmt.Errorf("not a directory: %s", e.Path)})
			continue
		}

		destDir := opts.OutDir
		if destDir == "" {
			destDir = filepath.Dir(e.Path)
		}
		if err := os.MkdirAll(destDir, 0o755); err != nil {
			sum.Failures = append(sum.Failures, Failure{Path: e.Path, Err: err})
			continue
		}
		dest := nextAvailable(filepath.Join(destDir, archiveName(e.Path)))

		log.Infof("archiving %s -> %s", e.Path, dest)
		written, err := zipDirectory(ctx, e.Path, dest)
		if err != nil {
			_ = os.Remove(dest)
			sum.Failures = append(sum.Failures, Failure{Path: e.Path, Err: err})
			continue
		}

		if opts.DeleteAfter {
			// no-op for entries already Deleting/Deleted elsewhere
			if _, rmErr := lc.RequestDelete(ctx, e); rmErr != nil {
				sum.Failures = append(sum.Failures, Failure{Path: e.Path, Err: fmt.Errorf("delete after archive: %w", rmErr)})
			}
		}

		sum.Archived = append(sum.Archived, Result{Source: e.Path, Archive: dest, Bytes: written})
		sum.Written += written
	}
	return sum
}

// archiveName builds a zip name that keeps the parent directory in it, so
// archives from many projects dropped into one OutDir stay distinguishable.
func archiveName(src string) string {
	base := filepath.Base(src)
	parent := filepath.Base(filepath.Dir(src))
	if parent == "." || parent == string(os.PathSeparator) || parent == "" {
		return base + ".zip"
	}
	return parent + "-" + base + ".zip"
}

func nextAvailable(p string) string {
	if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
		return p
	}
	dir := filepath.Dir(p)
	ext := filepath.Ext(p)
	name := strings.TrimSuffix(filepath.Base(p), ext)
	for i := 1; i < 10000; i++ {
		cand := filepath.Join(dir, fmt.Sprintf("%s-%d%s", name, i, ext))
		if _, err := os.Stat(cand); errors.Is(err, fs.ErrNotExist) {
			return cand
		}
	}
	return p
}

// zipDirectory writes src into a zip at dest and returns the archive size.
// Symlinks are skipped so the archive never reaches outside the subtree.
func zipDirectory(ctx context.Context, src, dest string) (int64, error) {
	f, err := os.Create(dest)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	zw := zip.NewWriter(f)
	prefix := filepath.Base(src)
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return nil
		}

		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(filepath.Join(prefix, rel))
		if d.IsDir() {
			hdr.Name += "/"
		} else {
			hdr.Method = zip.Deflate
		}

		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rf, err := os.Open(path)
		if err != nil {
			return err
		}
		defer rf.Close()
		_, err = io.Copy(w, rf)
		return err
	})
	if err != nil {
		_ = zw.Close()
		return 0, err
	}
	if err := zw.Close(); err != nil {
		return 0, err
	}
	if err := f.Sync(); err != nil {
		return 0, err
	}
	st, err := os.Stat(dest)
	if err != nil {
		return 0, err
	}
	return st.Size(), nil
}
