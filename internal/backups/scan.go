package backups

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
)

const readDirBatch = 64

// dirEntries lazily yields the entries of dir in batches. Each call opens the
// directory again, so ranging over the sequence twice rescans from scratch.
// Errors are yielded once and end the sequence.
func dirEntries(ctx context.Context, dir string) iter.Seq2[fs.DirEntry, error] {
	return func(yield func(fs.DirEntry, error) bool) {
		f, err := os.Open(dir) // #nosec G304 - dir is built from validated segments
		if err != nil {
			yield(nil, err)
			return
		}
		defer func() { _ = f.Close() }()

		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			entries, err := f.ReadDir(readDirBatch)
			for _, entry := range entries {
				if !yield(entry, nil) {
					return
				}
			}
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
		}
	}
}

// isDirEntry reports whether entry is a directory, following symlinks.
func isDirEntry(parent string, entry fs.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(parent, entry.Name()))
	return err == nil && info.IsDir()
}
