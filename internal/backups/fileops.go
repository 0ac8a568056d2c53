package backups

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pandeptwidyaop/nodered-backups/internal/models"
	"github.com/pandeptwidyaop/nodered-backups/internal/validation"
)

// ContentType is the media type reported for backup downloads.
const ContentType = "application/json"

// FileOps resolves, opens and deletes individual backup files. Existence is
// checked on every call, never taken from an earlier listing.
type FileOps struct {
	root string
	now  func() time.Time
}

// NewFileOps creates a FileOps rooted at root.
func NewFileOps(root string) *FileOps {
	return &FileOps{root: root, now: time.Now}
}

// Download is an open backup file ready to be streamed. Callers must Close it.
type Download struct {
	File        *os.File
	Filename    string
	ContentType string
	Size        int64
	ModifiedAt  time.Time
}

// Close releases the underlying file.
func (d *Download) Close() error {
	return d.File.Close()
}

// ResolvePath returns the on-disk path of a backup file after checking that
// the installation exists and that the file is a regular file.
func (o *FileOps) ResolvePath(ctx context.Context, installation, filename string) (string, error) {
	if err := validation.ValidateName(installation); err != nil {
		return "", err
	}
	if err := validation.ValidateFilename(filename); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := filepath.Join(o.root, installation)
	dirInfo, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", notFound(installation, "")
		}
		return "", storageFault("open", installation, "", err)
	}
	if !dirInfo.IsDir() {
		return "", notFound(installation, "")
	}

	path := filepath.Join(dir, filename)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", notFound(installation, filename)
		}
		return "", storageFault("stat", installation, filename, err)
	}
	if !info.Mode().IsRegular() {
		return "", invalidState(installation, filename)
	}

	return path, nil
}

// OpenForRead opens a backup file for streaming.
func (o *FileOps) OpenForRead(ctx context.Context, installation, filename string) (*Download, error) {
	path, err := o.ResolvePath(ctx, installation, filename)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path) // #nosec G304 - path resolved from validated segments
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(installation, filename)
		}
		return nil, storageFault("open", installation, filename, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, storageFault("stat", installation, filename, err)
	}
	// the path may have been swapped between resolve and open
	if !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, invalidState(installation, filename)
	}

	return &Download{
		File:        f,
		Filename:    filename,
		ContentType: ContentType,
		Size:        info.Size(),
		ModifiedAt:  info.ModTime(),
	}, nil
}

// Delete removes a backup file. The unlink is attempted exactly once; a caller
// that loses a race with another delete gets ErrNotFound.
func (o *FileOps) Delete(ctx context.Context, installation, filename string) (models.DeletionReceipt, error) {
	path, err := o.ResolvePath(ctx, installation, filename)
	if err != nil {
		return models.DeletionReceipt{}, err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.DeletionReceipt{}, notFound(installation, filename)
		}
		return models.DeletionReceipt{}, storageFault("delete", installation, filename, err)
	}

	return models.DeletionReceipt{
		Message:      "File deleted successfully",
		Installation: installation,
		Filename:     filename,
		DeletedAt:    o.now(),
	}, nil
}
