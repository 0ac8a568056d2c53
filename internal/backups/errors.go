package backups

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrNotFound means the installation or file was absent when it was checked.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState means the path exists but is not a regular file.
	ErrInvalidState = errors.New("not a regular file")
)

// LookupError reports a missing or unusable installation or file.
// Messages only name the installation and filename, never the path of the backup root.
type LookupError struct {
	Installation string
	Filename     string
	Detail       string
	Err          error
}

func (e *LookupError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	switch {
	case errors.Is(e.Err, ErrInvalidState):
		return fmt.Sprintf("'%s' is not a file", e.Filename)
	case e.Filename == "":
		return fmt.Sprintf("installation '%s' doesn't exist", e.Installation)
	default:
		return fmt.Sprintf("file '%s' doesn't exist in installation '%s'", e.Filename, e.Installation)
	}
}

func (e *LookupError) Unwrap() error { return e.Err }

// StorageFault wraps an unexpected filesystem failure such as a permission or I/O error.
type StorageFault struct {
	Op           string
	Installation string
	Filename     string
	Err          error
}

func (e *StorageFault) Error() string {
	target := fmt.Sprintf("installation '%s'", e.Installation)
	switch {
	case e.Installation == "":
		target = "backup root"
	case e.Filename != "":
		target = fmt.Sprintf("'%s' in installation '%s'", e.Filename, e.Installation)
	}
	return fmt.Sprintf("failed to %s %s: %v", e.Op, target, stripPath(e.Err))
}

func (e *StorageFault) Unwrap() error { return e.Err }

func notFound(installation, filename string) error {
	return &LookupError{Installation: installation, Filename: filename, Err: ErrNotFound}
}

func invalidState(installation, filename string) error {
	return &LookupError{Installation: installation, Filename: filename, Err: ErrInvalidState}
}

func storageFault(op, installation, filename string, err error) error {
	return &StorageFault{Op: op, Installation: installation, Filename: filename, Err: err}
}

// stripPath drops the absolute path carried by *fs.PathError.
func stripPath(err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err
	}
	return err
}
