// Package backups enumerates, resolves and removes backup files stored under a
// root directory laid out as <root>/<installation>/<file>.json.
package backups

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/pandeptwidyaop/nodered-backups/internal/models"
	"github.com/pandeptwidyaop/nodered-backups/internal/validation"
)

// Catalog lists installations and their backup files. It holds no state
// besides the root, so every call reflects the directory as it is right now.
type Catalog struct {
	root string
}

// NewCatalog creates a Catalog rooted at root.
func NewCatalog(root string) *Catalog {
	return &Catalog{root: root}
}

// Root returns the backup root directory.
func (c *Catalog) Root() string {
	return c.root
}

// ListInstallations returns the installations sorted by name. A missing root
// yields an empty list.
func (c *Catalog) ListInstallations(ctx context.Context) ([]models.Installation, error) {
	installations := make([]models.Installation, 0)

	for entry, err := range dirEntries(ctx, c.root) {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return installations, nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, storageFault("list", "", "", err)
		}

		if !isDirEntry(c.root, entry) {
			continue
		}
		// a directory we could never address through the API is not listed
		if validation.ValidateName(entry.Name()) != nil {
			continue
		}
		installations = append(installations, models.Installation{Name: entry.Name()})
	}

	sort.Slice(installations, func(i, j int) bool {
		return installations[i].Name < installations[j].Name
	})

	return installations, nil
}

// ListFiles returns the backup files of one installation, newest first.
func (c *Catalog) ListFiles(ctx context.Context, installation string) ([]models.BackupFile, error) {
	if err := validation.ValidateName(installation); err != nil {
		return nil, err
	}

	dir := filepath.Join(c.root, installation)
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(installation, "")
		}
		return nil, storageFault("open", installation, "", err)
	}
	if !info.IsDir() {
		return nil, notFound(installation, "")
	}

	files := make([]models.BackupFile, 0)
	for entry, err := range dirEntries(ctx, dir) {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, notFound(installation, "")
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, storageFault("list", installation, "", err)
		}

		file, ok := backupFile(dir, installation, entry)
		if ok {
			files = append(files, file)
		}
	}

	sortNewestFirst(files)
	return files, nil
}

// ListAllFiles returns the backup files of every installation, newest first.
// An installation that cannot be listed is skipped and logged.
func (c *Catalog) ListAllFiles(ctx context.Context) ([]models.BackupFile, error) {
	installations, err := c.ListInstallations(ctx)
	if err != nil {
		return nil, err
	}
	return c.collect(ctx, installations)
}

// collect lists each installation in turn. Installations may disappear
// between ListInstallations and their own listing.
func (c *Catalog) collect(ctx context.Context, installations []models.Installation) ([]models.BackupFile, error) {
	all := make([]models.BackupFile, 0)
	for _, inst := range installations {
		files, err := c.ListFiles(ctx, inst.Name)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			log.Warn().Err(err).Str("installation", inst.Name).Msg("Skipping installation while listing all backups")
			continue
		}
		all = append(all, files...)
	}

	sortNewestFirst(all)
	return all, nil
}

// ResolveLatest returns the most recently modified backup file of an installation.
func (c *Catalog) ResolveLatest(ctx context.Context, installation string) (models.BackupFile, error) {
	files, err := c.ListFiles(ctx, installation)
	if err != nil {
		return models.BackupFile{}, err
	}
	if len(files) == 0 {
		return models.BackupFile{}, &LookupError{
			Installation: installation,
			Detail:       "no JSON files in installation '" + installation + "'",
			Err:          ErrNotFound,
		}
	}
	return files[0], nil
}

// backupFile converts a directory entry into a BackupFile when it is a
// regular .json file. Symlinks count when they resolve to a regular file.
func backupFile(dir, installation string, entry fs.DirEntry) (models.BackupFile, bool) {
	name := entry.Name()
	if !validation.IsBackupFilename(name) {
		return models.BackupFile{}, false
	}
	if entry.IsDir() {
		return models.BackupFile{}, false
	}

	// Stat rather than entry.Info so symlinks are followed; the entry may also
	// have vanished since the directory was read.
	info, err := os.Stat(filepath.Join(dir, name))
	if err != nil || !info.Mode().IsRegular() {
		return models.BackupFile{}, false
	}

	return models.BackupFile{
		Installation: installation,
		Filename:     name,
		Size:         info.Size(),
		ModifiedAt:   info.ModTime(),
	}, true
}

// sortNewestFirst orders by modification time descending, then installation
// and filename ascending so equal timestamps keep a stable order.
func sortNewestFirst(files []models.BackupFile) {
	sort.Slice(files, func(i, j int) bool {
		a, b := files[i], files[j]
		if !a.ModifiedAt.Equal(b.ModifiedAt) {
			return a.ModifiedAt.After(b.ModifiedAt)
		}
		if a.Installation != b.Installation {
			return a.Installation < b.Installation
		}
		return a.Filename < b.Filename
	})
}
