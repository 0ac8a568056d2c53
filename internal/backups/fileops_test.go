package backups

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pandeptwidyaop/nodered-backups/internal/validation"
)

func TestResolvePath(t *testing.T) {
	root := t.TempDir()
	want := writeBackup(t, root, "kitchen", "flows.json", 0)

	path, err := NewFileOps(root).ResolvePath(context.Background(), "kitchen", "flows.json")
	require.NoError(t, err)
	assert.Equal(t, want, path)
}

func TestResolvePath_Errors(t *testing.T) {
	root := t.TempDir()
	writeBackup(t, root, "kitchen", "flows.json", 0)
	require.NoError(t, os.Mkdir(filepath.Join(root, "kitchen", "x.json"), 0o755))

	tests := []struct {
		name         string
		installation string
		filename     string
		wantErr      error
	}{
		{"missing installation", "garage", "flows.json", ErrNotFound},
		{"missing file", "kitchen", "other.json", ErrNotFound},
		{"directory named like a backup", "kitchen", "x.json", ErrInvalidState},
		{"traversal in installation", "..", "flows.json", validation.ErrInvalidName},
		{"separator in filename", "kitchen", "a/b.json", validation.ErrInvalidName},
		{"wrong extension", "kitchen", "flows.txt", validation.ErrInvalidName},
	}

	ops := NewFileOps(root)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ops.ResolvePath(context.Background(), tt.installation, tt.filename)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestResolvePath_ErrorDoesNotLeakRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "kitchen"), 0o755))

	_, err := NewFileOps(root).ResolvePath(context.Background(), "kitchen", "gone.json")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), root)
	assert.Equal(t, "file 'gone.json' doesn't exist in installation 'kitchen'", err.Error())
}

func TestOpenForRead(t *testing.T) {
	root := t.TempDir()
	writeBackup(t, root, "kitchen", "flows.json", 7)

	download, err := NewFileOps(root).OpenForRead(context.Background(), "kitchen", "flows.json")
	require.NoError(t, err)
	defer func() { _ = download.Close() }()

	body, err := io.ReadAll(download.File)
	require.NoError(t, err)

	assert.Equal(t, `{"flows":[]}`, string(body))
	assert.Equal(t, "flows.json", download.Filename)
	assert.Equal(t, ContentType, download.ContentType)
	assert.Equal(t, int64(len(body)), download.Size)
	assert.True(t, download.ModifiedAt.Equal(baseTime.Add(7*time.Second)))
}

func TestOpenForRead_NotFound(t *testing.T) {
	_, err := NewFileOps(t.TempDir()).OpenForRead(context.Background(), "kitchen", "flows.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	root := t.TempDir()
	path := writeBackup(t, root, "kitchen", "flows.json", 0)

	ops := NewFileOps(root)
	deletedAt := time.Date(2024, 5, 5, 10, 0, 0, 0, time.UTC)
	ops.now = func() time.Time { return deletedAt }

	receipt, err := ops.Delete(context.Background(), "kitchen", "flows.json")
	require.NoError(t, err)
	assert.Equal(t, "kitchen", receipt.Installation)
	assert.Equal(t, "flows.json", receipt.Filename)
	assert.Equal(t, deletedAt, receipt.DeletedAt)

	_, err = os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = ops.ResolvePath(context.Background(), "kitchen", "flows.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete_InvalidState(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "kitchen", "x.json"), 0o755))

	_, err := NewFileOps(root).Delete(context.Background(), "kitchen", "x.json")
	assert.ErrorIs(t, err, ErrInvalidState)

	_, statErr := os.Stat(filepath.Join(root, "kitchen", "x.json"))
	assert.NoError(t, statErr)
}

func TestDelete_Concurrent(t *testing.T) {
	root := t.TempDir()
	writeBackup(t, root, "kitchen", "flows.json", 0)
	ops := NewFileOps(root)

	const callers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		notFounds int
	)

	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := ops.Delete(context.Background(), "kitchen", "flows.json")

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrNotFound):
				notFounds++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, callers-1, notFounds)
}

func TestStorageFault_Message(t *testing.T) {
	err := storageFault("delete", "kitchen", "flows.json", &os.PathError{Op: "remove", Path: "/srv/backups/kitchen/flows.json", Err: os.ErrPermission})

	assert.Equal(t, "failed to delete 'flows.json' in installation 'kitchen': permission denied", err.Error())
	assert.ErrorIs(t, err, os.ErrPermission)

	var fault *StorageFault
	require.True(t, errors.As(err, &fault))
	assert.Equal(t, "delete", fault.Op)
}

func TestDelete_FilesystemFaultIsStorageFault(t *testing.T) {
	root := t.TempDir()
	writeBackup(t, root, "kitchen", "flows.json", 0)
	tooLong := strings.Repeat("a", 300) + ".json"

	_, err := NewFileOps(root).Delete(context.Background(), "kitchen", tooLong)
	require.Error(t, err)

	var fault *StorageFault
	require.True(t, errors.As(err, &fault), "expected StorageFault, got %T: %v", err, err)
	assert.Equal(t, "kitchen", fault.Installation)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NotContains(t, err.Error(), root)

	assert.FileExists(t, filepath.Join(root, "kitchen", "flows.json"))
}
