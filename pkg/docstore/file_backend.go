package docstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileBackend keeps each collection in <dir>/<collection>.json. Updates are
// serialized within one process only.
type FileBackend struct {
	locks
	dir string
}

var (
	_ Backend     = (*FileBackend)(nil)
	_ Quarantiner = (*FileBackend)(nil)
)

func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &FileBackend{dir: dir}, nil
}

func (b *FileBackend) Dir() string {
	return b.dir
}

func (b *FileBackend) Path(collection string) string {
	return filepath.Join(b.dir, collection+".json")
}

func (b *FileBackend) ReadDocument(ctx context.Context, collection string) ([]Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := b.Path(collection)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	members, err := decodeMembers(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	return members, nil
}

// WriteDocument replaces the file through a synced temp file and a rename,
// so readers see either the old or the new document.
func (b *FileBackend) WriteDocument(ctx context.Context, collection string, members []Member) error {
	mu := b.lock(collection)
	mu.Lock()
	defer mu.Unlock()
	return b.writeDocument(ctx, collection, members)
}

func (b *FileBackend) UpdateDocument(ctx context.Context, collection string, fn UpdateFunc) error {
	mu := b.lock(collection)
	mu.Lock()
	defer mu.Unlock()

	members, err := b.ReadDocument(ctx, collection)
	if err != nil {
		return err
	}
	out, write, err := fn(members)
	if err != nil || !write {
		return err
	}
	return b.writeDocument(ctx, collection, out)
}

func (b *FileBackend) writeDocument(ctx context.Context, collection string, members []Member) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodeMembers(members)
	if err != nil {
		return fmt.Errorf("encode %s: %w", collection, err)
	}

	path := b.Path(collection)
	tmp, err := os.CreateTemp(b.dir, collection+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// Quarantine renames the collection file to <file>.corrupt-<unix seconds>.
func (b *FileBackend) Quarantine(ctx context.Context, collection string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	mu := b.lock(collection)
	mu.Lock()
	defer mu.Unlock()

	path := b.Path(collection)
	dest := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
	if err := os.Rename(path, dest); err != nil {
		return "", fmt.Errorf("quarantine %s: %w", path, err)
	}
	return dest, nil
}
