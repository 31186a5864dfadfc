package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/leeforge/glideformat/utils"
)

// Local stores files below a directory on the local filesystem.
type Local struct {
	basePath string
}

// NewLocal creates a local store rooted at basePath, creating the directory if needed.
func NewLocal(basePath string) (*Local, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &Local{basePath: basePath}, nil
}

func (l *Local) Name() string {
	return "local"
}

func (l *Local) fullPath(p string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(CleanPath(p)))
}

func (l *Local) Has(ctx context.Context, p string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	isDir, exists, err := utils.Exists(l.fullPath(p))
	if err != nil {
		return false, storageError("stat", p, err)
	}
	return exists && !isDir, nil
}

func (l *Local) Read(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(l.fullPath(p))
	if os.IsNotExist(err) {
		return nil, fileNotFound(p)
	}
	if err != nil {
		return nil, storageError("read", p, err)
	}
	return data, nil
}

// Write stores data through a temporary file renamed into place, so readers
// never observe a partially written image.
func (l *Local) Write(ctx context.Context, p string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath := l.fullPath(p)
	dir := filepath.Dir(fullPath)
	if err := utils.CreateDir(dir); err != nil {
		return storageError("mkdir", p, err)
	}

	tmp := filepath.Join(dir, "."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return storageError("write", p, err)
	}
	if err := os.Rename(tmp, fullPath); err != nil {
		_ = os.Remove(tmp)
		return storageError("rename", p, err)
	}
	return nil
}

func (l *Local) Delete(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(l.fullPath(p))
	if err != nil && !os.IsNotExist(err) {
		return storageError("delete", p, err)
	}
	return nil
}

func (l *Local) DeleteDir(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if CleanPath(dir) == "" {
		return storageError("delete", dir, fmt.Errorf("refusing to delete the storage root"))
	}
	if err := os.RemoveAll(l.fullPath(dir)); err != nil {
		return storageError("delete", dir, err)
	}
	return nil
}

func (l *Local) Stat(ctx context.Context, p string) (FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return FileInfo{}, err
	}
	fullPath := l.fullPath(p)
	info, err := os.Stat(fullPath)
	if os.IsNotExist(err) || (err == nil && info.IsDir()) {
		return FileInfo{}, fileNotFound(p)
	}
	if err != nil {
		return FileInfo{}, storageError("stat", p, err)
	}

	mime, err := mimetype.DetectFile(fullPath)
	if err != nil {
		return FileInfo{}, storageError("stat", p, err)
	}

	return FileInfo{
		Path:         CleanPath(p),
		Size:         info.Size(),
		LastModified: info.ModTime(),
		MimeType:     mime.String(),
	}, nil
}
