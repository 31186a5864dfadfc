package storage

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/leeforge/glideformat/errors"
)

// CodeFileNotFound is the error code of ErrFileNotFound.
const CodeFileNotFound = "FILE_NOT_FOUND"

// ErrFileNotFound is matched (errors.Is) by every missing-file error of this package.
var ErrFileNotFound = errors.New(errors.ErrorTypeNotFound, "file not found").WithCode(CodeFileNotFound)

// Filesystem is a byte-addressable file store used as an image source or cache.
// Paths are slash separated and relative to the store's root.
type Filesystem interface {
	// Name identifies the adapter (local, memory, oss, redis).
	Name() string
	// Has reports whether a file exists at path.
	Has(ctx context.Context, path string) (bool, error)
	// Read returns the file contents, or ErrFileNotFound.
	Read(ctx context.Context, path string) ([]byte, error)
	// Write creates or replaces the file at path.
	Write(ctx context.Context, path string, data []byte) error
	// Delete removes a file. Deleting a missing file is not an error.
	Delete(ctx context.Context, path string) error
	// DeleteDir removes every file below dir.
	DeleteDir(ctx context.Context, dir string) error
	// Stat returns file metadata, or ErrFileNotFound.
	Stat(ctx context.Context, path string) (FileInfo, error)
}

// FileInfo describes a stored file.
type FileInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
	MimeType     string
}

func fileNotFound(p string) *errors.AppError {
	return errors.NewNotFound("file", p).
		WithCode(CodeFileNotFound).
		WithMessage(fmt.Sprintf("file %s not found", p)).
		WithDetail("path", p)
}

func storageError(op, p string, err error) *errors.AppError {
	return errors.WrapWithType(err, errors.ErrorTypeExternal, fmt.Sprintf("storage %s %s: %v", op, p, err)).
		WithCode(errors.CodeExternalError).
		WithDetail("path", p).
		WithHTTPStatus(http.StatusInternalServerError)
}

// CleanPath normalises p to a relative slash path without "..".
func CleanPath(p string) string {
	return strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(p, "\\", "/")), "/")
}

func dirPrefix(dir string) string {
	dir = CleanPath(dir)
	if dir == "" {
		return ""
	}
	return dir + "/"
}
