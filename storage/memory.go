package storage

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// Memory keeps files in process memory. It backs tests and small caches.
type Memory struct {
	files map[string]memoryFile
	mu    sync.RWMutex
	now   func() time.Time
}

type memoryFile struct {
	data    []byte
	modTime time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		files: make(map[string]memoryFile),
		now:   time.Now,
	}
}

func (m *Memory) Name() string {
	return "memory"
}

func (m *Memory) Has(ctx context.Context, p string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.files[CleanPath(p)]
	return ok, nil
}

func (m *Memory) Read(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.files[CleanPath(p)]
	if !ok {
		return nil, fileNotFound(p)
	}
	return append([]byte(nil), f.data...), nil
}

func (m *Memory) Write(ctx context.Context, p string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[CleanPath(p)] = memoryFile{
		data:    append([]byte(nil), data...),
		modTime: m.now(),
	}
	return nil
}

func (m *Memory) Delete(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.files, CleanPath(p))
	return nil
}

func (m *Memory) DeleteDir(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	prefix := dirPrefix(dir)
	m.mu.Lock()
	defer m.mu.Unlock()

	for p := range m.files {
		if strings.HasPrefix(p, prefix) {
			delete(m.files, p)
		}
	}
	return nil
}

func (m *Memory) Stat(ctx context.Context, p string) (FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return FileInfo{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	key := CleanPath(p)
	f, ok := m.files[key]
	if !ok {
		return FileInfo{}, fileNotFound(p)
	}
	return FileInfo{
		Path:         key,
		Size:         int64(len(f.data)),
		LastModified: f.modTime,
		MimeType:     mimetype.Detect(f.data).String(),
	}, nil
}

// Len returns the number of stored files.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}
