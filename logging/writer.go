package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

var stdout io.Writer = os.Stdout

// levelWriter writes one level's entries to <Director>/<date>/<level>.log,
// switching files when the date changes. Size-based rotation is lumberjack's.
type levelWriter struct {
	config Config
	level  string
	now    func() time.Time

	mu   sync.Mutex
	date string
	file *lumberjack.Logger
}

func newLevelWriter(config Config, level string) *levelWriter {
	return &levelWriter{
		config: config,
		level:  level,
		now:    time.Now,
	}
}

func (w *levelWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	date := w.now().Format("2006-01-02")
	if w.file == nil || date != w.date {
		if w.file != nil {
			_ = w.file.Close()
		}
		w.file = w.open(date)
		w.date = date
	}
	return w.file.Write(p)
}

func (w *levelWriter) open(date string) *lumberjack.Logger {
	dir := filepath.Join(w.config.Director, date)
	if err := os.MkdirAll(dir, 0755); err != nil {
		dir = w.config.Director
	}
	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, w.level+".log"),
		MaxSize:    w.config.MaxSize,
		MaxBackups: w.config.MaxBackups,
		MaxAge:     w.config.MaxAge,
		Compress:   w.config.Compress,
		LocalTime:  true,
	}
}

// Sync is a no-op; lumberjack writes straight to the file.
func (w *levelWriter) Sync() error {
	return nil
}

func (w *levelWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

var _ io.WriteCloser = (*levelWriter)(nil)
