// Package testing holds test doubles and fixtures shared by the module's tests.
package testing

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/leeforge/glideformat/engine"
	"github.com/leeforge/glideformat/logging"
	"github.com/leeforge/glideformat/preset"
	"github.com/leeforge/glideformat/storage"
)

// Call is one request received by a RecordingEngine.
type Call struct {
	Method string
	Path   string
	Params preset.Params
}

// RecordingEngine is an engine.Engine that records its calls and answers
// with canned results.
type RecordingEngine struct {
	mu    sync.Mutex
	calls []Call

	// CachePath is returned by MakeImage.
	CachePath string
	// Body is written by OutputImage and carried by GetImageResponse.
	Body []byte
	// ContentType of the response, image/jpeg when empty.
	ContentType string
	// Err, when set, is returned by every method.
	Err error
}

var _ engine.Engine = (*RecordingEngine)(nil)

func NewRecordingEngine() *RecordingEngine {
	return &RecordingEngine{
		CachePath: "cached/image.jpg",
		Body:      []byte("image-bytes"),
	}
}

func (e *RecordingEngine) record(method, path string, params preset.Params) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, Call{Method: method, Path: path, Params: params.Clone()})
}

func (e *RecordingEngine) MakeImage(ctx context.Context, path string, params preset.Params) (string, error) {
	e.record("MakeImage", path, params)
	if e.Err != nil {
		return "", e.Err
	}
	return e.CachePath, nil
}

func (e *RecordingEngine) OutputImage(ctx context.Context, w io.Writer, path string, params preset.Params) error {
	e.record("OutputImage", path, params)
	if e.Err != nil {
		return e.Err
	}
	resp := e.response()
	if rw, ok := w.(http.ResponseWriter); ok {
		for k, v := range resp.Header() {
			rw.Header()[k] = v
		}
	}
	_, err := resp.WriteTo(w)
	return err
}

func (e *RecordingEngine) GetImageResponse(ctx context.Context, path string, params preset.Params) (*engine.Response, error) {
	e.record("GetImageResponse", path, params)
	if e.Err != nil {
		return nil, e.Err
	}
	return e.response(), nil
}

func (e *RecordingEngine) response() *engine.Response {
	contentType := e.ContentType
	if contentType == "" {
		contentType = engine.ContentType("jpg")
	}
	return &engine.Response{
		Path:          e.CachePath,
		ContentType:   contentType,
		ContentLength: int64(len(e.Body)),
		CacheControl:  "max-age=31536000, public",
		Expires:       time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
		Body:          e.Body,
	}
}

// Calls returns a copy of the recorded calls.
func (e *RecordingEngine) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Call(nil), e.calls...)
}

func (e *RecordingEngine) Reset() {
	e.mu.Lock()
	e.calls = nil
	e.mu.Unlock()
}

// PNG returns an encoded w×h image with a horizontal gradient.
func PNG(t testing.TB, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 255 / max(w, 1)), G: 96, B: uint8(y * 255 / max(h, 1)), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

// MemoryStore returns an in-memory filesystem holding files.
func MemoryStore(t testing.TB, files map[string][]byte) *storage.Memory {
	t.Helper()
	fs := storage.NewMemory()
	for p, data := range files {
		if err := fs.Write(context.Background(), p, data); err != nil {
			t.Fatalf("seed %s: %v", p, err)
		}
	}
	return fs
}

// ObservedLogger returns a logger whose entries at level and above are captured.
func ObservedLogger(level zapcore.Level) (logging.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return logging.FromZap(zap.New(core)), logs
}
