package engine

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Response is a rendered image ready to be sent. It can be served directly
// (http.Handler) or streamed to any writer (io.WriterTo).
type Response struct {
	Path          string
	ContentType   string
	ContentLength int64
	CacheControl  string
	Expires       time.Time
	LastModified  time.Time
	Body          []byte
}

func newResponse(path, contentType string, body []byte, modified, now time.Time, maxAge time.Duration) *Response {
	return &Response{
		Path:          path,
		ContentType:   contentType,
		ContentLength: int64(len(body)),
		CacheControl:  fmt.Sprintf("max-age=%d, public", int64(maxAge/time.Second)),
		Expires:       now.Add(maxAge),
		LastModified:  modified,
		Body:          body,
	}
}

// Header returns the HTTP headers describing the response.
func (r *Response) Header() http.Header {
	h := http.Header{}
	r.writeHeaders(h)
	h.Set("Content-Length", strconv.FormatInt(r.ContentLength, 10))
	return h
}

func (r *Response) writeHeaders(h http.Header) {
	h.Set("Content-Type", r.ContentType)
	h.Set("Cache-Control", r.CacheControl)
	h.Set("Expires", r.Expires.UTC().Format(http.TimeFormat))
	if !r.LastModified.IsZero() {
		h.Set("Last-Modified", r.LastModified.UTC().Format(http.TimeFormat))
	}
}

// Reader returns a fresh reader over the body.
func (r *Response) Reader() io.ReadSeeker {
	return bytes.NewReader(r.Body)
}

func (r *Response) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.Body)
	return int64(n), err
}

// ServeHTTP answers conditional and range requests through http.ServeContent.
func (r *Response) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.writeHeaders(w.Header())
	http.ServeContent(w, req, "", r.LastModified, r.Reader())
}
