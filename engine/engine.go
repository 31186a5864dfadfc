// Package engine renders images held in a source store into a cache store,
// driven by Glide-style manipulation parameters (w, h, fit, fm, ...).
package engine

import (
	"context"
	"io"

	"github.com/leeforge/glideformat/preset"
)

// Engine is the image server consumed by the preset facade.
type Engine interface {
	// MakeImage renders path with params into the cache and returns the cache path.
	MakeImage(ctx context.Context, path string, params preset.Params) (string, error)
	// OutputImage renders path with params and streams the result to w. When
	// w is an http.ResponseWriter the response headers are set first.
	OutputImage(ctx context.Context, w io.Writer, path string, params preset.Params) error
	// GetImageResponse renders path with params and returns a response object for the host to send.
	GetImageResponse(ctx context.Context, path string, params preset.Params) (*Response, error)
}

var _ Engine = (*Server)(nil)
