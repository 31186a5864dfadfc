package engine

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/leeforge/glideformat/concurrency"
	"github.com/leeforge/glideformat/errors"
	"github.com/leeforge/glideformat/json"
	"github.com/leeforge/glideformat/logging"
	"github.com/leeforge/glideformat/metrics"
	"github.com/leeforge/glideformat/preset"
	"github.com/leeforge/glideformat/storage"
)

const (
	opMakeImage        = "make_image"
	opOutputImage      = "output_image"
	opGetImageResponse = "get_image_response"
	opDeleteCache      = "delete_cache"
)

// Server is a Glide-style image server over a source and a cache store.
// It is safe for concurrent use.
type Server struct {
	source storage.Filesystem
	cache  storage.Filesystem

	sourcePathPrefix        string
	cachePathPrefix         string
	groupCacheInFolders     bool
	cacheWithFileExtensions bool
	defaults                preset.Params
	cacheMaxAge             time.Duration

	pipeline *Pipeline
	logger   logging.Logger
	metrics  *metrics.Collector
	now      func() time.Time

	renders concurrency.Group[string]
	slots   *concurrency.Semaphore
}

// New validates cfg and builds a Server.
func New(cfg Config) (*Server, error) {
	if err := cfg.applyDefaults(); err != nil {
		return nil, errors.WrapWithType(err, errors.ErrorTypeInternal, "failed to apply engine defaults")
	}
	if err := validator.Struct(&cfg); err != nil {
		return nil, configError(err)
	}

	return &Server{
		source:                  cfg.Source,
		cache:                   cfg.Cache,
		sourcePathPrefix:        strings.Trim(cfg.SourcePathPrefix, "/"),
		cachePathPrefix:         strings.Trim(cfg.CachePathPrefix, "/"),
		groupCacheInFolders:     cfg.GroupCacheInFolders,
		cacheWithFileExtensions: cfg.CacheWithFileExtensions,
		defaults:                cfg.Defaults.Clone(),
		cacheMaxAge:             cfg.CacheMaxAge,
		pipeline:                NewPipeline(cfg.MaxImageSize),
		logger:                  cfg.Logger.Named("engine"),
		metrics:                 cfg.Metrics,
		now:                     cfg.Clock,
		slots:                   concurrency.NewSemaphore(cfg.MaxConcurrentRenders),
	}, nil
}

func (s *Server) Source() storage.Filesystem { return s.source }
func (s *Server) Cache() storage.Filesystem  { return s.cache }

// Defaults returns a copy of the default parameters.
func (s *Server) Defaults() preset.Params {
	return s.defaults.Clone()
}

// relativePath trims slashes and URL-decodes path. An empty path is a missing file.
func relativePath(p string) (string, error) {
	p = strings.Trim(p, "/")
	if decoded, err := url.PathUnescape(p); err == nil {
		p = decoded
	}
	if p == "" {
		return "", imageNotFound("", nil).WithMessage("image path missing")
	}
	return p, nil
}

// SourcePath maps a request path to its key in the source store.
func (s *Server) SourcePath(p string) (string, error) {
	rel, err := relativePath(p)
	if err != nil {
		return "", err
	}
	if s.sourcePathPrefix != "" {
		rel = s.sourcePathPrefix + "/" + rel
	}
	return rel, nil
}

// AllParams merges params over the configured defaults.
func (s *Server) AllParams(params preset.Params) preset.Params {
	return s.defaults.Merge(params)
}

// CachePath derives the cache key of a rendered variant: the md5 of the
// source path and the sorted parameters, grouped under the source path when
// folder grouping is on.
func (s *Server) CachePath(p string, params preset.Params) (string, error) {
	rel, err := relativePath(p)
	if err != nil {
		return "", err
	}

	all := s.AllParams(params)
	// signature and preset selectors never change the output
	delete(all, "s")
	delete(all, "p")

	sum := md5.Sum([]byte(rel + "?" + encodeQuery(all)))
	cached := hex.EncodeToString(sum[:])
	if s.groupCacheInFolders {
		cached = rel + "/" + cached
	}
	if s.cachePathPrefix != "" {
		cached = s.cachePathPrefix + "/" + cached
	}
	if s.cacheWithFileExtensions {
		ext, _ := all.String("fm")
		if ext == "" {
			ext = strings.TrimPrefix(path.Ext(rel), ".")
		}
		if ext == "pjpg" {
			ext = "jpg"
		}
		if ext != "" {
			cached += "." + ext
		}
	}
	return cached, nil
}

// encodeQuery renders params as a sorted query string. Non-scalar values are JSON encoded.
func encodeQuery(params preset.Params) string {
	values := url.Values{}
	for _, k := range params.Keys() {
		switch v := params[k].(type) {
		case string, bool, int, int32, int64, uint, uint32, uint64, float32, float64:
			values.Set(k, fmt.Sprint(v))
		case nil:
			values.Set(k, "")
		default:
			data, err := json.Marshal(v)
			if err != nil {
				values.Set(k, fmt.Sprint(v))
				continue
			}
			values.Set(k, string(data))
		}
	}
	return values.Encode()
}

func (s *Server) CacheFileExists(ctx context.Context, p string, params preset.Params) (bool, error) {
	cachePath, err := s.CachePath(p, params)
	if err != nil {
		return false, err
	}
	return s.cache.Has(ctx, cachePath)
}

func (s *Server) SourceFileExists(ctx context.Context, p string) (bool, error) {
	sourcePath, err := s.SourcePath(p)
	if err != nil {
		return false, err
	}
	return s.source.Has(ctx, sourcePath)
}

// DeleteCache removes every cached variant of a source image. It requires folder grouping.
func (s *Server) DeleteCache(ctx context.Context, p string) error {
	if !s.groupCacheInFolders {
		return errors.New(errors.ErrorTypeInvalid, "deleting cached image manipulations is not possible when grouping cache into folders is disabled").
			WithHTTPStatus(http.StatusBadRequest)
	}
	rel, err := relativePath(p)
	if err != nil {
		return err
	}
	dir := rel
	if s.cachePathPrefix != "" {
		dir = s.cachePathPrefix + "/" + rel
	}
	if err := s.cache.DeleteDir(ctx, dir); err != nil {
		s.metrics.Failed(opDeleteCache)
		return err
	}
	return nil
}

// MakeImage renders the image unless the variant is already cached, and
// returns its cache path. Concurrent calls for the same variant share one render.
func (s *Server) MakeImage(ctx context.Context, p string, params preset.Params) (string, error) {
	cachePath, err := s.makeImage(ctx, p, params)
	if err != nil {
		s.metrics.Failed(opMakeImage)
		return "", err
	}
	return cachePath, nil
}

func (s *Server) makeImage(ctx context.Context, p string, params preset.Params) (string, error) {
	cachePath, err := s.CachePath(p, params)
	if err != nil {
		return "", err
	}
	sourcePath, err := s.SourcePath(p)
	if err != nil {
		return "", err
	}

	key := cachePath
	result, err, _ := s.renders.Do(key, func() (string, error) {
		hit, err := s.cache.Has(ctx, key)
		if err != nil {
			return "", err
		}
		s.metrics.CacheLookup(hit)
		if !hit {
			if err := s.render(ctx, sourcePath, key, s.AllParams(params)); err != nil {
				return "", err
			}
		}
		return key, nil
	})
	return result, err
}

func (s *Server) render(ctx context.Context, sourcePath, cachePath string, params preset.Params) error {
	data, err := s.source.Read(ctx, sourcePath)
	if stderrors.Is(err, storage.ErrFileNotFound) {
		return imageNotFound(sourcePath, err)
	}
	if err != nil {
		return err
	}
	m, err := ParseManipulation(params)
	if err != nil {
		return err
	}

	if err := s.slots.Acquire(ctx); err != nil {
		return err
	}
	start := time.Now()
	out, format, err := func() ([]byte, string, error) {
		defer s.slots.Release()
		return s.run(data, m)
	}()
	if err != nil {
		return undecodable(sourcePath, err)
	}

	if err := s.cache.Write(ctx, cachePath, out); err != nil {
		s.logger.Warn("cache write failed",
			zap.String("source", sourcePath),
			zap.String("cache", cachePath),
			zap.Error(err))
		return err
	}

	took := time.Since(start)
	s.metrics.Rendered(format, took, len(out))
	s.logger.Debug("image rendered",
		zap.String("source", sourcePath),
		zap.String("cache", cachePath),
		zap.String("format", format),
		zap.Int("bytes", len(out)),
		zap.Duration("took", took))
	return nil
}

func (s *Server) run(data []byte, m *Manipulation) ([]byte, string, error) {
	img, err := decode(data, m.Orientation == "auto")
	if err != nil {
		return nil, "", err
	}
	img = s.pipeline.Run(img, m)

	format := m.Format
	if format == "" {
		format = sourceFormat(data)
	}
	var buf bytes.Buffer
	if err := encode(&buf, img, format, m.Quality); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), format, nil
}

// GetImageResponse renders the image and loads it from the cache as a Response.
func (s *Server) GetImageResponse(ctx context.Context, p string, params preset.Params) (*Response, error) {
	resp, err := s.getImageResponse(ctx, p, params)
	if err != nil {
		s.metrics.Failed(opGetImageResponse)
		return nil, err
	}
	return resp, nil
}

func (s *Server) getImageResponse(ctx context.Context, p string, params preset.Params) (*Response, error) {
	cachePath, err := s.makeImage(ctx, p, params)
	if err != nil {
		return nil, err
	}
	body, err := s.cache.Read(ctx, cachePath)
	if err != nil {
		return nil, err
	}
	info, err := s.cache.Stat(ctx, cachePath)
	if err != nil {
		return nil, err
	}
	return newResponse(cachePath, info.MimeType, body, info.LastModified, s.now(), s.cacheMaxAge), nil
}

// OutputImage renders the image and streams it to w, setting the response
// headers first when w is an http.ResponseWriter.
func (s *Server) OutputImage(ctx context.Context, w io.Writer, p string, params preset.Params) error {
	resp, err := s.getImageResponse(ctx, p, params)
	if err != nil {
		s.metrics.Failed(opOutputImage)
		return err
	}
	if hw, ok := w.(http.ResponseWriter); ok {
		h := hw.Header()
		for k, v := range resp.Header() {
			h[k] = v
		}
	}
	if _, err := resp.WriteTo(w); err != nil {
		s.metrics.Failed(opOutputImage)
		return err
	}
	return nil
}
