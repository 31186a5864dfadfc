package engine

import (
	"time"

	"github.com/creasty/defaults"

	"github.com/leeforge/glideformat/logging"
	"github.com/leeforge/glideformat/metrics"
	"github.com/leeforge/glideformat/preset"
	"github.com/leeforge/glideformat/storage"
)

// Config configures a Server. Source and Cache are required.
type Config struct {
	Source storage.Filesystem `validate:"required"`
	Cache  storage.Filesystem `validate:"required"`

	SourcePathPrefix string
	CachePathPrefix  string

	// GroupCacheInFolders stores every variant of a source below a folder
	// named after it, which DeleteCache relies on. NewConfig enables it.
	GroupCacheInFolders bool
	// CacheWithFileExtensions appends the output format to cache paths.
	CacheWithFileExtensions bool

	// Defaults are merged under the parameters of every request.
	Defaults preset.Params

	// MaxImageSize caps output width*height; larger requests are scaled down. 0 disables it.
	MaxImageSize int `validate:"gte=0"`

	// MaxConcurrentRenders bounds simultaneous decode/encode work. 0 means unbounded.
	MaxConcurrentRenders int `validate:"gte=0"`

	// CacheMaxAge is advertised through Cache-Control and Expires.
	CacheMaxAge time.Duration `default:"8760h" validate:"gte=0"`

	Logger  logging.Logger
	Metrics *metrics.Collector
	Clock   func() time.Time
}

// NewConfig returns a Config over source and cache with cache grouping on.
func NewConfig(source, cache storage.Filesystem) Config {
	return Config{
		Source:              source,
		Cache:               cache,
		GroupCacheInFolders: true,
	}
}

func (c *Config) applyDefaults() error {
	if err := defaults.Set(c); err != nil {
		return err
	}
	if c.Logger == nil {
		c.Logger = logging.NewNop()
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	return nil
}
