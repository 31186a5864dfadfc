package config

import (
	"time"

	"github.com/leeforge/glideformat/engine"
	"github.com/leeforge/glideformat/logging"
	"github.com/leeforge/glideformat/preset"
	"github.com/leeforge/glideformat/storage"
)

// Settings is the full glideformat configuration file.
type Settings struct {
	Logging logging.Config         `mapstructure:"logging" json:"logging" yaml:"logging"`
	Source  storage.ProviderConfig `mapstructure:"source" json:"source" yaml:"source"`
	Cache   storage.ProviderConfig `mapstructure:"cache" json:"cache" yaml:"cache"`
	Engine  EngineSettings         `mapstructure:"engine" json:"engine" yaml:"engine"`

	// Presets are registered at start-up. Names keep the case they have in the files.
	Presets map[string]preset.Params `mapstructure:"presets" json:"presets" yaml:"presets"`
	// AllowOverride lets configured presets replace ones already registered.
	AllowOverride bool `mapstructure:"allow_override" json:"allow_override" yaml:"allow_override"`

	Metrics MetricsSettings `mapstructure:"metrics" json:"metrics" yaml:"metrics"`
}

type EngineSettings struct {
	SourcePathPrefix        string        `mapstructure:"source_path_prefix" json:"source_path_prefix" yaml:"source_path_prefix"`
	CachePathPrefix         string        `mapstructure:"cache_path_prefix" json:"cache_path_prefix" yaml:"cache_path_prefix"`
	GroupCacheInFolders     bool          `mapstructure:"group_cache_in_folders" json:"group_cache_in_folders" yaml:"group_cache_in_folders" default:"true"`
	CacheWithFileExtensions bool          `mapstructure:"cache_with_file_extensions" json:"cache_with_file_extensions" yaml:"cache_with_file_extensions"`
	MaxImageSize            int           `mapstructure:"max_image_size" json:"max_image_size" yaml:"max_image_size"`
	MaxConcurrentRenders    int           `mapstructure:"max_concurrent_renders" json:"max_concurrent_renders" yaml:"max_concurrent_renders"`
	CacheMaxAge             time.Duration `mapstructure:"cache_max_age" json:"cache_max_age" yaml:"cache_max_age" default:"8760h"`
	Defaults                preset.Params `mapstructure:"defaults" json:"defaults" yaml:"defaults"`
}

type MetricsSettings struct {
	Enabled bool `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
}

// Settings decodes the current configuration with defaults applied.
func (c *Config) Settings() (Settings, error) {
	var s Settings
	if err := c.BindWithDefaults(&s); err != nil {
		return Settings{}, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.presets != nil {
		s.Presets = make(map[string]preset.Params, len(c.presets))
		for name, params := range c.presets {
			s.Presets[name] = params.Clone()
		}
	}
	return s, nil
}

// EngineConfig maps the engine section onto an engine.Config over the given stores.
func (s Settings) EngineConfig(source, cache storage.Filesystem) engine.Config {
	e := s.Engine
	return engine.Config{
		Source:                  source,
		Cache:                   cache,
		SourcePathPrefix:        e.SourcePathPrefix,
		CachePathPrefix:         e.CachePathPrefix,
		GroupCacheInFolders:     e.GroupCacheInFolders,
		CacheWithFileExtensions: e.CacheWithFileExtensions,
		Defaults:                e.Defaults,
		MaxImageSize:            e.MaxImageSize,
		MaxConcurrentRenders:    e.MaxConcurrentRenders,
		CacheMaxAge:             e.CacheMaxAge,
	}
}
