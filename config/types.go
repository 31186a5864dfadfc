package config

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/leeforge/glideformat/logging"
	"github.com/leeforge/glideformat/preset"
)

// Options controls where configuration is read from.
type Options struct {
	// File, when set, names the primary file directly and overrides BasePath, FileName and FileType.
	File string

	BasePath  string
	FileName  string
	FileType  string
	EnvPrefix string

	// WatchAble reloads the configuration when one of its files changes.
	WatchAble bool
	OnChange  func(e fsnotify.Event)

	Logger logging.Logger
}

// Config is a merged view over the base file, its env-mode and local
// variants, and environment overrides.
type Config struct {
	mu       sync.RWMutex
	instance *viper.Viper
	opts     Options
	files    []string
	presets  map[string]preset.Params

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}
