package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/creasty/defaults"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/leeforge/glideformat/env_mode"
	"github.com/leeforge/glideformat/logging"
	"github.com/leeforge/glideformat/utils"
)

// CONFIG_PATH_KEY overrides the default directory searched for configuration files.
const CONFIG_PATH_KEY = "GLIDEFORMAT_CONFIG_PATH"

func DefaultOptions() Options {
	basePath := os.Getenv(CONFIG_PATH_KEY)
	if basePath == "" {
		basePath = "config"
	}

	return Options{
		BasePath:  basePath,
		FileName:  "glideformat",
		FileType:  "yaml",
		EnvPrefix: "GLIDEFORMAT",
	}
}

func DevOptions() Options {
	opts := DefaultOptions()
	opts.WatchAble = true
	return opts
}

func (o Options) normalize() Options {
	if o.File != "" {
		ext := filepath.Ext(o.File)
		o.BasePath = filepath.Dir(o.File)
		o.FileName = strings.TrimSuffix(filepath.Base(o.File), ext)
		o.FileType = strings.TrimPrefix(ext, ".")
	}
	if o.FileType == "" {
		o.FileType = "yaml"
	}
	if o.Logger == nil {
		o.Logger = logging.Global()
	}
	return o
}

// Load reads the configuration described by opts. At least one file must exist.
func Load(opts Options) (*Config, error) {
	opts = opts.normalize()

	instance, files, err := read(opts)
	if err != nil {
		return nil, err
	}
	presets, err := readPresets(files)
	if err != nil {
		return nil, err
	}

	c := &Config{
		instance: instance,
		opts:     opts,
		files:    files,
		presets:  presets,
	}
	if opts.WatchAble {
		if err := c.watch(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Files lists the files merged into the current view, lowest priority first.
func (c *Config) Files() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.files...)
}

// Bind decodes the configuration into instance, which must be a pointer.
func (c *Config) Bind(instance any) error {
	if c == nil || c.instance == nil {
		return fmt.Errorf("config instance is nil")
	}
	if instance == nil {
		return fmt.Errorf("target instance is nil")
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := c.instance.Unmarshal(instance); err != nil {
		return fmt.Errorf("failed to unmarshal config (path: %s, file: %s.%s): %w",
			c.opts.BasePath, c.opts.FileName, c.opts.FileType, err)
	}
	return nil
}

// BindWithDefaults applies `default` tags before decoding, so values present
// in the files, zero values included, win over the defaults.
func (c *Config) BindWithDefaults(instance any) error {
	if err := defaults.Set(instance); err != nil {
		return fmt.Errorf("failed to set defaults: %w", err)
	}
	return c.Bind(instance)
}

func (c *Config) Get(key string) any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.instance.Get(key)
}

func (c *Config) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.instance.Set(key, value)
}

// Export writes the merged configuration to path; the format follows its extension.
func (c *Config) Export(path string) error {
	if path == "" {
		return fmt.Errorf("export path is empty")
	}
	if err := utils.CreateDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.instance.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config to %s: %w", path, err)
	}
	return nil
}

// Close stops watching. It is safe to call on an unwatched Config.
func (c *Config) Close() error {
	if c.watcher == nil {
		return nil
	}
	close(c.done)
	err := c.watcher.Close()
	c.wg.Wait()
	c.watcher = nil
	return err
}

func (c *Config) reload() error {
	instance, files, err := read(c.opts)
	if err != nil {
		return err
	}
	presets, err := readPresets(files)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.instance = instance
	c.files = files
	c.presets = presets
	c.mu.Unlock()
	return nil
}

func (c *Config) watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	// Watching the directory sees variants created after start-up and editors that replace files.
	if err := watcher.Add(c.opts.BasePath); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", c.opts.BasePath, err)
	}

	tracked := make(map[string]struct{})
	for _, path := range candidatePaths(c.opts) {
		tracked[filepath.Clean(path)] = struct{}{}
	}

	c.watcher = watcher
	c.done = make(chan struct{})
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-c.done:
				return
			case e, ok := <-watcher.Events:
				if !ok {
					return
				}
				if _, ok := tracked[filepath.Clean(e.Name)]; !ok || e.Op == fsnotify.Chmod {
					continue
				}
				if err := c.reload(); err != nil {
					c.opts.Logger.Warn("config reload failed", zap.String("file", e.Name), zap.Error(err))
					continue
				}
				c.opts.Logger.Info("config reloaded", zap.String("file", e.Name), zap.String("op", e.Op.String()))
				if c.opts.OnChange != nil {
					c.opts.OnChange(e)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				c.opts.Logger.Warn("config watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}

func read(opts Options) (*viper.Viper, []string, error) {
	configPaths := existingPaths(opts)
	if len(configPaths) == 0 {
		return nil, nil, fmt.Errorf("no configuration file %s.%s found in %s", opts.FileName, opts.FileType, opts.BasePath)
	}

	v := viper.New()
	v.SetConfigType(opts.FileType)

	for _, configPath := range configPaths {
		layer := viper.New()
		layer.SetConfigFile(configPath)
		if err := layer.ReadInConfig(); err != nil {
			return nil, nil, fmt.Errorf("error reading config file %s: %w", configPath, err)
		}
		if err := v.MergeConfigMap(layer.AllSettings()); err != nil {
			return nil, nil, fmt.Errorf("error merging config file %s: %w", configPath, err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	if opts.EnvPrefix != "" {
		v.SetEnvPrefix(opts.EnvPrefix)
	}
	v.AutomaticEnv()

	applyEnvOverrides(v, opts.EnvPrefix)

	return v, configPaths, nil
}

// applyEnvOverrides lets environment variables win over file values for every
// known key: engine.max_image_size -> GLIDEFORMAT_ENGINE_MAX_IMAGE_SIZE.
func applyEnvOverrides(v *viper.Viper, envPrefix string) {
	replacer := strings.NewReplacer(".", "_", "-", "_")

	for _, key := range v.AllKeys() {
		envKey := strings.ToUpper(replacer.Replace(key))
		if envPrefix != "" {
			envKey = envPrefix + "_" + envKey
		}
		if envValue := os.Getenv(envKey); envValue != "" {
			v.Set(key, envValue)
		}
	}
}

// fileNames lists the variants of name in load order. Later files override earlier ones.
func fileNames(name string) []string {
	env := env_mode.Mode()
	names := []string{
		name,
		name + ".local",
		fmt.Sprintf("%s.%s", name, env),
		fmt.Sprintf("%s.%s.local", name, env),
	}

	var aliases []string
	switch env {
	case env_mode.DevMode:
		aliases = []string{"dev"}
	case env_mode.ProMode:
		aliases = []string{"pro", "prod"}
	}
	for _, alias := range aliases {
		names = append(names, fmt.Sprintf("%s.%s", name, alias), fmt.Sprintf("%s.%s.local", name, alias))
	}
	return names
}

func candidatePaths(opts Options) []string {
	names := fileNames(opts.FileName)
	paths := make([]string, 0, len(names))
	for _, name := range names {
		paths = append(paths, filepath.Join(opts.BasePath, fmt.Sprintf("%s.%s", name, opts.FileType)))
	}
	return paths
}

func existingPaths(opts Options) (configFiles []string) {
	for _, file := range candidatePaths(opts) {
		if isDir, exists, _ := utils.Exists(file); exists && !isDir {
			configFiles = append(configFiles, file)
		}
	}
	return configFiles
}
