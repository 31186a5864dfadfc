package runtime

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/leeforge/glideformat/config"
	"github.com/leeforge/glideformat/logging"
	"github.com/leeforge/glideformat/preset"
	"github.com/leeforge/glideformat/storage"
	gtesting "github.com/leeforge/glideformat/testing"
)

func testSettings(t *testing.T) config.Settings {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "photos"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "photos", "kayaks.png"), gtesting.PNG(t, 200, 100), 0o644))

	return config.Settings{
		Logging: logging.DefaultConfig(),
		Source: storage.ProviderConfig{
			Type:     storage.ProviderLocal,
			Settings: map[string]any{"root": root},
		},
		Cache: storage.ProviderConfig{Type: storage.ProviderMemory},
		Engine: config.EngineSettings{
			CachePathPrefix:     ".cache",
			GroupCacheInFolders: true,
		},
		Presets: map[string]preset.Params{
			"small": {"w": 50, "fm": "png"},
		},
	}
}

func TestNewSeedsPresets(t *testing.T) {
	logger, logs := gtesting.ObservedLogger(zapcore.InfoLevel)
	ctx := context.Background()

	rt, err := New(ctx, Config{Settings: testSettings(t), Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Shutdown(ctx) })

	assert.Equal(t, []string{"small"}, rt.Server().Registry().Names())
	assert.Equal(t, 1, logs.FilterMessage("runtime started").Len())

	cachePath, err := rt.Server().MakeImage(ctx, "photos/kayaks.png", "small")
	require.NoError(t, err)
	assert.Contains(t, cachePath, ".cache/photos/kayaks.png/")
}

func TestNewMetrics(t *testing.T) {
	s := testSettings(t)
	s.Metrics.Enabled = true
	reg := prometheus.NewRegistry()
	ctx := context.Background()

	rt, err := New(ctx, Config{Settings: s, Logger: logging.NewNop(), Registerer: reg})
	require.NoError(t, err)

	_, err = rt.Server().MakeImage(ctx, "photos/kayaks.png", "small")
	require.NoError(t, err)

	n, err := testutil.GatherAndCount(reg, "glideformat_cache_lookups_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNewFailsOnBadStorage(t *testing.T) {
	s := testSettings(t)
	s.Cache = storage.ProviderConfig{Type: "ftp"}

	_, err := New(context.Background(), Config{Settings: s, Logger: logging.NewNop()})
	require.Error(t, err)
}

func TestNewRejectsInvalidPresetName(t *testing.T) {
	s := testSettings(t)
	s.Presets[""] = preset.Params{"w": 1}

	_, err := New(context.Background(), Config{Settings: s, Logger: logging.NewNop()})
	require.Error(t, err)
}

func TestReload(t *testing.T) {
	logger, logs := gtesting.ObservedLogger(zapcore.InfoLevel)
	ctx := context.Background()
	s := testSettings(t)

	rt, err := New(ctx, Config{Settings: s, Logger: logger})
	require.NoError(t, err)
	before := rt.Server().Engine()

	next := testSettings(t)
	next.Source = s.Source
	next.Presets = map[string]preset.Params{
		"small": {"w": 80},
		"large": {"w": 800},
	}
	require.NoError(t, rt.Reload(ctx, next))

	params, err := rt.Server().GetPreset("small")
	require.NoError(t, err)
	assert.Equal(t, preset.Params{"w": 80}, params)
	assert.ElementsMatch(t, []string{"small", "large"}, rt.Server().Registry().Names())
	assert.Same(t, before, rt.Server().Engine(), "engine kept when its settings are unchanged")
	assert.Equal(t, 0, logs.FilterMessage("storage settings changed, restart to apply").Len())

	next.Engine.CacheWithFileExtensions = true
	require.NoError(t, rt.Reload(ctx, next))
	assert.NotSame(t, before, rt.Server().Engine())
	assert.True(t, rt.Settings().Engine.CacheWithFileExtensions)

	cachePath, err := rt.Server().MakeImage(ctx, "photos/kayaks.png", "large")
	require.NoError(t, err)
	assert.Equal(t, ".png", filepath.Ext(cachePath))
}

func TestReloadWarnsOnStorageChange(t *testing.T) {
	logger, logs := gtesting.ObservedLogger(zapcore.WarnLevel)
	ctx := context.Background()
	s := testSettings(t)

	rt, err := New(ctx, Config{Settings: s, Logger: logger})
	require.NoError(t, err)

	next := s
	next.Cache = storage.ProviderConfig{Type: storage.ProviderLocal}
	require.NoError(t, rt.Reload(ctx, next))
	assert.Equal(t, 1, logs.FilterMessage("storage settings changed, restart to apply").Len())
}

func TestReloadFromConfig(t *testing.T) {
	ctx := context.Background()
	rt, err := New(ctx, Config{Settings: testSettings(t), Logger: logging.NewNop()})
	require.NoError(t, err)

	dir := t.TempDir()
	file := filepath.Join(dir, "glideformat.yaml")
	require.NoError(t, os.WriteFile(file, []byte("presets:\n  avatar:\n    w: 64\n    h: 64\n"), 0o644))
	cfg, err := config.Load(config.Options{File: file, Logger: logging.NewNop()})
	require.NoError(t, err)

	require.NoError(t, rt.ReloadFrom(ctx, cfg))
	params, err := rt.Server().GetPreset("avatar")
	require.NoError(t, err)
	assert.EqualValues(t, 64, params["w"])
	assert.True(t, rt.Server().Registry().Exists("small"), "reload never removes presets")
}

func TestShutdownClosesOwnedLogger(t *testing.T) {
	s := testSettings(t)
	s.Logging.Director = t.TempDir()
	s.Logging.LogInTerminal = false

	rt, err := New(context.Background(), Config{Settings: s})
	require.NoError(t, err)
	rt.Logger().Info("hello")

	require.NoError(t, rt.Shutdown(context.Background()))
	entries, err := os.ReadDir(s.Logging.Director)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}
