package cli

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leeforge/glideformat/env_mode"
	"github.com/leeforge/glideformat/json"
	"github.com/leeforge/glideformat/preset"
	gtesting "github.com/leeforge/glideformat/testing"
)

const configTemplate = `
logging:
  log-in-file: false
source:
  type: local
  settings:
    root: %ROOT%/images
cache:
  type: local
  settings:
    root: %ROOT%/cache
engine:
  cache_with_file_extensions: true
presets:
  square_thumb:
    w: 40
    h: 40
    fit: crop
    fm: png
  hero-banner:
    w: 120
`

func setup(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "images", "photos"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "images", "photos", "kayaks.png"), gtesting.PNG(t, 200, 100), 0o644))

	configFile := filepath.Join(root, "glideformat.yaml")
	content := strings.ReplaceAll(configTemplate, "%ROOT%", filepath.ToSlash(root))
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0o644))
	return root, configFile
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	o := &options{}
	cmd := newRootCmd(o)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	ctx := context.Background()
	err := cmd.ExecuteContext(ctx)
	require.NoError(t, o.stop(ctx))
	return out.String(), err
}

func TestPresetsTable(t *testing.T) {
	_, configFile := setup(t)

	out, err := run(t, "presets", "--config", configFile)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "NAME")
	assert.Contains(t, lines[1], "hero-banner")
	assert.Contains(t, lines[1], "Hero Banner")
	assert.Contains(t, lines[2], "Square Thumb")
	assert.Contains(t, lines[2], `"fit":"crop"`)
}

func TestPresetsJSON(t *testing.T) {
	_, configFile := setup(t)

	out, err := run(t, "presets", "--json", "-c", configFile)
	require.NoError(t, err)

	var presets map[string]preset.Params
	require.NoError(t, json.Unmarshal([]byte(out), &presets))
	assert.Len(t, presets, 2)
	assert.EqualValues(t, 40, presets["square_thumb"]["w"])
}

func TestMakePrintsCachePath(t *testing.T) {
	root, configFile := setup(t)

	out, err := run(t, "make", "photos/kayaks.png", "square_thumb", "--config", configFile)
	require.NoError(t, err)

	cachePath := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(cachePath, "photos/kayaks.png/"))
	assert.True(t, strings.HasSuffix(cachePath, ".png"))
	assert.FileExists(t, filepath.Join(root, "cache", filepath.FromSlash(cachePath)))
}

func TestOutputToFile(t *testing.T) {
	root, configFile := setup(t)
	outFile := filepath.Join(root, "thumb.png")

	_, err := run(t, "output", "photos/kayaks.png", "square_thumb", "-o", outFile, "--config", configFile)
	require.NoError(t, err)

	f, err := os.Open(outFile)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Width)
	assert.Equal(t, 40, cfg.Height)
}

func TestOutputToStdout(t *testing.T) {
	_, configFile := setup(t)

	out, err := run(t, "output", "photos/kayaks.png", "square_thumb", "--config", configFile)
	require.NoError(t, err)

	cfg, err := png.DecodeConfig(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Width)
}

func TestOutputFailureLeavesNoFile(t *testing.T) {
	root, configFile := setup(t)

	tests := []struct {
		name   string
		path   string
		preset string
	}{
		{"unknown preset", "photos/kayaks.png", "nope"},
		{"missing source", "photos/missing.png", "square_thumb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outFile := filepath.Join(root, "failed.png")

			_, err := run(t, "output", tt.path, tt.preset, "-o", outFile, "--config", configFile)
			require.Error(t, err)
			assert.NoFileExists(t, outFile)
		})
	}
}

func TestCreateFileReportsWriteError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	boom := errors.New("encode failed")

	err := createFile(path, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoFileExists(t, path)

	require.NoError(t, createFile(path, func(w io.Writer) error {
		_, err := w.Write([]byte("whole"))
		return err
	}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "whole", string(data))
}

func TestUnknownPreset(t *testing.T) {
	_, configFile := setup(t)

	_, err := run(t, "make", "photos/kayaks.png", "nope", "--config", configFile)
	require.Error(t, err)
	assert.True(t, preset.IsNotFound(err))
}

func TestPurge(t *testing.T) {
	root, configFile := setup(t)

	_, err := run(t, "make", "photos/kayaks.png", "hero-banner", "--config", configFile)
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(root, "cache", "photos", "kayaks.png"))

	out, err := run(t, "purge", "photos/kayaks.png", "--config", configFile)
	require.NoError(t, err)
	assert.Contains(t, out, "purged photos/kayaks.png")

	entries, _ := os.ReadDir(filepath.Join(root, "cache", "photos", "kayaks.png"))
	assert.Empty(t, entries)
}

func TestExportConfig(t *testing.T) {
	root, configFile := setup(t)
	exported := filepath.Join(root, "merged.yaml")

	_, err := run(t, "export-config", exported, "--config", configFile)
	require.NoError(t, err)

	data, err := os.ReadFile(exported)
	require.NoError(t, err)
	assert.Contains(t, string(data), "square_thumb")
}

func TestEnvFlag(t *testing.T) {
	prev := env_mode.Mode()
	t.Cleanup(func() { env_mode.SetMode(prev) })

	root, configFile := setup(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "glideformat.test.yaml"),
		[]byte("presets:\n  tiny:\n    w: 8\n"), 0o644))

	out, err := run(t, "presets", "--env", "test", "--config", configFile)
	require.NoError(t, err)
	assert.Contains(t, out, "tiny")
	assert.Equal(t, env_mode.TestMode, env_mode.Mode())
}

func TestMissingConfig(t *testing.T) {
	_, err := run(t, "presets", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no configuration file")
}
