package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/leeforge/glideformat/json"
	"github.com/leeforge/glideformat/preset"
)

// presetDocument is the presets section of a config file. Viper folds keys to
// lower case and splits them on dots, so preset names are decoded from the raw
// files instead.
type presetDocument struct {
	Presets map[string]preset.Params `json:"presets" yaml:"presets" toml:"presets"`
}

// readPresets decodes the presets of every file with their names as written
// and merges them per preset, later files winning key by key.
func readPresets(paths []string) (map[string]preset.Params, error) {
	var merged map[string]preset.Params
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}

		var doc presetDocument
		switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
		case "yaml", "yml":
			err = yaml.Unmarshal(data, &doc)
		case "json":
			err = json.Unmarshal(data, &doc)
		case "toml":
			err = toml.Unmarshal(data, &doc)
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("error reading presets from %s: %w", path, err)
		}

		for name, params := range doc.Presets {
			if merged == nil {
				merged = make(map[string]preset.Params, len(doc.Presets))
			}
			merged[name] = merged[name].Merge(params)
		}
	}
	return merged, nil
}
