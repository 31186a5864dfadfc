package json

import (
	"io"
	"reflect"
	"sync"

	"github.com/creasty/defaults"
	jsoniter "github.com/json-iterator/go"
	"github.com/json-iterator/go/extra"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Fuzzy decoders let loosely typed input such as query-string parameters and
// YAML settings decode into typed fields: "300" into an int, 1 into a string.
// jsoniter registers them process-wide.
var fuzzyOnce sync.Once

func enableFuzzy() {
	fuzzyOnce.Do(extra.RegisterFuzzyDecoders)
}

// setDefaults applies `default` tags when v points to a struct.
func setDefaults(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil
	}
	return defaults.Set(v)
}

type Encoder struct {
	*jsoniter.Encoder
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		Encoder: json.NewEncoder(w),
	}
}

// Encode applies struct defaults before encoding.
func (e *Encoder) Encode(v any) error {
	if err := setDefaults(v); err != nil {
		return err
	}
	return e.Encoder.Encode(v)
}

func Marshal(v any) ([]byte, error) {
	if err := setDefaults(v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

func MarshalToString(v any) (string, error) {
	if err := setDefaults(v); err != nil {
		return "", err
	}
	return json.MarshalToString(v)
}

// Unmarshal applies struct defaults, then decodes data over them, so fields
// present in data win and absent ones keep their default.
func Unmarshal(data []byte, v any) error {
	if err := setDefaults(v); err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// Convert re-decodes a loosely typed value (typically map[string]any) into
// the struct dst, applying defaults first and accepting numbers as strings and
// strings as numbers.
func Convert(src any, dst any) error {
	if err := setDefaults(dst); err != nil {
		return err
	}
	data, err := json.Marshal(src)
	if err != nil {
		return err
	}
	enableFuzzy()
	return json.Unmarshal(data, dst)
}
