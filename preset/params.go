package preset

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mohae/deepcopy"
)

// Params is the parameter set of a preset, keyed by engine parameter name
// (w, h, fit, ...). Values are opaque to the registry.
type Params map[string]any

// Clone returns a deep copy of p. Containers of any type (maps, slices,
// pointers, structs) are copied so the result shares no mutable state with p.
// Unexported struct fields are not copied.
func (p Params) Clone() Params {
	if p == nil {
		return Params{}
	}
	return deepcopy.Copy(p).(Params)
}

// Merge returns a copy of p with every key of other laid over it.
func (p Params) Merge(other Params) Params {
	out := p.Clone()
	for k, v := range other {
		out[k] = deepcopy.Copy(v)
	}
	return out
}

// Keys returns the parameter names in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String returns the value of key rendered as a string.
func (p Params) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", false
	}
	switch val := v.(type) {
	case string:
		return val, true
	case fmt.Stringer:
		return val.String(), true
	default:
		return fmt.Sprint(val), true
	}
}

// Int returns the value of key as an int. Numeric strings are accepted since
// presets often come from query strings or YAML.
func (p Params) Int(key string) (int, bool) {
	v, ok := p[key]
	if !ok {
		return 0, false
	}
	switch val := v.(type) {
	case int:
		return val, true
	case int32:
		return int(val), true
	case int64:
		return int(val), true
	case uint:
		return int(val), true
	case uint32:
		return int(val), true
	case uint64:
		return int(val), true
	case float32:
		return int(val), true
	case float64:
		return int(val), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// Float returns the value of key as a float64.
func (p Params) Float(key string) (float64, bool) {
	v, ok := p[key]
	if !ok {
		return 0, false
	}
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		if n, ok := p.Int(key); ok {
			return float64(n), true
		}
		return 0, false
	}
}
