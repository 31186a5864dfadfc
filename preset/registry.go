package preset

import (
	"sort"
	"sync"
)

// Registry maps preset names to their parameter sets.
//
// Presets are normally configured once at startup and read afterwards. The
// registry still locks internally so a config reload may override presets
// while requests are being served.
type Registry struct {
	presets map[string]Params
	mu      sync.RWMutex
}

// Option configures a Registry at construction.
type Option func(*Registry)

// WithPresets seeds the registry. Later entries override earlier ones.
func WithPresets(presets map[string]Params) Option {
	return func(r *Registry) {
		for name, params := range presets {
			if name == "" {
				continue
			}
			r.presets[name] = params.Clone()
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		presets: make(map[string]Params),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add stores a new preset. It fails with ErrPresetExists when the name is
// already registered and never overwrites.
func (r *Registry) Add(name string, params Params) error {
	if name == "" {
		return invalidName()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.presets[name]; ok {
		return exists(name)
	}
	r.presets[name] = params.Clone()
	return nil
}

// Override stores the preset whether or not the name exists.
// The only failure is an empty name.
func (r *Registry) Override(name string, params Params) error {
	if name == "" {
		return invalidName()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.presets[name] = params.Clone()
	return nil
}

// AddMany registers every entry under its own name, through Override when
// allowOverride is set and through Add otherwise.
//
// Entries are applied in name order. The first failure stops the call and
// entries registered before it stay registered.
func (r *Registry) AddMany(presets map[string]Params, allowOverride bool) error {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		var err error
		if allowOverride {
			err = r.Override(name, presets[name])
		} else {
			err = r.Add(name, presets[name])
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Exists reports whether name is registered.
func (r *Registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.presets[name]
	return ok
}

// Has reports whether name is registered. A missing name fails with
// ErrPresetNotFound when raiseOnMissing is set and returns false otherwise.
// A present name always returns true.
func (r *Registry) Has(name string, raiseOnMissing bool) (bool, error) {
	if r.Exists(name) {
		return true, nil
	}
	if raiseOnMissing {
		return false, notFound(name)
	}
	return false, nil
}

// Get returns a copy of the preset's parameters. A missing name always fails
// with ErrPresetNotFound.
func (r *Registry) Get(name string) (Params, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	params, ok := r.presets[name]
	if !ok {
		return nil, notFound(name)
	}
	return params.Clone(), nil
}

// Remove deletes a preset. Missing names follow the Has contract: an error
// when raiseOnMissing is set, a silent no-op otherwise.
func (r *Registry) Remove(name string, raiseOnMissing bool) error {
	if _, err := r.Has(name, raiseOnMissing); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.presets, name)
	return nil
}

// List returns a snapshot of every preset. Changing the result does not
// change the registry.
func (r *Registry) List() map[string]Params {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Params, len(r.presets))
	for name, params := range r.presets {
		out[name] = params.Clone()
	}
	return out
}

// Names returns the registered names, sorted alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.presets))
	for name := range r.presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered presets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.presets)
}
