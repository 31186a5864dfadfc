// Package server is the preset facade: it resolves a preset name to its
// parameters and forwards the request to an image engine.
package server

import (
	"context"
	"io"
	"sync"

	"github.com/leeforge/glideformat/engine"
	"github.com/leeforge/glideformat/preset"
)

// Server pairs a preset registry with the engine that renders images.
type Server struct {
	mu       sync.RWMutex
	engine   engine.Engine
	registry *preset.Registry
}

// Option configures a Server.
type Option func(*Server)

// WithRegistry makes the server use registry instead of an empty one.
func WithRegistry(registry *preset.Registry) Option {
	return func(s *Server) {
		if registry != nil {
			s.registry = registry
		}
	}
}

// WithPresets seeds the registry. Later entries override earlier ones.
func WithPresets(presets map[string]preset.Params) Option {
	return func(s *Server) {
		for name, params := range presets {
			_ = s.registry.Override(name, params)
		}
	}
}

// New wraps eng. Options are applied in order, so WithRegistry should
// precede WithPresets.
func New(eng engine.Engine, opts ...Option) *Server {
	s := &Server{
		engine:   eng,
		registry: preset.NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create builds the default engine from cfg and wraps it.
func Create(cfg engine.Config, opts ...Option) (*Server, error) {
	eng, err := engine.New(cfg)
	if err != nil {
		return nil, err
	}
	return New(eng, opts...), nil
}

func (s *Server) Engine() engine.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// SetEngine swaps the engine. Requests already in flight finish on the old one.
func (s *Server) SetEngine(eng engine.Engine) {
	s.mu.Lock()
	s.engine = eng
	s.mu.Unlock()
}

func (s *Server) Registry() *preset.Registry {
	return s.registry
}

// Presets returns a snapshot of every registered preset.
func (s *Server) Presets() map[string]preset.Params {
	return s.registry.List()
}

func (s *Server) AddPreset(name string, params preset.Params) error {
	return s.registry.Add(name, params)
}

func (s *Server) AddPresets(presets map[string]preset.Params, allowOverride bool) error {
	return s.registry.AddMany(presets, allowOverride)
}

func (s *Server) OverridePreset(name string, params preset.Params) error {
	return s.registry.Override(name, params)
}

func (s *Server) HasPreset(name string, raiseOnMissing bool) (bool, error) {
	return s.registry.Has(name, raiseOnMissing)
}

func (s *Server) GetPreset(name string) (preset.Params, error) {
	return s.registry.Get(name)
}

func (s *Server) RemovePreset(name string, raiseOnMissing bool) error {
	return s.registry.Remove(name, raiseOnMissing)
}

// MakeImage renders path with the named preset and returns the cache path.
func (s *Server) MakeImage(ctx context.Context, path, presetName string) (string, error) {
	params, err := s.registry.Get(presetName)
	if err != nil {
		return "", err
	}
	return s.Engine().MakeImage(ctx, path, params)
}

// OutputImage renders path with the named preset and writes it to w.
func (s *Server) OutputImage(ctx context.Context, w io.Writer, path, presetName string) error {
	params, err := s.registry.Get(presetName)
	if err != nil {
		return err
	}
	return s.Engine().OutputImage(ctx, w, path, params)
}

// GetImageResponse renders path with the named preset and returns the response for the caller to send.
func (s *Server) GetImageResponse(ctx context.Context, path, presetName string) (*engine.Response, error) {
	params, err := s.registry.Get(presetName)
	if err != nil {
		return nil, err
	}
	return s.Engine().GetImageResponse(ctx, path, params)
}
