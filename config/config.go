// Package config reduces the loader and solver API footprint using
// functional options, the same pattern the vu engine uses for its own
// NewEngine configuration.
// See: http://dave.cheney.net/2014/10/17/functional-options-for-friendly-apis
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DanglingReferencePolicy controls loader behavior when a stored index
// falls outside its target array after all sections have loaded.
type DanglingReferencePolicy int

const (
	// StrictDanglingReference fails loading with errs.DanglingReference.
	// This is the spec-mandated default.
	StrictDanglingReference DanglingReferencePolicy = iota

	// ClampDanglingReference clamps the offending index to "none" and
	// logs instead of failing. An explicit opt-in for tooling that
	// wants to load lossy or hand-edited models.
	ClampDanglingReference
)

// AllocateFunc is the pluggable allocation hook described by the
// shared-resource policy: all internal allocation beyond ordinary Go
// slice/struct literals that callers want to account for routes
// through this hook. It is a field of Options rather than a
// process-wide global so that multiple Models, each built with their
// own Options, can coexist without one installation stomping another.
type AllocateFunc func(size int) ([]byte, error)

// Options holds loader and solver tuning settable by the host
// application before constructing a Model.
type Options struct {
	// MaxIKIterationsHint caps the outer iteration count used by the IK
	// solver regardless of what a constraint's own stored iteration
	// count says. Zero means "no hint, use the constraint's own count".
	// It only ever lowers a pathological stored value, never raises it.
	MaxIKIterationsHint int `yaml:"maxIKIterationsHint"`

	// DanglingReferencePolicy governs §4.3's post-load validation pass.
	DanglingReferencePolicy DanglingReferencePolicy `yaml:"-"`

	// Allocate is the allocation hook. Defaults to ordinary Go make().
	Allocate AllocateFunc `yaml:"-"`
}

// defaults mirrors the engine's configDefaults pattern: reasonable
// values so a Model loads correctly even with zero-value Options.
var defaults = Options{
	MaxIKIterationsHint:     0,
	DanglingReferencePolicy: StrictDanglingReference,
	Allocate:                func(size int) ([]byte, error) { return make([]byte, size), nil },
}

// Attr defines an optional attribute used to configure loading.
//
//	opts := config.New(
//	    config.MaxIKIterations(20),
//	    config.OnDanglingReference(config.ClampDanglingReference),
//	)
type Attr func(*Options)

// New builds Options from defaults overridden by the given attributes.
func New(attrs ...Attr) *Options {
	o := defaults
	for _, attr := range attrs {
		attr(&o)
	}
	return &o
}

// MaxIKIterations sets the advisory IK outer-iteration cap.
func MaxIKIterations(n int) Attr {
	return func(o *Options) {
		if n > 0 {
			o.MaxIKIterationsHint = n
		}
	}
}

// OnDanglingReference selects how the loader reacts to an
// out-of-range stored index once all sections have loaded.
func OnDanglingReference(policy DanglingReferencePolicy) Attr {
	return func(o *Options) { o.DanglingReferencePolicy = policy }
}

// WithAllocator installs a custom allocation hook.
func WithAllocator(fn AllocateFunc) Attr {
	return func(o *Options) {
		if fn != nil {
			o.Allocate = fn
		}
	}
}

// LoadFile reads a YAML sidecar document for tooling that prefers a
// config file over call-site functional options, then applies any
// further attrs on top of what the file specified.
func LoadFile(path string, attrs ...Attr) (*Options, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	o := defaults
	if err := yaml.Unmarshal(raw, &o); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if o.Allocate == nil {
		o.Allocate = defaults.Allocate
	}
	for _, attr := range attrs {
		attr(&o)
	}
	return &o, nil
}
