package deckhand

import (
	"errors"
	"fmt"

	"github.com/deckhand-dev/deckhand/internal/mark"
)

// ErrSuiteInheritance is returned when a registered suite type embeds
// another suite type. Suites may share code through plain (non-suite)
// embedded structs, but never through other suites.
var ErrSuiteInheritance = errors.New("suite embeds another suite")

// errNoInstance fails a test or hook whose body ran outside the
// setup/teardown window, when no suite instance is live.
var errNoInstance = errors.New("no active suite instance")

// Registry binds suite descriptors to one Runner. It owns the ordered
// injector list used to construct suite instances.
type Registry struct {
	runner    Runner
	injectors []Injector
}

// New creates a registry driving the given runner. The plain
// constructor injector is always present as the final fallback.
func New(runner Runner) *Registry {
	return &Registry{
		runner:    runner,
		injectors: []Injector{plainInjector{}},
	}
}

// Use adds an injector. The most recently added injector is consulted
// first; the plain fallback stays last.
func (r *Registry) Use(inj Injector) {
	r.injectors = append([]Injector{inj}, r.injectors...)
}

// Register materializes each descriptor against the runner, in order.
// It stops at the first configuration error.
func (r *Registry) Register(descs ...*SuiteDesc) error {
	for _, d := range descs {
		if err := r.register(d); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) register(d *SuiteDesc) error {
	if d.err != nil {
		return d.err
	}
	if !d.store.Has(d.typ, mark.SuiteFlag) {
		return fmt.Errorf("%s is a mixin, not a suite", d.typ.Name())
	}
	return r.runner.Suite(d.displayName(d.typ), func() error {
		return r.materialize(d)
	}, d.settingsFor(d.typ))
}
