package deckhand

import (
	"fmt"
	"reflect"
)

// Injector constructs suite instances. Registries consult their
// injectors in order and use the first whose Handles reports true.
type Injector interface {
	// Handles reports whether the injector can build instances of t.
	Handles(t reflect.Type) bool
	// Create builds one instance of t, returned as a pointer to t.
	Create(t reflect.Type) (any, error)
}

// plainInjector is the fallback: it handles every struct type and
// constructs it with zero-valued fields.
type plainInjector struct{}

func (plainInjector) Handles(reflect.Type) bool { return true }

func (plainInjector) Create(t reflect.Type) (any, error) {
	return reflect.New(t).Interface(), nil
}

// create builds one instance of t through the injector chain.
func (r *Registry) create(t reflect.Type) (any, error) {
	for _, inj := range r.injectors {
		if !inj.Handles(t) {
			continue
		}
		inst, err := inj.Create(t)
		if err != nil {
			return nil, err
		}
		if inst == nil {
			return nil, fmt.Errorf("injector %T returned nil for %s", inj, t)
		}
		return inst, nil
	}
	// unreachable while the plain injector stays last
	return nil, fmt.Errorf("no injector handles %s", t)
}
