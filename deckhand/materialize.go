package deckhand

import (
	"fmt"
	"reflect"

	"github.com/deckhand-dev/deckhand/internal/mark"
)

// Names of the internal lifecycle steps the materializer registers
// around every test.
const (
	setupStepName    = "setup instance"
	teardownStepName = "teardown instance"
	beforeHookName   = "before"
	afterHookName    = "after"
)

// Names of the optional per-instance lifecycle methods looked up on the
// suite's pointer type.
const (
	beforeMethod = "Before"
	afterMethod  = "After"
)

// materialize expands one suite descriptor into runner registrations.
// It runs inside the runner's register callback and performs, in order:
// static beforeAll hooks, the instance setup step, the instance Before
// hook, one registration per collected test method (child suites for
// parameterized methods), the instance After hook, the instance
// teardown step, and static afterAll hooks.
func (r *Registry) materialize(d *SuiteDesc) error {
	ptr := reflect.PointerTo(d.typ)

	for _, h := range d.beforeAll {
		body, err := bindFunc(h.fn)
		if err != nil {
			return fmt.Errorf("suite %s beforeAll: %w", d.typ.Name(), err)
		}
		r.runner.BeforeAll(d.displayName(h.id), body, d.settingsFor(h.id).timingOnly())
	}

	hold := &holder{}
	r.runner.BeforeEach(setupStepName, Body{Sync: func() error {
		inst, err := r.create(d.typ)
		if err != nil {
			return fmt.Errorf("create %s instance: %w", d.typ.Name(), err)
		}
		hold.instance = inst
		return nil
	}}, Settings{})

	if m, ok := ptr.MethodByName(beforeMethod); ok {
		body, err := bindMethod(hold, m, nil, false)
		if err != nil {
			return fmt.Errorf("suite %s: %w", d.typ.Name(), err)
		}
		id := mark.MethodID{Type: d.typ, Name: beforeMethod}
		r.runner.BeforeEach(beforeHookName, body, d.settingsFor(id).timingOnly())
	}

	tests, err := d.collect()
	if err != nil {
		return err
	}

	for _, id := range tests {
		m, ok := ptr.MethodByName(id.Name)
		if !ok {
			return fmt.Errorf("suite %s: no method named %s", d.typ.Name(), id.Name)
		}
		if err := r.registerTest(d, hold, m, id); err != nil {
			return err
		}
	}

	if m, ok := ptr.MethodByName(afterMethod); ok {
		body, err := bindMethod(hold, m, nil, false)
		if err != nil {
			return fmt.Errorf("suite %s: %w", d.typ.Name(), err)
		}
		id := mark.MethodID{Type: d.typ, Name: afterMethod}
		r.runner.AfterEach(afterHookName, body, d.settingsFor(id).timingOnly())
	}

	r.runner.AfterEach(teardownStepName, Body{Sync: func() error {
		hold.instance = nil
		return nil
	}}, Settings{})

	for _, h := range d.afterAll {
		body, err := bindFunc(h.fn)
		if err != nil {
			return fmt.Errorf("suite %s afterAll: %w", d.typ.Name(), err)
		}
		r.runner.AfterAll(d.displayName(h.id), body, d.settingsFor(h.id).timingOnly())
	}

	return nil
}

// registerTest registers one collected method: directly for a plain
// test, or as a child suite holding one test per parameter case.
func (r *Registry) registerTest(d *SuiteDesc, hold *holder, m reflect.Method, id mark.MethodID) error {
	display := d.displayName(id)
	raw, parameterized := d.store.Get(id, mark.ParamSets)
	if !parameterized {
		body, err := bindMethod(hold, m, nil, false)
		if err != nil {
			return fmt.Errorf("suite %s: %w", d.typ.Name(), err)
		}
		r.runner.Test(display, body, d.settingsFor(id))
		return nil
	}

	cases := raw.([]Case)
	var namer func(any) string
	if v, ok := d.store.Get(id, mark.NamingFunc); ok {
		namer = v.(func(any) string)
	}

	return r.runner.Suite(display, func() error {
		for i, c := range cases {
			c := c
			body, err := bindMethod(hold, m, &c, true)
			if err != nil {
				return fmt.Errorf("suite %s: %w", d.typ.Name(), err)
			}
			r.runner.Test(caseName(id.Name, c, i, namer), body, Settings{Execution: c.mode})
		}
		return nil
	}, d.settingsFor(id))
}

// caseName resolves a parameter case's display name: its own name, the
// method's naming function, or a positional fallback, in that order.
func caseName(method string, c Case, index int, namer func(any) string) string {
	if c.name != "" {
		return c.name
	}
	if namer != nil {
		return namer(c.value)
	}
	return fmt.Sprintf("%s_%d", method, index)
}

// collect walks the suite type and its embedded struct chain, gathering
// marked test methods in annotation order. A name found on a more
// deeply embedded type is shadowed by the same name on an outer type.
// An embedded type that is itself a suite aborts the walk.
func (d *SuiteDesc) collect() ([]mark.MethodID, error) {
	var out []mark.MethodID
	seen := make(map[string]bool)

	var walk func(t reflect.Type, embedded bool) error
	walk = func(t reflect.Type, embedded bool) error {
		if embedded && d.store.Has(t, mark.SuiteFlag) {
			return fmt.Errorf("%w: %s embeds %s", ErrSuiteInheritance, d.typ.Name(), t.Name())
		}
		for _, name := range d.store.Methods(t) {
			id := mark.MethodID{Type: t, Name: name}
			if !d.store.Has(id, mark.TestMarker) {
				continue
			}
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, id)
		}
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.Anonymous {
				continue
			}
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() != reflect.Struct {
				continue
			}
			if err := walk(ft, true); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(d.typ, false); err != nil {
		return nil, err
	}
	return out, nil
}
