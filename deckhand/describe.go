package deckhand

import (
	"fmt"
	"reflect"
	"time"

	"github.com/deckhand-dev/deckhand/internal/mark"
)

// defaultStore holds all annotations made through Describe. Annotation
// happens once, at package init time; the store is never mutated after
// a described type has been registered.
var defaultStore = mark.NewStore()

// SuiteDesc is the descriptor of one suite type under annotation. It is
// built fluently and consumed exactly once by Registry.Register.
type SuiteDesc struct {
	store *mark.Store
	typ   reflect.Type

	beforeAll []hookDecl
	afterAll  []hookDecl

	// err records the first mistake made while describing; Register
	// surfaces it instead of materializing.
	err error
}

// hookID keys the metadata of a suite-level hook in the store.
type hookID struct {
	typ   reflect.Type
	kind  string
	index int
}

type hookDecl struct {
	id hookID
	fn any
}

// Describe begins the description of suite type T. The display name
// defaults to the type name; use Named to override. T must be a struct
// whose test methods have a pointer receiver.
func Describe[T any](traits ...Trait) *SuiteDesc {
	typ := reflect.TypeFor[T]()
	d := &SuiteDesc{store: defaultStore, typ: typ}
	if typ.Kind() != reflect.Struct {
		d.err = fmt.Errorf("suite type %s is %s, want struct", typ, typ.Kind())
		return d
	}
	d.store.Set(typ, mark.SuiteFlag, true)
	d.store.SetDefault(typ, mark.Name, typ.Name())
	for _, t := range traits {
		t.apply(d.store, typ)
	}
	return d
}

// DescribeNamed is Describe with an explicit display name.
func DescribeNamed[T any](name string, traits ...Trait) *SuiteDesc {
	return Describe[T](append([]Trait{Named(name)}, traits...)...)
}

// Mixin begins annotation of a non-suite base type. Suites that embed
// the type inherit its annotated test methods, overriding any whose
// names they annotate themselves. A mixin cannot be registered.
func Mixin[T any](traits ...Trait) *SuiteDesc {
	typ := reflect.TypeFor[T]()
	d := &SuiteDesc{store: defaultStore, typ: typ}
	if typ.Kind() != reflect.Struct {
		d.err = fmt.Errorf("mixin type %s is %s, want struct", typ, typ.Kind())
		return d
	}
	d.store.SetDefault(typ, mark.Name, typ.Name())
	for _, t := range traits {
		t.apply(d.store, typ)
	}
	return d
}

// Test marks the named method as a test and applies its traits. The
// display name defaults to the method name; an explicit Named trait
// replaces it, later annotation passes do not.
func (d *SuiteDesc) Test(method string, traits ...Trait) *SuiteDesc {
	id := d.method(method)
	for _, t := range traits {
		t.apply(d.store, id)
	}
	return d
}

// Params marks the named method as a parameterized test and appends the
// given cases. Repeated calls accumulate cases in call order, which is
// also registration order.
func (d *SuiteDesc) Params(method string, cases ...Case) *SuiteDesc {
	id := d.method(method)
	existing, _ := d.store.Get(id, mark.ParamSets)
	list, _ := existing.([]Case)
	d.store.Set(id, mark.ParamSets, append(list, cases...))
	return d
}

// Hook applies traits to the instance lifecycle method of the given
// name ("Before" or "After") without marking it as a test. Only timing
// traits are meaningful; hooks are not independently skippable.
func (d *SuiteDesc) Hook(method string, traits ...Trait) *SuiteDesc {
	id := mark.MethodID{Type: d.typ, Name: method}
	for _, t := range traits {
		t.apply(d.store, id)
	}
	return d
}

// BeforeAll registers fn to run once, before any instance of the suite
// is created. fn may be sync (func() or func() error), callback-style
// (func(Done)), or future-style (func() Future).
func (d *SuiteDesc) BeforeAll(fn any, traits ...Trait) *SuiteDesc {
	d.beforeAll = d.hook("beforeAll", d.beforeAll, fn, traits)
	return d
}

// AfterAll registers fn to run once, after the last instance has been
// torn down.
func (d *SuiteDesc) AfterAll(fn any, traits ...Trait) *SuiteDesc {
	d.afterAll = d.hook("afterAll", d.afterAll, fn, traits)
	return d
}

func (d *SuiteDesc) hook(kind string, decls []hookDecl, fn any, traits []Trait) []hookDecl {
	id := hookID{typ: d.typ, kind: kind, index: len(decls)}
	d.store.SetDefault(id, mark.Name, kind)
	for _, t := range traits {
		t.apply(d.store, id)
	}
	return append(decls, hookDecl{id: id, fn: fn})
}

func (d *SuiteDesc) method(name string) mark.MethodID {
	id := mark.MethodID{Type: d.typ, Name: name}
	d.store.SetDefault(id, mark.Name, name)
	d.store.Set(id, mark.TestMarker, true)
	return id
}

// settingsFor assembles the Settings recorded for an entity.
func (d *SuiteDesc) settingsFor(entity any) Settings {
	var s Settings
	if v, ok := d.store.Get(entity, mark.Execution); ok {
		s.Execution = v.(Execution)
	}
	if v, ok := d.store.Get(entity, mark.Timeout); ok {
		s.Timeout = v.(time.Duration)
	}
	if v, ok := d.store.Get(entity, mark.Slow); ok {
		s.Slow = v.(time.Duration)
	}
	if v, ok := d.store.Get(entity, mark.Retries); ok {
		s.Retries = v.(int)
	}
	return s
}

func (d *SuiteDesc) displayName(entity any) string {
	if v, ok := d.store.Get(entity, mark.Name); ok {
		return v.(string)
	}
	return ""
}

// Case is one declared invocation of a parameterized test: a value plus
// optional display name and execution mode.
type Case struct {
	name  string
	mode  Execution
	value any
}

// P declares a parameter case carrying value.
func P(value any) Case { return Case{value: value} }

// Named sets the case's display name.
func (c Case) Named(name string) Case {
	c.name = name
	return c
}

// Pending marks the case pending.
func (c Case) Pending() Case {
	c.mode = ExecPending
	return c
}

// Only marks the case for exclusive execution.
func (c Case) Only() Case {
	c.mode = ExecOnly
	return c
}

// Skip excludes the case.
func (c Case) Skip() Case {
	c.mode = ExecSkip
	return c
}

// Value returns the case's declared value.
func (c Case) Value() any { return c.value }
