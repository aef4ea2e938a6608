// Package mark is the annotation store: it associates suite and test
// metadata with an entity (a suite type, a method, a hook) without
// mutating the entity itself. Records live in an explicit table keyed
// by entity identity, so user-defined members can never collide with
// framework metadata.
package mark

import (
	"reflect"
	"sync"
)

// Key identifies one logical metadata slot. The set is fixed; a typed
// enum rules out collisions with anything a user could declare.
type Key uint8

const (
	// SuiteFlag marks a type as registered for suite materialization.
	SuiteFlag Key = iota
	// Name is the display name of a suite, test, or hook.
	Name
	// ParamSets holds the ordered parameter cases of a test method.
	ParamSets
	// NamingFunc holds the parameter-case naming function of a method.
	NamingFunc
	// Slow is the declared slow threshold.
	Slow
	// Timeout is the declared timeout.
	Timeout
	// Retries is the declared retry count.
	Retries
	// Execution is the declared execution mode.
	Execution
	// TestMarker flags a method as a test.
	TestMarker
)

// MethodID identifies a method of a suite type. Metadata annotated on a
// base type's method applies to subtypes that embed the base, unless the
// subtype annotates the same name itself.
type MethodID struct {
	Type reflect.Type
	Name string
}

// Store holds metadata records keyed by entity identity. Entities must be
// comparable; reflect.Type identifies suite types, MethodID identifies
// methods. The zero value is not usable; call NewStore.
type Store struct {
	mu      sync.RWMutex
	records map[any]map[Key]any
	// methods preserves, per suite type, the order in which method
	// entities were first annotated. The materializer walks it to keep
	// declaration order.
	methods map[reflect.Type][]string
}

// NewStore creates an empty annotation store.
func NewStore() *Store {
	return &Store{
		records: make(map[any]map[Key]any),
		methods: make(map[reflect.Type][]string),
	}
}

// Set records a value for the given entity and key, overwriting any
// previous value.
func (s *Store) Set(entity any, key Key, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(entity, key, value)
}

// SetDefault records a value only if the key is currently unset for the
// entity. Display names use it so a name, once set, survives later
// annotation passes unless explicitly renamed via Set.
func (s *Store) SetDefault(entity any, key Key, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[entity]; ok {
		if _, exists := rec[key]; exists {
			return
		}
	}
	s.setLocked(entity, key, value)
}

func (s *Store) setLocked(entity any, key Key, value any) {
	rec, ok := s.records[entity]
	if !ok {
		rec = make(map[Key]any)
		s.records[entity] = rec
		if id, isMethod := entity.(MethodID); isMethod {
			s.methods[id.Type] = append(s.methods[id.Type], id.Name)
		}
	}
	rec[key] = value
}

// Get returns the value recorded for the entity and key. Absent keys
// report ok=false; they never fail.
func (s *Store) Get(entity any, key Key) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[entity]
	if !ok {
		return nil, false
	}
	v, ok := rec[key]
	return v, ok
}

// Has reports whether the entity has a value for the key.
func (s *Store) Has(entity any, key Key) bool {
	_, ok := s.Get(entity, key)
	return ok
}

// Methods returns the names of the methods annotated on t, in
// first-annotation order. The returned slice is a copy.
func (s *Store) Methods(t reflect.Type) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := s.methods[t]
	out := make([]string, len(names))
	copy(out, names)
	return out
}
