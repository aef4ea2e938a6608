// Package deckhand turns annotated suite structs into registrations
// against a pluggable test runner.
//
// A suite is an ordinary struct whose methods are marked as tests
// through a SuiteDesc built with Describe. Registering the descriptor
// walks the struct (and any embedded, non-suite structs), expands
// parameterized methods into child suites, and drives the Runner
// interface with one registration per hook and test. A fresh instance
// of the struct is constructed for every test via the registry's
// injector chain, so tests never share state.
//
//	type CalcSuite struct{ calc Calc }
//
//	func (s *CalcSuite) Before()   { s.calc = NewCalc() }
//	func (s *CalcSuite) Addition() { ... }
//
//	desc := deckhand.Describe[CalcSuite](deckhand.Named("calculator")).
//		Test("Addition", deckhand.Slow(200*time.Millisecond))
//
//	reg := deckhand.New(runner)
//	err := reg.Register(desc)
//
// The package only organizes and dispatches; executing tests, enforcing
// timeouts and retries, and reporting results belong to the Runner
// implementation (see the gotest and console packages).
package deckhand
