package deckhand

import "time"

// Execution declares whether a suite, test, or parameter case runs.
type Execution int

const (
	// ExecNormal runs the item normally.
	ExecNormal Execution = iota
	// ExecPending reports the item without running it.
	ExecPending
	// ExecOnly runs the item exclusively, excluding non-only siblings.
	ExecOnly
	// ExecSkip excludes the item, recording it as skipped.
	ExecSkip
)

// String returns the mode's lowercase name.
func (e Execution) String() string {
	switch e {
	case ExecPending:
		return "pending"
	case ExecOnly:
		return "only"
	case ExecSkip:
		return "skip"
	default:
		return "normal"
	}
}

// Settings carries the declared scheduling knobs of one registration.
// The core never enforces any of them; they pass through to the runner
// unchanged. Zero values mean "unset".
type Settings struct {
	Execution Execution
	Timeout   time.Duration
	Slow      time.Duration
	Retries   int
}

// timingOnly strips execution mode and retries for lifecycle hooks,
// which are not independently skippable or retryable.
func (s Settings) timingOnly() Settings {
	return Settings{Timeout: s.Timeout, Slow: s.Slow}
}

// Done signals completion of a callback-style body. A non-nil error
// fails the test or hook.
type Done func(err error)

// Future is an eventually-settled result a future-style body returns.
// The runner is expected to wait on it.
type Future interface {
	// Wait blocks until the body settles and returns its error, if any.
	Wait() error
}

// Go runs fn on a new goroutine and returns a Future settled by its
// return value. It is a convenience for writing future-style tests.
func Go(fn func() error) Future {
	ch := make(chan error, 1)
	go func() { ch <- fn() }()
	return chanFuture(ch)
}

type chanFuture chan error

func (c chanFuture) Wait() error { return <-c }

// settled is a Future that resolved before it was returned.
type settled struct{ err error }

func (s settled) Wait() error { return s.err }

// Style identifies how a body reports completion.
type Style int

const (
	// StyleSync bodies are done when they return.
	StyleSync Style = iota
	// StyleCallback bodies call Done exactly once.
	StyleCallback
	// StyleFuture bodies return a Future the runner waits on.
	StyleFuture
)

// Body is one executable test or hook payload handed to a Runner.
// Exactly one field is non-nil; it determines the completion style.
type Body struct {
	Sync     func() error
	Callback func(done Done)
	Future   func() Future
}

// Style reports which completion style the body uses.
func (b Body) Style() Style {
	switch {
	case b.Callback != nil:
		return StyleCallback
	case b.Future != nil:
		return StyleFuture
	default:
		return StyleSync
	}
}

// Runner is the external test runner the materializer drives. Suite
// invokes register synchronously; registrations made inside it belong
// to that suite. A non-nil error from register is a configuration
// error and must propagate back through Suite.
//
// Implementations own execution order, scheduling, timeout and retry
// enforcement, and reporting.
type Runner interface {
	Suite(name string, register func() error, settings Settings) error
	Test(name string, body Body, settings Settings)
	BeforeAll(name string, body Body, settings Settings)
	BeforeEach(name string, body Body, settings Settings)
	AfterEach(name string, body Body, settings Settings)
	AfterAll(name string, body Body, settings Settings)
}
