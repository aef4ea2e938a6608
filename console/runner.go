// Package console is a deckhand Runner that executes suites in-process
// and renders a styled report. It is the runner behind the example
// binaries and the live dashboard; go test integration lives in the
// gotest package instead.
package console

import (
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/deckhand-dev/deckhand/deckhand"
	"github.com/deckhand-dev/deckhand/internal/config"
	"github.com/deckhand-dev/deckhand/internal/run"
	"github.com/deckhand-dev/deckhand/pkg/render"
)

// Outcome classifies one finished test.
type Outcome int

const (
	OutcomePassed Outcome = iota
	OutcomeFailed
	OutcomeSkipped
	OutcomePending
)

// String returns the outcome's lowercase name.
func (o Outcome) String() string {
	switch o {
	case OutcomeFailed:
		return "failed"
	case OutcomeSkipped:
		return "skipped"
	case OutcomePending:
		return "pending"
	default:
		return "passed"
	}
}

// Result is the record of one executed (or excluded) test.
type Result struct {
	Path    []string // enclosing suite names, outermost first
	Name    string
	Outcome Outcome
	Elapsed time.Duration
	Slow    bool
	Err     error
}

// EventKind distinguishes emitted run events.
type EventKind int

const (
	EventSuiteStarted EventKind = iota
	EventSuiteFinished
	EventTestStarted
	EventTestFinished
)

// Event captures run milestones for live consumers such as the
// dashboard package.
type Event struct {
	Kind   EventKind
	Path   []string
	Name   string
	Result *Result // set for EventTestFinished
	When   time.Time
}

// Summary aggregates a finished run.
type Summary struct {
	Passed  int
	Failed  int
	Skipped int
	Pending int
	Elapsed time.Duration
}

// Total returns the number of recorded tests.
func (s Summary) Total() int { return s.Passed + s.Failed + s.Skipped + s.Pending }

// ExitCode returns 1 when any test failed, 0 otherwise.
func (s Summary) ExitCode() int {
	if s.Failed > 0 {
		return 1
	}
	return 0
}

// Runner collects suite registrations and executes them when Run is
// called. The zero value is not usable; call New.
type Runner struct {
	run.Collector

	out      io.Writer
	theme    render.Theme
	humanize bool
	defaults deckhand.Settings
	events   chan<- Event

	results []Result
}

// Option configures a Runner.
type Option func(*Runner)

// WithWriter directs report output to w instead of stdout.
func WithWriter(w io.Writer) Option {
	return func(r *Runner) { r.out = w }
}

// WithTheme overrides the configured theme.
func WithTheme(t render.Theme) Option {
	return func(r *Runner) { r.theme = t }
}

// WithEvents emits run events to ch. The channel is closed when Run
// finishes.
func WithEvents(ch chan<- Event) Option {
	return func(r *Runner) { r.events = ch }
}

// WithDefaults sets run-wide fallback settings for tests that declare
// none of their own.
func WithDefaults(s deckhand.Settings) Option {
	return func(r *Runner) { r.defaults = s }
}

// WithHumanizedNames renders method names as words in the report.
func WithHumanizedNames() Option {
	return func(r *Runner) { r.humanize = true }
}

// New creates a console runner. Theme and default timing come from
// .deckhand.yaml when present; options win over the file. Color is
// dropped when output is not a terminal or color is disabled.
func New(opts ...Option) *Runner {
	cfg, cfgErr := config.Load(".")
	r := &Runner{
		out:   os.Stdout,
		theme: render.ThemeByName(cfg.Theme),
		defaults: deckhand.Settings{
			Slow:    cfg.Slow(),
			Timeout: cfg.Timeout(),
		},
	}
	if cfg.NoColor || cfg.CI {
		r.theme = render.MonoTheme()
	}
	for _, opt := range opts {
		opt(r)
	}
	if f, ok := r.out.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		r.theme = render.MonoTheme()
	}
	if cfgErr != nil {
		// Defaults still apply; the broken file should not go unnoticed.
		fmt.Fprintf(r.out, "config: %v\n", cfgErr)
	}
	return r
}

// Run executes every registered root suite in order, prints the report,
// and returns the summary. Registration mistakes recorded during
// collection surface as the error.
func (r *Runner) Run() (Summary, error) {
	start := time.Now()
	// Close on every exit path; a consumer like the dashboard waits for
	// the close to know the run is over.
	defer func() {
		if r.events != nil {
			close(r.events)
		}
	}()
	if r.Collector.Err != nil {
		return Summary{}, r.Collector.Err
	}

	for _, root := range r.Collector.Roots {
		only := root.HasOnly()
		r.runSuite(root, nil, r.defaults, chain{}, only, false)
	}

	var sum Summary
	for _, res := range r.results {
		switch res.Outcome {
		case OutcomePassed:
			sum.Passed++
		case OutcomeFailed:
			sum.Failed++
		case OutcomeSkipped:
			sum.Skipped++
		case OutcomePending:
			sum.Pending++
		}
	}
	sum.Elapsed = time.Since(start)

	r.report(sum)
	return sum, nil
}

// Results returns the per-test records of the last Run.
func (r *Runner) Results() []Result { return r.results }

type chain struct {
	before []run.Hook
	after  []run.Hook
}

func (c chain) extend(n *run.Node) chain {
	return chain{
		before: append(append([]run.Hook(nil), c.before...), n.BeforeEach...),
		after:  append(append([]run.Hook(nil), n.AfterEach...), c.after...),
	}
}

func (r *Runner) emit(ev Event) {
	if r.events != nil {
		ev.When = time.Now()
		r.events <- ev
	}
}

func (r *Runner) runSuite(n *run.Node, path []string, inherited deckhand.Settings, hooks chain, onlyActive, selected bool) {
	switch n.Settings.Execution {
	case deckhand.ExecSkip:
		r.recordAll(n, path, OutcomeSkipped, nil)
		return
	case deckhand.ExecPending:
		r.recordAll(n, path, OutcomePending, nil)
		return
	case deckhand.ExecOnly:
		selected = true
	}

	settings := run.Inherit(inherited, n.Settings)
	subPath := append(append([]string(nil), path...), n.Name)
	sub := hooks.extend(n)

	r.emit(Event{Kind: EventSuiteStarted, Path: path, Name: n.Name})
	defer r.emit(Event{Kind: EventSuiteFinished, Path: path, Name: n.Name})

	for _, h := range n.BeforeAll {
		if err := run.Invoke(h.Body, run.Inherit(settings, h.Settings).Timeout); err != nil {
			// The whole subtree is unrunnable without its setup.
			r.recordAll(n, path, OutcomeFailed, err)
			r.runAfterAll(n, settings)
			return
		}
	}

	for _, it := range n.Items {
		switch {
		case it.Suite != nil:
			if onlyActive && !selected && !it.Suite.HasOnly() {
				continue
			}
			r.runSuite(it.Suite, subPath, settings, sub, onlyActive, selected)
		case it.Test != nil:
			if onlyActive && !selected && it.Test.Settings.Execution != deckhand.ExecOnly {
				continue
			}
			r.runTest(it.Test, subPath, settings, sub)
		}
	}

	r.runAfterAll(n, settings)
}

func (r *Runner) runAfterAll(n *run.Node, settings deckhand.Settings) {
	for _, h := range n.AfterAll {
		if err := run.Invoke(h.Body, run.Inherit(settings, h.Settings).Timeout); err != nil {
			r.printf("%s afterAll %q: %v\n", n.Name, h.Name, err)
		}
	}
}

func (r *Runner) runTest(tc *run.Test, path []string, inherited deckhand.Settings, hooks chain) {
	settings := run.Inherit(inherited, tc.Settings)
	switch settings.Execution {
	case deckhand.ExecSkip:
		r.record(Result{Path: path, Name: tc.Name, Outcome: OutcomeSkipped})
		return
	case deckhand.ExecPending:
		r.record(Result{Path: path, Name: tc.Name, Outcome: OutcomePending})
		return
	}

	r.emit(Event{Kind: EventTestStarted, Path: path, Name: tc.Name})

	out := run.ExecuteTest(tc, settings, hooks.before, hooks.after)

	res := Result{
		Path:    path,
		Name:    tc.Name,
		Elapsed: out.Elapsed,
		Slow:    settings.Slow > 0 && out.Elapsed > settings.Slow,
	}
	if out.Err != nil {
		res.Outcome = OutcomeFailed
		res.Err = out.Err
	}
	r.record(res)
}

func (r *Runner) record(res Result) {
	r.results = append(r.results, res)
	r.emit(Event{Kind: EventTestFinished, Path: res.Path, Name: res.Name, Result: &res})
}

// recordAll records every test under n with the given outcome, without
// running anything.
func (r *Runner) recordAll(n *run.Node, path []string, outcome Outcome, err error) {
	subPath := append(append([]string(nil), path...), n.Name)
	for _, it := range n.Items {
		switch {
		case it.Suite != nil:
			r.recordAll(it.Suite, subPath, outcome, err)
		case it.Test != nil:
			r.record(Result{Path: subPath, Name: it.Test.Name, Outcome: outcome, Err: err})
		}
	}
}
