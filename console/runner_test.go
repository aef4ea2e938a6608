package console_test

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deckhand-dev/deckhand/console"
	"github.com/deckhand-dev/deckhand/deckhand"
	"github.com/deckhand-dev/deckhand/internal/config"
)

// trace records lifecycle milestones across a run. The console runner
// executes single-threaded, so no locking is needed.
var trace []string

func mark(step string) { trace = append(trace, step) }

func newRunner(opts ...console.Option) (*console.Runner, *bytes.Buffer) {
	var buf bytes.Buffer
	opts = append([]console.Option{console.WithWriter(&buf)}, opts...)
	return console.New(opts...), &buf
}

type LifecycleSuite struct {
	touched bool
}

func (s *LifecycleSuite) Before() { mark("before") }
func (s *LifecycleSuite) After()  { mark("after") }

func (s *LifecycleSuite) First() error {
	mark("first")
	if s.touched {
		return errors.New("instance reused across tests")
	}
	s.touched = true
	return nil
}

func (s *LifecycleSuite) Second() error {
	mark("second")
	if s.touched {
		return errors.New("instance reused across tests")
	}
	s.touched = true
	return nil
}

func TestRun_OrdersLifecycle_When_SuiteHasAllHooks(t *testing.T) {
	trace = nil
	desc := deckhand.Describe[LifecycleSuite]().
		BeforeAll(func() { mark("beforeAll") }).
		AfterAll(func() { mark("afterAll") }).
		Test("First").
		Test("Second")

	r, _ := newRunner()
	require.NoError(t, deckhand.New(r).Register(desc))

	sum, err := r.Run()
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Passed)
	assert.Zero(t, sum.Failed)

	assert.Equal(t, []string{
		"beforeAll",
		"before", "first", "after",
		"before", "second", "after",
		"afterAll",
	}, trace)
}

type ModeSuite struct{}

func (s *ModeSuite) Runs()      { mark("runs") }
func (s *ModeSuite) Skipped()   { mark("skipped body") }
func (s *ModeSuite) Postponed() { mark("pending body") }

func TestRun_ExcludesBodies_When_SkipAndPendingSet(t *testing.T) {
	trace = nil
	desc := deckhand.Describe[ModeSuite]().
		Test("Runs").
		Test("Skipped", deckhand.Skip()).
		Test("Postponed", deckhand.Pending())

	r, _ := newRunner()
	require.NoError(t, deckhand.New(r).Register(desc))

	sum, err := r.Run()
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Passed)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 1, sum.Pending)
	assert.Equal(t, []string{"runs"}, trace)

	outcomes := map[string]console.Outcome{}
	for _, res := range r.Results() {
		outcomes[res.Name] = res.Outcome
	}
	assert.Equal(t, console.OutcomeSkipped, outcomes["Skipped"])
	assert.Equal(t, console.OutcomePending, outcomes["Postponed"])
}

type ExclusiveSuite struct{}

func (s *ExclusiveSuite) Chosen()  { mark("chosen") }
func (s *ExclusiveSuite) Ignored() { mark("ignored") }

func TestRun_RunsOnlyMarkedTests_When_OnlyPresent(t *testing.T) {
	trace = nil
	desc := deckhand.Describe[ExclusiveSuite]().
		Test("Chosen", deckhand.Only()).
		Test("Ignored")

	r, _ := newRunner()
	require.NoError(t, deckhand.New(r).Register(desc))

	sum, err := r.Run()
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Total())
	assert.Equal(t, []string{"chosen"}, trace)
}

type FlakySuite struct{}

var flakyAttempts int

func (s *FlakySuite) EventuallyPasses() error {
	flakyAttempts++
	if flakyAttempts < 3 {
		return errors.New("not yet")
	}
	return nil
}

func TestRun_RerunsUntilPass_When_RetriesDeclared(t *testing.T) {
	flakyAttempts = 0
	desc := deckhand.Describe[FlakySuite]().
		Test("EventuallyPasses", deckhand.Retries(2))

	r, _ := newRunner()
	require.NoError(t, deckhand.New(r).Register(desc))

	sum, err := r.Run()
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Passed)
	assert.Equal(t, 3, flakyAttempts)
}

type SlowSuite struct{}

func (s *SlowSuite) Dawdles() { time.Sleep(30 * time.Millisecond) }

func TestRun_FlagsSlowTests_When_ThresholdExceeded(t *testing.T) {
	desc := deckhand.Describe[SlowSuite]().
		Test("Dawdles", deckhand.Slow(5*time.Millisecond))

	r, _ := newRunner()
	require.NoError(t, deckhand.New(r).Register(desc))

	_, err := r.Run()
	require.NoError(t, err)
	require.Len(t, r.Results(), 1)
	assert.True(t, r.Results()[0].Slow)
}

// wiredInjector builds InjectedSuite instances with the dial preset.
type wiredInjector struct{}

func (wiredInjector) Handles(t reflect.Type) bool {
	return t == reflect.TypeFor[InjectedSuite]()
}

func (wiredInjector) Create(t reflect.Type) (any, error) {
	return &InjectedSuite{dial: 11}, nil
}

type InjectedSuite struct {
	dial int
}

func (s *InjectedSuite) UsesDial() error {
	if s.dial != 11 {
		return fmt.Errorf("dial = %d, want the injected value", s.dial)
	}
	return nil
}

func TestRun_UsesCustomInjector_When_HandlesMatches(t *testing.T) {
	desc := deckhand.Describe[InjectedSuite]().Test("UsesDial")

	r, _ := newRunner()
	reg := deckhand.New(r)
	reg.Use(wiredInjector{})
	require.NoError(t, reg.Register(desc))

	sum, err := r.Run()
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Passed)
	assert.Zero(t, sum.Failed)
}

// brokenInjector refuses to build anything it handles.
type brokenInjector struct{}

func (brokenInjector) Handles(t reflect.Type) bool {
	return t == reflect.TypeFor[UnbuildableSuite]()
}

func (brokenInjector) Create(t reflect.Type) (any, error) {
	return nil, errors.New("wiring refused")
}

type UnbuildableSuite struct{}

func (s *UnbuildableSuite) NeverRuns() { mark("never") }
func (s *UnbuildableSuite) AlsoNever() { mark("also never") }

func TestRun_FailsTestsWithoutBodies_When_InstanceCreationFails(t *testing.T) {
	trace = nil
	desc := deckhand.Describe[UnbuildableSuite]().
		Test("NeverRuns").
		Test("AlsoNever")

	r, _ := newRunner()
	reg := deckhand.New(r)
	reg.Use(brokenInjector{})
	require.NoError(t, reg.Register(desc))

	sum, err := r.Run()
	require.NoError(t, err)
	// Both tests fail through the setup step; neither body runs, and
	// the first failure does not stop the second test.
	assert.Equal(t, 2, sum.Failed)
	assert.Empty(t, trace)
	for _, res := range r.Results() {
		require.Error(t, res.Err)
		assert.Contains(t, res.Err.Error(), "wiring refused")
	}
	assert.Equal(t, 1, sum.ExitCode())
}

type BrokenSetupSuite struct{}

func TestRun_FailsSubtree_When_BeforeAllFails(t *testing.T) {
	trace = nil
	desc := deckhand.Describe[BrokenSetupSuite]().
		BeforeAll(func() error { return errors.New("rig collapsed") }).
		AfterAll(func() { mark("afterAll") })

	r, _ := newRunner()
	require.NoError(t, deckhand.New(r).Register(desc))

	_, err := r.Run()
	require.NoError(t, err)
	// afterAll still runs so partial setup can be unwound.
	assert.Equal(t, []string{"afterAll"}, trace)
}

type ReportSuite struct{}

func (s *ReportSuite) ShinyPath() {}
func (s *ReportSuite) MuddyPath() error {
	return errors.New("stuck in the mud")
}

func TestRun_PrintsReport_When_RunFinishes(t *testing.T) {
	desc := deckhand.DescribeNamed[ReportSuite]("paths").
		Test("ShinyPath").
		Test("MuddyPath")

	r, buf := newRunner(console.WithHumanizedNames())
	require.NoError(t, deckhand.New(r).Register(desc))

	sum, err := r.Run()
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Failed)

	out := buf.String()
	assert.Contains(t, out, "paths")
	assert.Contains(t, out, "Shiny Path")
	assert.Contains(t, out, "stuck in the mud")
	assert.Contains(t, out, "1 passed")
	assert.Contains(t, out, "1 failed")
}

func TestRun_ClosesEventChannel_When_RegistrationInvalid(t *testing.T) {
	events := make(chan console.Event, 4)
	r, _ := newRunner(console.WithEvents(events))
	// A registration outside any suite poisons the collector.
	r.Test("stray", deckhand.Body{}, deckhand.Settings{})

	_, err := r.Run()
	require.Error(t, err)

	select {
	case _, open := <-events:
		assert.False(t, open, "channel should be closed, not carrying events")
	default:
		t.Fatal("events channel left open after Run returned an error")
	}
}

func TestNew_WarnsOnWriter_When_ConfigFileMalformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte("theme: [broken\n"), 0o644))
	t.Chdir(dir)

	var buf bytes.Buffer
	r := console.New(console.WithWriter(&buf))
	require.NotNil(t, r)
	assert.Contains(t, buf.String(), "config:")
}

func TestRun_EmitsEventsAndClosesChannel_When_EventSinkConfigured(t *testing.T) {
	desc := deckhand.DescribeNamed[SlowSuite]("paced").Test("Dawdles")

	events := make(chan console.Event, 16)
	r, _ := newRunner(console.WithEvents(events))
	require.NoError(t, deckhand.New(r).Register(desc))

	_, err := r.Run()
	require.NoError(t, err)

	var kinds []console.EventKind
	for ev := range events {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []console.EventKind{
		console.EventSuiteStarted,
		console.EventTestStarted,
		console.EventTestFinished,
		console.EventSuiteFinished,
	}, kinds)
}
