// Package gotest adapts the standard testing package to the
// deckhand.Runner interface. Suites map to nested t.Run calls; skip and
// pending map to t.Skip; declared timeouts, retries, and slow
// thresholds are enforced here, since the deckhand core only forwards
// them.
package gotest

import (
	"testing"

	"github.com/deckhand-dev/deckhand/deckhand"
	"github.com/deckhand-dev/deckhand/internal/run"
)

// Runner drives a *testing.T. Each root suite executes as soon as its
// registration callback returns, so a typical Go test is:
//
//	func TestCalculator(t *testing.T) {
//		reg := deckhand.New(gotest.New(t))
//		if err := reg.Register(calculatorSuite); err != nil {
//			t.Fatal(err)
//		}
//	}
type Runner struct {
	run.Collector
	t *testing.T
}

// New creates a runner bound to t.
func New(t *testing.T) *Runner {
	return &Runner{t: t}
}

// Suite registers a suite. Root suites execute immediately after their
// registration callback succeeds.
func (r *Runner) Suite(name string, register func() error, settings deckhand.Settings) error {
	root := len(r.Collector.Roots)
	if err := r.Collector.Suite(name, register, settings); err != nil {
		return err
	}
	if r.Err != nil {
		return r.Err
	}
	// Only a top-level registration grows Roots; nested suites are
	// attached to their parent and run with it.
	if len(r.Collector.Roots) > root {
		n := r.Collector.Roots[root]
		only := n.HasOnly()
		r.t.Run(n.Name, func(t *testing.T) {
			r.runSuite(t, n, deckhand.Settings{}, nil, only, false)
		})
	}
	return nil
}

// chainedHooks is the per-test hook chains accumulated down the suite
// path: before hooks outermost-first, after hooks innermost-first.
type chainedHooks struct {
	before []run.Hook
	after  []run.Hook
}

func (c *chainedHooks) extend(n *run.Node) chainedHooks {
	out := chainedHooks{
		before: append(append([]run.Hook(nil), c.before...), n.BeforeEach...),
		after:  append(append([]run.Hook(nil), n.AfterEach...), c.after...),
	}
	return out
}

func (r *Runner) runSuite(t *testing.T, n *run.Node, inherited deckhand.Settings, hooks *chainedHooks, onlyActive, selected bool) {
	settings := run.Inherit(inherited, n.Settings)
	switch n.Settings.Execution {
	case deckhand.ExecSkip:
		t.Skip("skipped")
	case deckhand.ExecPending:
		t.Skip("pending")
	case deckhand.ExecOnly:
		selected = true
	}

	if hooks == nil {
		hooks = &chainedHooks{}
	}
	chain := hooks.extend(n)

	for _, h := range n.BeforeAll {
		if err := run.Invoke(h.Body, run.Inherit(settings, h.Settings).Timeout); err != nil {
			t.Fatalf("beforeAll %q: %v", h.Name, err)
		}
	}

	for _, it := range n.Items {
		switch {
		case it.Suite != nil:
			sub := it.Suite
			if onlyActive && !selected && !sub.HasOnly() {
				continue
			}
			t.Run(sub.Name, func(t *testing.T) {
				r.runSuite(t, sub, settings, &chain, onlyActive, selected)
			})
		case it.Test != nil:
			tc := it.Test
			if onlyActive && !selected && tc.Settings.Execution != deckhand.ExecOnly {
				continue
			}
			t.Run(tc.Name, func(t *testing.T) {
				r.runTest(t, tc, settings, chain)
			})
		}
	}

	for _, h := range n.AfterAll {
		if err := run.Invoke(h.Body, run.Inherit(settings, h.Settings).Timeout); err != nil {
			t.Errorf("afterAll %q: %v", h.Name, err)
		}
	}
}

func (r *Runner) runTest(t *testing.T, tc *run.Test, inherited deckhand.Settings, hooks chainedHooks) {
	settings := run.Inherit(inherited, tc.Settings)
	switch settings.Execution {
	case deckhand.ExecSkip:
		t.Skip("skipped")
	case deckhand.ExecPending:
		t.Skip("pending")
	}

	out := run.ExecuteTest(tc, settings, hooks.before, hooks.after)
	if out.Err != nil {
		t.Errorf("%v", out.Err)
	}
	if settings.Slow > 0 && out.Elapsed > settings.Slow {
		t.Logf("slow: took %v (threshold %v)", out.Elapsed, settings.Slow)
	}
}
