// Package run holds the registration tree and execution primitives
// shared by the concrete Runner implementations. The deckhand core
// registers suites, hooks, and tests through a Collector; runners then
// traverse the collected tree with their own scheduling and reporting.
package run

import (
	"errors"

	"github.com/deckhand-dev/deckhand/deckhand"
)

// Hook is one registered lifecycle step.
type Hook struct {
	Name     string
	Body     deckhand.Body
	Settings deckhand.Settings
}

// Test is one registered test.
type Test struct {
	Name     string
	Body     deckhand.Body
	Settings deckhand.Settings
}

// Item is one ordered child of a suite: either a test or a nested
// suite, never both.
type Item struct {
	Test  *Test
	Suite *Node
}

// Node is one registered suite.
type Node struct {
	Name     string
	Settings deckhand.Settings

	BeforeAll  []Hook
	BeforeEach []Hook
	AfterEach  []Hook
	AfterAll   []Hook

	Items []Item
}

// HasOnly reports whether the node, or anything below it, is marked for
// exclusive execution.
func (n *Node) HasOnly() bool {
	if n.Settings.Execution == deckhand.ExecOnly {
		return true
	}
	for _, it := range n.Items {
		if it.Test != nil && it.Test.Settings.Execution == deckhand.ExecOnly {
			return true
		}
		if it.Suite != nil && it.Suite.HasOnly() {
			return true
		}
	}
	return false
}

// ErrOutsideSuite reports a hook or test registration made while no
// suite registration was in progress.
var ErrOutsideSuite = errors.New("registration outside a suite")

// Collector implements the registration half of deckhand.Runner: it
// records suites, hooks, and tests into a tree of Nodes. Completed
// root suites accumulate in Roots for the owner to execute.
type Collector struct {
	stack []*Node

	// Roots are the fully registered top-level suites, in
	// registration order.
	Roots []*Node

	// Err records the first misuse of the registration surface.
	Err error
}

// Suite records a suite and synchronously runs its register callback
// with the suite as the current registration target.
func (c *Collector) Suite(name string, register func() error, settings deckhand.Settings) error {
	n := &Node{Name: name, Settings: settings}
	if len(c.stack) == 0 {
		c.Roots = append(c.Roots, n)
	} else {
		top := c.top()
		top.Items = append(top.Items, Item{Suite: n})
	}
	c.stack = append(c.stack, n)
	err := register()
	c.stack = c.stack[:len(c.stack)-1]
	return err
}

// Test records a test under the current suite.
func (c *Collector) Test(name string, body deckhand.Body, settings deckhand.Settings) {
	if n := c.current(); n != nil {
		n.Items = append(n.Items, Item{Test: &Test{Name: name, Body: body, Settings: settings}})
	}
}

// BeforeAll records a once-per-suite setup hook.
func (c *Collector) BeforeAll(name string, body deckhand.Body, settings deckhand.Settings) {
	if n := c.current(); n != nil {
		n.BeforeAll = append(n.BeforeAll, Hook{Name: name, Body: body, Settings: settings})
	}
}

// BeforeEach records a per-test setup hook.
func (c *Collector) BeforeEach(name string, body deckhand.Body, settings deckhand.Settings) {
	if n := c.current(); n != nil {
		n.BeforeEach = append(n.BeforeEach, Hook{Name: name, Body: body, Settings: settings})
	}
}

// AfterEach records a per-test teardown hook.
func (c *Collector) AfterEach(name string, body deckhand.Body, settings deckhand.Settings) {
	if n := c.current(); n != nil {
		n.AfterEach = append(n.AfterEach, Hook{Name: name, Body: body, Settings: settings})
	}
}

// AfterAll records a once-per-suite teardown hook.
func (c *Collector) AfterAll(name string, body deckhand.Body, settings deckhand.Settings) {
	if n := c.current(); n != nil {
		n.AfterAll = append(n.AfterAll, Hook{Name: name, Body: body, Settings: settings})
	}
}

func (c *Collector) top() *Node { return c.stack[len(c.stack)-1] }

func (c *Collector) current() *Node {
	if len(c.stack) == 0 {
		if c.Err == nil {
			c.Err = ErrOutsideSuite
		}
		return nil
	}
	return c.top()
}
