package deckhand

import (
	"time"

	"github.com/deckhand-dev/deckhand/internal/mark"
)

// Trait annotates a suite type, test method, or hook with one piece of
// metadata. Traits apply in argument order, so later traits win where
// they target the same slot.
type Trait struct {
	apply func(st *mark.Store, entity any)
}

var noop = Trait{apply: func(*mark.Store, any) {}}

// Named sets the display name. It is the only way an already-set name
// is replaced.
func Named(name string) Trait {
	return Trait{apply: func(st *mark.Store, e any) { st.Set(e, mark.Name, name) }}
}

// Pending marks the target as pending: reported, never run.
func Pending() Trait { return PendingIf(true) }

// PendingIf marks the target pending when cond is true and does
// nothing otherwise.
func PendingIf(cond bool) Trait { return execIf(cond, ExecPending) }

// Only marks the target for exclusive execution.
func Only() Trait { return OnlyIf(true) }

// OnlyIf marks the target exclusive when cond is true and does nothing
// otherwise.
func OnlyIf(cond bool) Trait { return execIf(cond, ExecOnly) }

// Skip excludes the target from execution.
func Skip() Trait { return SkipIf(true) }

// SkipIf excludes the target when cond is true and does nothing
// otherwise.
func SkipIf(cond bool) Trait { return execIf(cond, ExecSkip) }

func execIf(cond bool, mode Execution) Trait {
	if !cond {
		return noop
	}
	return Trait{apply: func(st *mark.Store, e any) { st.Set(e, mark.Execution, mode) }}
}

// Slow declares the threshold past which the runner should flag the
// target as slow.
func Slow(d time.Duration) Trait {
	return Trait{apply: func(st *mark.Store, e any) { st.Set(e, mark.Slow, d) }}
}

// Timeout declares the runner-enforced time limit for the target.
func Timeout(d time.Duration) Trait {
	return Trait{apply: func(st *mark.Store, e any) { st.Set(e, mark.Timeout, d) }}
}

// Retries declares how many times the runner may rerun the target
// before reporting failure.
func Retries(n int) Trait {
	return Trait{apply: func(st *mark.Store, e any) { st.Set(e, mark.Retries, n) }}
}

// NamedBy sets the naming function used for parameter cases that carry
// no explicit name. The function receives the case value.
func NamedBy(fn func(value any) string) Trait {
	return Trait{apply: func(st *mark.Store, e any) { st.Set(e, mark.NamingFunc, fn) }}
}

// Compose bundles several traits into one, applied in order.
func Compose(traits ...Trait) Trait {
	return Trait{apply: func(st *mark.Store, e any) {
		for _, t := range traits {
			t.apply(st, e)
		}
	}}
}
