package run

import (
	"fmt"
	"time"

	"github.com/deckhand-dev/deckhand/deckhand"
)

// Invoke executes a body and waits for it to settle, honoring the given
// timeout when positive. Panics inside the body surface as errors so a
// broken test cannot take the whole run down.
//
// On timeout the body's goroutine is abandoned; runners treat timeouts
// as test failures, not as cancellation.
func Invoke(body deckhand.Body, timeout time.Duration) error {
	result := make(chan error, 1)

	switch body.Style() {
	case deckhand.StyleCallback:
		go func() {
			defer recoverTo(result)
			fired := make(chan error, 1)
			body.Callback(func(err error) {
				select {
				case fired <- err:
				default: // Done called more than once
				}
			})
			result <- <-fired
		}()
	case deckhand.StyleFuture:
		go func() {
			defer recoverTo(result)
			result <- body.Future().Wait()
		}()
	default:
		go func() {
			defer recoverTo(result)
			result <- body.Sync()
		}()
	}

	if timeout <= 0 {
		return <-result
	}
	select {
	case err := <-result:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("timed out after %v", timeout)
	}
}

func recoverTo(result chan<- error) {
	if p := recover(); p != nil {
		result <- fmt.Errorf("panic: %v", p)
	}
}

// TestResult is the outcome of one ExecuteTest call. Elapsed covers the
// body attempts only, not the hook chains.
type TestResult struct {
	Err     error
	Elapsed time.Duration
}

// ExecuteTest runs one collected test between its hook chains. Before
// hooks run in order; the first failure fails the test and the body
// never runs. The body runs up to Retries+1 times. After hooks always
// run so completed setup steps can be unwound, but their errors are
// dropped once the test has already failed — with no live instance the
// instance-bound teardown cannot do better than restate the setup
// failure.
func ExecuteTest(tc *Test, settings deckhand.Settings, before, after []Hook) TestResult {
	var failure error
	for _, h := range before {
		if err := Invoke(h.Body, Inherit(settings, h.Settings).Timeout); err != nil {
			failure = fmt.Errorf("%s: %w", h.Name, err)
			break
		}
	}

	var elapsed time.Duration
	if failure == nil {
		start := time.Now()
		attempts := settings.Retries + 1
		for i := 0; i < attempts; i++ {
			if failure = Invoke(tc.Body, settings.Timeout); failure == nil {
				break
			}
		}
		elapsed = time.Since(start)
	}

	for _, h := range after {
		if err := Invoke(h.Body, Inherit(settings, h.Settings).Timeout); err != nil && failure == nil {
			failure = fmt.Errorf("%s: %w", h.Name, err)
		}
	}

	return TestResult{Err: failure, Elapsed: elapsed}
}

// Inherit folds parent settings into child settings: timing values fall
// back to the parent's when unset; execution mode and retries stay the
// child's own unless unset.
func Inherit(parent, child deckhand.Settings) deckhand.Settings {
	out := child
	if out.Timeout == 0 {
		out.Timeout = parent.Timeout
	}
	if out.Slow == 0 {
		out.Slow = parent.Slow
	}
	if out.Retries == 0 {
		out.Retries = parent.Retries
	}
	if out.Execution == deckhand.ExecNormal {
		out.Execution = parent.Execution
	}
	return out
}
