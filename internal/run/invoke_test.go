package run

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deckhand-dev/deckhand/deckhand"
)

func TestInvoke_ReturnsBodyError_When_SyncStyle(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")

	assert.NoError(t, Invoke(deckhand.Body{Sync: func() error { return nil }}, 0))
	assert.ErrorIs(t, Invoke(deckhand.Body{Sync: func() error { return boom }}, 0), boom)
}

func TestInvoke_WaitsForDone_When_CallbackStyle(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")

	err := Invoke(deckhand.Body{Callback: func(done deckhand.Done) {
		go func() {
			time.Sleep(10 * time.Millisecond)
			done(boom)
		}()
	}}, 0)
	assert.ErrorIs(t, err, boom)
}

func TestInvoke_IgnoresExtraCalls_When_DoneFiredTwice(t *testing.T) {
	t.Parallel()
	err := Invoke(deckhand.Body{Callback: func(done deckhand.Done) {
		done(nil)
		done(errors.New("late"))
	}}, 0)
	assert.NoError(t, err)
}

func TestInvoke_WaitsOnFuture_When_FutureStyle(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")

	err := Invoke(deckhand.Body{Future: func() deckhand.Future {
		return deckhand.Go(func() error { return boom })
	}}, 0)
	assert.ErrorIs(t, err, boom)
}

func TestInvoke_ConvertsPanicToError_When_BodyPanics(t *testing.T) {
	t.Parallel()
	err := Invoke(deckhand.Body{Sync: func() error { panic("kaboom") }}, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestInvoke_FailsWithTimeout_When_BodyTooSlow(t *testing.T) {
	t.Parallel()
	err := Invoke(deckhand.Body{Sync: func() error {
		time.Sleep(time.Second)
		return nil
	}}, 20*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func syncHook(name string, fn func() error) Hook {
	return Hook{Name: name, Body: deckhand.Body{Sync: fn}}
}

func TestExecuteTest_SkipsBodyAndKeepsSetupError_When_BeforeHookFails(t *testing.T) {
	t.Parallel()
	rig := errors.New("rig collapsed")
	var bodyRan bool

	out := ExecuteTest(
		&Test{Name: "t", Body: deckhand.Body{Sync: func() error {
			bodyRan = true
			return nil
		}}},
		deckhand.Settings{},
		[]Hook{syncHook("setup", func() error { return rig })},
		[]Hook{syncHook("teardown", func() error { return errors.New("nothing to tear down") })},
	)

	assert.False(t, bodyRan)
	require.Error(t, out.Err)
	// The teardown error must not bury the real failure.
	assert.ErrorIs(t, out.Err, rig)
	assert.Contains(t, out.Err.Error(), "setup")
	assert.NotContains(t, out.Err.Error(), "nothing to tear down")
}

func TestExecuteTest_RunsAfterHooks_When_BodyFails(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	var toreDown bool

	out := ExecuteTest(
		&Test{Name: "t", Body: deckhand.Body{Sync: func() error { return boom }}},
		deckhand.Settings{},
		nil,
		[]Hook{syncHook("teardown", func() error {
			toreDown = true
			return nil
		})},
	)

	assert.True(t, toreDown)
	assert.ErrorIs(t, out.Err, boom)
}

func TestExecuteTest_ReportsAfterHookError_When_TestOtherwisePassed(t *testing.T) {
	t.Parallel()
	leak := errors.New("leaked")

	out := ExecuteTest(
		&Test{Name: "t", Body: deckhand.Body{Sync: func() error { return nil }}},
		deckhand.Settings{},
		nil,
		[]Hook{syncHook("teardown", func() error { return leak })},
	)

	require.Error(t, out.Err)
	assert.ErrorIs(t, out.Err, leak)
	assert.Contains(t, out.Err.Error(), "teardown")
}

func TestExecuteTest_RetriesBody_When_RetriesDeclared(t *testing.T) {
	t.Parallel()
	attempts := 0

	out := ExecuteTest(
		&Test{Name: "t", Body: deckhand.Body{Sync: func() error {
			attempts++
			if attempts < 3 {
				return errors.New("not yet")
			}
			return nil
		}}},
		deckhand.Settings{Retries: 2},
		nil, nil,
	)

	assert.NoError(t, out.Err)
	assert.Equal(t, 3, attempts)
}

func TestInherit_FillsUnsetValues_When_ParentDeclared(t *testing.T) {
	t.Parallel()
	parent := deckhand.Settings{
		Timeout:   time.Second,
		Slow:      100 * time.Millisecond,
		Retries:   2,
		Execution: deckhand.ExecSkip,
	}

	got := Inherit(parent, deckhand.Settings{})
	assert.Equal(t, parent, got)

	child := deckhand.Settings{Timeout: time.Minute, Execution: deckhand.ExecOnly}
	got = Inherit(parent, child)
	assert.Equal(t, time.Minute, got.Timeout)
	assert.Equal(t, 100*time.Millisecond, got.Slow)
	assert.Equal(t, deckhand.ExecOnly, got.Execution)
}
