package restarter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	calls    int
	failures int
	commands []string
}

func (f *fakeRunner) Run(_ context.Context, command string) error {
	f.calls++
	f.commands = append(f.commands, command)
	if f.calls <= f.failures {
		return errors.New("exit status 1")
	}
	return nil
}

func TestCoordinatorApply(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		runner := &fakeRunner{}
		c := NewCoordinator(runner, "systemctl restart nutcracker", 3, time.Millisecond)
		require.NoError(t, c.Apply(context.Background()))
		assert.Equal(t, 1, runner.calls)
		assert.Equal(t, []string{"systemctl restart nutcracker"}, runner.commands)
	})
	t.Run("RecoversWithinBudget", func(t *testing.T) {
		runner := &fakeRunner{failures: 2}
		c := NewCoordinator(runner, "restart", 3, time.Millisecond)
		require.NoError(t, c.Apply(context.Background()))
		assert.Equal(t, 3, runner.calls)
	})
	t.Run("ExhaustsBudget", func(t *testing.T) {
		runner := &fakeRunner{failures: 100}
		c := NewCoordinator(runner, "restart", 2, time.Millisecond)
		err := c.Apply(context.Background())
		require.Error(t, err)
		// retryCount retries on top of the first attempt
		assert.Equal(t, 3, runner.calls)
	})
	t.Run("ZeroRetriesSingleAttempt", func(t *testing.T) {
		runner := &fakeRunner{failures: 100}
		c := NewCoordinator(runner, "restart", 0, time.Millisecond)
		require.Error(t, c.Apply(context.Background()))
		assert.Equal(t, 1, runner.calls)
	})
	t.Run("CanceledContextStopsRetrying", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		runner := &fakeRunner{failures: 100}
		c := NewCoordinator(runner, "restart", 10, 10*time.Millisecond)
		err := c.Apply(ctx)
		require.Error(t, err)
		assert.Less(t, runner.calls, 11)
	})
}

func TestShellRunner(t *testing.T) {
	t.Run("ExitZero", func(t *testing.T) {
		require.NoError(t, ShellRunner{}.Run(context.Background(), "true"))
	})
	t.Run("ExitNonZero", func(t *testing.T) {
		err := ShellRunner{}.Run(context.Background(), "false")
		assert.Error(t, err)
	})
	t.Run("OutputInError", func(t *testing.T) {
		err := ShellRunner{}.Run(context.Background(), "echo boom >&2; exit 3")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
	})
}
