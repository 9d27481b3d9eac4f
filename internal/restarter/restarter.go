package restarter

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
)

// ProcessRunner executes the proxy restart action. It is a capability
// handed to the Coordinator so tests can substitute a fake.
type ProcessRunner interface {
	Run(ctx context.Context, command string) error
}

// ShellRunner invokes the configured command through the shell; success is
// exit code zero.
type ShellRunner struct{}

func (ShellRunner) Run(ctx context.Context, command string) error {
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("restart command failed: %w (output: %s)", err, bytes.TrimSpace(out))
	}
	return nil
}

// Coordinator applies the restart action after a committed rewrite,
// retrying a bounded number of times: a failed restart leaves the proxy on
// a stale config, which is exactly what beholder exists to prevent.
type Coordinator struct {
	runner   ProcessRunner
	command  string
	attempts uint
	delay    time.Duration
}

func NewCoordinator(runner ProcessRunner, command string, retryCount int, delay time.Duration) *Coordinator {
	if retryCount < 0 {
		retryCount = 0
	}
	return &Coordinator{
		runner:   runner,
		command:  command,
		attempts: uint(retryCount) + 1,
		delay:    delay,
	}
}

func (c *Coordinator) Apply(ctx context.Context) error {
	return retry.Do(
		func() error {
			return c.runner.Run(ctx, c.command)
		},
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().Err(err).Uint("attempt", n+1).Msg("proxy restart failed, retrying")
		}),
	)
}
