package reconciler

import (
	"context"
	"errors"
	"fmt"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"

	"github.com/nutcracker-tools/beholder/internal/metrics"
	"github.com/nutcracker-tools/beholder/internal/models"
	"github.com/nutcracker-tools/beholder/internal/proxyconf"
	"github.com/nutcracker-tools/beholder/internal/sentinel"
)

// EventSource is the sentinel notification stream.
type EventSource interface {
	Connect(ctx context.Context) error
	Next(ctx context.Context) (string, error)
	Close() error
}

// ConfigApplier maps an event onto the proxy config and commits it.
type ConfigApplier interface {
	ApplySwitch(ev models.SwitchMaster) (bool, error)
}

// Restarter applies a committed config to the running proxy.
type Restarter interface {
	Apply(ctx context.Context) error
}

// Reconciler is the top-level control loop:
// connect -> subscribe -> for each event parse, resolve, rewrite, restart.
// Per-event failures are isolated; only an exhausted reconnect budget is
// fatal.
type Reconciler struct {
	source  EventSource
	proxy   ConfigApplier
	restart Restarter
	metrics metrics.Metrics

	// retryCount bounds reconnect attempts per disconnection:
	// -1 is unlimited.
	retryCount    int
	retryInterval time.Duration

	log zerolog.Logger
}

func New(
	source EventSource,
	proxy ConfigApplier,
	restart Restarter,
	m metrics.Metrics,
	retryCount int,
	retryInterval time.Duration,
	logger zerolog.Logger,
) *Reconciler {
	return &Reconciler{
		source:        source,
		proxy:         proxy,
		restart:       restart,
		metrics:       m,
		retryCount:    retryCount,
		retryInterval: retryInterval,
		log:           logger.With().Str("component", "reconciler").Logger(),
	}
}

// Run drives the loop until ctx is canceled (clean shutdown, returns nil)
// or the reconnect budget is exhausted (returns the connection error).
// Events are processed strictly in arrival order, one at a time: two
// overlapping rewrites of the same file would race.
func (r *Reconciler) Run(ctx context.Context) error {
	defer r.source.Close()

	// a shutdown signal must unblock an in-progress Next
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = r.source.Close()
		case <-done:
		}
	}()

	for {
		if err := r.connect(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		err := r.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		r.metrics.Increment("reconnects")
		r.log.Warn().Err(err).Msg("sentinel connection lost, reconnecting")
	}
}

// connect attempts connect+subscribe under the configured budget. Each
// disconnection gets a fresh budget, so transient reconnects never exhaust
// a counter reserved for sustained outages.
func (r *Reconciler) connect(ctx context.Context) error {
	attempts := uint(0) // retry until success
	if r.retryCount >= 0 {
		attempts = uint(r.retryCount) + 1
	}
	err := retry.Do(
		func() error {
			return r.source.Connect(ctx)
		},
		retry.Attempts(attempts),
		retry.Delay(r.retryInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			r.log.Warn().Err(err).Uint("attempt", n+1).Msg("sentinel connection failed, retrying")
		}),
	)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return fmt.Errorf("failed to connect to sentinel, retries exhausted: %w", err)
	}
	return nil
}

func (r *Reconciler) listen(ctx context.Context) error {
	r.log.Info().Msg("subscribed, listening for switch-master events")
	for {
		payload, err := r.source.Next(ctx)
		if err != nil {
			return err
		}
		r.handle(ctx, payload)
	}
}

// handle runs one reconciliation cycle. Every failure is logged and
// dropped so one bad notification cannot take the whole agent down.
func (r *Reconciler) handle(ctx context.Context, payload string) {
	r.metrics.Increment("events.received")

	ev, err := sentinel.ParseSwitchMaster(payload)
	if err != nil {
		r.metrics.Increment("events.malformed")
		r.log.Warn().Err(err).Msg("discarding unparseable notification")
		return
	}

	started := time.Now()
	changed, err := r.proxy.ApplySwitch(ev)
	if err != nil {
		r.metrics.Increment("events.skipped")
		if errors.Is(err, proxyconf.ErrUnknownPool) {
			r.log.Warn().Str("pool", ev.Pool).Msg("switch-master for unmonitored pool, skipping")
			return
		}
		r.log.Error().Err(err).Str("pool", ev.Pool).Msg("failed to rewrite proxy config, dropping event")
		return
	}
	r.metrics.Duration("rewrite.duration", time.Since(started))

	if !changed {
		r.metrics.Increment("events.skipped")
		r.log.Info().Str("pool", ev.Pool).Msgf("pool already points at %s, nothing to do", ev.New)
		return
	}

	if err := r.restart.Apply(ctx); err != nil {
		r.metrics.Increment("restart.failures")
		r.log.Error().Err(err).Str("pool", ev.Pool).Msg("config rewritten but proxy restart failed")
		return
	}

	r.metrics.Increment("events.applied")
	r.log.Info().Str("pool", ev.Pool).Msgf("master changed %s -> %s", ev.Old, ev.New)
}
