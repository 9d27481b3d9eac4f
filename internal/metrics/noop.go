package metrics

import "time"

// Noop is used when no statsd endpoint is configured, and in tests.
type Noop struct{}

func NewNoop() Metrics { return Noop{} }

func (Noop) Increment(string)               {}
func (Noop) Duration(string, time.Duration) {}
func (Noop) Gauge(string, int)              {}
