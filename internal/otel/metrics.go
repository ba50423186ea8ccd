package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "pane-wrangler"

// Metrics holds all OTEL metric instruments for pane-wrangler.
// All counters are cumulative (monotonic) and safe for concurrent use.
type Metrics struct {
	// Operations counts public session operations, partitioned by
	// operation and outcome via attributes.
	Operations metric.Int64Counter

	// InterferenceWarnings counts sends blocked because a human
	// appeared to be typing.
	InterferenceWarnings metric.Int64Counter

	// Truncations counts captures whose output exceeded the line or
	// byte budget.
	Truncations metric.Int64Counter

	// CapturedBytes totals the bytes returned to callers after
	// truncation.
	CapturedBytes metric.Int64Counter

	// LockReleases counts completion-lock releases, partitioned by
	// path (kill, not-found, create-failure).
	LockReleases metric.Int64Counter
}

// NewMetrics creates all metric instruments. Returns no-op instruments
// when no MeterProvider is registered (safe to call unconditionally).
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.Operations, err = meter.Int64Counter("session.operations",
		metric.WithDescription("Session operations partitioned by operation and outcome"))
	if err != nil {
		return nil, err
	}

	m.InterferenceWarnings, err = meter.Int64Counter("session.interference_warnings",
		metric.WithDescription("Sends withheld because pending human input was detected"))
	if err != nil {
		return nil, err
	}

	m.Truncations, err = meter.Int64Counter("capture.truncations",
		metric.WithDescription("Captures truncated by the line or byte budget"))
	if err != nil {
		return nil, err
	}

	m.CapturedBytes, err = meter.Int64Counter("capture.bytes",
		metric.WithDescription("Bytes of pane output returned to callers"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, err
	}

	m.LockReleases, err = meter.Int64Counter("locks.releases",
		metric.WithDescription("Completion-lock releases partitioned by release path"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordOperation records one public operation with its outcome
// ("ok" or the error kind).
func (m *Metrics) RecordOperation(ctx context.Context, op, outcome string) {
	if m == nil {
		return
	}
	m.Operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("session.operation", op),
		attribute.String("session.outcome", outcome),
	))
}

// RecordInterference records a send withheld by the typing detector.
func (m *Metrics) RecordInterference(ctx context.Context) {
	if m == nil {
		return
	}
	m.InterferenceWarnings.Add(ctx, 1)
}

// RecordCapture records capture output size and whether it was truncated.
func (m *Metrics) RecordCapture(ctx context.Context, shownBytes int, truncated bool) {
	if m == nil {
		return
	}
	m.CapturedBytes.Add(ctx, int64(shownBytes))
	if truncated {
		m.Truncations.Add(ctx, 1)
	}
}

// RecordLockRelease records a completion-lock release on the given path.
func (m *Metrics) RecordLockRelease(ctx context.Context, path string) {
	if m == nil {
		return
	}
	m.LockReleases.Add(ctx, 1, metric.WithAttributes(
		attribute.String("locks.release_path", path),
	))
}
