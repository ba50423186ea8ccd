package session

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/timvw/pane-wrangler/internal/capture"
	"github.com/timvw/pane-wrangler/internal/model"
	"github.com/timvw/pane-wrangler/internal/mux"
)

// Capture returns the last lines of a session's output, bounded by the
// requested line count and the configured byte budget, tail-preserving.
// lines <= 0 uses the configured default.
//
// A session discovered live in the multiplexer but unknown to this
// process (e.g. after a restart) is lazily registered with no lock
// association.
func (m *Manager) Capture(ctx context.Context, name string, lines int) (*model.CaptureResult, error) {
	return m.capture(ctx, "capture", name, lines, false)
}

func (m *Manager) capture(ctx context.Context, op, name string, lines int, stripBanner bool) (*model.CaptureResult, error) {
	ctx, span := tracer.Start(ctx, op,
		trace.WithAttributes(attribute.String("session.name", name)))
	defer span.End()

	if !m.mux.InsideSession() {
		return nil, m.fail(ctx, span, m.notInside(op))
	}
	if lines <= 0 {
		lines = m.cfg.CaptureLines
	}

	if _, err := m.reconcile(ctx, op, name); err != nil {
		return nil, m.fail(ctx, span, err)
	}
	sess, tracked := m.reg.Get(name)
	if !tracked {
		sess = m.reg.Adopt(name, model.KindCommand)
	}

	res, err := m.mux.CapturePane(ctx, m.target(sess), lines)
	if err != nil {
		return nil, m.fail(ctx, span, errf(op, KindInternal, "capturing pane: %v", err))
	}
	if !res.OK() {
		return nil, m.fail(ctx, span, m.classifyGone(ctx, op, name, res))
	}

	text := capture.TrimTrailingBlank(res.Stdout)
	if stripBanner {
		text = capture.StripStartupBanner(text)
	}
	result := capture.Truncate(text, lines, m.cfg.CaptureMaxBytes)

	span.SetAttributes(
		attribute.Int("capture.shown_lines", result.ShownLines),
		attribute.Int("capture.total_lines", result.TotalLines),
		attribute.Bool("capture.truncated", result.Truncated),
	)
	m.metrics.RecordCapture(ctx, result.ShownBytes, result.Truncated)
	m.metrics.RecordOperation(ctx, op, "ok")
	return &result, nil
}

// target addresses a session by its backing handle when known, falling
// back to the name for adopted sessions.
func (m *Manager) target(sess model.Session) string {
	if sess.PaneID != "" {
		return sess.PaneID
	}
	return sess.Name
}

// classifyGone maps a non-zero multiplexer result to an error kind. A
// "can't find session" failure means the session vanished between the
// liveness check and the action — a true race the multiplexer resolves —
// and is reported as not-found after deregistering.
func (m *Manager) classifyGone(ctx context.Context, op, name string, res mux.Result) *Error {
	stderr := strings.TrimSpace(res.Stderr)
	if strings.Contains(stderr, "can't find") || strings.Contains(stderr, "not found") {
		m.reg.Delete(name)
		e := errf(op, KindNotFound, "session %q vanished", name)
		e.Diag = stderr
		if live, err := m.liveSessions(ctx, op); err == nil {
			e.Sessions = mux.SessionNames(live)
		}
		return e
	}
	e := errf(op, KindInternal, "%s failed for session %q", op, name)
	e.Diag = stderr
	return e
}
