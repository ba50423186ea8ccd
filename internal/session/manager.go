// Package session implements the session lifecycle operations exposed to
// the orchestrating caller: spawn, capture, send, kill, and the
// coding-agent spawn-and-await composite.
//
// The local registry is only a cache. The multiplexer is the single
// source of truth for liveness, so every operation reconciles the
// registry against a live session listing before trusting it for a
// destructive action or a not-found decision.
package session

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/timvw/pane-wrangler/internal/config"
	"github.com/timvw/pane-wrangler/internal/locks"
	"github.com/timvw/pane-wrangler/internal/mux"
	pwotel "github.com/timvw/pane-wrangler/internal/otel"
	"github.com/timvw/pane-wrangler/internal/registry"
)

var tracer = otel.Tracer("pane-wrangler")

// SessionEnvVar carries the resolved session name into the child
// process, so nested processes (in particular a nested coding agent)
// can reuse it as their own coordination identity.
const SessionEnvVar = "PANE_WRANGLER_SESSION"

// lockEnvVar carries the completion-lock marker path into the wrapped
// command, which removes it on exit.
const lockEnvVar = "PANE_WRANGLER_LOCK"

// Manager owns one registry instance and composes the multiplexer
// driver, lock manager, and text transforms into the public operations.
type Manager struct {
	mux     mux.Multiplexer
	reg     *registry.Registry
	locks   *locks.Manager
	cfg     *config.Config
	metrics *pwotel.Metrics // nil-safe
}

// New creates a manager. A nil metrics is fine; recording is a no-op.
func New(m mux.Multiplexer, reg *registry.Registry, lockMgr *locks.Manager, cfg *config.Config, metrics *pwotel.Metrics) *Manager {
	return &Manager{mux: m, reg: reg, locks: lockMgr, cfg: cfg, metrics: metrics}
}

// Registry exposes the manager's session cache (read-mostly, for the
// watch TUI and diagnostics).
func (m *Manager) Registry() *registry.Registry {
	return m.reg
}

// List returns all live sessions with their attached flag. Read-only
// diagnostic; the registry is not reconciled.
func (m *Manager) List(ctx context.Context) ([]mux.SessionInfo, error) {
	ctx, span := tracer.Start(ctx, "list")
	defer span.End()

	if !m.mux.InsideSession() {
		return nil, m.fail(ctx, span, m.notInside("list"))
	}
	live, err := m.liveSessions(ctx, "list")
	if err != nil {
		return nil, m.fail(ctx, span, err)
	}
	span.SetAttributes(attribute.Int("sessions.total", len(live)))
	m.metrics.RecordOperation(ctx, "list", "ok")
	return live, nil
}

// liveSessions queries the multiplexer for all live sessions.
func (m *Manager) liveSessions(ctx context.Context, op string) ([]mux.SessionInfo, error) {
	res, err := m.mux.ListSessions(ctx)
	if err != nil {
		return nil, errf(op, KindInternal, "listing sessions: %v", err)
	}
	if !res.OK() {
		e := errf(op, KindInternal, "listing sessions failed")
		e.Diag = strings.TrimSpace(res.Stderr)
		return nil, e
	}
	return mux.ParseSessions(res.Stdout), nil
}

// reconcile checks name against the live listing. When the session is
// gone it is deregistered locally and a not-found error naming the
// currently live sessions is returned.
func (m *Manager) reconcile(ctx context.Context, op, name string) ([]mux.SessionInfo, error) {
	live, err := m.liveSessions(ctx, op)
	if err != nil {
		return nil, err
	}
	for _, s := range live {
		if s.Name == name {
			return live, nil
		}
	}
	m.reg.Delete(name)
	e := errf(op, KindNotFound, "no session named %q", name)
	e.Sessions = mux.SessionNames(live)
	return nil, e
}

// notInside is the hard precondition failure used by every operation.
func (m *Manager) notInside(op string) *Error {
	return errf(op, KindUnavailable, "not running inside a %s session", m.mux.Name())
}

// fail records the failed operation on the span and metrics and passes
// the error through.
func (m *Manager) fail(ctx context.Context, span trace.Span, err error) error {
	if e, ok := err.(*Error); ok {
		span.SetAttributes(
			attribute.String("error.kind", string(e.Kind)),
			attribute.String("session.operation", e.Op),
		)
		m.metrics.RecordOperation(ctx, e.Op, string(e.Kind))
	}
	return err
}

// shellQuote single-quotes s for POSIX sh, escaping embedded quotes.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
