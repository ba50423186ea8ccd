package session

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/timvw/pane-wrangler/internal/locks"
	"github.com/timvw/pane-wrangler/internal/model"
)

// Kill terminates a session. Idempotent: killing an already-gone name
// reports Existed=false instead of erroring, because the end state — no
// such session — matches the caller's intent. Any held completion lock
// is released on every path, and all local state for the name is
// cleared, including the interference-warning cache.
func (m *Manager) Kill(ctx context.Context, name string) (*model.KillResult, error) {
	op := "kill"
	ctx, span := tracer.Start(ctx, op,
		trace.WithAttributes(attribute.String("session.name", name)))
	defer span.End()

	if !m.mux.InsideSession() {
		return nil, m.fail(ctx, span, m.notInside(op))
	}

	live, err := m.liveSessions(ctx, op)
	if err != nil {
		return nil, m.fail(ctx, span, err)
	}
	alive := false
	for _, s := range live {
		if s.Name == name {
			alive = true
			break
		}
	}

	sess, _ := m.reg.Get(name)
	lock := locks.Lock{Key: sess.LockName, Path: m.locks.PathFor(sess.LockName)}
	if sess.LockName == "" {
		lock = locks.Lock{}
	}

	if !alive {
		released := m.releaseLock(ctx, lock, "not-found")
		m.reg.Delete(name)
		m.metrics.RecordOperation(ctx, op, "ok")
		return &model.KillResult{
			Existed:      false,
			LockReleased: released,
			LockName:     sess.LockName,
		}, nil
	}

	res, muxErr := m.mux.KillSession(ctx, name)

	// Release regardless of the kill call's own result; the lock must
	// never outlive the session.
	released := m.releaseLock(ctx, lock, "kill")
	m.reg.Delete(name)

	if muxErr != nil {
		return nil, m.fail(ctx, span, errf(op, KindInternal, "killing session: %v", muxErr))
	}
	if !res.OK() {
		e := errf(op, KindKillFailed, "killing session %q failed", name)
		e.Diag = strings.TrimSpace(res.Stderr)
		return nil, m.fail(ctx, span, e)
	}

	span.SetAttributes(attribute.Bool("kill.lock_released", released))
	m.metrics.RecordOperation(ctx, op, "ok")
	return &model.KillResult{
		Existed:      true,
		Killed:       true,
		LockReleased: released,
		LockName:     sess.LockName,
	}, nil
}
