package session

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/timvw/pane-wrangler/internal/config"
	"github.com/timvw/pane-wrangler/internal/locks"
	"github.com/timvw/pane-wrangler/internal/model"
	"github.com/timvw/pane-wrangler/internal/mux"
)

// SpawnOptions tune session creation.
type SpawnOptions struct {
	// Cwd is the working directory for the spawned command.
	Cwd string
	// SkipLock suppresses completion-lock acquisition, for processes
	// that manage their own lock (nested coding agents).
	SkipLock bool
	// ExtraEnv holds additional session environment variables, set
	// alongside the coordination identity variable.
	ExtraEnv map[string]string
}

// Spawn creates a new named session running command.
//
// The name is resolved collision-free first; unless SkipLock, a
// completion lock keyed to the resolved name is acquired, and the
// command is wrapped so its own exit trap releases that lock exactly
// once — the lock does not depend on this process staying alive.
func (m *Manager) Spawn(ctx context.Context, name, command string, opts SpawnOptions) (*model.SpawnResult, error) {
	return m.spawn(ctx, "spawn", name, command, opts, model.KindCommand)
}

func (m *Manager) spawn(ctx context.Context, op, name, command string, opts SpawnOptions, kind model.Kind) (*model.SpawnResult, error) {
	ctx, span := tracer.Start(ctx, op,
		trace.WithAttributes(attribute.String("session.name", name)))
	defer span.End()

	if !m.mux.InsideSession() {
		return nil, m.fail(ctx, span, m.notInside(op))
	}
	if strings.TrimSpace(name) == "" {
		return nil, m.fail(ctx, span, errf(op, KindInternal, "session name is required"))
	}
	if strings.TrimSpace(command) == "" {
		return nil, m.fail(ctx, span, errf(op, KindInternal, "command is required"))
	}

	// Exact-name collisions at the local layer follow the configured
	// policy; anything else auto-renames via suffix probing.
	if m.reg.Has(name) && m.cfg.SpawnCollision == config.CollisionFail {
		return nil, m.fail(ctx, span, errf(op, KindAlreadyExists,
			"session %q already exists; pick another name or use capture/send/kill", name))
	}

	actual, err := m.resolveName(ctx, op, name)
	if err != nil {
		return nil, m.fail(ctx, span, err)
	}

	env := map[string]string{SessionEnvVar: actual}
	for k, v := range opts.ExtraEnv {
		if k != SessionEnvVar && k != lockEnvVar {
			env[k] = v
		}
	}

	var lock locks.Lock
	inner := command
	if !opts.SkipLock {
		lock, err = m.locks.Acquire(locks.KeyFor(actual))
		if err != nil {
			return nil, m.fail(ctx, span, errf(op, KindInternal, "acquiring lock: %v", err))
		}
		env[lockEnvVar] = lock.Path
		// The trap fires on any exit, including signals sh forwards, so
		// the marker is removed exactly once regardless of exit status.
		inner = fmt.Sprintf(`trap 'rm -f -- "$%s"' EXIT; %s`, lockEnvVar, command)
	}

	// Always execute through an explicit interpreter, never the ambient
	// default shell.
	wrapped := "exec /bin/sh -c " + shellQuote(inner)

	res, muxErr := m.mux.CreateSession(ctx, mux.CreateRequest{
		Name:    actual,
		Dir:     opts.Cwd,
		Env:     env,
		Command: wrapped,
	})
	if muxErr != nil || !res.OK() {
		// A cancelled or failed spawn must not leave an orphaned lock.
		m.releaseLock(ctx, lock, "create-failure")
		if muxErr != nil {
			return nil, m.fail(ctx, span, errf(op, KindInternal, "creating session: %v", muxErr))
		}
		e := errf(op, KindCreateFailed, "creating session %q failed", actual)
		e.Diag = strings.TrimSpace(res.Stderr)
		return nil, m.fail(ctx, span, e)
	}

	paneID := strings.TrimSpace(res.Stdout)

	// Keep the pane around after the command exits so output stays
	// inspectable. Best-effort: a failure here is not worth unwinding a
	// successfully created session.
	if persist, err := m.mux.SetRemainOnExit(ctx, paneID, true); err != nil || !persist.OK() {
		fmt.Fprintf(os.Stderr, "warning: remain-on-exit for %s: %s\n", actual, strings.TrimSpace(persist.Stderr))
	}

	m.reg.Put(model.Session{
		Name:      actual,
		PaneID:    paneID,
		CreatedAt: time.Now(),
		LockName:  lock.Key,
		Kind:      kind,
	})

	span.SetAttributes(
		attribute.String("session.actual_name", actual),
		attribute.String("session.pane_id", paneID),
	)
	m.metrics.RecordOperation(ctx, op, "ok")
	return &model.SpawnResult{
		ActualName: actual,
		LockName:   lock.Key,
		LockPath:   lock.Path,
	}, nil
}

// releaseLock is the best-effort release used on failure and kill paths.
func (m *Manager) releaseLock(ctx context.Context, lock locks.Lock, path string) bool {
	if lock.Key == "" {
		return false
	}
	released, err := m.locks.Release(lock)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: releasing lock %s: %v\n", lock.Key, err)
		return false
	}
	if released {
		m.metrics.RecordLockRelease(ctx, path)
	}
	return released
}
