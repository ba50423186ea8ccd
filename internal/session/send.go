package session

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/timvw/pane-wrangler/internal/inputbox"
	"github.com/timvw/pane-wrangler/internal/model"
	"github.com/timvw/pane-wrangler/internal/mux"
)

// detectionLines is how much pane tail the typing detector inspects.
const detectionLines = 50

// sendDebounce separates a literal paste from the Enter keystroke so
// Enter never arrives before the paste is processed.
const sendDebounce = 100 * time.Millisecond

// Send forwards text as keystrokes to a session, optionally followed by
// a synthetic Enter.
//
// For coding-agent sessions, pressing Enter first runs the typing
// detector over the pane tail. The first sighting of pending human input
// caches it and returns a human-typing-detected advisory without
// sending. An identical sighting on the caller's retry means the text is
// stable — the human has stopped — so the cache clears and the send
// proceeds. Different text warns again. A single detection is never
// enough to block forever or to send blindly.
func (m *Manager) Send(ctx context.Context, name, text string, enter bool) (*model.SendResult, error) {
	op := "send"
	ctx, span := tracer.Start(ctx, op,
		trace.WithAttributes(attribute.String("session.name", name)))
	defer span.End()

	if !m.mux.InsideSession() {
		return nil, m.fail(ctx, span, m.notInside(op))
	}
	if _, err := m.reconcile(ctx, op, name); err != nil {
		return nil, m.fail(ctx, span, err)
	}

	sess, tracked := m.reg.Get(name)
	if tracked && sess.Kind == model.KindAgent && enter {
		if err := m.checkInterference(ctx, span, name, sess); err != nil {
			return nil, m.fail(ctx, span, err)
		}
	}

	target := name
	if tracked {
		target = m.target(sess)
	}

	// Special key tokens (Enter, Escape, C-c, ...) pass through in the
	// multiplexer's own vocabulary; everything else is typed literally.
	literal := !IsKeyToken(text)
	res, err := m.mux.SendKeys(ctx, target, text, literal)
	if err != nil {
		return nil, m.fail(ctx, span, errf(op, KindInternal, "sending keys: %v", err))
	}
	if !res.OK() {
		return nil, m.fail(ctx, span, m.sendFailed(ctx, op, name, res))
	}

	if enter && text != "Enter" {
		time.Sleep(sendDebounce)
		res, err = m.mux.SendKeys(ctx, target, "Enter", false)
		if err != nil {
			return nil, m.fail(ctx, span, errf(op, KindInternal, "sending Enter: %v", err))
		}
		if !res.OK() {
			return nil, m.fail(ctx, span, m.sendFailed(ctx, op, name, res))
		}
	}

	m.metrics.RecordOperation(ctx, op, "ok")
	return &model.SendResult{Acknowledged: true}, nil
}

// checkInterference applies the two-call debounce against the agent's
// input box before keystrokes are forwarded.
func (m *Manager) checkInterference(ctx context.Context, span trace.Span, name string, sess model.Session) error {
	res, err := m.mux.CapturePane(ctx, m.target(sess), detectionLines)
	if err != nil || !res.OK() {
		// Detection is advisory; a failed probe never blocks the send.
		return nil
	}

	pending, found := inputbox.Detect(res.Stdout)
	if !found {
		m.reg.SetWarning(name, "")
		return nil
	}

	if prev := m.reg.Warning(name); prev == pending {
		// Stable across the caller's retry: the human has stopped
		// typing. Clear and proceed.
		m.reg.SetWarning(name, "")
		return nil
	}

	m.reg.SetWarning(name, pending)
	m.metrics.RecordInterference(ctx)
	span.SetAttributes(attribute.Bool("send.interference", true))
	e := errf("send", KindHumanTyping,
		"a human may be typing in session %q; retry to send anyway if the text is stale", name)
	e.Diag = pending
	return e
}

func (m *Manager) sendFailed(ctx context.Context, op, name string, res mux.Result) *Error {
	if e := m.classifyGone(ctx, op, name, res); e.Kind == KindNotFound {
		return e
	}
	e := errf(op, KindSendFailed, "sending keys to session %q failed", name)
	e.Diag = strings.TrimSpace(res.Stderr)
	return e
}

// IsKeyToken reports whether keys is a multiplexer key name rather than
// literal text to type. The vocabulary is the multiplexer's own; this
// system does not reinterpret it.
func IsKeyToken(keys string) bool {
	switch keys {
	case "Enter", "Escape", "Up", "Down", "Left", "Right",
		"Tab", "BTab", "Space", "BSpace", "DC", "Home", "End",
		"PageUp", "PageDown":
		return true
	}
	// C-x (Ctrl) and M-x (Meta/Alt) chords.
	if len(keys) == 3 && (keys[0] == 'C' || keys[0] == 'M') && keys[1] == '-' {
		return true
	}
	return false
}
