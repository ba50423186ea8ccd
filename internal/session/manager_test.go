package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/timvw/pane-wrangler/internal/config"
	"github.com/timvw/pane-wrangler/internal/locks"
	"github.com/timvw/pane-wrangler/internal/model"
	"github.com/timvw/pane-wrangler/internal/mux"
	"github.com/timvw/pane-wrangler/internal/registry"
)

// newTestManager wires a manager against the fake multiplexer with an
// isolated lock directory. Poll timing is shortened so agent tests run
// in milliseconds.
func newTestManager(t *testing.T) (*Manager, *mux.Fake, *locks.Manager) {
	t.Helper()
	f := mux.NewFake()
	lm := locks.NewManager(t.TempDir())
	cfg := config.Defaults()
	cfg.PollIntervalDuration = 10 * time.Millisecond
	cfg.PollBudgetDuration = 150 * time.Millisecond
	cfg.PollThreshold = 3
	return New(f, registry.New(), lm, cfg, nil), f, lm
}

func wantKind(t *testing.T, err error, kind Kind) *Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	e, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if e.Kind != kind {
		t.Fatalf("kind: got %s, want %s (%v)", e.Kind, kind, err)
	}
	return e
}

func TestOperationsRequireInsideSession(t *testing.T) {
	m, f, _ := newTestManager(t)
	f.Outside = true
	ctx := context.Background()

	_, err := m.Spawn(ctx, "job", "true", SpawnOptions{})
	wantKind(t, err, KindUnavailable)
	_, err = m.Capture(ctx, "job", 0)
	wantKind(t, err, KindUnavailable)
	_, err = m.Send(ctx, "job", "hi", true)
	wantKind(t, err, KindUnavailable)
	_, err = m.Kill(ctx, "job")
	wantKind(t, err, KindUnavailable)
	_, err = m.List(ctx)
	wantKind(t, err, KindUnavailable)

	if len(f.Calls) != 0 {
		t.Errorf("no multiplexer calls expected outside a session, got %v", f.Calls)
	}
}

func TestList(t *testing.T) {
	m, f, _ := newTestManager(t)
	f.AddSession("alpha", "")
	f.AddSession("beta", "")

	sessions, err := m.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(sessions) != 2 {
		t.Errorf("got %d sessions", len(sessions))
	}
}

func TestResolveNameSuffixes(t *testing.T) {
	m, f, _ := newTestManager(t)
	ctx := context.Background()
	f.AddSession("job", "")
	f.AddSession("job-2", "")

	got, err := m.resolveName(ctx, "spawn", "job")
	if err != nil {
		t.Fatalf("resolveName: %v", err)
	}
	if got != "job-3" {
		t.Errorf("got %q, want job-3", got)
	}
}

func TestResolveNameConsultsRegistry(t *testing.T) {
	// A name the registry tracks is taken even before the multiplexer's
	// listing reflects it.
	m, _, _ := newTestManager(t)
	ctx := context.Background()
	m.reg.Adopt("job", model.KindCommand)

	got, err := m.resolveName(ctx, "spawn", "job")
	if err != nil {
		t.Fatalf("resolveName: %v", err)
	}
	if got != "job-2" {
		t.Errorf("got %q, want job-2", got)
	}
}

func TestKindOf(t *testing.T) {
	if KindOf(nil) != "" {
		t.Error("nil error has no kind")
	}
	if KindOf(errf("op", KindNotFound, "x")) != KindNotFound {
		t.Error("structured error kind lost")
	}
	if KindOf(context.Canceled) != KindInternal {
		t.Error("foreign errors map to the internal kind")
	}
}

func TestShellQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"echo hi", "'echo hi'"},
		{"it's", `'it'\''s'`},
		{"", "''"},
	}
	for _, tt := range tests {
		if got := shellQuote(tt.in); got != tt.want {
			t.Errorf("shellQuote(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsKeyToken(t *testing.T) {
	for _, token := range []string{"Enter", "Escape", "Up", "PageDown", "C-c", "M-x"} {
		if !IsKeyToken(token) {
			t.Errorf("%q should be a key token", token)
		}
	}
	for _, text := range []string{"hello", "enter", "C-", "Ctrl-c", "yes please"} {
		if IsKeyToken(text) {
			t.Errorf("%q should be literal text", text)
		}
	}
}

func TestFullLifecycle(t *testing.T) {
	// spawn → capture → interrupt → kill, the sequence an orchestrating
	// caller runs against a dev server.
	m, f, lm := newTestManager(t)
	ctx := context.Background()

	spawned, err := m.Spawn(ctx, "dev", "npm run dev", SpawnOptions{})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	f.SetContent(spawned.ActualName, "listening on :3000")

	snap, err := m.Capture(ctx, "dev", 0)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if snap.Text == "" {
		t.Fatal("expected non-empty capture")
	}

	sent, err := m.Send(ctx, "dev", "C-c", false)
	if err != nil || !sent.Acknowledged {
		t.Fatalf("Send: %+v %v", sent, err)
	}
	if got := f.SentKeys("dev"); len(got) != 1 || got[0] != "C-c" {
		t.Errorf("keys: got %v", got)
	}

	killed, err := m.Kill(ctx, "dev")
	if err != nil || !killed.Killed {
		t.Fatalf("Kill: %+v %v", killed, err)
	}
	if lm.Held("pw-dev") {
		t.Error("lock should be released by the kill")
	}
}

func TestErrorString(t *testing.T) {
	e := errf("send", KindSendFailed, "sending failed")
	if !strings.Contains(e.Error(), "send-failed") {
		t.Errorf("error string: %q", e.Error())
	}
	e.Diag = "stderr text"
	if !strings.Contains(e.Error(), "stderr text") {
		t.Errorf("diag lost: %q", e.Error())
	}
}
