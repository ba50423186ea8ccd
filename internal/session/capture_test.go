package session

import (
	"context"
	"strings"
	"testing"

	"github.com/timvw/pane-wrangler/internal/model"
)

func TestCapture(t *testing.T) {
	m, f, _ := newTestManager(t)
	ctx := context.Background()

	if _, err := m.Spawn(ctx, "job", "true", SpawnOptions{}); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	f.SetContent("job", "output line\nmore output\n\n\n")

	res, err := m.Capture(ctx, "job", 0)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if res.Text != "output line\nmore output" {
		t.Errorf("trailing blanks should be trimmed, got %q", res.Text)
	}
	if res.Truncated {
		t.Error("small capture should not be truncated")
	}
}

func TestCaptureTruncatesToByteBudget(t *testing.T) {
	m, f, _ := newTestManager(t)
	m.cfg.CaptureMaxBytes = 64
	ctx := context.Background()
	f.AddSession("big", strings.Repeat(strings.Repeat("x", 30)+"\n", 10)+"tail")

	res, err := m.Capture(ctx, "big", 0)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if !res.Truncated {
		t.Error("expected truncation")
	}
	if res.ShownBytes > 64 {
		t.Errorf("byte budget exceeded: %d", res.ShownBytes)
	}
	if !strings.HasSuffix(res.Text, "tail") {
		t.Errorf("tail must survive, got %q", res.Text)
	}
}

func TestCaptureAdoptsUntrackedSession(t *testing.T) {
	// A session live in the multiplexer but unknown locally (other
	// process, or this one restarted) is captured and adopted.
	m, f, _ := newTestManager(t)
	ctx := context.Background()
	f.AddSession("foreign", "hello")

	res, err := m.Capture(ctx, "foreign", 0)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if res.Text != "hello" {
		t.Errorf("got %q", res.Text)
	}
	sess, tracked := m.reg.Get("foreign")
	if !tracked {
		t.Fatal("captured session should be adopted")
	}
	if sess.Kind != model.KindCommand || sess.LockName != "" {
		t.Errorf("adopted session: %+v", sess)
	}
}

func TestCaptureNotFoundListsLiveSessions(t *testing.T) {
	m, f, _ := newTestManager(t)
	ctx := context.Background()
	f.AddSession("alpha", "")
	f.AddSession("beta", "")

	_, err := m.Capture(ctx, "ghost", 0)
	e := wantKind(t, err, KindNotFound)
	if len(e.Sessions) != 2 {
		t.Errorf("live sessions in error: got %v", e.Sessions)
	}
}

func TestCaptureDeregistersVanishedSession(t *testing.T) {
	m, f, _ := newTestManager(t)
	ctx := context.Background()

	if _, err := m.Spawn(ctx, "job", "true", SpawnOptions{}); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	// Session dies outside our control.
	if res, _ := f.KillSession(ctx, "job"); !res.OK() {
		t.Fatal("fake kill failed")
	}

	_, err := m.Capture(ctx, "job", 0)
	wantKind(t, err, KindNotFound)
	if m.reg.Has("job") {
		t.Error("vanished session should be deregistered")
	}
}
