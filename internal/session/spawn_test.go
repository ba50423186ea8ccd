package session

import (
	"context"
	"strings"
	"testing"

	"github.com/timvw/pane-wrangler/internal/config"
	"github.com/timvw/pane-wrangler/internal/model"
)

func TestSpawn(t *testing.T) {
	m, f, lm := newTestManager(t)
	ctx := context.Background()

	res, err := m.Spawn(ctx, "build", "make all", SpawnOptions{Cwd: "/src"})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if res.ActualName != "build" {
		t.Errorf("actual name: got %q", res.ActualName)
	}
	if res.LockName != "pw-build" {
		t.Errorf("lock name: got %q", res.LockName)
	}
	if !lm.Held("pw-build") {
		t.Error("lock marker should exist after spawn")
	}

	req, ok := f.CreateRequestFor("build")
	if !ok {
		t.Fatal("session not created in multiplexer")
	}
	if req.Dir != "/src" {
		t.Errorf("cwd: got %q", req.Dir)
	}
	if req.Env[SessionEnvVar] != "build" {
		t.Errorf("identity env: got %q", req.Env[SessionEnvVar])
	}
	if req.Env[lockEnvVar] != res.LockPath {
		t.Errorf("lock env: got %q, want %q", req.Env[lockEnvVar], res.LockPath)
	}
	// The command runs under an explicit interpreter with the release
	// trap installed ahead of it.
	if !strings.HasPrefix(req.Command, "exec /bin/sh -c ") {
		t.Errorf("command not wrapped: %q", req.Command)
	}
	if !strings.Contains(req.Command, "trap") || !strings.Contains(req.Command, "make all") {
		t.Errorf("trap or command missing: %q", req.Command)
	}

	if !f.RemainOnExit("build") {
		t.Error("pane should persist after command exit")
	}

	sess, tracked := m.reg.Get("build")
	if !tracked {
		t.Fatal("spawned session should be tracked")
	}
	if sess.Kind != model.KindCommand || sess.LockName != "pw-build" || sess.PaneID == "" {
		t.Errorf("tracked session: %+v", sess)
	}
}

func TestSpawnValidation(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.Spawn(ctx, "  ", "true", SpawnOptions{})
	wantKind(t, err, KindInternal)
	_, err = m.Spawn(ctx, "job", "", SpawnOptions{})
	wantKind(t, err, KindInternal)
}

func TestSpawnCollisionFail(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	if _, err := m.Spawn(ctx, "job", "true", SpawnOptions{}); err != nil {
		t.Fatalf("first Spawn: %v", err)
	}
	_, err := m.Spawn(ctx, "job", "true", SpawnOptions{})
	wantKind(t, err, KindAlreadyExists)
}

func TestSpawnCollisionRename(t *testing.T) {
	m, f, lm := newTestManager(t)
	m.cfg.SpawnCollision = config.CollisionRename
	ctx := context.Background()

	if _, err := m.Spawn(ctx, "job", "true", SpawnOptions{}); err != nil {
		t.Fatalf("first Spawn: %v", err)
	}
	res, err := m.Spawn(ctx, "job", "true", SpawnOptions{})
	if err != nil {
		t.Fatalf("second Spawn: %v", err)
	}
	if res.ActualName != "job-2" {
		t.Errorf("renamed: got %q, want job-2", res.ActualName)
	}
	if res.LockName != "pw-job-2" || !lm.Held("pw-job-2") {
		t.Errorf("renamed lock: got %q", res.LockName)
	}
	if !f.Has("job") || !f.Has("job-2") {
		t.Error("both sessions should be live")
	}
}

func TestSpawnRenameAgainstLiveSessions(t *testing.T) {
	// Sessions created outside this process also collide, regardless of
	// the local collision policy.
	m, f, _ := newTestManager(t)
	ctx := context.Background()
	f.AddSession("job", "")

	res, err := m.Spawn(ctx, "job", "true", SpawnOptions{})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if res.ActualName != "job-2" {
		t.Errorf("got %q, want job-2", res.ActualName)
	}
}

func TestSpawnSkipLock(t *testing.T) {
	m, f, lm := newTestManager(t)
	ctx := context.Background()

	res, err := m.Spawn(ctx, "job", "true", SpawnOptions{SkipLock: true})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if res.LockName != "" || res.LockPath != "" {
		t.Errorf("no lock expected: %+v", res)
	}
	if lm.Held("pw-job") {
		t.Error("no marker should exist")
	}
	req, _ := f.CreateRequestFor("job")
	if strings.Contains(req.Command, "trap") {
		t.Errorf("no release trap expected: %q", req.Command)
	}
	if _, ok := req.Env[lockEnvVar]; ok {
		t.Error("no lock env expected")
	}
	if req.Env[SessionEnvVar] != "job" {
		t.Error("identity env still expected")
	}
}

func TestSpawnExtraEnv(t *testing.T) {
	m, f, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.Spawn(ctx, "job", "true", SpawnOptions{
		ExtraEnv: map[string]string{
			"FOO":         "bar",
			SessionEnvVar: "spoofed", // reserved, must not override
		},
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	req, _ := f.CreateRequestFor("job")
	if req.Env["FOO"] != "bar" {
		t.Errorf("extra env lost: %v", req.Env)
	}
	if req.Env[SessionEnvVar] != "job" {
		t.Errorf("identity env overridden: %q", req.Env[SessionEnvVar])
	}
}

func TestSpawnCreateFailureReleasesLock(t *testing.T) {
	m, f, lm := newTestManager(t)
	ctx := context.Background()
	f.FailCreate = true
	f.StderrText = "create exploded"

	_, err := m.Spawn(ctx, "job", "true", SpawnOptions{})
	e := wantKind(t, err, KindCreateFailed)
	if e.Diag != "create exploded" {
		t.Errorf("diag: got %q", e.Diag)
	}
	// A failed spawn must not leave an orphaned marker.
	if lm.Held("pw-job") {
		t.Error("lock should be released on create failure")
	}
	if m.reg.Has("job") {
		t.Error("failed spawn must not be tracked")
	}
}
