package locks

import (
	"os"
	"strings"
	"testing"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(t.TempDir())
}

func TestKeyFor(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"build", "pw-build"},
		{"my session!", "pw-my-session-"},
		{"a/b:c", "pw-a-b-c"},
		{"ok_name-2", "pw-ok_name-2"},
	}
	for _, tt := range tests {
		if got := KeyFor(tt.name); got != tt.want {
			t.Errorf("KeyFor(%q): got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestAcquireRelease(t *testing.T) {
	m := newTestManager(t)

	lock, err := m.Acquire("pw-build")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if lock.Key != "pw-build" {
		t.Errorf("key: got %q", lock.Key)
	}
	if !m.Held("pw-build") {
		t.Error("marker should exist after Acquire")
	}

	// Marker records the owning pid.
	data, err := os.ReadFile(lock.Path)
	if err != nil {
		t.Fatalf("read marker: %v", err)
	}
	if !strings.Contains(string(data), "pid=") {
		t.Errorf("marker content: got %q", data)
	}

	released, err := m.Release(lock)
	if err != nil {
		t.Fatalf("Release: %v", err)
	}
	if !released {
		t.Error("first release should report existed")
	}
	if m.Held("pw-build") {
		t.Error("marker should be gone after Release")
	}
}

func TestReleaseIdempotent(t *testing.T) {
	m := newTestManager(t)
	lock, err := m.Acquire("pw-x")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := m.Release(lock); err != nil {
		t.Fatalf("Release: %v", err)
	}
	released, err := m.Release(lock)
	if err != nil {
		t.Fatalf("second Release: %v", err)
	}
	if released {
		t.Error("second release should report not existed")
	}
}

func TestReleaseZeroLock(t *testing.T) {
	m := newTestManager(t)
	released, err := m.Release(Lock{})
	if err != nil || released {
		t.Errorf("zero lock release: got (%v, %v)", released, err)
	}
}

func TestAcquireCollisionRenames(t *testing.T) {
	m := newTestManager(t)

	first, err := m.Acquire("pw-job")
	if err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	second, err := m.Acquire("pw-job")
	if err != nil {
		t.Fatalf("second Acquire: %v", err)
	}
	third, err := m.Acquire("pw-job")
	if err != nil {
		t.Fatalf("third Acquire: %v", err)
	}

	if first.Key != "pw-job" || second.Key != "pw-job-2" || third.Key != "pw-job-3" {
		t.Errorf("keys: got %q, %q, %q", first.Key, second.Key, third.Key)
	}
	for _, l := range []Lock{first, second, third} {
		if !m.Held(l.Key) {
			t.Errorf("marker for %q should exist", l.Key)
		}
	}
}

func TestAcquireReusesFreedName(t *testing.T) {
	m := newTestManager(t)

	first, _ := m.Acquire("pw-job")
	if _, err := m.Release(first); err != nil {
		t.Fatalf("Release: %v", err)
	}
	again, err := m.Acquire("pw-job")
	if err != nil {
		t.Fatalf("re-Acquire: %v", err)
	}
	if again.Key != "pw-job" {
		t.Errorf("freed key should be reusable, got %q", again.Key)
	}
}

func TestReleaseByKey(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.Acquire("pw-k"); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	released, err := m.ReleaseByKey("pw-k")
	if err != nil || !released {
		t.Errorf("ReleaseByKey: got (%v, %v)", released, err)
	}
	if m.Held("pw-k") {
		t.Error("marker should be gone")
	}
}

func TestPathFor(t *testing.T) {
	m := NewManager("/run/locks")
	if got := m.PathFor("pw-a"); got != "/run/locks/pw-a.lock" {
		t.Errorf("PathFor: got %q", got)
	}
}
