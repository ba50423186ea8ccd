package mux

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Fake is an in-memory Multiplexer for tests. It tracks live sessions,
// captured pane content, and every call made against it, so the session
// layer's policy logic can be exercised without a tmux server.
//
// The zero value is not usable; construct with NewFake.
type Fake struct {
	mu sync.Mutex

	// sessions maps session name to its fake state.
	sessions map[string]*fakeSession

	// Calls records every operation in order as "op target" strings.
	Calls []string

	// Outside simulates running without the multiplexer's presence
	// signal; InsideSession reports its inverse.
	Outside bool

	// FailCreate, FailSend, FailKill make the corresponding operation
	// return a non-zero Result with StderrText.
	FailCreate bool
	FailSend   bool
	FailKill   bool
	// StderrText is the diagnostic attached to injected failures.
	StderrText string

	nextPane int
}

type fakeSession struct {
	paneID   string
	attached bool
	content  string
	keys     []string
	remain   bool
	request  CreateRequest
}

// NewFake creates an empty fake multiplexer.
func NewFake() *Fake {
	return &Fake{sessions: make(map[string]*fakeSession)}
}

// Name returns "fake".
func (f *Fake) Name() string {
	return "fake"
}

// InsideSession reports the inverse of Outside.
func (f *Fake) InsideSession() bool {
	return !f.Outside
}

// AddSession registers a live session with the given pane content,
// as if it had been created outside this process.
func (f *Fake) AddSession(name, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextPane++
	f.sessions[name] = &fakeSession{
		paneID:  fmt.Sprintf("%%%d", f.nextPane),
		content: content,
	}
}

// SetContent replaces the pane content of a live session.
func (f *Fake) SetContent(name, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[name]; ok {
		s.content = content
	}
}

// SentKeys returns the keystrokes forwarded to a session, in order.
func (f *Fake) SentKeys(name string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[name]; ok {
		return append([]string(nil), s.keys...)
	}
	return nil
}

// CreateRequestFor returns the CreateRequest that created a session.
func (f *Fake) CreateRequestFor(name string) (CreateRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[name]; ok {
		return s.request, true
	}
	return CreateRequest{}, false
}

// RemainOnExit reports the persistence flag of a session's pane.
func (f *Fake) RemainOnExit(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[name]; ok {
		return s.remain
	}
	return false
}

// Has reports whether a session is live.
func (f *Fake) Has(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.sessions[name]
	return ok
}

func (f *Fake) record(op, target string) {
	f.Calls = append(f.Calls, strings.TrimSpace(op+" "+target))
}

func (f *Fake) failure() Result {
	stderr := f.StderrText
	if stderr == "" {
		stderr = "fake failure"
	}
	return Result{ExitCode: 1, Stderr: stderr}
}

// ListSessions lists live fake sessions in the ParseSessions wire format.
func (f *Fake) ListSessions(ctx context.Context) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("list-sessions", "")

	var b strings.Builder
	for name, s := range f.sessions {
		attached := "0"
		if s.attached {
			attached = "1"
		}
		fmt.Fprintf(&b, "%s%s%s\n", name, listSeparator, attached)
	}
	return Result{Stdout: b.String()}, ctx.Err()
}

// CreateSession registers a new fake session and returns its pane id.
func (f *Fake) CreateSession(ctx context.Context, req CreateRequest) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("new-session", req.Name)

	if f.FailCreate {
		return f.failure(), ctx.Err()
	}
	if _, exists := f.sessions[req.Name]; exists {
		return Result{ExitCode: 1, Stderr: fmt.Sprintf("duplicate session: %s", req.Name)}, nil
	}
	f.nextPane++
	paneID := fmt.Sprintf("%%%d", f.nextPane)
	f.sessions[req.Name] = &fakeSession{paneID: paneID, request: req}
	return Result{Stdout: paneID + "\n"}, ctx.Err()
}

// CapturePane returns the tail of a session's content.
func (f *Fake) CapturePane(ctx context.Context, target string, lines int) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("capture-pane", target)

	s, ok := f.resolve(target)
	if !ok {
		return Result{ExitCode: 1, Stderr: fmt.Sprintf("can't find session: %s", target)}, nil
	}
	content := s.content
	if lines > 0 {
		all := strings.Split(content, "\n")
		if len(all) > lines {
			content = strings.Join(all[len(all)-lines:], "\n")
		}
	}
	return Result{Stdout: content}, ctx.Err()
}

// SendKeys records keystrokes against a session.
func (f *Fake) SendKeys(ctx context.Context, target string, keys string, literal bool) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("send-keys", target)

	if f.FailSend {
		return f.failure(), ctx.Err()
	}
	s, ok := f.resolve(target)
	if !ok {
		return Result{ExitCode: 1, Stderr: fmt.Sprintf("can't find session: %s", target)}, nil
	}
	s.keys = append(s.keys, keys)
	return Result{}, ctx.Err()
}

// SetRemainOnExit flips the persistence flag of a session's pane.
func (f *Fake) SetRemainOnExit(ctx context.Context, target string, on bool) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("set-option", target)

	s, ok := f.resolve(target)
	if !ok {
		return Result{ExitCode: 1, Stderr: fmt.Sprintf("can't find session: %s", target)}, nil
	}
	s.remain = on
	return Result{}, ctx.Err()
}

// KillSession removes a live session.
func (f *Fake) KillSession(ctx context.Context, target string) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("kill-session", target)

	if f.FailKill {
		return f.failure(), ctx.Err()
	}
	name, ok := f.resolveName(target)
	if !ok {
		return Result{ExitCode: 1, Stderr: fmt.Sprintf("can't find session: %s", target)}, nil
	}
	delete(f.sessions, name)
	return Result{}, ctx.Err()
}

// resolve looks a target up by session name or pane handle.
func (f *Fake) resolve(target string) (*fakeSession, bool) {
	name, ok := f.resolveName(target)
	if !ok {
		return nil, false
	}
	return f.sessions[name], true
}

func (f *Fake) resolveName(target string) (string, bool) {
	target = strings.TrimPrefix(target, "=")
	if _, ok := f.sessions[target]; ok {
		return target, true
	}
	for name, s := range f.sessions {
		if s.paneID == target {
			return name, true
		}
	}
	return "", false
}
