// Package mux provides an abstraction over terminal multiplexers (tmux, zellij).
//
// This package is pure transport. Every operation is an argument-vector
// invocation of the multiplexer binary whose exit code, stdout, and stderr
// are returned verbatim in a Result. No operation classifies failures or
// retries — the session layer owns that policy, which keeps its error
// handling testable against a Fake.
package mux

import (
	"context"
	"strings"
)

// Result is the structured outcome of one multiplexer invocation.
// A non-zero ExitCode is not an error at this layer; callers decide
// what it means for their operation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// OK reports whether the invocation exited zero.
func (r Result) OK() bool {
	return r.ExitCode == 0
}

// SessionInfo is one row of a session listing.
type SessionInfo struct {
	// Name is the session name.
	Name string `json:"name"`
	// Attached indicates whether a client is currently attached.
	Attached bool `json:"attached"`
}

// CreateRequest describes a new detached session.
type CreateRequest struct {
	// Name is the session name. Must already be collision-free.
	Name string
	// Dir is the working directory for the initial process (optional).
	Dir string
	// Env holds session environment variables set before the initial
	// process starts (tmux -e flags, applied in sorted key order).
	Env map[string]string
	// Command is the full shell-command string run as the pane's initial
	// process. The session layer always routes it through an explicit
	// interpreter; this package passes it along untouched.
	Command string
}

// Multiplexer abstracts terminal multiplexer operations.
// Implementations exist for tmux and (future) zellij.
//
// The error return carries only transport failures: the binary could not
// be invoked, or the context was cancelled. Command-level failures arrive
// as a Result with a non-zero ExitCode and the multiplexer's own stderr.
type Multiplexer interface {
	// Name returns the multiplexer name (e.g., "tmux", "zellij").
	Name() string

	// InsideSession reports whether this process runs inside a
	// multiplexer session. Absence is a hard precondition failure for
	// every session operation, never silently ignored.
	InsideSession() bool

	// ListSessions lists all live sessions. Parse the stdout with
	// ParseSessions. A multiplexer with no running server reports an
	// empty listing, not a failure.
	ListSessions(ctx context.Context) (Result, error)

	// CreateSession creates a new detached session and prints the backing
	// pane handle on stdout.
	CreateSession(ctx context.Context, req CreateRequest) (Result, error)

	// CapturePane captures the last lines of scrollback of a pane,
	// addressed by session name or pane handle.
	CapturePane(ctx context.Context, target string, lines int) (Result, error)

	// SendKeys forwards keystrokes to a pane. When literal is true the
	// text is sent byte-for-byte; otherwise it is interpreted in the
	// multiplexer's own key-name vocabulary (Enter, Escape, C-c, ...).
	SendKeys(ctx context.Context, target string, keys string, literal bool) (Result, error)

	// SetRemainOnExit configures whether the pane persists after its
	// command exits, so output stays inspectable.
	SetRemainOnExit(ctx context.Context, target string, on bool) (Result, error)

	// KillSession destroys a session.
	KillSession(ctx context.Context, target string) (Result, error)
}

// listSeparator joins the name and attached fields in session listings.
const listSeparator = "\t"

// ParseSessions parses the stdout of ListSessions into SessionInfo rows.
// Malformed lines are skipped.
func ParseSessions(stdout string) []SessionInfo {
	var sessions []SessionInfo
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, listSeparator, 2)
		info := SessionInfo{Name: parts[0]}
		if len(parts) == 2 {
			info.Attached = parts[1] == "1"
		}
		sessions = append(sessions, info)
	}
	return sessions
}

// SessionNames extracts just the names from a session listing.
func SessionNames(sessions []SessionInfo) []string {
	if len(sessions) == 0 {
		return nil
	}
	names := make([]string, 0, len(sessions))
	for _, s := range sessions {
		names = append(names, s.Name)
	}
	return names
}
