// Package model holds the shared data types passed between the session
// layer, the CLI, and the watch TUI.
package model

import "time"

// Kind distinguishes what a session is running.
type Kind string

const (
	// KindCommand is a plain shell command wrapped with a completion lock.
	KindCommand Kind = "plain-command"
	// KindAgent is a nested coding agent that manages its own lock.
	KindAgent Kind = "coding-agent"
)

// Session is a logical, named unit of multiplexed work backed by one
// pane in the multiplexer.
type Session struct {
	// Name is the resolved session name, unique among live sessions.
	Name string `json:"name"`
	// PaneID is the multiplexer-assigned backing handle (e.g. "%42").
	// Immutable once assigned at creation. Empty for sessions discovered
	// live but created outside this process.
	PaneID string `json:"pane_id,omitempty"`
	// CreatedAt is when this process first saw the session.
	CreatedAt time.Time `json:"created_at"`
	// LockName is the completion lock held for this session, empty when
	// the spawned process manages its own lock.
	LockName string `json:"lock_name,omitempty"`
	// Kind tells plain commands and coding agents apart.
	Kind Kind `json:"kind"`
	// PendingWarning caches the last detected in-flight human input, used
	// by the send debounce. Not part of the wire contract.
	PendingWarning string `json:"-"`
}

// SpawnResult is the outcome of spawning a session.
type SpawnResult struct {
	// ActualName is the collision-free name the session actually got.
	ActualName string `json:"actual_name"`
	// LockName is the completion lock other processes can wait on,
	// empty when lock acquisition was skipped.
	LockName string `json:"lock_name,omitempty"`
	// LockPath is the filesystem marker backing the lock.
	LockPath string `json:"lock_path,omitempty"`
}

// CaptureResult is captured pane output plus truncation stats.
type CaptureResult struct {
	Text       string `json:"text"`
	Truncated  bool   `json:"truncated"`
	ShownLines int    `json:"shown_lines"`
	TotalLines int    `json:"total_lines"`
	ShownBytes int    `json:"shown_bytes"`
	TotalBytes int    `json:"total_bytes"`
}

// SendResult acknowledges forwarded keystrokes.
type SendResult struct {
	Acknowledged bool `json:"acknowledged"`
}

// KillResult reports what a kill actually did. Killing an already-gone
// session is success with Existed=false, not an error.
type KillResult struct {
	Existed      bool   `json:"existed"`
	Killed       bool   `json:"killed"`
	LockReleased bool   `json:"lock_released"`
	LockName     string `json:"lock_name,omitempty"`
}

// AgentResult is the outcome of spawning a coding agent and awaiting
// its startup output.
type AgentResult struct {
	ActualName string `json:"actual_name"`
	// StartupText is the agent's first output with the startup banner
	// noise stripped.
	StartupText string `json:"startup_text"`
	// AgentLockKey is the lock key the nested agent coordinates on,
	// derived from the same session name.
	AgentLockKey string `json:"agent_lock_key"`
}
