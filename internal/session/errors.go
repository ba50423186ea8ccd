package session

import "fmt"

// Kind is the machine-readable classification of an operation failure.
// Every error leaving this package carries one, alongside a human-readable
// message and whatever diagnostic text the multiplexer produced.
type Kind string

const (
	// KindUnavailable: not running inside a multiplexer session. Fatal
	// precondition, never retried.
	KindUnavailable Kind = "unavailable"
	// KindAlreadyExists: the exact requested name is already tracked
	// locally under the fail collision policy.
	KindAlreadyExists Kind = "already-exists"
	// KindNotFound: the session vanished or never existed. Local state
	// has been reconciled as a side effect.
	KindNotFound Kind = "not-found"
	// KindCreateFailed, KindSendFailed, KindKillFailed: the multiplexer
	// returned non-zero. Diagnostics pass through verbatim; the core
	// never retries.
	KindCreateFailed Kind = "create-failed"
	KindSendFailed   Kind = "send-failed"
	KindKillFailed   Kind = "kill-failed"
	// KindHumanTyping: advisory, not a failure. The keystrokes were not
	// forwarded because a human appears to be mid-typing; the caller
	// decides whether to retry.
	KindHumanTyping Kind = "human-typing-detected"
	// KindInternal is the catch-all for unanticipated failures.
	KindInternal Kind = "exception"
)

// Error is an operation failure with both a machine-readable kind and
// enough diagnostic text for the caller to act on.
type Error struct {
	Kind Kind   `json:"kind"`
	Op   string `json:"op"`
	// Message is the human-readable summary.
	Message string `json:"message"`
	// Diag carries backend stderr/stdout, or for human-typing advisories
	// the detected in-flight text.
	Diag string `json:"diag,omitempty"`
	// Sessions lists currently live session names on not-found errors.
	Sessions []string `json:"sessions,omitempty"`
}

func (e *Error) Error() string {
	if e.Diag != "" {
		return fmt.Sprintf("%s: %s: %s (%s)", e.Op, e.Kind, e.Message, e.Diag)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
}

// Advisory reports whether the error requires caller judgment rather
// than signaling a failure of the system.
func (e *Error) Advisory() bool {
	return e.Kind == KindHumanTyping
}

// KindOf extracts the Kind from an error, mapping non-Error values to
// KindInternal. A nil error has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return KindInternal
}

// errf builds an Error with a formatted message.
func errf(op string, kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}
