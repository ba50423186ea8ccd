package mux

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
)

// Tmux implements the Multiplexer interface for tmux.
type Tmux struct{}

// NewTmux creates a new tmux multiplexer.
func NewTmux() *Tmux {
	return &Tmux{}
}

// Name returns "tmux".
func (t *Tmux) Name() string {
	return "tmux"
}

// InsideSession reports whether the current process runs inside a tmux
// session. tmux sets $TMUX only for processes it hosts, so this is the
// process-presence signal that gates every session operation.
func (t *Tmux) InsideSession() bool {
	return os.Getenv("TMUX") != ""
}

// listFormat produces "name<TAB>attached" rows for ParseSessions.
const listFormat = "#{session_name}" + listSeparator + "#{session_attached}"

// ListSessions returns all live tmux sessions.
// A missing tmux server means no sessions, not a failure.
func (t *Tmux) ListSessions(ctx context.Context) (Result, error) {
	res, err := t.run(ctx, "list-sessions", "-F", listFormat)
	if err != nil {
		return res, err
	}
	if !res.OK() && isNoServer(res.Stderr) {
		return Result{ExitCode: 0}, nil
	}
	return res, nil
}

// CreateSession creates a new detached session running req.Command and
// prints the backing pane id (e.g. "%42") on stdout via -P -F.
func (t *Tmux) CreateSession(ctx context.Context, req CreateRequest) (Result, error) {
	args := []string{"new-session", "-d", "-s", req.Name, "-P", "-F", "#{pane_id}"}
	if req.Dir != "" {
		args = append(args, "-c", req.Dir)
	}
	// Sorted keys keep the argument vector deterministic.
	keys := make([]string, 0, len(req.Env))
	for k := range req.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-e", fmt.Sprintf("%s=%s", k, req.Env[k]))
	}
	args = append(args, req.Command)
	return t.run(ctx, args...)
}

// CapturePane captures the last lines of scrollback of a pane.
// Uses -p (stdout) and -S with a negative offset for the tail of history.
func (t *Tmux) CapturePane(ctx context.Context, target string, lines int) (Result, error) {
	args := []string{"capture-pane", "-p", "-t", exactTarget(target)}
	if lines > 0 {
		args = append(args, "-S", fmt.Sprintf("-%d", lines))
	}
	return t.run(ctx, args...)
}

// SendKeys forwards keystrokes to a pane. Literal mode uses -l so text is
// typed byte-for-byte; otherwise keys go through tmux's key-name lookup.
func (t *Tmux) SendKeys(ctx context.Context, target string, keys string, literal bool) (Result, error) {
	args := []string{"send-keys", "-t", exactTarget(target)}
	if literal {
		args = append(args, "-l")
	}
	args = append(args, keys)
	return t.run(ctx, args...)
}

// SetRemainOnExit configures pane persistence after command exit.
func (t *Tmux) SetRemainOnExit(ctx context.Context, target string, on bool) (Result, error) {
	value := "off"
	if on {
		value = "on"
	}
	return t.run(ctx, "set-option", "-t", exactTarget(target), "remain-on-exit", value)
}

// KillSession destroys a session.
func (t *Tmux) KillSession(ctx context.Context, target string) (Result, error) {
	return t.run(ctx, "kill-session", "-t", exactTarget(target))
}

// exactTarget prefixes session names with "=" so tmux matches them exactly
// rather than by prefix ("dev" must not match "dev-2"). Pane handles ("%N")
// are passed through unchanged.
func exactTarget(target string) string {
	if strings.HasPrefix(target, "%") || strings.HasPrefix(target, "=") {
		return target
	}
	return "=" + target
}

// isNoServer recognizes the stderr tmux emits when no server is running.
func isNoServer(stderr string) bool {
	return strings.Contains(stderr, "no server running") ||
		strings.Contains(stderr, "error connecting to")
}

// run executes a tmux command and returns its structured result.
// The error return is reserved for transport failures (binary missing,
// context cancelled); tmux's own failures come back in the Result.
func (t *Tmux) run(ctx context.Context, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, "tmux", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, fmt.Errorf("tmux %s: %w", args[0], ctxErr)
		}
		return res, fmt.Errorf("tmux %s: %w", args[0], err)
	}
	return res, nil
}
