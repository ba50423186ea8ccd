package session

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/timvw/pane-wrangler/internal/capture"
	"github.com/timvw/pane-wrangler/internal/locks"
	"github.com/timvw/pane-wrangler/internal/model"
)

// SpawnAgent spawns a nested coding agent in folder and awaits its
// startup output.
//
// The agent manages its own completion lock, keyed by the same resolved
// session name it receives through the coordination identity variable,
// so lock acquisition is skipped here and the key is returned for
// callers that want to wait on it.
//
// The startup wait polls captures until enough non-blank output has
// appeared or the wall-clock budget elapses, honoring cancellation; the
// final text has the startup banner stripped so transient "still
// starting up" noise is hidden once startup has progressed far enough.
func (m *Manager) SpawnAgent(ctx context.Context, name, folder, extraArgs string) (*model.AgentResult, error) {
	op := "spawn-agent"
	ctx, span := tracer.Start(ctx, op,
		trace.WithAttributes(attribute.String("session.name", name)))
	defer span.End()

	command := m.cfg.AgentCommand
	if strings.TrimSpace(extraArgs) != "" {
		command += " " + strings.TrimSpace(extraArgs)
	}

	spawned, err := m.spawn(ctx, op, name, command, SpawnOptions{
		Cwd:      folder,
		SkipLock: true,
	}, model.KindAgent)
	if err != nil {
		return nil, err
	}
	actual := spawned.ActualName

	text, state := m.awaitStartup(ctx, actual)
	span.SetAttributes(attribute.String("agent.startup_state", state.String()))

	startup := capture.TrimTrailingBlank(capture.StripStartupBanner(text))
	m.metrics.RecordOperation(ctx, op, "ok")
	return &model.AgentResult{
		ActualName:   actual,
		StartupText:  startup,
		AgentLockKey: locks.KeyFor(actual),
	}, nil
}

// awaitStartup runs the bounded poll loop and returns the last raw
// capture along with the state the loop ended in.
func (m *Manager) awaitStartup(ctx context.Context, name string) (string, pollState) {
	poll := newStartupPoll(m.cfg.PollThreshold, m.cfg.PollBudgetDuration, time.Now())
	ticker := time.NewTicker(m.cfg.PollIntervalDuration)
	defer ticker.Stop()

	var last string
	for !poll.done() {
		select {
		case <-ctx.Done():
			poll.cancel()
		case <-ticker.C:
			res, err := m.mux.CapturePane(ctx, name, m.cfg.CaptureLines)
			if err == nil && res.OK() {
				last = capture.TrimTrailingBlank(res.Stdout)
			}
			poll.observe(capture.CountNonBlank(last), time.Now())
		}
	}

	// One unconditional final capture when the threshold was never
	// crossed — unless cancellation already killed the context, in which
	// case the partial output is all there is.
	if poll.state == stateTimedOut {
		if res, err := m.mux.CapturePane(ctx, name, m.cfg.CaptureLines); err == nil && res.OK() {
			last = capture.TrimTrailingBlank(res.Stdout)
		}
	}
	return last, poll.state
}
