package session

import "time"

// pollState tracks the startup poll loop. The loop has two exit
// conditions — enough output or an exhausted wall-clock budget — plus
// external cancellation; modeling them as explicit states keeps their
// interaction predictable and independently testable.
type pollState int

const (
	statePolling pollState = iota
	stateSatisfied
	stateTimedOut
	stateCancelled
)

func (s pollState) String() string {
	switch s {
	case statePolling:
		return "polling"
	case stateSatisfied:
		return "satisfied"
	case stateTimedOut:
		return "timed-out"
	case stateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// startupPoll decides when a spawned agent has produced enough startup
// output to stop waiting.
type startupPoll struct {
	threshold int
	deadline  time.Time
	state     pollState
}

// newStartupPoll starts a poll with the given wall-clock budget; the
// loop is satisfied once more than threshold non-blank lines appear.
func newStartupPoll(threshold int, budget time.Duration, now time.Time) *startupPoll {
	return &startupPoll{
		threshold: threshold,
		deadline:  now.Add(budget),
		state:     statePolling,
	}
}

// observe feeds one capture sample into the machine. Threshold wins over
// timeout when both hold at once: the output is already there.
func (p *startupPoll) observe(nonBlankLines int, now time.Time) {
	if p.state != statePolling {
		return
	}
	if nonBlankLines > p.threshold {
		p.state = stateSatisfied
		return
	}
	if !now.Before(p.deadline) {
		p.state = stateTimedOut
	}
}

// cancel records an external cancellation. Terminal states are sticky.
func (p *startupPoll) cancel() {
	if p.state == statePolling {
		p.state = stateCancelled
	}
}

// done reports whether the loop should exit.
func (p *startupPoll) done() bool {
	return p.state != statePolling
}
