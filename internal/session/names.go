package session

import (
	"context"
	"fmt"
	"os"
)

// maxNameAttempts bounds suffix probing before the pid fallback.
const maxNameAttempts = 1000

// resolveName computes a collision-free session name for base. Live
// multiplexer sessions are unioned with the local registry's keys — the
// registry covers the window where the multiplexer's listing lags behind
// a just-issued create. A read-only probe; it always produces a name.
func (m *Manager) resolveName(ctx context.Context, op, base string) (string, error) {
	live, err := m.liveSessions(ctx, op)
	if err != nil {
		return "", err
	}

	taken := make(map[string]bool, len(live))
	for _, s := range live {
		taken[s.Name] = true
	}
	for _, name := range m.reg.Names() {
		taken[name] = true
	}

	if !taken[base] {
		return base, nil
	}
	for i := 2; i <= maxNameAttempts; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if !taken[candidate] {
			return candidate, nil
		}
	}
	// Exhausted the suffix space; the pid makes the name unique to this
	// process.
	return fmt.Sprintf("%s-%d", base, os.Getpid()), nil
}
