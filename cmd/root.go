package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/timvw/pane-wrangler/internal/config"
	"github.com/timvw/pane-wrangler/internal/locks"
	"github.com/timvw/pane-wrangler/internal/mux"
	pwotel "github.com/timvw/pane-wrangler/internal/otel"
	"github.com/timvw/pane-wrangler/internal/registry"
	"github.com/timvw/pane-wrangler/internal/session"
)

// Version is injected at build time via -ldflags.
var Version = "dev"

var flagMux string

var rootCmd = &cobra.Command{
	Use:   "pane-wrangler",
	Short: "Session lifecycle manager for terminal multiplexers",
	Long: `pane-wrangler runs commands and coding agents in detached terminal
multiplexer sessions and manages their full lifecycle: spawn, capture,
send keystrokes, and kill.

Every spawned command carries a completion-lock marker that the wrapped
shell releases on exit, so other processes can wait for a session to
finish by watching the marker. All commands must run from inside a
multiplexer session.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Structured errors from the session
// layer are emitted as JSON on stderr so orchestrating callers can
// branch on the kind; advisories exit 2, everything else 1.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	var serr *session.Error
	if errors.As(err, &serr) {
		enc := json.NewEncoder(os.Stderr)
		enc.SetIndent("", "  ")
		_ = enc.Encode(serr)
		if serr.Advisory() {
			os.Exit(2)
		}
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagMux, "mux", "", "terminal multiplexer: tmux (default: auto-detect)")
}

// runtime bundles everything a command needs: the manager plus the
// telemetry handle whose Close must run before process exit.
type runtime struct {
	cfg *config.Config
	mgr *session.Manager
	tel *pwotel.Telemetry
}

func (r *runtime) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	r.tel.Shutdown(ctx)
}

// newRuntime loads config, initializes telemetry, and wires the manager.
func newRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagMux != "" {
		cfg.Mux = flagMux
	}

	pwotel.Version = Version
	tel, err := pwotel.Init(ctx, pwotel.OTELConfig{
		Endpoint: cfg.OTELEndpoint,
		Headers:  cfg.OTELHeaders,
	})
	if err != nil {
		return nil, err
	}

	m, err := getMultiplexer(cfg)
	if err != nil {
		tel.Shutdown(ctx)
		return nil, err
	}

	mgr := session.New(m, registry.New(), locks.NewManager(cfg.LockDir), cfg, tel.Metrics)
	return &runtime{cfg: cfg, mgr: mgr, tel: tel}, nil
}

// getMultiplexer returns the configured or auto-detected multiplexer.
func getMultiplexer(cfg *config.Config) (mux.Multiplexer, error) {
	if cfg.Mux != "" {
		return mux.FromName(cfg.Mux)
	}
	return mux.Detect()
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
