package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/timvw/pane-wrangler/internal/session"
)

var (
	flagSpawnCwd    string
	flagSpawnNoLock bool
	flagSpawnEnv    []string
)

var spawnCmd = &cobra.Command{
	Use:   "spawn <name> <command>",
	Short: "Spawn a command in a detached session",
	Long: `Spawn a shell command in a new detached multiplexer session.

The session survives command exit (remain-on-exit) so output stays
capturable. A completion-lock marker is created before the session
starts and removed by the wrapped shell when the command exits; pass
--no-lock to skip it. If the requested name is taken, behavior follows
the spawn_collision config: "fail" rejects, "rename" picks name-2,
name-3, and so on.

Prints the actual session name and lock as JSON.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		env, err := parseEnvFlags(flagSpawnEnv)
		if err != nil {
			return err
		}

		res, err := rt.mgr.Spawn(cmd.Context(), args[0], args[1], session.SpawnOptions{
			Cwd:      flagSpawnCwd,
			SkipLock: flagSpawnNoLock,
			ExtraEnv: env,
		})
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

// parseEnvFlags parses repeated KEY=VALUE flags into a map.
func parseEnvFlags(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	env := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		idx := strings.IndexByte(pair, '=')
		if idx <= 0 {
			return nil, fmt.Errorf("invalid --env %q (expected KEY=VALUE)", pair)
		}
		env[pair[:idx]] = pair[idx+1:]
	}
	return env, nil
}

func init() {
	spawnCmd.Flags().StringVar(&flagSpawnCwd, "cwd", "", "working directory for the command")
	spawnCmd.Flags().BoolVar(&flagSpawnNoLock, "no-lock", false, "skip the completion-lock marker")
	spawnCmd.Flags().StringArrayVar(&flagSpawnEnv, "env", nil, "extra environment variable KEY=VALUE (repeatable)")
	rootCmd.AddCommand(spawnCmd)
}
