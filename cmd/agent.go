package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

var flagAgentFolder string

var agentCmd = &cobra.Command{
	Use:   "agent <name> [extra args...]",
	Short: "Spawn a coding agent and wait for its startup output",
	Long: `Spawn the configured coding agent (agent_command, default "claude") in
a detached session rooted at --folder, then poll until startup output
appears or the poll budget elapses.

The agent coordinates its own completion lock, keyed by the session
name it receives via PANE_WRANGLER_SESSION, so no lock marker is
created here; the JSON output includes the lock key the agent will use.
Extra args after the name are appended to the agent command line.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		res, err := rt.mgr.SpawnAgent(cmd.Context(), args[0], flagAgentFolder, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

func init() {
	agentCmd.Flags().StringVar(&flagAgentFolder, "folder", "", "working directory for the agent")
	rootCmd.AddCommand(agentCmd)
}
