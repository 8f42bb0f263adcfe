package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

// CheckBackendCommand verifies that the configured backend executable is
// available in PATH. Returns an error with setup instructions if not found.
func CheckBackendCommand(command string) error {
	_, err := exec.LookPath(command)
	if err != nil {
		return fmt.Errorf("backend command %q not found in PATH\n\n"+
			"chat-juicer talks to an assistant backend over stdio and needs\n"+
			"its executable to be installed.\n\n"+
			"Point it at your backend with:\n"+
			"  chat-juicer config backend.command <executable>\n"+
			"or select a profile:\n"+
			"  chat-juicer config profile <name>", command)
	}
	return nil
}

var rootCmd = &cobra.Command{
	Use:   "chat-juicer",
	Short: "Terminal chat client for a stdio assistant backend",
	Long: `chat-juicer is a terminal chat client that wraps a conversational
assistant backend (canonically a Python program) as a subprocess.

With no arguments, launches the chat TUI: user input is piped to the
backend's stdin one line at a time, and backend output streams into the
transcript as it arrives. The backend can be restarted in place with
ctrl+r or /restart without leaving the session.

Core behavior:
- Supervises exactly one backend process at a time
- Streams backend stdout to the transcript in arrival order
- Forwards backend stderr as visible diagnostics
- Reports a disconnect once when the backend exits; restarts are
  always user-initiated
- Records the conversation to a local transcript database`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
}
