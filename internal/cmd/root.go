// Package cmd implements the telclaude CLI.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/telclaude/telclaude/internal/style"
)

var rootCmd = &cobra.Command{
	Use:   "telclaude",
	Short: "Bridge Telegram chats to Claude Code sessions in tmux",
	Long: `telclaude relays messages between a Telegram chat and Claude Code
sessions running in local tmux panes.

Messages from the phone are typed into the matching pane; Claude's replies
are read from its session transcript and streamed back. Permission prompts,
session switching, and voice notes are handled over the same chat.

Start with 'telclaude setup', then run the bridge with 'telclaude run'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, style.Error.Render("Error: ")+err.Error())
		return 1
	}
	return 0
}
