// telclaude bridges a Telegram chat to Claude Code sessions in tmux.
package main

import (
	"os"

	"github.com/telclaude/telclaude/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
