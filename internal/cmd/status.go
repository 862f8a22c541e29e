package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telclaude/telclaude/internal/config"
	"github.com/telclaude/telclaude/internal/sessions"
	"github.com/telclaude/telclaude/internal/style"
	"github.com/telclaude/telclaude/internal/tmux"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show attachment and visible Claude panes",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfgDir := config.Dir()
	index := sessions.NewIndex(config.ProjectsRoot(), cfgDir)
	tmx := tmux.New()

	fmt.Println(style.Header.Render("telclaude status"))
	fmt.Println(style.Dim.Render("Config directory: " + cfgDir))
	fmt.Println()

	if attached := index.Attached(); attached != nil {
		fmt.Println("  Attached: " + style.Bold.Render(attached.Cwd))
		fmt.Println(style.Dim.Render("  Session:  " + attached.SessionID))
	} else {
		fmt.Println(style.Dim.Render("  Not attached to any session."))
	}
	fmt.Println()

	if !tmx.IsAvailable() {
		fmt.Println(style.Warning.Render("  tmux is not installed or not on PATH."))
		return nil
	}

	var claudePanes []tmux.Pane
	for _, p := range tmx.ListPanes() {
		if tmux.IsClaudeCommand(p.Command) {
			claudePanes = append(claudePanes, p)
		}
	}
	if len(claudePanes) == 0 {
		fmt.Println(style.Dim.Render("  No Claude panes visible in tmux."))
		return nil
	}

	table := style.NewTable(
		style.Column{Name: "PANE", Width: 8},
		style.Column{Name: "COMMAND", Width: 12},
		style.Column{Name: "CWD", Width: 48, Style: style.Dim},
	)
	for _, p := range claudePanes {
		table.AddRow(p.ID, p.Command, p.Cwd)
	}
	fmt.Print(table.Render())
	return nil
}
