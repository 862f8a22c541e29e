// Package tmux locates Claude Code panes and injects keystrokes into them
// via the tmux CLI.
package tmux

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Common errors
var (
	ErrNoServer     = errors.New("no tmux server running")
	ErrPaneNotFound = errors.New("pane not found")
)

// Tmux wraps tmux operations. The runner is replaceable in tests.
type Tmux struct {
	runner func(args ...string) (string, error)
}

// New creates a Tmux wrapper backed by the real tmux binary.
func New() *Tmux {
	t := &Tmux{}
	t.runner = t.execRun
	return t
}

// run executes a tmux command and returns stdout.
func (t *Tmux) run(args ...string) (string, error) {
	return t.runner(args...)
}

func (t *Tmux) execRun(args ...string) (string, error) {
	cmd := exec.Command("tmux", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", t.wrapError(err, stderr.String(), args)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// wrapError wraps tmux errors with context.
func (t *Tmux) wrapError(err error, stderr string, args []string) error {
	stderr = strings.TrimSpace(stderr)

	if strings.Contains(stderr, "no server running") ||
		strings.Contains(stderr, "error connecting to") {
		return ErrNoServer
	}
	if strings.Contains(stderr, "can't find pane") ||
		strings.Contains(stderr, "can't find window") {
		return ErrPaneNotFound
	}

	if stderr != "" {
		return fmt.Errorf("tmux %s: %s", args[0], stderr)
	}
	return fmt.Errorf("tmux %s: %w", args[0], err)
}

// IsAvailable checks if tmux is installed and can be invoked.
func (t *Tmux) IsAvailable() bool {
	_, err := t.run("-V")
	return err == nil
}
