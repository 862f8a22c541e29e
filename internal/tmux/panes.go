package tmux

import (
	"errors"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/telclaude/telclaude/internal/constants"
)

// Pane is one tmux pane as reported by list-panes.
type Pane struct {
	ID       string
	ShellPID int
	Command  string
	Cwd      string
}

// NotFoundReason explains why no pane could be located.
type NotFoundReason string

const (
	ReasonNoTmux       NotFoundReason = "no_tmux"
	ReasonNoClaudePane NotFoundReason = "no_claude_pane"
	ReasonAmbiguous    NotFoundReason = "ambiguous"
)

// FindResult is the outcome of locating a Claude pane for a cwd.
type FindResult struct {
	Found  bool
	PaneID string
	Reason NotFoundReason
}

// claudeVersionRe matches Claude Code's habit of advertising its version as
// the process title ("2.0.76").
var claudeVersionRe = regexp.MustCompile(`^\d+\.\d+\.\d+`)

// IsClaudeCommand reports whether a pane command looks like Claude Code.
// Claude reports as "claude", "node", or a bare dotted version string.
func IsClaudeCommand(cmd string) bool {
	if strings.Contains(cmd, "claude") {
		return true
	}
	return claudeVersionRe.MatchString(cmd)
}

// ListPanes enumerates all panes across all sessions. A missing tmux server
// yields an empty list, not an error.
func (t *Tmux) ListPanes() []Pane {
	out, err := t.run("list-panes", "-a", "-F",
		"#{pane_id} #{pane_pid} #{pane_current_command} #{pane_current_path}")
	if err != nil || out == "" {
		return nil
	}

	var panes []Pane
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		pid, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		p := Pane{ID: fields[0], ShellPID: pid, Command: fields[2]}
		if len(fields) > 3 {
			// Paths containing spaces arrive as extra fields; rejoin them.
			p.Cwd = strings.Join(fields[3:], " ")
		}
		panes = append(panes, p)
	}
	return panes
}

// FindPane locates the Claude pane serving targetCwd.
//
// Resolution order: a unique exact cwd match wins, then a unique strict
// parent directory, then the candidate whose Claude child process started
// most recently (a stale pane the user quit from leaves an older spawn
// behind), then a lone candidate with no cwd relation at all.
func (t *Tmux) FindPane(targetCwd string) FindResult {
	panes := t.ListPanes()
	if len(panes) == 0 {
		return FindResult{Reason: ReasonNoTmux}
	}

	var candidates []Pane
	for _, p := range panes {
		if IsClaudeCommand(p.Command) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return FindResult{Reason: ReasonNoClaudePane}
	}

	var exact, parent []Pane
	for _, p := range candidates {
		switch {
		case p.Cwd == targetCwd:
			exact = append(exact, p)
		case p.Cwd != "" && strings.HasPrefix(targetCwd, p.Cwd+"/"):
			parent = append(parent, p)
		}
	}

	pool := exact
	if len(pool) == 0 {
		pool = parent
	}
	if len(pool) == 0 {
		pool = candidates
	}
	if len(pool) == 1 {
		return FindResult{Found: true, PaneID: pool[0].ID}
	}

	// Multiple matches: the freshest Claude spawn is the one the user means.
	best := -1
	var bestStart time.Time
	anyStart := false
	for i, p := range pool {
		start := claudeChildStartTime(p.ShellPID)
		if !start.IsZero() {
			anyStart = true
		}
		if best == -1 || start.After(bestStart) {
			best = i
			bestStart = start
		}
	}
	if !anyStart {
		return FindResult{Reason: ReasonAmbiguous}
	}
	return FindResult{Found: true, PaneID: pool[best].ID}
}

// LaunchPane creates a new window at cwd and starts Claude in it.
// Returns the new pane's ID.
func (t *Tmux) LaunchPane(cwd, projectName string, skipPermissions bool) (string, error) {
	window := SanitizeWindowName(projectName)

	paneID, err := t.run("new-window", "-d", "-c", cwd, "-n", window, "-P", "-F", "#{pane_id}")
	if errors.Is(err, ErrNoServer) {
		paneID, err = t.run("new-session", "-d", "-s", window, "-c", cwd, "-P", "-F", "#{pane_id}")
	}
	if err != nil {
		return "", err
	}

	command := "claude -c"
	if skipPermissions {
		command = "claude -c --dangerously-skip-permissions"
	}

	// Text and Enter must be separate commands with a delay, or the Enter
	// lands before the shell registers the text.
	if _, err := t.run("send-keys", "-t", paneID, "-l", command); err != nil {
		return "", err
	}
	time.Sleep(constants.LaunchKeystrokeDelay)
	if _, err := t.run("send-keys", "-t", paneID, "Enter"); err != nil {
		return "", err
	}
	return paneID, nil
}

// RespawnPane kills everything in a pane and restarts Claude in place.
func (t *Tmux) RespawnPane(paneID string, skipPermissions bool) error {
	command := "claude -c"
	if skipPermissions {
		command = "claude -c --dangerously-skip-permissions"
	}
	_, err := t.run("respawn-pane", "-k", "-t", paneID, command)
	return err
}

// SanitizeWindowName maps a project name onto tmux's window-name alphabet:
// non-alphanumeric/underscore/hyphen characters become hyphens, truncated.
func SanitizeWindowName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	out := b.String()
	if out == "" {
		out = "claude"
	}
	if len(out) > constants.MaxWindowNameLen {
		out = out[:constants.MaxWindowNameLen]
	}
	return out
}

// Process probes are overridden in tests. Tests that replace them must not
// use t.Parallel().
var (
	childPIDsFunc        = childPIDs
	processCommandFunc   = processCommand
	processStartTimeFunc = processStartTime
)

// claudeChildStartTime finds the Claude child of a pane's shell and returns
// its start time. Zero time when no Claude child is found or ps fails.
func claudeChildStartTime(shellPID int) time.Time {
	for _, pid := range childPIDsFunc(shellPID) {
		cmd, err := processCommandFunc(pid)
		if err != nil {
			continue
		}
		if IsClaudeCommand(cmd) || cmd == "node" {
			start, err := processStartTimeFunc(pid)
			if err != nil {
				return time.Time{}
			}
			return start
		}
	}
	return time.Time{}
}

func childPIDs(pid int) []int {
	out, err := exec.Command("pgrep", "-P", strconv.Itoa(pid)).Output()
	if err != nil {
		return nil
	}
	var pids []int
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if n, err := strconv.Atoi(strings.TrimSpace(line)); err == nil {
			pids = append(pids, n)
		}
	}
	return pids
}

func processCommand(pid int) (string, error) {
	out, err := exec.Command("ps", "-o", "comm=", "-p", strconv.Itoa(pid)).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// processStartTime parses ps lstart output, e.g. "Mon Jan  2 15:04:05 2006".
func processStartTime(pid int) (time.Time, error) {
	cmd := exec.Command("ps", "-o", "lstart=", "-p", strconv.Itoa(pid))
	cmd.Env = append(cmd.Environ(), "LC_ALL=C")
	out, err := cmd.Output()
	if err != nil {
		return time.Time{}, err
	}
	return time.ParseInLocation("Mon Jan _2 15:04:05 2006", strings.TrimSpace(string(out)), time.Local)
}
