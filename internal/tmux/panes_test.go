package tmux

import (
	"strings"
	"testing"
	"time"
)

// fakeTmux returns a Tmux whose runner serves canned list-panes output.
func fakeTmux(listPanesOut string) *Tmux {
	t := &Tmux{}
	t.runner = func(args ...string) (string, error) {
		if len(args) > 0 && args[0] == "list-panes" {
			return listPanesOut, nil
		}
		return "", nil
	}
	return t
}

func TestIsClaudeCommand(t *testing.T) {
	tests := []struct {
		cmd  string
		want bool
	}{
		{"claude", true},
		{"claude-code", true},
		{"node", true},
		{"2.0.76", true},
		{"1.2.3-beta", true},
		{"zsh", false},
		{"vim", false},
		{"2.0", false},
	}
	for _, tt := range tests {
		if got := IsClaudeCommand(tt.cmd); got != tt.want {
			t.Errorf("IsClaudeCommand(%q) = %v, want %v", tt.cmd, got, tt.want)
		}
	}
}

func TestListPanesParsesFields(t *testing.T) {
	tmx := fakeTmux(strings.Join([]string{
		"%1 100 claude /home/u/proj",
		"%2 200 zsh /home/u/other dir with spaces",
		"bogus line",
	}, "\n"))

	panes := tmx.ListPanes()
	if len(panes) != 2 {
		t.Fatalf("got %d panes", len(panes))
	}
	if panes[0].ID != "%1" || panes[0].ShellPID != 100 || panes[0].Cwd != "/home/u/proj" {
		t.Errorf("pane 0 = %+v", panes[0])
	}
	if panes[1].Cwd != "/home/u/other dir with spaces" {
		t.Errorf("spaced cwd = %q", panes[1].Cwd)
	}
}

func TestFindPaneExactMatch(t *testing.T) {
	tmx := fakeTmux(strings.Join([]string{
		"%1 100 claude /home/u/proj",
		"%2 200 claude /home/u/other",
	}, "\n"))

	res := tmx.FindPane("/home/u/proj")
	if !res.Found || res.PaneID != "%1" {
		t.Errorf("FindPane = %+v", res)
	}
}

func TestFindPaneParentMatch(t *testing.T) {
	tmx := fakeTmux(strings.Join([]string{
		"%1 100 claude /home/u/proj",
		"%2 200 claude /home/u/other",
	}, "\n"))

	res := tmx.FindPane("/home/u/proj/sub/dir")
	if !res.Found || res.PaneID != "%1" {
		t.Errorf("FindPane = %+v", res)
	}
}

func TestFindPaneSingleCandidateFallback(t *testing.T) {
	tmx := fakeTmux(strings.Join([]string{
		"%1 100 claude /somewhere/else",
		"%2 200 zsh /home/u/proj",
	}, "\n"))

	res := tmx.FindPane("/home/u/proj")
	if !res.Found || res.PaneID != "%1" {
		t.Errorf("unrelated lone candidate should win: %+v", res)
	}
}

func TestFindPaneNoClaude(t *testing.T) {
	tmx := fakeTmux("%1 100 zsh /home/u/proj")
	res := tmx.FindPane("/home/u/proj")
	if res.Found || res.Reason != ReasonNoClaudePane {
		t.Errorf("FindPane = %+v", res)
	}
}

func TestFindPaneNoTmux(t *testing.T) {
	tmx := fakeTmux("")
	res := tmx.FindPane("/home/u/proj")
	if res.Found || res.Reason != ReasonNoTmux {
		t.Errorf("FindPane = %+v", res)
	}
}

func TestFindPaneTiebreakByStartTime(t *testing.T) {
	tmx := fakeTmux(strings.Join([]string{
		"%1 100 claude /home/u/proj",
		"%2 200 claude /home/u/proj",
	}, "\n"))

	origChild, origCmd, origStart := childPIDsFunc, processCommandFunc, processStartTimeFunc
	defer func() {
		childPIDsFunc, processCommandFunc, processStartTimeFunc = origChild, origCmd, origStart
	}()

	childPIDsFunc = func(pid int) []int { return []int{pid + 1} }
	processCommandFunc = func(pid int) (string, error) { return "claude", nil }
	base := time.Date(2026, 8, 24, 10, 0, 0, 0, time.Local)
	processStartTimeFunc = func(pid int) (time.Time, error) {
		if pid == 201 {
			return base.Add(time.Minute), nil
		}
		return base, nil
	}

	res := tmx.FindPane("/home/u/proj")
	if !res.Found || res.PaneID != "%2" {
		t.Errorf("freshest spawn should win: %+v", res)
	}
}

func TestFindPaneAmbiguousWithoutStartTimes(t *testing.T) {
	tmx := fakeTmux(strings.Join([]string{
		"%1 100 claude /home/u/proj",
		"%2 200 claude /home/u/proj",
	}, "\n"))

	origChild := childPIDsFunc
	defer func() { childPIDsFunc = origChild }()
	childPIDsFunc = func(pid int) []int { return nil }

	res := tmx.FindPane("/home/u/proj")
	if res.Found || res.Reason != ReasonAmbiguous {
		t.Errorf("FindPane = %+v", res)
	}
}

func TestSanitizeWindowName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"my-project", "my-project"},
		{"my project!", "my-project-"},
		{"", "claude"},
		{strings.Repeat("a", 50), strings.Repeat("a", 30)},
	}
	for _, tt := range tests {
		if got := SanitizeWindowName(tt.in); got != tt.want {
			t.Errorf("SanitizeWindowName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
