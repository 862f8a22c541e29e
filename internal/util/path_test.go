package util

import (
	"os"
	"testing"
)

func TestExpandHomeTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}
	got := ExpandHome("~/repos/telclaude")
	want := home + "/repos/telclaude"
	if got != want {
		t.Errorf("ExpandHome(~/repos/telclaude) = %q, want %q", got, want)
	}
}

func TestExpandHomeBare(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}
	if got := ExpandHome("~"); got != home {
		t.Errorf("ExpandHome(~) = %q, want %q", got, home)
	}
}

func TestExpandHomeUnchanged(t *testing.T) {
	for _, path := range []string{"/etc/passwd", "relative/path", "~user/x"} {
		if got := ExpandHome(path); got != path {
			t.Errorf("ExpandHome(%q) = %q, want unchanged", path, got)
		}
	}
}
