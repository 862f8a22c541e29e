package tmux

import (
	"errors"
	"testing"
)

func TestWrapErrorSentinels(t *testing.T) {
	tmx := &Tmux{}
	base := errors.New("exit status 1")

	err := tmx.wrapError(base, "no server running on /tmp/tmux-1000/default", []string{"list-panes"})
	if !errors.Is(err, ErrNoServer) {
		t.Errorf("want ErrNoServer, got %v", err)
	}

	err = tmx.wrapError(base, "can't find pane: %99", []string{"send-keys"})
	if !errors.Is(err, ErrPaneNotFound) {
		t.Errorf("want ErrPaneNotFound, got %v", err)
	}

	err = tmx.wrapError(base, "something else entirely", []string{"send-keys"})
	if errors.Is(err, ErrNoServer) || errors.Is(err, ErrPaneNotFound) {
		t.Errorf("unexpected sentinel: %v", err)
	}
}
