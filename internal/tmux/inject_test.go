package tmux

import (
	"strings"
	"testing"
)

// recordingTmux captures every tmux invocation, serving list-panes from a
// canned string.
func recordingTmux(listPanesOut string, calls *[][]string) *Tmux {
	t := &Tmux{}
	t.runner = func(args ...string) (string, error) {
		*calls = append(*calls, args)
		if args[0] == "list-panes" {
			return listPanesOut, nil
		}
		return "", nil
	}
	return t
}

func TestSendMessageLiteralThenEnter(t *testing.T) {
	var calls [][]string
	tmx := recordingTmux("", &calls)

	if err := tmx.SendMessage("%1", "fix the tests"); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 2 {
		t.Fatalf("got %d tmux calls", len(calls))
	}

	first := strings.Join(calls[0], " ")
	if first != "send-keys -t %1 -l fix the tests" {
		t.Errorf("first call = %q", first)
	}
	second := strings.Join(calls[1], " ")
	if second != "send-keys -t %1 Enter" {
		t.Errorf("second call = %q", second)
	}
}

func TestInjectUsesFallbackPane(t *testing.T) {
	var calls [][]string
	tmx := recordingTmux("", &calls)

	res := tmx.Inject("/home/u/proj", "hello", "%9")
	if !res.Injected || res.PaneID != "%9" {
		t.Errorf("Inject = %+v", res)
	}
}

func TestInjectNoPaneNoFallback(t *testing.T) {
	var calls [][]string
	tmx := recordingTmux("", &calls)

	res := tmx.Inject("/home/u/proj", "hello", "")
	if res.Injected {
		t.Errorf("Inject = %+v", res)
	}
	if res.Reason != ReasonNoTmux {
		t.Errorf("Reason = %q", res.Reason)
	}
	// Only the locator's list-panes should have run; nothing was typed.
	for _, call := range calls {
		if call[0] == "send-keys" {
			t.Errorf("unexpected send-keys: %v", call)
		}
	}
}
