package tmux

import (
	"time"

	"github.com/telclaude/telclaude/internal/constants"
)

// InjectResult is the outcome of sending a message to a Claude pane.
type InjectResult struct {
	Injected bool
	PaneID   string
	Reason   NotFoundReason
}

// Inject locates the Claude pane for cwd and sends text followed by Enter.
// If no pane can be located and fallbackPaneID is non-empty, the text is
// sent there instead.
func (t *Tmux) Inject(cwd, text, fallbackPaneID string) InjectResult {
	res := t.FindPane(cwd)
	if !res.Found {
		if fallbackPaneID == "" {
			return InjectResult{Reason: res.Reason}
		}
		res.PaneID = fallbackPaneID
	}

	if err := t.SendMessage(res.PaneID, text); err != nil {
		return InjectResult{Reason: ReasonNoClaudePane}
	}
	return InjectResult{Injected: true, PaneID: res.PaneID}
}

// SendMessage sends text in literal mode, waits for the paste to settle,
// then sends Enter as a separate command. Sending Enter in the same
// send-keys call submits before the text is registered.
func (t *Tmux) SendMessage(paneID, text string) error {
	if _, err := t.run("send-keys", "-t", paneID, "-l", text); err != nil {
		return err
	}
	time.Sleep(constants.KeystrokeDebounce)
	_, err := t.run("send-keys", "-t", paneID, "Enter")
	return err
}

// SendInterrupt sends Claude's universal cancel keystroke.
func (t *Tmux) SendInterrupt(paneID string) error {
	return t.SendKey(paneID, "Escape")
}

// SendKey sends a single named key (e.g. "Escape", "Enter", "1") without
// a following submit.
func (t *Tmux) SendKey(paneID, key string) error {
	_, err := t.run("send-keys", "-t", paneID, key)
	return err
}

// KillPane closes a pane. Closing the last pane in a window closes the
// window with it.
func (t *Tmux) KillPane(paneID string) error {
	_, err := t.run("kill-pane", "-t", paneID)
	return err
}
