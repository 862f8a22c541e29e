package bridge

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/telclaude/telclaude/internal/chat"
	"github.com/telclaude/telclaude/internal/watch"
)

// Notifier is the default chat sink for turn output. The watch manager
// falls back to it whenever a watch was armed without caller callbacks
// (timer ticks, post-rotation watches).
type Notifier struct {
	surface chat.Surface
	log     *zap.Logger
}

// NewNotifier creates a Notifier over a chat surface.
func NewNotifier(surface chat.Surface, log *zap.Logger) *Notifier {
	return &Notifier{surface: surface, log: log}
}

// TurnText relays one assistant block.
func (n *Notifier) TurnText(chatID int64, ev watch.TextEvent) {
	if chatID == 0 {
		return
	}
	if err := n.surface.SendText(chatID, ev.Text); err != nil {
		n.log.Warn("relaying turn text", zap.Error(err))
	}
}

// Ping tells the user the agent is still working.
func (n *Notifier) Ping(chatID int64) {
	if chatID == 0 {
		return
	}
	_ = n.surface.SendText(chatID, "⏳ Still working…")
}

// Done marks a turn that ended without any text reply.
func (n *Notifier) Done(chatID int64) {
	if chatID == 0 {
		return
	}
	_ = n.surface.SendText(chatID, "✅ Done.")
}

// OfferImages announces a pending image batch with a drain button.
func (n *Notifier) OfferImages(chatID int64, key string, count int) {
	if chatID == 0 {
		return
	}
	label := fmt.Sprintf("📷 View %d image(s)", count)
	_, err := n.surface.SendKeyboard(chatID,
		"The agent produced images.",
		[][]chat.Button{chat.Row(chat.Button{Text: label, Data: "img:" + key})})
	if err != nil {
		n.log.Warn("offering images", zap.Error(err))
	}
}
