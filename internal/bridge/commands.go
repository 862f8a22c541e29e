package bridge

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/telclaude/telclaude/internal/chat"
	"github.com/telclaude/telclaude/internal/config"
	"github.com/telclaude/telclaude/internal/transcript"
)

const helpText = `Commands:
/sessions — pick or launch a Claude session
/detach — detach from the current session
/status — show attached session and watcher state
/summarize — summarize the last assistant reply
/compact — ask Claude to compact its context
/clear — ask Claude to clear the conversation
/close_session — close the attached session's window
/polishvoice — toggle voice transcript polishing
/images — resend pending images
/timer — set up a recurring prompt (or: /timer stop)
/model — switch the Claude model
/escape — press Escape in the session
/restart — restart Claude in the attached pane
/help — this message`

func (co *Coordinator) handleCommand(in chat.Inbound) {
	chatID := in.ChatID
	switch in.Command {
	case "sessions":
		co.showSessionPicker(chatID)
	case "detach":
		co.detach(chatID)
	case "status":
		co.showStatus(chatID)
	case "summarize":
		co.summarize(chatID)
	case "compact":
		co.injectCommand(chatID, "/compact")
	case "clear":
		co.injectCommand(chatID, "/clear")
	case "close_session":
		co.closeSession(chatID)
	case "polishvoice":
		co.togglePolishVoice(chatID)
	case "images":
		co.sendPendingImages(chatID)
	case "timer":
		co.timerCommand(chatID, in.CommandArgs)
	case "model":
		co.offerModels(chatID)
	case "escape":
		co.pressEscape(chatID)
	case "restart":
		co.restartAgent(chatID)
	case "help", "start":
		co.reply(chatID, helpText)
	default:
		co.reply(chatID, "Unknown command. /help lists what I understand.")
	}
}

// injectCommand sends a Claude slash command into the attached pane as an
// ordinary turn, so the watcher tracks its effect (compaction rotates the
// session file; the compaction poll follows it).
func (co *Coordinator) injectCommand(chatID int64, command string) {
	attached := co.index.Attached()
	if attached == nil {
		co.reply(chatID, "Not attached to a session. Use /sessions first.")
		return
	}
	co.runTurn(chatID, *attached, command)
}

func (co *Coordinator) showStatus(chatID int64) {
	attached := co.index.Attached()
	if attached == nil {
		co.reply(chatID, "Not attached. Use /sessions to pick a session.")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📎 Session %s\n📁 %s\n", attached.SessionID, attached.Cwd)

	if res := co.tmx.FindPane(attached.Cwd); res.Found {
		fmt.Fprintf(&b, "🖥 Pane %s\n", res.PaneID)
	} else {
		fmt.Fprintf(&b, "🖥 No pane (%s)\n", res.Reason)
	}
	if co.manager.IsActive() {
		b.WriteString("⚙️ A turn is in progress\n")
	}
	if settings, ok := co.timer.Active(); ok {
		fmt.Fprintf(&b, "⏰ Timer: every %d min\n", settings.FrequencyMin)
	}
	if config.PolishVoiceEnabled(co.cfgDir) {
		b.WriteString("🎙 Voice polishing on")
	} else {
		b.WriteString("🎙 Voice polishing off")
	}
	co.reply(chatID, b.String())
}

// summarize condenses the last assistant entry; on LLM failure the raw
// text block is sent instead.
func (co *Coordinator) summarize(chatID int64) {
	attached := co.index.Attached()
	if attached == nil {
		co.reply(chatID, "Not attached to a session.")
		return
	}
	sf := co.index.LatestSessionFileForCwd(attached.Cwd)
	if sf == nil {
		co.reply(chatID, "No transcript yet for this session.")
		return
	}
	tail, err := transcript.LastAssistantEntry(sf.FilePath)
	if err != nil || tail.Text == "" {
		co.reply(chatID, "Nothing to summarize yet.")
		return
	}

	summary, err := co.ai.Summarize(tail.Text)
	if err != nil {
		co.log.Warn("summarize failed, sending raw text", zap.Error(err))
		summary = tail.Text
	}
	co.reply(chatID, summary)
}

func (co *Coordinator) togglePolishVoice(chatID int64) {
	enabled, err := config.SetPolishVoice(co.cfgDir, !config.PolishVoiceEnabled(co.cfgDir))
	if err != nil {
		co.reply(chatID, "Could not toggle voice polishing.")
		return
	}
	if enabled {
		co.reply(chatID, "🎙 Voice polishing is now ON.")
	} else {
		co.reply(chatID, "🎙 Voice polishing is now OFF (raw transcripts).")
	}
}

func (co *Coordinator) timerCommand(chatID int64, args string) {
	if strings.EqualFold(strings.TrimSpace(args), "stop") {
		if prior, ok := co.timer.Stop(); ok {
			co.reply(chatID, fmt.Sprintf("⏰ Timer stopped (was every %d min: %q).",
				prior.FrequencyMin, prior.Prompt))
		} else {
			co.reply(chatID, "No timer is running.")
		}
		return
	}

	co.mu.Lock()
	co.pending = pendingTimerFrequency
	co.mu.Unlock()
	co.reply(chatID, "How often should I prompt, in minutes? (Send /timer stop to cancel a running timer.)")
}

var modelChoices = []string{"default", "opus", "sonnet", "haiku"}

func (co *Coordinator) offerModels(chatID int64) {
	rows := make([][]chat.Button, 0, len(modelChoices))
	for _, m := range modelChoices {
		rows = append(rows, chat.Row(chat.Button{Text: m, Data: "model:" + m}))
	}
	if _, err := co.surface.SendKeyboard(chatID, "Switch Claude to which model?", rows); err != nil {
		co.log.Warn("offering models", zap.Error(err))
	}
}

func (co *Coordinator) pressEscape(chatID int64) {
	attached := co.index.Attached()
	if attached == nil {
		co.reply(chatID, "Not attached to a session.")
		return
	}
	res := co.tmx.FindPane(attached.Cwd)
	if !res.Found {
		co.reply(chatID, "No pane found for the attached session.")
		return
	}
	if err := co.tmx.SendInterrupt(res.PaneID); err != nil {
		co.reply(chatID, "Failed to send Escape.")
		return
	}
	co.reply(chatID, "⎋ Escape sent.")
}

// restartAgent respawns Claude in the attached pane.
func (co *Coordinator) restartAgent(chatID int64) {
	attached := co.index.Attached()
	if attached == nil {
		co.reply(chatID, "Not attached to a session.")
		return
	}
	res := co.tmx.FindPane(attached.Cwd)
	if !res.Found {
		co.reply(chatID, "No pane found for the attached session.")
		return
	}
	co.manager.Clear()
	if err := co.tmx.RespawnPane(res.PaneID, false); err != nil {
		co.reply(chatID, "Restart failed: "+err.Error())
		return
	}
	co.reply(chatID, "🔄 Claude restarted in "+attached.Cwd+".")
}

// sendPendingImages drains every stashed image batch into the chat.
func (co *Coordinator) sendPendingImages(chatID int64) {
	keys := co.manager.PendingImageKeys()
	if len(keys) == 0 {
		co.reply(chatID, "No pending images.")
		return
	}
	for _, key := range keys {
		co.deliverImages(chatID, key)
	}
}
