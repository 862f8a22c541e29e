package bridge

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/telclaude/telclaude/internal/chat"
	"github.com/telclaude/telclaude/internal/constants"
	"github.com/telclaude/telclaude/internal/permission"
	"github.com/telclaude/telclaude/internal/transcript"
)

// handleCallback routes a button tap by its data prefix.
func (co *Coordinator) handleCallback(in chat.Inbound) {
	cb := in.Callback
	if cb == nil {
		return
	}
	chatID := in.ChatID
	data := cb.Data

	switch {
	case strings.HasPrefix(data, "sess:"):
		co.pickSession(chatID, cb.ID, strings.TrimPrefix(data, "sess:"))

	case strings.HasPrefix(data, "launch:"):
		co.launchSession(chatID, cb.ID, strings.TrimPrefix(data, "launch:"), false)

	case strings.HasPrefix(data, "launchskip:"):
		co.launchSession(chatID, cb.ID, strings.TrimPrefix(data, "launchskip:"), true)

	case data == "cancel":
		_ = co.surface.AnswerCallback(cb.ID, "Cancelled.")

	case strings.HasPrefix(data, "perm:a:"):
		co.resolvePermission(chatID, cb.ID, strings.TrimPrefix(data, "perm:a:"), true)

	case strings.HasPrefix(data, "perm:d:"):
		co.resolvePermission(chatID, cb.ID, strings.TrimPrefix(data, "perm:d:"), false)

	case strings.HasPrefix(data, "plan:"):
		co.sendPaneKey(chatID, cb.ID, strings.TrimPrefix(data, "plan:"))

	case strings.HasPrefix(data, "model:"):
		co.switchModel(chatID, cb.ID, strings.TrimPrefix(data, "model:"))

	case strings.HasPrefix(data, "img:"):
		_ = co.surface.AnswerCallback(cb.ID, "")
		co.deliverImages(chatID, strings.TrimPrefix(data, "img:"))

	case data == "detach:close":
		co.finishDetach(chatID, cb.ID, true)

	case data == "detach:keep":
		co.finishDetach(chatID, cb.ID, false)

	case data == "reply:y":
		co.quickReply(chatID, cb.ID, "yes")

	case data == "reply:n":
		co.quickReply(chatID, cb.ID, "no")

	case strings.HasPrefix(data, "key:"):
		co.sendPaneKey(chatID, cb.ID, strings.TrimPrefix(data, "key:"))

	default:
		_ = co.surface.AnswerCallback(cb.ID, "")
	}
}

// HandlePermissionRequest surfaces a hook request as an approve/deny
// keyboard. Registered as the permission bridge's callback.
func (co *Coordinator) HandlePermissionRequest(req permission.Request) {
	chatID := co.ChatID()
	if chatID == 0 {
		co.log.Warn("permission request with no known chat", zap.String("id", req.RequestID))
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔐 Claude wants to run %s", req.ToolName)
	if req.ToolCommand != "" {
		fmt.Fprintf(&b, ":\n\n%s", transcript.Preview(req.ToolCommand))
	} else if req.ToolInput != nil {
		if raw, err := json.Marshal(req.ToolInput); err == nil {
			fmt.Fprintf(&b, ":\n\n%s", transcript.Preview(string(raw)))
		}
	}

	_, err := co.surface.SendKeyboard(chatID, b.String(),
		[][]chat.Button{chat.Row(
			chat.Button{Text: "✅ Approve", Data: "perm:a:" + req.RequestID},
			chat.Button{Text: "❌ Deny", Data: "perm:d:" + req.RequestID},
		)})
	if err != nil {
		co.log.Warn("surfacing permission request", zap.Error(err))
	}
}

// resolvePermission answers the hook through the response file and, unless
// disabled, mirrors the answer into the pane. Claude shows its own prompt in
// the terminal; without the keystroke the pane stays blocked on it even
// though the hook already resolved.
func (co *Coordinator) resolvePermission(chatID int64, callbackID, requestID string, approve bool) {
	if co.perms == nil {
		_ = co.surface.AnswerCallback(callbackID, "Permission bridge is not running.")
		return
	}

	action := constants.PermissionDeny
	if approve {
		action = constants.PermissionApprove
	}
	if err := co.perms.Respond(requestID, action); err != nil {
		co.log.Warn("writing permission response", zap.Error(err))
		_ = co.surface.AnswerCallback(callbackID, "Failed to record the answer.")
		return
	}

	if !co.noPermissionKeys {
		if attached := co.index.Attached(); attached != nil {
			if res := co.tmx.FindPane(attached.Cwd); res.Found {
				key := "Escape"
				if approve {
					key = "1"
				}
				if err := co.tmx.SendKey(res.PaneID, key); err != nil {
					co.log.Warn("mirroring permission keystroke", zap.Error(err))
				}
			}
		}
	}

	if approve {
		_ = co.surface.AnswerCallback(callbackID, "Approved.")
		co.reply(chatID, "✅ Approved.")
	} else {
		_ = co.surface.AnswerCallback(callbackID, "Denied.")
		co.reply(chatID, "❌ Denied.")
	}
}

// quickReply injects a short text answer as a turn.
func (co *Coordinator) quickReply(chatID int64, callbackID, text string) {
	_ = co.surface.AnswerCallback(callbackID, "")
	attached := co.index.Attached()
	if attached == nil {
		co.reply(chatID, "Not attached to a session anymore.")
		return
	}
	co.runTurn(chatID, *attached, text)
}

// sendPaneKey presses a single key in the attached pane without arming a
// watch. Plan choices and Enter land in an already-watched turn.
func (co *Coordinator) sendPaneKey(chatID int64, callbackID, key string) {
	attached := co.index.Attached()
	if attached == nil {
		_ = co.surface.AnswerCallback(callbackID, "Not attached.")
		return
	}
	res := co.tmx.FindPane(attached.Cwd)
	if !res.Found {
		_ = co.surface.AnswerCallback(callbackID, "No pane found.")
		return
	}
	if err := co.tmx.SendKey(res.PaneID, key); err != nil {
		co.log.Warn("sending pane key", zap.String("key", key), zap.Error(err))
		_ = co.surface.AnswerCallback(callbackID, "Keystroke failed.")
		return
	}
	_ = co.surface.AnswerCallback(callbackID, "Sent.")
}

// switchModel injects Claude's /model command as a turn.
func (co *Coordinator) switchModel(chatID int64, callbackID, model string) {
	_ = co.surface.AnswerCallback(callbackID, "")
	attached := co.index.Attached()
	if attached == nil {
		co.reply(chatID, "Not attached to a session.")
		return
	}
	co.runTurn(chatID, *attached, "/model "+model)
}
