package bridge

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/telclaude/telclaude/internal/chat"
	"github.com/telclaude/telclaude/internal/constants"
	"github.com/telclaude/telclaude/internal/sessions"
	"github.com/telclaude/telclaude/internal/tmux"
	"github.com/telclaude/telclaude/internal/transcript"
)

// showSessionPicker lists Claude panes deduped by cwd, resolving each cwd's
// newest session file. When no panes are live it falls back to the recent
// session index so the user can still pick a project and launch into it.
func (co *Coordinator) showSessionPicker(chatID int64) {
	type entry struct {
		info sessions.SessionInfo
		live bool
	}
	var entries []entry

	seen := make(map[string]bool)
	for _, pane := range co.tmx.ListPanes() {
		if !tmux.IsClaudeCommand(pane.Command) || pane.Cwd == "" || seen[pane.Cwd] {
			continue
		}
		seen[pane.Cwd] = true

		sf := co.index.LatestSessionFileForCwd(pane.Cwd)
		if sf == nil {
			continue
		}
		info := sessions.SessionInfo{
			SessionID:   sf.SessionID,
			Cwd:         pane.Cwd,
			ProjectName: transcript.DecodeProjectName(transcript.EncodeCwd(pane.Cwd)),
		}
		entries = append(entries, entry{info: info, live: true})
	}

	if len(entries) == 0 {
		list, err := co.index.ListSessions(8)
		if err != nil || len(list) == 0 {
			msg := "No Claude sessions found. Start one in tmux and try again."
			if co.cfg.ReposFolder != "" {
				msg += "\nRepos folder: " + co.cfg.ReposFolder
			}
			co.reply(chatID, msg)
			return
		}
		for _, info := range list {
			entries = append(entries, entry{info: info})
		}
	}

	co.mu.Lock()
	co.pendingSessions = make(map[string]pendingSession, len(entries))
	for _, e := range entries {
		co.pendingSessions[e.info.SessionID] = pendingSession{
			Cwd:         e.info.Cwd,
			ProjectName: e.info.ProjectName,
		}
	}
	co.mu.Unlock()

	rows := make([][]chat.Button, 0, len(entries))
	for _, e := range entries {
		label := e.info.ProjectName
		if e.live {
			label = "🟢 " + label
		}
		if e.info.LastMessage != "" {
			preview := e.info.LastMessage
			if len(preview) > 40 {
				preview = preview[:40] + "…"
			}
			label += " — " + preview
		}
		rows = append(rows, chat.Row(chat.Button{Text: label, Data: "sess:" + e.info.SessionID}))
	}
	if _, err := co.surface.SendKeyboard(chatID, "Pick a session:", rows); err != nil {
		co.log.Warn("sending session picker", zap.Error(err))
	}
}

// pickSession handles a picker tap: attach immediately when a Claude pane
// is running at the cwd, otherwise offer the launch flow.
func (co *Coordinator) pickSession(chatID int64, callbackID, sessionID string) {
	co.mu.Lock()
	ps, ok := co.pendingSessions[sessionID]
	co.mu.Unlock()
	if !ok {
		_ = co.surface.AnswerCallback(callbackID, "That list is stale — run /sessions again.")
		return
	}

	if res := co.tmx.FindPane(ps.Cwd); res.Found {
		if err := co.index.WriteAttached(sessions.Attached{SessionID: sessionID, Cwd: ps.Cwd}); err != nil {
			_ = co.surface.AnswerCallback(callbackID, "Attach failed.")
			return
		}
		_ = co.surface.AnswerCallback(callbackID, "Attached.")
		co.reply(chatID, fmt.Sprintf("📎 Attached to %s (%s).", ps.ProjectName, ps.Cwd))
		return
	}

	_ = co.surface.AnswerCallback(callbackID, "")
	_, err := co.surface.SendKeyboard(chatID,
		fmt.Sprintf("No Claude running at %s. Launch one?", ps.Cwd),
		[][]chat.Button{
			chat.Row(chat.Button{Text: "🚀 Launch", Data: "launch:" + sessionID}),
			chat.Row(chat.Button{Text: "🚀 Launch (skip permissions)", Data: "launchskip:" + sessionID}),
			chat.Row(chat.Button{Text: "Cancel", Data: "cancel"}),
		})
	if err != nil {
		co.log.Warn("offering launch", zap.Error(err))
	}
}

// launchSession creates a pane, records the fallback pane id, attaches,
// and polls until Claude is visible to the locator.
func (co *Coordinator) launchSession(chatID int64, callbackID, sessionID string, skipPermissions bool) {
	co.mu.Lock()
	ps, ok := co.pendingSessions[sessionID]
	co.mu.Unlock()
	if !ok {
		_ = co.surface.AnswerCallback(callbackID, "That list is stale — run /sessions again.")
		return
	}

	paneID, err := co.tmx.LaunchPane(ps.Cwd, ps.ProjectName, skipPermissions)
	if err != nil {
		_ = co.surface.AnswerCallback(callbackID, "")
		co.reply(chatID, "Launch failed: "+err.Error())
		return
	}
	co.setLaunchedPane(paneID)

	if err := co.index.WriteAttached(sessions.Attached{SessionID: sessionID, Cwd: ps.Cwd}); err != nil {
		co.log.Warn("writing attached marker after launch", zap.Error(err))
	}
	_ = co.surface.AnswerCallback(callbackID, "Launching…")

	go func() {
		deadline := time.Now().Add(constants.LaunchPollTimeout)
		for time.Now().Before(deadline) {
			if res := co.tmx.FindPane(ps.Cwd); res.Found {
				co.reply(chatID, "✅ Claude is ready at "+ps.Cwd+".")
				return
			}
			time.Sleep(constants.LaunchPollInterval)
		}
		co.reply(chatID, "Claude did not come up within 30s; messages will fall back to the launched pane.")
	}()
}

// detach offers to close the window when a pane exists, or silently removes
// the marker when it doesn't.
func (co *Coordinator) detach(chatID int64) {
	attached := co.index.Attached()
	if attached == nil {
		co.reply(chatID, "Not attached to anything.")
		return
	}

	if res := co.tmx.FindPane(attached.Cwd); res.Found {
		_, err := co.surface.SendKeyboard(chatID, "Detach: close the tmux window too?",
			[][]chat.Button{chat.Row(
				chat.Button{Text: "Close window", Data: "detach:close"},
				chat.Button{Text: "Keep it", Data: "detach:keep"},
			)})
		if err != nil {
			co.log.Warn("offering detach", zap.Error(err))
		}
		return
	}

	co.manager.Clear()
	if err := co.index.RemoveAttached(); err != nil {
		co.log.Warn("removing attached marker", zap.Error(err))
	}
}

// finishDetach completes the detach flow after the close/keep choice.
func (co *Coordinator) finishDetach(chatID int64, callbackID string, closeWindow bool) {
	attached := co.index.Attached()
	co.manager.Clear()

	if closeWindow && attached != nil {
		if res := co.tmx.FindPane(attached.Cwd); res.Found {
			if err := co.tmx.KillPane(res.PaneID); err != nil {
				co.log.Warn("killing pane", zap.Error(err))
			}
		}
	}
	if err := co.index.RemoveAttached(); err != nil {
		co.log.Warn("removing attached marker", zap.Error(err))
	}
	_ = co.surface.AnswerCallback(callbackID, "Detached.")
	co.reply(chatID, "🔌 Detached.")
}

// closeSession is /close_session: detach and close without the prompt.
func (co *Coordinator) closeSession(chatID int64) {
	attached := co.index.Attached()
	if attached == nil {
		co.reply(chatID, "Not attached to anything.")
		return
	}
	co.manager.Clear()
	if res := co.tmx.FindPane(attached.Cwd); res.Found {
		if err := co.tmx.KillPane(res.PaneID); err != nil {
			co.log.Warn("killing pane", zap.Error(err))
		}
	}
	if err := co.index.RemoveAttached(); err != nil {
		co.log.Warn("removing attached marker", zap.Error(err))
	}
	co.reply(chatID, "🗑 Session window closed and detached.")
}
