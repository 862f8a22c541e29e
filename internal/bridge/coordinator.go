// Package bridge glues the chat surface to the tmux/transcript pipeline:
// it routes inbound updates, drives the text-turn algorithm, surfaces
// permission prompts, and owns the session picker.
package bridge

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/telclaude/telclaude/internal/chat"
	"github.com/telclaude/telclaude/internal/classify"
	"github.com/telclaude/telclaude/internal/config"
	"github.com/telclaude/telclaude/internal/constants"
	"github.com/telclaude/telclaude/internal/permission"
	"github.com/telclaude/telclaude/internal/sessions"
	"github.com/telclaude/telclaude/internal/timer"
	"github.com/telclaude/telclaude/internal/tmux"
	"github.com/telclaude/telclaude/internal/transcript"
	"github.com/telclaude/telclaude/internal/watch"
)

// pendingInput marks a conversational state where the next plain message is
// consumed by a flow instead of being injected.
type pendingInput int

const (
	pendingNone pendingInput = iota
	pendingTimerFrequency
	pendingTimerPrompt
)

type pendingSession struct {
	Cwd         string
	ProjectName string
}

// Coordinator receives chat events and drives the injection pipeline.
type Coordinator struct {
	surface chat.Surface
	tmx     *tmux.Tmux
	index   *sessions.Index
	manager *watch.Manager
	timer   *timer.PromptTimer
	ai      SpeechClient
	perms   *permission.Bridge
	cfg     config.Config
	cfgDir  string
	log     *zap.Logger

	noPermissionKeys bool

	mu              sync.Mutex
	chatID          int64
	launchedPaneID  string // set at most once per launch; locator fallback only
	pending         pendingInput
	pendingFreq     int
	pendingSessions map[string]pendingSession
	voiceTurn       bool // current turn originated from a voice note
	waitTimer       *time.Timer
}

// SpeechClient is the STT/TTS/single-shot-LLM collaborator contract.
type SpeechClient interface {
	Enabled() bool
	Transcribe(audio []byte, filename string) (string, error)
	Synthesize(text string) ([]byte, error)
	Polish(raw string) (string, error)
	Summarize(text string) (string, error)
	Narrate(text string) (string, error)
}

// Options wires the Coordinator's collaborators.
type Options struct {
	Surface          chat.Surface
	Tmux             *tmux.Tmux
	Index            *sessions.Index
	Manager          *watch.Manager
	Timer            *timer.PromptTimer
	Speech           SpeechClient
	Config           config.Config
	ConfigDir        string
	NoPermissionKeys bool
	Log              *zap.Logger
}

// New creates a Coordinator.
func New(opts Options) *Coordinator {
	return &Coordinator{
		surface:          opts.Surface,
		tmx:              opts.Tmux,
		index:            opts.Index,
		manager:          opts.Manager,
		timer:            opts.Timer,
		ai:               opts.Speech,
		cfg:              opts.Config,
		cfgDir:           opts.ConfigDir,
		noPermissionKeys: opts.NoPermissionKeys,
		log:              opts.Log,
		pendingSessions:  make(map[string]pendingSession),
	}
}

// SetPermissionBridge attaches the permission bridge after construction
// (the bridge needs the coordinator's request handler first).
func (co *Coordinator) SetPermissionBridge(b *permission.Bridge) {
	co.perms = b
}

// ChatID returns the last-seen (or persisted) chat id.
func (co *Coordinator) ChatID() int64 {
	co.mu.Lock()
	defer co.mu.Unlock()
	if co.chatID != 0 {
		return co.chatID
	}
	return config.LoadChatID(co.cfgDir)
}

// HandleUpdate is the single entry point for normalized chat updates.
// The allowlist is enforced before any handler; rejected updates produce
// zero outbound messages.
func (co *Coordinator) HandleUpdate(in chat.Inbound) {
	if co.cfg.AllowedChatID != 0 && in.ChatID != co.cfg.AllowedChatID {
		co.log.Debug("dropping update from non-allowlisted chat", zap.Int64("chat", in.ChatID))
		return
	}

	co.mu.Lock()
	if co.chatID != in.ChatID {
		co.chatID = in.ChatID
		if err := config.SaveChatID(co.cfgDir, in.ChatID); err != nil {
			co.log.Warn("persisting chat id", zap.Error(err))
		}
	}
	co.mu.Unlock()

	switch in.Kind {
	case chat.KindCommand:
		co.handleCommand(in)
	case chat.KindText:
		co.handleText(in.ChatID, in.Text)
	case chat.KindVoice:
		co.handleVoice(in)
	case chat.KindPhoto:
		co.handleImage(in, in.Photo)
	case chat.KindDocument:
		co.handleDocument(in)
	case chat.KindCallback:
		co.handleCallback(in)
	}
}

// handleText runs the text-turn algorithm.
func (co *Coordinator) handleText(chatID int64, text string) {
	if co.consumePendingInput(chatID, text) {
		return
	}

	attached := co.ensureAttached(chatID)
	if attached == nil {
		return
	}

	co.mu.Lock()
	co.voiceTurn = false
	co.mu.Unlock()

	co.runTurn(chatID, *attached, text)
}

// runTurn interrupts any in-flight turn, captures a baseline, injects, and
// arms the watcher.
func (co *Coordinator) runTurn(chatID int64, attached sessions.Attached, text string) {
	if co.manager.IsActive() {
		if res := co.tmx.FindPane(attached.Cwd); res.Found {
			_ = co.tmx.SendInterrupt(res.PaneID)
		}
		co.manager.StopAndFlush()
		// Give the agent time to drop its current turn.
		time.Sleep(constants.InterruptSettle)
	}

	baseline := co.manager.SnapshotBaseline(attached.Cwd)

	res := co.tmx.Inject(attached.Cwd, text, co.fallbackPane())
	if !res.Injected {
		co.reply(chatID, "❌ No Claude session is running at "+attached.Cwd+". Use /sessions to pick or launch one.")
		return
	}

	done := make(chan struct{})
	co.manager.StartInjectionWatcher(attached, chatID,
		co.turnTextCallback(chatID),
		func() { close(done) },
		baseline)

	go co.typeUntil(chatID, done)
}

// turnTextCallback relays assistant text, narrates voice turns, and arms
// the waiting classifier.
func (co *Coordinator) turnTextCallback(chatID int64) func(watch.TextEvent) {
	return func(ev watch.TextEvent) {
		if err := co.surface.SendText(chatID, ev.Text); err != nil {
			co.log.Warn("relaying turn text", zap.Error(err))
		}

		co.mu.Lock()
		voice := co.voiceTurn
		co.mu.Unlock()
		if voice && co.ai.Enabled() {
			go co.speakReply(chatID, ev.Text)
		}

		co.armWaitingCheck(chatID, ev.FilePath)
	}
}

// speakReply narrates assistant text as a voice note. Best-effort: the text
// reply already went out.
func (co *Coordinator) speakReply(chatID int64, text string) {
	spoken, err := co.ai.Narrate(text)
	if err != nil {
		spoken = text
	}
	audio, err := co.ai.Synthesize(spoken)
	if err != nil {
		co.log.Warn("voice synthesis failed", zap.Error(err))
		return
	}
	if err := co.surface.SendVoice(chatID, audio); err != nil {
		co.log.Warn("sending voice reply", zap.Error(err))
	}
}

// armWaitingCheck schedules a quiet-window classification of the session
// tail. Each new text event pushes the window out.
func (co *Coordinator) armWaitingCheck(chatID int64, filePath string) {
	co.mu.Lock()
	if co.waitTimer != nil {
		co.waitTimer.Stop()
	}
	co.waitTimer = time.AfterFunc(constants.WaitingQuiet, func() {
		co.checkWaiting(chatID, filePath)
	})
	co.mu.Unlock()
}

// checkWaiting classifies the tail and, when the agent appears blocked on
// input, offers the matching quick replies.
func (co *Coordinator) checkWaiting(chatID int64, filePath string) {
	if !co.manager.IsActive() {
		return
	}
	tail, err := transcript.LastAssistantEntry(filePath)
	if err != nil {
		return
	}
	switch classify.Classify(tail.Text, tail.HasExitPlanMode) {
	case classify.YesNo:
		_, _ = co.surface.SendKeyboard(chatID, "Claude is waiting for a yes/no:",
			[][]chat.Button{chat.Row(
				chat.Button{Text: "Yes", Data: "reply:y"},
				chat.Button{Text: "No", Data: "reply:n"},
			)})
	case classify.Enter:
		_, _ = co.surface.SendKeyboard(chatID, "Claude is waiting for Enter:",
			[][]chat.Button{chat.Row(chat.Button{Text: "Press Enter", Data: "key:Enter"})})
	case classify.Question:
		_ = co.surface.SendText(chatID, "❓ Claude asked a question and is waiting for your answer.")
	case classify.MultipleChoice:
		rows := make([][]chat.Button, 0, len(classify.PlanChoices))
		for i, choice := range classify.PlanChoices {
			rows = append(rows, chat.Row(chat.Button{Text: choice, Data: fmt.Sprintf("plan:%d", i+1)}))
		}
		text := "Claude finished a plan and is waiting for approval."
		if tail.PlanText != "" {
			text += "\n\n" + transcript.Preview(tail.PlanText)
		}
		_, _ = co.surface.SendKeyboard(chatID, text, rows)
	}
}

// typeUntil keeps the chat's typing indicator alive until the turn ends.
func (co *Coordinator) typeUntil(chatID int64, done <-chan struct{}) {
	_ = co.surface.Typing(chatID)
	ticker := time.NewTicker(4 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			_ = co.surface.Typing(chatID)
		}
	}
}

// ensureAttached returns the attached session, auto-attaching to the most
// recent one when none is set.
func (co *Coordinator) ensureAttached(chatID int64) *sessions.Attached {
	if attached := co.index.Attached(); attached != nil {
		return attached
	}

	list, err := co.index.ListSessions(1)
	if err != nil || len(list) == 0 {
		co.reply(chatID, "No Claude sessions found. Start one in tmux, or use /sessions.")
		return nil
	}
	recent := list[0]
	attached := sessions.Attached{SessionID: recent.SessionID, Cwd: recent.Cwd}
	if err := co.index.WriteAttached(attached); err != nil {
		co.log.Warn("writing attached marker", zap.Error(err))
		co.reply(chatID, "Could not attach to a session.")
		return nil
	}
	co.reply(chatID, fmt.Sprintf("📎 Attached to %s (%s).", recent.ProjectName, recent.Cwd))
	return &attached
}

// fallbackPane returns the launch fallback pane id, if one was recorded.
func (co *Coordinator) fallbackPane() string {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.launchedPaneID
}

// setLaunchedPane records the fallback pane for the most recent launch.
// Each launch overwrites the previous value exactly once.
func (co *Coordinator) setLaunchedPane(paneID string) {
	co.mu.Lock()
	co.launchedPaneID = paneID
	co.mu.Unlock()
}

func (co *Coordinator) reply(chatID int64, text string) {
	if err := co.surface.SendText(chatID, text); err != nil {
		co.log.Warn("sending reply", zap.Error(err))
	}
}

// consumePendingInput routes a plain message into an in-progress flow.
// Returns true when the message was consumed.
func (co *Coordinator) consumePendingInput(chatID int64, text string) bool {
	co.mu.Lock()
	state := co.pending
	co.mu.Unlock()

	switch state {
	case pendingTimerFrequency:
		var freq int
		if _, err := fmt.Sscanf(text, "%d", &freq); err != nil || freq <= 0 {
			co.reply(chatID, "Please send the frequency in minutes as a number, e.g. 30.")
			return true
		}
		co.mu.Lock()
		co.pendingFreq = freq
		co.pending = pendingTimerPrompt
		co.mu.Unlock()
		co.reply(chatID, "Now send the prompt to inject every tick.")
		return true

	case pendingTimerPrompt:
		co.mu.Lock()
		freq := co.pendingFreq
		co.pending = pendingNone
		co.mu.Unlock()
		co.timer.Start(freq, text)
		co.reply(chatID, fmt.Sprintf("⏰ Timer started: every %d min.", freq))
		return true
	}
	return false
}
