// Package timer injects a recurring prompt into the attached session.
//
// Each tick behaves exactly like a user message on the same pipeline: it
// captures a baseline, injects, and arms the watch manager, which
// serializes it against real user messages.
package timer

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/telclaude/telclaude/internal/sessions"
	"github.com/telclaude/telclaude/internal/tmux"
	"github.com/telclaude/telclaude/internal/watch"
)

// Settings describes a running prompt timer.
type Settings struct {
	FrequencyMin int
	Prompt       string
}

// PromptTimer holds at most one recurring prompt.
type PromptTimer struct {
	tmx     *tmux.Tmux
	index   *sessions.Index
	manager *watch.Manager
	chatID  func() int64
	log     *zap.Logger

	mu       sync.Mutex
	ticker   *time.Ticker
	stop     chan struct{}
	settings Settings
}

// New creates a PromptTimer. chatID is resolved per tick so the timer
// follows the operator's current chat.
func New(tmx *tmux.Tmux, index *sessions.Index, manager *watch.Manager, chatID func() int64, log *zap.Logger) *PromptTimer {
	return &PromptTimer{tmx: tmx, index: index, manager: manager, chatID: chatID, log: log}
}

// Start replaces any existing timer with a new frequency and prompt.
func (p *PromptTimer) Start(frequencyMin int, prompt string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()

	p.settings = Settings{FrequencyMin: frequencyMin, Prompt: prompt}
	p.ticker = time.NewTicker(time.Duration(frequencyMin) * time.Minute)
	p.stop = make(chan struct{})

	go p.run(p.ticker, p.stop, prompt)
}

// Stop clears the timer and returns the prior settings for UI echo.
// The second return is false when no timer was running.
func (p *PromptTimer) Stop() (Settings, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ticker == nil {
		return Settings{}, false
	}
	prior := p.settings
	p.stopLocked()
	return prior, true
}

// Active returns the current settings, if a timer is running.
func (p *PromptTimer) Active() (Settings, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ticker == nil {
		return Settings{}, false
	}
	return p.settings, true
}

func (p *PromptTimer) stopLocked() {
	if p.ticker != nil {
		p.ticker.Stop()
		close(p.stop)
		p.ticker = nil
	}
	p.settings = Settings{}
}

func (p *PromptTimer) run(ticker *time.Ticker, stop chan struct{}, prompt string) {
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.tick(prompt)
		}
	}
}

// tick runs one scheduled injection. Missing session or pane skips the tick
// rather than erroring; the next tick retries.
func (p *PromptTimer) tick(prompt string) {
	attached := p.index.Attached()
	if attached == nil {
		return
	}
	res := p.tmx.FindPane(attached.Cwd)
	if !res.Found {
		return
	}

	baseline := p.index.SnapshotBaseline(attached.Cwd)
	if err := p.tmx.SendMessage(res.PaneID, prompt); err != nil {
		p.log.Warn("timer injection failed", zap.Error(err))
		return
	}
	p.manager.StartInjectionWatcher(*attached, p.chatID(), nil, nil, baseline)
}
