package watch

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/telclaude/telclaude/internal/constants"
	"github.com/telclaude/telclaude/internal/sessions"
)

// Notifications is the chat-facing sink for default turn output. The
// manager composes these around caller-supplied callbacks; components never
// talk to the bot directly.
type Notifications interface {
	TurnText(chatID int64, ev TextEvent)
	Ping(chatID int64)
	Done(chatID int64)
	OfferImages(chatID int64, key string, count int)
}

// Manager owns at most one active Watcher. Starting a new watch first stops
// and flushes the prior one, so turns are strictly serialized.
type Manager struct {
	index  *sessions.Index
	notify Notifications
	log    *zap.Logger

	mu         sync.Mutex
	generation int
	active     *Watcher
	onComplete func() // once-wrapped completion of the active watch

	imagesMu      sync.Mutex
	pendingImages map[string][]Image
}

// NewManager creates a Manager over the session index.
func NewManager(index *sessions.Index, notify Notifications, log *zap.Logger) *Manager {
	return &Manager{
		index:         index,
		notify:        notify,
		log:           log,
		pendingImages: make(map[string][]Image),
	}
}

// SnapshotBaseline captures the pre-injection baseline for a cwd.
func (m *Manager) SnapshotBaseline(cwd string) *sessions.Baseline {
	return m.index.SnapshotBaseline(cwd)
}

// IsActive reports whether a watch is currently armed.
func (m *Manager) IsActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active != nil && !m.active.Terminated()
}

// StartInjectionWatcher arms a turn watch for an attached session.
//
// onText defaults to notifying the chat of each new assistant block.
// onComplete fires exactly once across every termination path: result
// record, idle timeout, StopAndFlush by a superseding message, or the
// compaction poll giving up. preBaseline, when non-nil, must have been
// captured before the injection it corresponds to.
func (m *Manager) StartInjectionWatcher(attached sessions.Attached, chatID int64, onText func(TextEvent), onComplete func(), preBaseline *sessions.Baseline) {
	m.mu.Lock()
	m.generation++
	gen := m.generation

	if m.active != nil {
		m.stopAndFlushLocked()
	}
	m.mu.Unlock()

	completeOnce := &sync.Once{}
	complete := func() {
		completeOnce.Do(func() {
			if onComplete != nil {
				onComplete()
			}
		})
	}

	baseline := preBaseline
	if baseline == nil {
		baseline = m.index.SnapshotBaseline(attached.Cwd)
	}
	if baseline == nil {
		// Nothing to watch: a fresh session after /clear has no file yet.
		complete()
		return
	}

	// Session rotated between attach time and now; follow it.
	if baseline.SessionID != attached.SessionID {
		if err := m.index.WriteAttached(sessions.Attached{SessionID: baseline.SessionID, Cwd: attached.Cwd}); err != nil {
			m.log.Warn("rewriting attached marker", zap.Error(err))
		}
	}

	cb := m.wrapCallbacks(attached.Cwd, chatID, onText, complete)
	w, err := NewWatcher(baseline.FilePath, baseline.Size, MetaForFile(baseline.FilePath, attached.Cwd), cb, m.log)
	if err != nil {
		m.log.Warn("starting watcher", zap.String("file", baseline.FilePath), zap.Error(err))
		complete()
		return
	}

	m.mu.Lock()
	m.active = w
	m.onComplete = complete
	m.mu.Unlock()

	go m.compactionPoll(gen, attached.Cwd, chatID, baseline.FilePath, onText, complete)
}

// wrapCallbacks composes the manager's own behavior (chat notification,
// image staging, done suppression) around the caller's callbacks.
func (m *Manager) wrapCallbacks(cwd string, chatID int64, onText func(TextEvent), complete func()) Callbacks {
	delivered := false
	var deliveredMu sync.Mutex

	return Callbacks{
		OnText: func(ev TextEvent) {
			deliveredMu.Lock()
			delivered = true
			deliveredMu.Unlock()
			if onText != nil {
				onText(ev)
				return
			}
			m.notify.TurnText(chatID, ev)
		},
		OnPing: func() {
			m.notify.Ping(chatID)
		},
		OnImages: func(imgs []Image) {
			key := m.stashImages(imgs)
			m.notify.OfferImages(chatID, key, len(imgs))
		},
		OnComplete: func() {
			m.mu.Lock()
			if m.active != nil && m.active.Terminated() {
				m.active = nil
				m.onComplete = nil
			}
			m.mu.Unlock()

			// Suppress the "done" ping when a text reply already landed.
			deliveredMu.Lock()
			quiet := delivered
			deliveredMu.Unlock()
			if !quiet {
				m.notify.Done(chatID)
			}
			complete()
		},
	}
}

// stashImages stores a batch under a fresh key for the image-offer UI.
func (m *Manager) stashImages(imgs []Image) string {
	key := uuid.NewString()
	m.imagesMu.Lock()
	m.pendingImages[key] = imgs
	m.imagesMu.Unlock()
	return key
}

// PopImages drains a pending image batch. Entries are popped on use.
func (m *Manager) PopImages(key string) []Image {
	m.imagesMu.Lock()
	defer m.imagesMu.Unlock()
	imgs := m.pendingImages[key]
	delete(m.pendingImages, key)
	return imgs
}

// PendingImageKeys lists stashed batches, for /images.
func (m *Manager) PendingImageKeys() []string {
	m.imagesMu.Lock()
	defer m.imagesMu.Unlock()
	keys := make([]string, 0, len(m.pendingImages))
	for k := range m.pendingImages {
		keys = append(keys, k)
	}
	return keys
}

// Clear discards the in-flight watcher without firing completion. Used at
// detach and shutdown.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil {
		m.active.Stop()
		m.active = nil
		m.onComplete = nil
	}
}

// StopAndFlush cancels the in-flight watcher and fires its completion.
// Used when a new user message supersedes a running turn.
func (m *Manager) StopAndFlush() {
	m.mu.Lock()
	m.stopAndFlushLocked()
	m.mu.Unlock()
}

func (m *Manager) stopAndFlushLocked() {
	if m.active == nil {
		return
	}
	m.active.Stop()
	flush := m.onComplete
	m.active = nil
	m.onComplete = nil
	if flush != nil {
		// Release the lock is not needed: complete is once-wrapped and the
		// callbacks it reaches do not reenter the manager.
		flush()
	}
}

// compactionPoll re-resolves the latest session file for cwd and rearms the
// watch when the agent rotates to a new transcript. Polls from a prior
// generation abort on their next tick.
func (m *Manager) compactionPoll(gen int, cwd string, chatID int64, watchedFile string, onText func(TextEvent), complete func()) {
	deadline := time.Now().Add(constants.CompactionPollGiveUp)
	ticker := time.NewTicker(constants.CompactionPollInterval)
	defer ticker.Stop()

	for range ticker.C {
		m.mu.Lock()
		superseded := m.generation != gen
		active := m.active
		m.mu.Unlock()

		if superseded {
			return
		}
		if active == nil {
			// Turn already terminated through another path.
			return
		}

		latest := m.index.LatestSessionFileForCwd(cwd)
		if latest != nil && latest.FilePath != watchedFile {
			m.rotate(gen, cwd, chatID, latest, onText, complete)
			return
		}

		if time.Now().After(deadline) {
			// The transcript never produced anything and never rotated.
			// Give up rather than holding the turn open forever.
			if !active.ActivitySeen() {
				m.mu.Lock()
				if m.generation == gen && m.active == active {
					m.active.Stop()
					m.active = nil
					m.onComplete = nil
				}
				m.mu.Unlock()
				complete()
			}
			return
		}
	}
}

// rotate stops the current watcher without firing the outer completion and
// rearms on the rotated file from byte zero with the same callbacks.
func (m *Manager) rotate(gen int, cwd string, chatID int64, latest *sessions.SessionFile, onText func(TextEvent), complete func()) {
	m.mu.Lock()
	if m.generation != gen || m.active == nil {
		m.mu.Unlock()
		return
	}
	m.active.Stop()
	m.active = nil
	m.mu.Unlock()

	if err := m.index.WriteAttached(sessions.Attached{SessionID: latest.SessionID, Cwd: cwd}); err != nil {
		m.log.Warn("rewriting attached marker after rotation", zap.Error(err))
	}

	cb := m.wrapCallbacks(cwd, chatID, onText, complete)
	w, err := NewWatcher(latest.FilePath, 0, MetaForFile(latest.FilePath, cwd), cb, m.log)
	if err != nil {
		m.log.Warn("rearming watcher after rotation", zap.String("file", latest.FilePath), zap.Error(err))
		complete()
		return
	}

	m.mu.Lock()
	if m.generation != gen {
		// A new injection raced the rotation; it owns the pipeline now.
		m.mu.Unlock()
		w.Stop()
		return
	}
	m.active = w
	m.onComplete = complete
	m.mu.Unlock()

	m.log.Info("session rotated, watcher rearmed",
		zap.String("cwd", cwd), zap.String("file", latest.FilePath))

	go m.compactionPoll(gen, cwd, chatID, latest.FilePath, onText, complete)
}
