// Package watch observes Claude Code transcripts for turn output.
//
// A Watcher follows a single transcript file from a byte baseline captured
// at injection time, streaming new assistant text blocks and detecting turn
// completion. The Manager owns at most one Watcher, serializes turns, and
// follows session-file rotation caused by compaction and /clear.
package watch

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/telclaude/telclaude/internal/constants"
	"github.com/telclaude/telclaude/internal/transcript"
)

// TextEvent is one new assistant text block.
type TextEvent struct {
	SessionID   string
	ProjectName string
	Cwd         string
	FilePath    string
	Text        string
}

// Image is a transcript-referenced image, read from disk at turn end.
type Image struct {
	MediaType string
	Data      string // base64
}

// Callbacks fan turn observations out to the owner. Any callback may be nil.
type Callbacks struct {
	OnText     func(TextEvent)
	OnPing     func()
	OnComplete func()
	OnImages   func([]Image)
}

// Meta identifies the session a watcher is observing.
type Meta struct {
	SessionID   string
	ProjectName string
	Cwd         string
}

// Watcher states.
const (
	stateArmed = iota
	stateTerminated
)

// Watcher observes one transcript file from a baseline.
//
// All transcript reads happen on the single run goroutine; the mutex only
// guards the state transition so Stop is safe from any goroutine.
type Watcher struct {
	filePath string
	meta     Meta
	cb       Callbacks
	log      *zap.Logger

	mu    sync.Mutex
	state int
	done  chan struct{}

	// Owned by the run goroutine; sawData and textDelivered are also read
	// through accessors and live under mu.
	cursor        int64
	emitted       map[string]bool
	textDelivered bool
	resultSeen    bool
	imagePaths    []string
	sawData       bool
}

// NewWatcher starts observing filePath past baselineSize.
func NewWatcher(filePath string, baselineSize int64, meta Meta, cb Callbacks, log *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fs watcher: %w", err)
	}
	if err := fw.Add(filePath); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", filePath, err)
	}

	w := &Watcher{
		filePath: filePath,
		meta:     meta,
		cb:       cb,
		log:      log,
		done:     make(chan struct{}),
		cursor:   baselineSize,
		emitted:  make(map[string]bool),
	}
	go w.run(fw)
	return w, nil
}

// Stop closes the underlying watcher and clears pending timers. It does not
// fire OnComplete; calling it after termination is a no-op.
func (w *Watcher) Stop() {
	w.terminate()
}

// Terminated reports whether the watcher has stopped emitting.
func (w *Watcher) Terminated() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state == stateTerminated
}

// ActivitySeen reports whether any bytes ever appeared past the baseline.
// The manager's compaction poll uses this to distinguish a dead transcript
// from a long-running turn.
func (w *Watcher) ActivitySeen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sawData
}

// terminate moves to Terminated exactly once. Returns true on the first call.
func (w *Watcher) terminate() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == stateTerminated {
		return false
	}
	w.state = stateTerminated
	close(w.done)
	return true
}

func (w *Watcher) run(fw *fsnotify.Watcher) {
	defer fw.Close()

	ping := time.NewTimer(constants.IdlePing)
	defer ping.Stop()
	idle := time.NewTimer(constants.HardIdle)
	defer idle.Stop()

	var grace *time.Timer
	var graceC <-chan time.Time
	defer func() {
		if grace != nil {
			grace.Stop()
		}
	}()

	// The file may already have grown between baseline capture and watcher
	// start; fsnotify won't replay those writes.
	w.consume()

	for {
		if w.resultSeen && grace == nil {
			grace = time.NewTimer(constants.ResultGrace)
			graceC = grace.C
		}

		select {
		case <-w.done:
			return

		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if w.consume() {
				resetTimer(ping, constants.IdlePing)
				resetTimer(idle, constants.HardIdle)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			// Keep watching; a dead watch eventually hits the hard idle.
			w.log.Warn("transcript watch error", zap.String("file", w.filePath), zap.Error(err))

		case <-graceC:
			// Collect anything that flushed alongside the result record.
			w.consume()
			w.finish(true)
			return

		case <-ping.C:
			if !w.textDelivered && w.cb.OnPing != nil {
				w.cb.OnPing()
			}
			ping.Reset(constants.IdlePing)

		case <-idle.C:
			w.finish(false)
			return
		}
	}
}

// finish terminates and fires completion callbacks exactly once.
// withImages controls whether transcript-referenced images are delivered;
// they only accompany a proper result-record turn end.
func (w *Watcher) finish(withImages bool) {
	if !w.terminate() {
		return
	}
	if withImages {
		if imgs := w.loadImages(); len(imgs) > 0 && w.cb.OnImages != nil {
			w.cb.OnImages(imgs)
		}
	}
	if w.cb.OnComplete != nil {
		w.cb.OnComplete()
	}
}

// consume reads and processes all complete lines past the cursor.
// Returns true when new lines were handled.
func (w *Watcher) consume() bool {
	lines, newCursor, err := transcript.ReadNewLines(w.filePath, w.cursor)
	if err != nil {
		// Skip this change event; the file may be mid-rotation.
		if !os.IsNotExist(err) {
			w.log.Debug("transcript read failed", zap.String("file", w.filePath), zap.Error(err))
		}
		return false
	}
	if newCursor == w.cursor {
		return false
	}
	w.cursor = newCursor

	w.mu.Lock()
	w.sawData = true
	terminated := w.state == stateTerminated
	w.mu.Unlock()

	// Late change events after termination are dropped.
	if terminated {
		return false
	}

	for _, line := range lines {
		e, ok := transcript.ParseLine(line)
		if !ok {
			continue
		}
		switch e.Type {
		case transcript.TypeResult:
			w.resultSeen = true
		case transcript.TypeAssistant:
			w.handleAssistant(e)
		}
	}
	return true
}

func (w *Watcher) handleAssistant(e transcript.Entry) {
	if e.Message == nil {
		return
	}
	for _, b := range e.Message.Content {
		switch b.Type {
		case transcript.BlockText:
			if b.Text == "" || w.emitted[b.Text] {
				continue
			}
			w.emitted[b.Text] = true
			w.mu.Lock()
			w.textDelivered = true
			w.mu.Unlock()
			if w.cb.OnText != nil {
				w.cb.OnText(TextEvent{
					SessionID:   w.meta.SessionID,
					ProjectName: w.meta.ProjectName,
					Cwd:         w.meta.Cwd,
					FilePath:    w.filePath,
					Text:        b.Text,
				})
			}
		case transcript.BlockToolUse:
			if b.Name != transcript.ToolWrite {
				continue
			}
			path := b.InputString("file_path")
			if path != "" && transcript.ImageMime(path) != "" {
				w.imagePaths = append(w.imagePaths, path)
			}
		}
	}
}

// loadImages reads referenced image files from disk. Files that moved or
// vanished since the tool call are skipped silently.
func (w *Watcher) loadImages() []Image {
	var imgs []Image
	seen := make(map[string]bool)
	for _, path := range w.imagePaths {
		if seen[path] {
			continue
		}
		seen[path] = true
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		imgs = append(imgs, Image{
			MediaType: transcript.ImageMime(path),
			Data:      base64.StdEncoding.EncodeToString(data),
		})
	}
	return imgs
}

// TextDelivered reports whether any text block reached the owner.
func (w *Watcher) TextDelivered() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.textDelivered
}

// MetaForFile derives watcher metadata from a transcript path and cwd.
func MetaForFile(filePath, cwd string) Meta {
	return Meta{
		SessionID:   strings.TrimSuffix(filepath.Base(filePath), ".jsonl"),
		ProjectName: transcript.DecodeProjectName(filepath.Base(filepath.Dir(filePath))),
		Cwd:         cwd,
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
