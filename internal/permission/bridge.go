// Package permission implements the two-file handshake with the Claude Code
// permission hook.
//
// The hook writes <cfg>/permission-request-<id>.json and polls for
// <cfg>/permission-response-<id>, exiting 0 on approve and 2 on deny. The
// bridge watches the config directory for request files and surfaces them
// to the phone.
package permission

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/telclaude/telclaude/internal/constants"
	"github.com/telclaude/telclaude/internal/transcript"
)

// Request is a surfaced permission prompt.
type Request struct {
	RequestID   string `json:"requestId"`
	ToolName    string `json:"toolName"`
	ToolInput   any    `json:"toolInput"`
	ToolCommand string `json:"-"` // human-readable preview, may be empty
	FilePath    string `json:"-"`

	TranscriptPath string `json:"transcriptPath,omitempty"`
}

// Bridge watches for request files and writes response files.
type Bridge struct {
	configDir string
	onRequest func(Request)
	log       *zap.Logger

	fw   *fsnotify.Watcher
	done chan struct{}

	// Owned by the run goroutine. One WriteFile by the hook emits both a
	// Create and a Write event; each request must surface exactly once.
	seen map[string]bool
}

// NewBridge starts watching configDir for permission requests. onRequest is
// invoked once per request file observed.
func NewBridge(configDir string, onRequest func(Request), log *zap.Logger) (*Bridge, error) {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("creating config dir: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fs watcher: %w", err)
	}
	if err := fw.Add(configDir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching config dir: %w", err)
	}

	b := &Bridge{
		configDir: configDir,
		onRequest: onRequest,
		log:       log,
		fw:        fw,
		done:      make(chan struct{}),
		seen:      make(map[string]bool),
	}
	go b.run()
	return b, nil
}

// Close stops the directory watch.
func (b *Bridge) Close() {
	close(b.done)
	b.fw.Close()
}

func (b *Bridge) run() {
	for {
		select {
		case <-b.done:
			return
		case ev, ok := <-b.fw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			name := filepath.Base(ev.Name)
			if !strings.HasPrefix(name, constants.PermissionRequestPrefix) ||
				!strings.HasSuffix(name, constants.PermissionRequestSuffix) {
				continue
			}
			// Dedup by filename, not by filtering to Create: the Create
			// event can arrive before the content is flushed, so the Write
			// event may be the first readable one. A request is marked seen
			// only once it parses, so an early unreadable event retries.
			if b.seen[name] {
				continue
			}
			if b.handleRequestFile(ev.Name) {
				b.seen[name] = true
			}
		case err, ok := <-b.fw.Errors:
			if !ok {
				return
			}
			b.log.Warn("permission watch error", zap.Error(err))
		}
	}
}

func (b *Bridge) handleRequestFile(path string) bool {
	req, err := ReadRequest(path)
	if err != nil {
		// Skip; the hook times out on its own.
		b.log.Warn("reading permission request", zap.String("file", path), zap.Error(err))
		return false
	}
	b.onRequest(req)
	return true
}

// ReadRequest parses a request file and attaches a command preview from the
// referenced transcript when one is available.
func ReadRequest(path string) (Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Request{}, err
	}
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, fmt.Errorf("parsing request: %w", err)
	}
	req.FilePath = path

	if req.TranscriptPath != "" {
		// Preview failure leaves ToolCommand empty; the raw tool input is
		// still shown to the user.
		req.ToolCommand = commandPreview(req.TranscriptPath)
	}
	return req, nil
}

// commandPreview extracts the last tool_use command from a transcript.
func commandPreview(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	d := transcript.Parse(strings.Split(string(data), "\n"))
	if len(d.ToolCalls) == 0 {
		return ""
	}
	last := d.ToolCalls[len(d.ToolCalls)-1]
	if cmd, ok := last.Input["command"].(string); ok {
		return cmd
	}
	return ""
}

// Respond writes the response file the hook is polling for. action must be
// "approve" or "deny".
func (b *Bridge) Respond(requestID, action string) error {
	if err := os.MkdirAll(b.configDir, 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	path := filepath.Join(b.configDir, constants.PermissionResponsePrefix+requestID)
	if err := os.WriteFile(path, []byte(action), 0644); err != nil {
		return fmt.Errorf("writing permission response: %w", err)
	}
	return nil
}
