// Package transcript parses Claude Code session transcripts.
//
// A transcript is an append-only newline-delimited JSON file. Each line is
// one record; the bridge only ever reads these files. Parsing is total:
// blank lines and lines that fail to decode are skipped, never reported.
package transcript

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/telclaude/telclaude/internal/constants"
)

// Record types that appear in a transcript. Unknown types are ignored.
const (
	TypeAssistant = "assistant"
	TypeUser      = "user"
	TypeSystem    = "system"
	TypeResult    = "result"
	TypeSnapshot  = "file-history-snapshot"
)

// Block types inside an assistant message.
const (
	BlockText    = "text"
	BlockToolUse = "tool_use"
)

// Tool names with special meaning to the bridge.
const (
	ToolExitPlanMode = "ExitPlanMode"
	ToolWrite        = "Write"
)

// Entry is one transcript record. Fields not relevant to the bridge are
// left undecoded.
type Entry struct {
	Type      string   `json:"type"`
	Cwd       string   `json:"cwd,omitempty"`
	SessionID string   `json:"sessionId,omitempty"`
	Message   *Message `json:"message,omitempty"`
}

// Message is the assistant payload of an entry.
type Message struct {
	Content []Block `json:"content"`
}

// UnmarshalJSON tolerates the string-content form some user records use.
func (m *Message) UnmarshalJSON(data []byte) error {
	var full struct {
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &full); err != nil {
		return err
	}
	if len(full.Content) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(full.Content, &s); err == nil {
		m.Content = []Block{{Type: BlockText, Text: s}}
		return nil
	}
	var blocks []Block
	if err := json.Unmarshal(full.Content, &blocks); err != nil {
		return err
	}
	m.Content = blocks
	return nil
}

// Block is a tagged-union content block: text or tool_use.
type Block struct {
	Type  string         `json:"type"`
	Text  string         `json:"text,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`
}

// InputString returns a string field of a tool_use input, or "".
func (b Block) InputString(key string) string {
	if b.Input == nil {
		return ""
	}
	s, _ := b.Input[key].(string)
	return s
}

// ToolCall is a name/input pair extracted from an assistant record.
type ToolCall struct {
	Name  string
	Input map[string]any
}

// Digest is the result of parsing a full transcript.
type Digest struct {
	Cwd         string
	LastMessage string
	ToolCalls   []ToolCall
	AllMessages []string
}

// ParseLine decodes one transcript line. Returns false for blank or
// malformed lines.
func ParseLine(line string) (Entry, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Entry{}, false
	}
	var e Entry
	if err := json.Unmarshal([]byte(line), &e); err != nil {
		return Entry{}, false
	}
	return e, true
}

// Parse digests a sequence of transcript lines. Only assistant records
// contribute; cwd is the first non-empty one seen.
func Parse(lines []string) Digest {
	var d Digest
	for _, line := range lines {
		e, ok := ParseLine(line)
		if !ok || e.Type != TypeAssistant {
			continue
		}
		if d.Cwd == "" && e.Cwd != "" {
			d.Cwd = e.Cwd
		}
		if e.Message == nil {
			continue
		}
		for _, b := range e.Message.Content {
			switch b.Type {
			case BlockText:
				if b.Text == "" {
					continue
				}
				d.AllMessages = append(d.AllMessages, b.Text)
				d.LastMessage = Preview(b.Text)
			case BlockToolUse:
				d.ToolCalls = append(d.ToolCalls, ToolCall{Name: b.Name, Input: b.Input})
			}
		}
	}
	return d
}

// Preview flattens text to a single line and truncates it for list display.
// Truncation backs up to a rune boundary so the result is always valid UTF-8.
func Preview(text string) string {
	flat := strings.ReplaceAll(text, "\n", " ")
	if len(flat) <= constants.LastMessageMaxLen {
		return flat
	}
	cut := constants.LastMessageMaxLen
	for cut > 0 && !utf8.RuneStart(flat[cut]) {
		cut--
	}
	return flat[:cut]
}

// TailSummary describes the assistant's most recent turn fragment.
type TailSummary struct {
	Text            string
	HasExitPlanMode bool
	PlanText        string
}

// LastAssistantEntry scans backwards from EOF across assistant records,
// stopping at the first user record (a turn boundary). It reports the
// latest text block encountered and whether an ExitPlanMode tool call is
// pending in the scanned window.
func LastAssistantEntry(path string) (TailSummary, error) {
	lines, err := readAllLines(path)
	if err != nil {
		return TailSummary{}, err
	}

	var sum TailSummary
	for i := len(lines) - 1; i >= 0; i-- {
		e, ok := ParseLine(lines[i])
		if !ok {
			continue
		}
		if e.Type == TypeUser {
			break
		}
		if e.Type != TypeAssistant || e.Message == nil {
			continue
		}
		for _, b := range e.Message.Content {
			switch b.Type {
			case BlockText:
				if sum.Text == "" && b.Text != "" {
					sum.Text = b.Text
				}
			case BlockToolUse:
				if b.Name == ToolExitPlanMode {
					sum.HasExitPlanMode = true
					if plan := b.InputString("plan"); plan != "" && sum.PlanText == "" {
						sum.PlanText = plan
					}
				}
			}
		}
		if sum.Text != "" && sum.HasExitPlanMode {
			break
		}
	}
	return sum, nil
}

// ReadNewLines reads complete lines appended after offset. The returned
// offset covers only the consumed lines, so a partially flushed final line
// is re-read on the next call.
func ReadNewLines(path string, offset int64) ([]string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, offset, err
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, err
	}

	var lines []string
	pos := offset
	reader := bufio.NewReaderSize(f, 256*1024)
	for {
		line, err := reader.ReadString('\n')
		if err == nil {
			pos += int64(len(line))
			lines = append(lines, strings.TrimSuffix(line, "\n"))
			continue
		}
		// Trailing bytes without a newline are a partial flush; leave them
		// for the next read.
		return lines, pos, nil
	}
}

func readAllLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return strings.Split(string(data), "\n"), nil
}
