package transcript

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.jsonl")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseLineMalformed(t *testing.T) {
	for _, line := range []string{"", "   ", "{broken", "not json at all"} {
		if _, ok := ParseLine(line); ok {
			t.Errorf("ParseLine(%q) should fail", line)
		}
	}
}

func TestParseLineStringContent(t *testing.T) {
	e, ok := ParseLine(`{"type":"user","message":{"content":"hello there"}}`)
	if !ok {
		t.Fatal("ParseLine failed")
	}
	if len(e.Message.Content) != 1 || e.Message.Content[0].Text != "hello there" {
		t.Errorf("string content not normalized: %+v", e.Message)
	}
}

func TestParseDigest(t *testing.T) {
	lines := []string{
		`{"type":"system","cwd":"/ignored"}`,
		`{"type":"assistant","cwd":"/home/u/proj","message":{"content":[{"type":"text","text":"first"}]}}`,
		"",
		"{garbage",
		`{"type":"assistant","message":{"content":[{"type":"tool_use","name":"Bash","input":{"command":"ls -la"}}]}}`,
		`{"type":"assistant","message":{"content":[{"type":"text","text":"second\nline"}]}}`,
	}
	d := Parse(lines)

	if d.Cwd != "/home/u/proj" {
		t.Errorf("Cwd = %q", d.Cwd)
	}
	if d.LastMessage != "second line" {
		t.Errorf("LastMessage = %q, want newline flattened", d.LastMessage)
	}
	if len(d.AllMessages) != 2 {
		t.Errorf("AllMessages = %v", d.AllMessages)
	}
	if len(d.ToolCalls) != 1 || d.ToolCalls[0].Name != "Bash" {
		t.Errorf("ToolCalls = %+v", d.ToolCalls)
	}
	if got := d.ToolCalls[0].Input["command"]; got != "ls -la" {
		t.Errorf("tool input command = %v", got)
	}
}

func TestParseIgnoresNonAssistant(t *testing.T) {
	d := Parse([]string{
		`{"type":"user","message":{"content":"question"}}`,
		`{"type":"result"}`,
		`{"type":"file-history-snapshot"}`,
	})
	if len(d.AllMessages) != 0 || d.LastMessage != "" {
		t.Errorf("non-assistant records leaked: %+v", d)
	}
}

func TestPreviewTruncates(t *testing.T) {
	long := strings.Repeat("x", 300)
	if got := Preview(long); len(got) != 200 {
		t.Errorf("len(Preview) = %d, want 200", len(got))
	}
	if got := Preview("a\nb\nc"); got != "a b c" {
		t.Errorf("Preview = %q", got)
	}
}

func TestPreviewTruncatesOnRuneBoundary(t *testing.T) {
	// 199 ASCII bytes then a 3-byte rune straddling the limit.
	long := strings.Repeat("x", 199) + strings.Repeat("日", 40)
	got := Preview(long)
	if !utf8.ValidString(got) {
		t.Errorf("Preview produced invalid UTF-8: %q", got)
	}
	if len(got) > 200 {
		t.Errorf("len(Preview) = %d, want <= 200", len(got))
	}
	if got != strings.Repeat("x", 199) {
		t.Errorf("Preview = %q, want the straddling rune dropped whole", got)
	}
}

func TestLastAssistantEntryStopsAtUser(t *testing.T) {
	path := writeFile(t, strings.Join([]string{
		`{"type":"assistant","message":{"content":[{"type":"text","text":"old turn"}]}}`,
		`{"type":"user","message":{"content":"next question"}}`,
		`{"type":"assistant","message":{"content":[{"type":"text","text":"current turn"}]}}`,
	}, "\n"))

	sum, err := LastAssistantEntry(path)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Text != "current turn" {
		t.Errorf("Text = %q, want the post-user text only", sum.Text)
	}
}

func TestLastAssistantEntryExitPlanMode(t *testing.T) {
	path := writeFile(t, strings.Join([]string{
		`{"type":"user","message":{"content":"plan it"}}`,
		`{"type":"assistant","message":{"content":[{"type":"text","text":"here is the plan"},{"type":"tool_use","name":"ExitPlanMode","input":{"plan":"1. do things"}}]}}`,
	}, "\n"))

	sum, err := LastAssistantEntry(path)
	if err != nil {
		t.Fatal(err)
	}
	if !sum.HasExitPlanMode {
		t.Error("HasExitPlanMode = false")
	}
	if sum.PlanText != "1. do things" {
		t.Errorf("PlanText = %q", sum.PlanText)
	}
	if sum.Text != "here is the plan" {
		t.Errorf("Text = %q", sum.Text)
	}
}

func TestReadNewLinesIncremental(t *testing.T) {
	path := writeFile(t, "line one\nline two\n")

	lines, offset, err := ReadNewLines(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 {
		t.Fatalf("lines = %v", lines)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("line three\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	lines, _, err = ReadNewLines(path, offset)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || lines[0] != "line three" {
		t.Errorf("incremental read = %v", lines)
	}
}

func TestReadNewLinesPartialFinalLine(t *testing.T) {
	path := writeFile(t, "complete\npartial without newline")

	lines, offset, err := ReadNewLines(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || lines[0] != "complete" {
		t.Fatalf("lines = %v", lines)
	}
	if offset != int64(len("complete\n")) {
		t.Errorf("offset = %d, partial line must stay unconsumed", offset)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(" now finished\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	lines, _, err = ReadNewLines(path, offset)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || lines[0] != "partial without newline now finished" {
		t.Errorf("completed line = %v", lines)
	}
}
