package sessions

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/telclaude/telclaude/internal/transcript"
)

// writeSession creates a transcript under root for cwd with a given mtime.
func writeSession(t *testing.T, root, cwd, sessionID, content string, mtime time.Time) string {
	t.Helper()
	dir := filepath.Join(root, transcript.EncodeCwd(cwd))
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, sessionID+".jsonl")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
	return path
}

func assistantLine(cwd, text string) string {
	return `{"type":"assistant","cwd":"` + cwd + `","message":{"content":[{"type":"text","text":"` + text + `"}]}}` + "\n"
}

func TestListSessionsDedupesPerProject(t *testing.T) {
	root := t.TempDir()
	now := time.Now()

	writeSession(t, root, "/home/u/alpha", "a-old", assistantLine("/home/u/alpha", "old"), now.Add(-2*time.Hour))
	writeSession(t, root, "/home/u/alpha", "a-new", assistantLine("/home/u/alpha", "newest alpha"), now.Add(-time.Minute))
	writeSession(t, root, "/home/u/beta", "b-1", assistantLine("/home/u/beta", "beta msg"), now.Add(-time.Hour))

	ix := NewIndex(root, t.TempDir())
	list, err := ix.ListSessions(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d sessions, want one per project", len(list))
	}
	if list[0].SessionID != "a-new" {
		t.Errorf("newest first: got %q", list[0].SessionID)
	}
	if list[0].Cwd != "/home/u/alpha" || list[0].LastMessage != "newest alpha" {
		t.Errorf("session 0 = %+v", list[0])
	}
	if list[1].SessionID != "b-1" {
		t.Errorf("session 1 = %+v", list[1])
	}
}

func TestListSessionsLimit(t *testing.T) {
	root := t.TempDir()
	now := time.Now()
	writeSession(t, root, "/a", "s1", assistantLine("/a", "x"), now.Add(-time.Hour))
	writeSession(t, root, "/b", "s2", assistantLine("/b", "y"), now)

	ix := NewIndex(root, t.TempDir())
	list, err := ix.ListSessions(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].SessionID != "s2" {
		t.Errorf("limit 1 = %+v", list)
	}
}

func TestListSessionsMissingRoot(t *testing.T) {
	ix := NewIndex(filepath.Join(t.TempDir(), "nope"), t.TempDir())
	list, err := ix.ListSessions(0)
	if err != nil || list != nil {
		t.Errorf("missing root: list=%v err=%v", list, err)
	}
}

func TestLatestSessionFileForCwdPicksNewestEvenIfEmpty(t *testing.T) {
	root := t.TempDir()
	now := time.Now()
	cwd := "/home/u/proj"

	writeSession(t, root, cwd, "full", assistantLine(cwd, "content"), now.Add(-time.Hour))
	// A rotated session may hold only metadata; it must still win on mtime.
	writeSession(t, root, cwd, "fresh", `{"type":"file-history-snapshot"}`+"\n", now)

	ix := NewIndex(root, t.TempDir())
	sf := ix.LatestSessionFileForCwd(cwd)
	if sf == nil || sf.SessionID != "fresh" {
		t.Errorf("LatestSessionFileForCwd = %+v", sf)
	}
}

func TestSessionFilePath(t *testing.T) {
	root := t.TempDir()
	path := writeSession(t, root, "/home/u/proj", "abc-123", "x\n", time.Now())

	ix := NewIndex(root, t.TempDir())
	if got := ix.SessionFilePath("abc-123"); got != path {
		t.Errorf("SessionFilePath = %q, want %q", got, path)
	}
	if got := ix.SessionFilePath("missing"); got != "" {
		t.Errorf("missing session = %q", got)
	}
}

func TestSnapshotBaseline(t *testing.T) {
	root := t.TempDir()
	cwd := "/home/u/proj"
	content := assistantLine(cwd, "hello")
	writeSession(t, root, cwd, "s1", content, time.Now())

	ix := NewIndex(root, t.TempDir())
	b := ix.SnapshotBaseline(cwd)
	if b == nil {
		t.Fatal("baseline nil")
	}
	if b.SessionID != "s1" || b.Size != int64(len(content)) {
		t.Errorf("baseline = %+v", b)
	}

	if ix.SnapshotBaseline("/no/such/cwd") != nil {
		t.Error("baseline for unknown cwd should be nil")
	}
}
