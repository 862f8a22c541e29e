// Package sessions indexes Claude Code session transcripts on disk and
// tracks which session the bridge is attached to.
//
// Sessions live under a projects root, one encoded-cwd directory per
// project, one .jsonl transcript per session. The bridge never writes
// transcripts; the only mutable state here is the attached marker file.
package sessions

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/telclaude/telclaude/internal/transcript"
)

const transcriptExt = ".jsonl"

// SessionInfo is one row of the session picker.
type SessionInfo struct {
	SessionID   string
	Cwd         string
	ProjectName string
	LastMessage string
	MTime       time.Time
}

// SessionFile names the current transcript of a cwd.
type SessionFile struct {
	SessionID string
	FilePath  string
}

// Index resolves sessions under a projects root.
type Index struct {
	projectsRoot string
	configDir    string
}

// NewIndex creates an Index over the given projects root and config dir.
func NewIndex(projectsRoot, configDir string) *Index {
	return &Index{projectsRoot: projectsRoot, configDir: configDir}
}

// ProjectsRoot returns the root this index scans.
func (ix *Index) ProjectsRoot() string { return ix.projectsRoot }

// ListSessions returns the most recent session per project directory,
// globally sorted by transcript mtime, newest first.
func (ix *Index) ListSessions(limit int) ([]SessionInfo, error) {
	dirs, err := os.ReadDir(ix.projectsRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading projects root: %w", err)
	}

	var sessions []SessionInfo
	for _, dir := range dirs {
		if !dir.IsDir() {
			continue
		}
		newest, mtime := newestTranscript(filepath.Join(ix.projectsRoot, dir.Name()))
		if newest == "" {
			continue
		}

		info := SessionInfo{
			SessionID:   strings.TrimSuffix(filepath.Base(newest), transcriptExt),
			ProjectName: transcript.DecodeProjectName(dir.Name()),
			MTime:       mtime,
		}

		if lines, err := readLines(newest); err == nil {
			d := transcript.Parse(lines)
			info.Cwd = d.Cwd
			info.LastMessage = d.LastMessage
		}
		if info.Cwd == "" {
			home, _ := os.UserHomeDir()
			info.Cwd = home
		}
		sessions = append(sessions, info)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].MTime.After(sessions[j].MTime)
	})
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

// LatestSessionFileForCwd resolves the current transcript for a cwd:
// always the newest file by mtime. A freshly cleared session containing
// only metadata must still be picked; that is exactly the post-compaction
// rotation case.
func (ix *Index) LatestSessionFileForCwd(cwd string) *SessionFile {
	dir := filepath.Join(ix.projectsRoot, transcript.EncodeCwd(cwd))
	newest, _ := newestTranscript(dir)
	if newest == "" {
		return nil
	}
	return &SessionFile{
		SessionID: strings.TrimSuffix(filepath.Base(newest), transcriptExt),
		FilePath:  newest,
	}
}

// SessionFilePath probes every project directory for a transcript with the
// given session id. Returns "" when none exists.
func (ix *Index) SessionFilePath(sessionID string) string {
	dirs, err := os.ReadDir(ix.projectsRoot)
	if err != nil {
		return ""
	}
	for _, dir := range dirs {
		if !dir.IsDir() {
			continue
		}
		candidate := filepath.Join(ix.projectsRoot, dir.Name(), sessionID+transcriptExt)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// newestTranscript returns the newest .jsonl in dir by mtime.
func newestTranscript(dir string) (path string, mtime time.Time) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", time.Time{}
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), transcriptExt) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if path == "" || info.ModTime().After(mtime) {
			path = filepath.Join(dir, entry.Name())
			mtime = info.ModTime()
		}
	}
	return path, mtime
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return strings.Split(string(data), "\n"), nil
}
