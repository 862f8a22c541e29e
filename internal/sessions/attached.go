package sessions

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/telclaude/telclaude/internal/constants"
)

// Attached names the session currently targeted by user messages.
type Attached struct {
	SessionID string
	Cwd       string
}

func (ix *Index) attachedPath() string {
	return filepath.Join(ix.configDir, constants.AttachedMarkerFile)
}

// Attached reads the marker file. Returns nil when absent or when the
// session id line is missing; a missing cwd line falls back to the
// operator's home directory. Transient malformed content reads as nil,
// which is why marker writes don't need rename semantics.
func (ix *Index) Attached() *Attached {
	data, err := os.ReadFile(ix.attachedPath())
	if err != nil {
		return nil
	}
	lines := strings.Split(string(data), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return nil
	}
	a := &Attached{SessionID: strings.TrimSpace(lines[0])}
	if len(lines) > 1 && strings.TrimSpace(lines[1]) != "" {
		a.Cwd = strings.TrimSpace(lines[1])
	} else {
		home, _ := os.UserHomeDir()
		a.Cwd = home
	}
	return a
}

// WriteAttached replaces the marker file.
func (ix *Index) WriteAttached(a Attached) error {
	if err := os.MkdirAll(ix.configDir, 0755); err != nil {
		return err
	}
	content := a.SessionID + "\n" + a.Cwd + "\n"
	return os.WriteFile(ix.attachedPath(), []byte(content), 0644)
}

// RemoveAttached deletes the marker file. Removing an absent marker is not
// an error.
func (ix *Index) RemoveAttached() error {
	err := os.Remove(ix.attachedPath())
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
