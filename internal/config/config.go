// Package config manages the telclaude config directory and its small
// persisted files: config.json, the chat-id file, and presence-flag files.
//
// The config directory is also the rendezvous point for the Claude Code
// permission hook, which reads and writes request/response files there, so
// all formats in this package are interop contracts rather than internal
// state.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/telclaude/telclaude/internal/constants"
)

// Config is the operator-editable configuration stored in config.json.
// All fields are optional; a missing file yields the zero Config.
type Config struct {
	// ReposFolder is where the session picker offers to launch new sessions.
	ReposFolder string `json:"reposFolder,omitempty"`

	// AllowedChatID restricts the bridge to a single Telegram chat.
	// Zero means no allowlist (any chat is accepted).
	AllowedChatID int64 `json:"allowedChatId,omitempty"`
}

// Dir returns the config directory, honoring TELCLAUDE_CONFIG_DIR.
func Dir() string {
	if dir := os.Getenv(constants.EnvConfigDir); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".telclaude"
	}
	return filepath.Join(home, ".telclaude")
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

// Load reads config.json from dir. A missing file is not an error.
func Load(dir string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(filepath.Join(dir, constants.ConfigFile))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes config.json to dir, creating the directory if needed.
func Save(dir string, cfg Config) error {
	if err := EnsureDir(dir); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, constants.ConfigFile), append(data, '\n'), 0644)
}

// SaveChatID persists the last-seen chat id so the bridge can send a
// startup notice on the next run.
func SaveChatID(dir string, chatID int64) error {
	if err := EnsureDir(dir); err != nil {
		return err
	}
	path := filepath.Join(dir, constants.ChatIDFile)
	return os.WriteFile(path, []byte(strconv.FormatInt(chatID, 10)+"\n"), 0644)
}

// LoadChatID reads the persisted chat id. Returns 0 if absent or malformed.
func LoadChatID(dir string) int64 {
	data, err := os.ReadFile(filepath.Join(dir, constants.ChatIDFile))
	if err != nil {
		return 0
	}
	id, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// PolishVoiceEnabled reports whether voice-transcript polishing is on.
// The flag is inverted on disk: presence of the file disables polishing.
func PolishVoiceEnabled(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, constants.PolishVoiceOffFile))
	return os.IsNotExist(err)
}

// SetPolishVoice toggles the polish flag file. Returns the new state.
func SetPolishVoice(dir string, enabled bool) (bool, error) {
	path := filepath.Join(dir, constants.PolishVoiceOffFile)
	if enabled {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return false, err
		}
		return true, nil
	}
	if err := EnsureDir(dir); err != nil {
		return false, err
	}
	if err := os.WriteFile(path, []byte{}, 0644); err != nil {
		return false, err
	}
	return false, nil
}

// ImagesDir returns the staging directory for inbound images, creating it
// if needed.
func ImagesDir(dir string) (string, error) {
	path := filepath.Join(dir, constants.ImagesDir)
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", fmt.Errorf("creating images dir: %w", err)
	}
	return path, nil
}

// ProjectsRoot returns the Claude Code projects directory that holds one
// encoded-cwd subdirectory per project, each containing session transcripts.
func ProjectsRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".claude", "projects")
	}
	return filepath.Join(home, ".claude", "projects")
}
