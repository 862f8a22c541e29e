// Package constants centralizes timing and naming constants for telclaude.
package constants

import "time"

// Timing constants for keystroke injection.
const (
	// KeystrokeDebounce is the delay between sending text and sending Enter.
	// tmux processes the paste asynchronously; Enter sent in the same command
	// fires before the text is registered.
	KeystrokeDebounce = 100 * time.Millisecond

	// InterruptSettle is how long to wait after sending Escape to a Claude
	// pane before injecting the next message. Claude needs time to drop the
	// in-flight turn.
	InterruptSettle = 600 * time.Millisecond

	// LaunchKeystrokeDelay is the paste-to-Enter delay used when launching
	// Claude in a fresh pane, where the shell may still be initializing.
	LaunchKeystrokeDelay = 300 * time.Millisecond
)

// Timing constants for turn observation.
const (
	// ResultGrace is how long the watcher keeps reading after a result record
	// appears, to collect trailing text and image tool calls from the same flush.
	ResultGrace = 500 * time.Millisecond

	// IdlePing is the silence interval after which the watcher emits a
	// "still working" ping, provided no text has been delivered yet.
	IdlePing = 60 * time.Second

	// HardIdle terminates a watch that has produced nothing at all.
	HardIdle = 120 * time.Second

	// CompactionPollInterval is how often the manager re-resolves the latest
	// session file to detect rotation after /compact or /clear.
	CompactionPollInterval = 3 * time.Second

	// CompactionPollGiveUp bounds the total time spent polling for rotation.
	CompactionPollGiveUp = 60 * time.Second

	// WaitingQuiet is how long the transcript must stay quiet before a
	// waiting-for-input classification is surfaced to the user.
	WaitingQuiet = 3 * time.Second
)

// Timing constants for pane launch.
const (
	// LaunchPollInterval is how often the coordinator polls for a freshly
	// launched pane to become visible.
	LaunchPollInterval = 1 * time.Second

	// LaunchPollTimeout bounds the launch poll.
	LaunchPollTimeout = 30 * time.Second
)

// MaxWindowNameLen caps sanitized tmux window names.
const MaxWindowNameLen = 30

// LastMessageMaxLen caps session-list previews.
const LastMessageMaxLen = 200

// File names inside the config directory.
const (
	AttachedMarkerFile = "attached"
	ConfigFile         = "config.json"
	ChatIDFile         = "chat-id"
	PolishVoiceOffFile = "polish-voice-off"
	LockFile           = "telclaude.lock"
	ImagesDir          = "images"

	PermissionRequestPrefix  = "permission-request-"
	PermissionRequestSuffix  = ".json"
	PermissionResponsePrefix = "permission-response-"
)

// Permission actions written to response files. The hook exits 0 on approve
// and 2 on deny.
const (
	PermissionApprove = "approve"
	PermissionDeny    = "deny"
)

// EnvNoPermissionKeys disables the pane-keystroke half of permission replies.
// Some Claude builds consume the response file alone; in those environments
// the extra keystroke can land in a later prompt.
const EnvNoPermissionKeys = "TELCLAUDE_NO_PERMISSION_KEYS"

// EnvConfigDir overrides the default ~/.telclaude config directory.
const EnvConfigDir = "TELCLAUDE_CONFIG_DIR"
