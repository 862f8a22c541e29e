// Package chat defines the contract between the bridge and its chat
// platform, plus the Telegram implementation.
//
// The coordinator only sees these types; it never imports the bot SDK
// directly, which keeps the platform swappable and the coordinator testable
// with a fake surface.
package chat

// Button is one inline keyboard button. Data round-trips through the
// platform and comes back in the callback.
type Button struct {
	Text string
	Data string
}

// Row builds one keyboard row.
func Row(buttons ...Button) []Button { return buttons }

// MessageRef identifies a sent message for later edits.
type MessageRef struct {
	ChatID    int64
	MessageID string
}

// FileRef points at a platform-hosted file.
type FileRef struct {
	FileID   string
	MimeType string
	FileName string
}

// Callback is a button tap.
type Callback struct {
	ID      string
	Data    string
	Message MessageRef
}

// Inbound kinds.
type Kind int

const (
	KindText Kind = iota
	KindCommand
	KindVoice
	KindPhoto
	KindDocument
	KindCallback
)

// Inbound is one normalized update from the platform.
type Inbound struct {
	ChatID int64
	Kind   Kind

	Text        string
	Command     string // without the leading slash
	CommandArgs string

	Voice    *FileRef
	Photo    *FileRef
	Document *FileRef
	Callback *Callback
}

// Surface is everything the bridge needs to say back to the platform.
type Surface interface {
	SendText(chatID int64, text string) error
	SendKeyboard(chatID int64, text string, rows [][]Button) (MessageRef, error)
	Edit(ref MessageRef, text string, rows [][]Button) error
	SendPhoto(chatID int64, data []byte, caption string) error
	SendVoice(chatID int64, data []byte) error
	AnswerCallback(callbackID, notice string) error
	Typing(chatID int64) error
	Download(file *FileRef) ([]byte, error)
}
