package bridge

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/telclaude/telclaude/internal/chat"
	"github.com/telclaude/telclaude/internal/config"
)

// handleVoice transcribes a voice note, optionally polishes it, and runs it
// as a normal turn. The turn is flagged so replies come back as voice too.
func (co *Coordinator) handleVoice(in chat.Inbound) {
	chatID := in.ChatID
	if !co.ai.Enabled() {
		co.reply(chatID, "Voice notes need an API key. Run `telclaude setup` on the host.")
		return
	}

	audio, err := co.surface.Download(in.Voice)
	if err != nil {
		co.log.Warn("downloading voice note", zap.Error(err))
		co.reply(chatID, "Could not download the voice note.")
		return
	}

	name := in.Voice.FileName
	if name == "" {
		name = "voice.ogg"
	}
	text, err := co.ai.Transcribe(audio, name)
	if err != nil {
		co.log.Warn("transcribing voice note", zap.Error(err))
		co.reply(chatID, "Transcription failed.")
		return
	}
	if strings.TrimSpace(text) == "" {
		co.reply(chatID, "I could not hear anything in that note.")
		return
	}

	if config.PolishVoiceEnabled(co.cfgDir) {
		if polished, err := co.ai.Polish(text); err == nil && strings.TrimSpace(polished) != "" {
			text = polished
		} else if err != nil {
			co.log.Warn("polishing transcript, using raw", zap.Error(err))
		}
	}
	co.reply(chatID, "🎙 "+text)

	if co.consumePendingInput(chatID, text) {
		return
	}
	attached := co.ensureAttached(chatID)
	if attached == nil {
		return
	}

	co.mu.Lock()
	co.voiceTurn = true
	co.mu.Unlock()

	co.runTurn(chatID, *attached, text)
}

// handleImage stages a photo into the config images directory and injects a
// message telling the agent where to find it.
func (co *Coordinator) handleImage(in chat.Inbound, file *chat.FileRef) {
	chatID := in.ChatID
	if file == nil {
		return
	}

	data, err := co.surface.Download(file)
	if err != nil {
		co.log.Warn("downloading image", zap.Error(err))
		co.reply(chatID, "Could not download the image.")
		return
	}

	path, err := co.stageImage(data, file)
	if err != nil {
		co.log.Warn("staging image", zap.Error(err))
		co.reply(chatID, "Could not save the image.")
		return
	}

	caption := strings.TrimSpace(in.Text)
	message := "I sent you an image, it is at " + path
	if caption != "" {
		message = caption + "\n\n(The image mentioned is at " + path + ")"
	}

	attached := co.ensureAttached(chatID)
	if attached == nil {
		return
	}
	co.mu.Lock()
	co.voiceTurn = false
	co.mu.Unlock()
	co.runTurn(chatID, *attached, message)
}

// handleDocument treats image documents like photos and rejects the rest.
func (co *Coordinator) handleDocument(in chat.Inbound) {
	if in.Document == nil {
		return
	}
	if !strings.HasPrefix(in.Document.MimeType, "image/") {
		co.reply(in.ChatID, "I only handle image attachments for now.")
		return
	}
	co.handleImage(in, in.Document)
}

// stageImage writes image bytes under <cfg>/images with a timestamped name.
func (co *Coordinator) stageImage(data []byte, file *chat.FileRef) (string, error) {
	dir, err := config.ImagesDir(co.cfgDir)
	if err != nil {
		return "", err
	}

	ext := strings.TrimPrefix(filepath.Ext(file.FileName), ".")
	if ext == "" {
		switch file.MimeType {
		case "image/png":
			ext = "png"
		case "image/gif":
			ext = "gif"
		case "image/webp":
			ext = "webp"
		default:
			ext = "jpg"
		}
	}

	path := filepath.Join(dir, fmt.Sprintf("telegram-%d.%s", time.Now().UnixMilli(), ext))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// deliverImages pops a stashed batch and sends each image as a photo.
func (co *Coordinator) deliverImages(chatID int64, key string) {
	imgs := co.manager.PopImages(key)
	if len(imgs) == 0 {
		co.reply(chatID, "Those images are no longer available.")
		return
	}
	for _, img := range imgs {
		data, err := base64.StdEncoding.DecodeString(img.Data)
		if err != nil {
			co.log.Warn("decoding stashed image", zap.Error(err))
			continue
		}
		if err := co.surface.SendPhoto(chatID, data, ""); err != nil {
			co.log.Warn("sending image", zap.Error(err))
		}
	}
}
