package chat

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// Telegram adapts telebot to the Surface contract and normalizes inbound
// updates for the coordinator.
type Telegram struct {
	bot *tele.Bot
	log *zap.Logger
}

// NewTelegram creates a long-polling Telegram bot.
func NewTelegram(token string, log *zap.Logger) (*Telegram, error) {
	bot, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}
	return &Telegram{bot: bot, log: log}, nil
}

// Listen registers handlers and blocks polling for updates. handle receives
// every normalized update; allowlisting happens downstream.
func (t *Telegram) Listen(handle func(Inbound)) {
	t.bot.Handle(tele.OnText, func(c tele.Context) error {
		handle(normalizeText(c))
		return nil
	})
	t.bot.Handle(tele.OnVoice, func(c tele.Context) error {
		v := c.Message().Voice
		handle(Inbound{
			ChatID: c.Chat().ID,
			Kind:   KindVoice,
			Voice:  &FileRef{FileID: v.FileID, MimeType: v.MIME},
		})
		return nil
	})
	t.bot.Handle(tele.OnPhoto, func(c tele.Context) error {
		// telebot keeps the largest size variant.
		p := c.Message().Photo
		handle(Inbound{
			ChatID: c.Chat().ID,
			Kind:   KindPhoto,
			Text:   c.Message().Caption,
			Photo:  &FileRef{FileID: p.FileID, MimeType: "image/jpeg"},
		})
		return nil
	})
	t.bot.Handle(tele.OnDocument, func(c tele.Context) error {
		d := c.Message().Document
		handle(Inbound{
			ChatID:   c.Chat().ID,
			Kind:     KindDocument,
			Text:     c.Message().Caption,
			Document: &FileRef{FileID: d.FileID, MimeType: d.MIME, FileName: d.FileName},
		})
		return nil
	})
	t.bot.Handle(tele.OnCallback, func(c tele.Context) error {
		cb := c.Callback()
		handle(Inbound{
			ChatID: c.Chat().ID,
			Kind:   KindCallback,
			Callback: &Callback{
				ID:   cb.ID,
				Data: strings.TrimPrefix(cb.Data, "\f"),
				Message: MessageRef{
					ChatID:    c.Chat().ID,
					MessageID: strconv.Itoa(cb.Message.ID),
				},
			},
		})
		return nil
	})

	t.bot.Start()
}

// Stop halts update polling.
func (t *Telegram) Stop() { t.bot.Stop() }

func normalizeText(c tele.Context) Inbound {
	text := c.Text()
	in := Inbound{ChatID: c.Chat().ID, Kind: KindText, Text: text}
	if strings.HasPrefix(text, "/") {
		in.Kind = KindCommand
		cmd, args, _ := strings.Cut(strings.TrimPrefix(text, "/"), " ")
		// Group-style commands carry a @botname suffix.
		cmd, _, _ = strings.Cut(cmd, "@")
		in.Command = cmd
		in.CommandArgs = strings.TrimSpace(args)
	}
	return in
}

// MessageSig implements telebot's Editable so a MessageRef can be edited
// without holding the original *tele.Message.
func (m MessageRef) MessageSig() (string, int64) { return m.MessageID, m.ChatID }

// SendText sends plain text, retrying once on transient failure.
func (t *Telegram) SendText(chatID int64, text string) error {
	_, err := t.bot.Send(tele.ChatID(chatID), text)
	if err != nil {
		t.log.Warn("telegram send failed, retrying", zap.Error(err))
		_, err = t.bot.Send(tele.ChatID(chatID), text)
	}
	return err
}

// SendKeyboard sends text with an inline button keyboard.
func (t *Telegram) SendKeyboard(chatID int64, text string, rows [][]Button) (MessageRef, error) {
	msg, err := t.bot.Send(tele.ChatID(chatID), text, markupFor(rows))
	if err != nil {
		return MessageRef{}, err
	}
	return MessageRef{ChatID: chatID, MessageID: strconv.Itoa(msg.ID)}, nil
}

// Edit replaces a prior message's text and keyboard.
func (t *Telegram) Edit(ref MessageRef, text string, rows [][]Button) error {
	var err error
	if rows == nil {
		_, err = t.bot.Edit(ref, text)
	} else {
		_, err = t.bot.Edit(ref, text, markupFor(rows))
	}
	return err
}

// SendPhoto uploads an image.
func (t *Telegram) SendPhoto(chatID int64, data []byte, caption string) error {
	photo := &tele.Photo{File: tele.FromReader(bytes.NewReader(data)), Caption: caption}
	_, err := t.bot.Send(tele.ChatID(chatID), photo)
	return err
}

// SendVoice uploads a voice note.
func (t *Telegram) SendVoice(chatID int64, data []byte) error {
	voice := &tele.Voice{File: tele.FromReader(bytes.NewReader(data))}
	_, err := t.bot.Send(tele.ChatID(chatID), voice)
	return err
}

// AnswerCallback acknowledges a button tap with a short notice.
func (t *Telegram) AnswerCallback(callbackID, notice string) error {
	return t.bot.Respond(&tele.Callback{ID: callbackID}, &tele.CallbackResponse{Text: notice})
}

// Typing shows the transient typing indicator.
func (t *Telegram) Typing(chatID int64) error {
	return t.bot.Notify(tele.ChatID(chatID), tele.Typing)
}

// Download fetches a platform-hosted file.
func (t *Telegram) Download(file *FileRef) ([]byte, error) {
	rc, err := t.bot.File(&tele.File{FileID: file.FileID})
	if err != nil {
		return nil, fmt.Errorf("opening telegram file: %w", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("downloading telegram file: %w", err)
	}
	return data, nil
}

func markupFor(rows [][]Button) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	keyboard := make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		line := make([]tele.InlineButton, 0, len(row))
		for _, b := range row {
			line = append(line, tele.InlineButton{Text: b.Text, Data: b.Data})
		}
		keyboard = append(keyboard, line)
	}
	markup.InlineKeyboard = keyboard
	return markup
}
