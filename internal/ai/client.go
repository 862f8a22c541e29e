// Package ai is the bridge's speech and single-shot LLM collaborator.
//
// Every call here is best-effort: callers fall back to raw content when a
// request fails, so errors are returned but never fatal to a turn.
package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Client talks to an OpenAI-compatible API.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// NewClient creates a Client. An empty apiKey produces a client whose calls
// all fail fast; the bridge treats that as "speech features off".
func NewClient(apiKey string, log *zap.Logger) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 60 * time.Second},
		log:     log,
	}
}

// Enabled reports whether the collaborator is configured.
func (c *Client) Enabled() bool { return c.apiKey != "" }

// Transcribe converts a voice note to text.
func (c *Client) Transcribe(audio []byte, filename string) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("no API key configured")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(audio); err != nil {
		return "", err
	}
	if err := mw.WriteField("model", "whisper-1"); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/audio/transcriptions", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out struct {
		Text string `json:"text"`
	}
	if err := c.do(req, &out); err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}
	return out.Text, nil
}

// Synthesize renders text as speech (ogg/opus, Telegram's voice format).
func (c *Client) Synthesize(text string) ([]byte, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("no API key configured")
	}

	payload, err := json.Marshal(map[string]any{
		"model":           "tts-1",
		"voice":           "alloy",
		"input":           text,
		"response_format": "opus",
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/audio/speech", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech synthesis: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("speech synthesis: status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 32<<20))
}

// complete runs a single-shot chat completion.
func (c *Client) complete(system, user string) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("no API key configured")
	}

	payload, err := json.Marshal(map[string]any{
		"model": "gpt-4o-mini",
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := c.do(req, &out); err != nil {
		return "", fmt.Errorf("completion: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("completion: empty response")
	}
	return out.Choices[0].Message.Content, nil
}

// Polish cleans up a raw voice transcription for injection: fixes
// dictation artifacts without changing intent.
func (c *Client) Polish(raw string) (string, error) {
	return c.complete(
		"You clean up dictated instructions for a coding agent. Fix transcription "+
			"mistakes, punctuation, and obvious homophones. Keep technical terms. "+
			"Do not add, remove, or answer anything. Reply with the cleaned text only.",
		raw)
}

// Summarize condenses assistant output for a glanceable phone notification.
func (c *Client) Summarize(text string) (string, error) {
	return c.complete(
		"Summarize the following coding-agent output in at most three short "+
			"sentences for a phone notification. Plain text only.",
		text)
}

// Narrate rewrites assistant output so it reads naturally when spoken.
func (c *Client) Narrate(text string) (string, error) {
	return c.complete(
		"Rewrite the following coding-agent output as short, natural spoken "+
			"English. Skip code blocks and file paths; describe them instead.",
		text)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
