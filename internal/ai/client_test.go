package ai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient("test-key", zap.NewNop())
	c.baseURL = srv.URL
	return c
}

func TestDisabledClientFailsFast(t *testing.T) {
	c := NewClient("", zap.NewNop())
	if c.Enabled() {
		t.Error("empty key should disable the client")
	}
	if _, err := c.Transcribe([]byte("x"), "voice.ogg"); err == nil {
		t.Error("Transcribe should fail without a key")
	}
	if _, err := c.Polish("raw"); err == nil {
		t.Error("Polish should fail without a key")
	}
}

func TestTranscribe(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth = %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatal(err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]string{"text": "fix the login bug"})
	})

	got, err := c.Transcribe([]byte("fake-ogg"), "voice.ogg")
	if err != nil {
		t.Fatal(err)
	}
	if got != "fix the login bug" {
		t.Errorf("Transcribe = %q", got)
	}
}

func TestCompletionWrappers(t *testing.T) {
	var seenSystem string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		seenSystem = req.Messages[0].Content
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "cleaned up"}},
			},
		})
	})

	got, err := c.Polish("raw dictation")
	if err != nil {
		t.Fatal(err)
	}
	if got != "cleaned up" {
		t.Errorf("Polish = %q", got)
	}
	if seenSystem == "" {
		t.Error("system prompt missing")
	}
}

func TestCompletionErrorStatus(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})
	if _, err := c.Summarize("text"); err == nil {
		t.Error("non-200 should error")
	}
}
