package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// envFile holds secrets the setup wizard collects, as KEY=VALUE lines.
// Real environment variables always win over the file.
const envFile = "env"

// BotToken resolves the Telegram bot token.
func BotToken(dir string) string {
	return envValue(dir, "TELEGRAM_BOT_TOKEN")
}

// OpenAIKey resolves the speech/LLM API key. Empty disables voice features.
func OpenAIKey(dir string) string {
	return envValue(dir, "OPENAI_API_KEY")
}

func envValue(dir, key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return loadEnvFile(dir)[key]
}

func loadEnvFile(dir string) map[string]string {
	out := make(map[string]string)
	data, err := os.ReadFile(filepath.Join(dir, envFile))
	if err != nil {
		return out
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		out[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return out
}

// SaveEnv merges values into the env file, preserving unrelated keys.
// Secrets live here, so the file is owner-only.
func SaveEnv(dir string, values map[string]string) error {
	if err := EnsureDir(dir); err != nil {
		return err
	}
	merged := loadEnvFile(dir)
	for k, v := range values {
		if v == "" {
			continue
		}
		merged[k] = v
	}

	var b strings.Builder
	for k, v := range merged {
		fmt.Fprintf(&b, "%s=%s\n", k, v)
	}
	return os.WriteFile(filepath.Join(dir, envFile), []byte(b.String()), 0600)
}
