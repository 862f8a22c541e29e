package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/telclaude/telclaude/internal/config"
	"github.com/telclaude/telclaude/internal/style"
	"github.com/telclaude/telclaude/internal/util"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive first-run configuration",
	Long: `Collect the Telegram bot token and bridge settings.

The token is read without echo and stored in the config directory with
owner-only permissions. Environment variables set at run time override
everything stored here.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	cfgDir := config.Dir()
	if err := config.EnsureDir(cfgDir); err != nil {
		return err
	}
	cfg, err := config.Load(cfgDir)
	if err != nil {
		return err
	}

	fmt.Println(style.Header.Render("telclaude setup"))
	fmt.Println(style.Dim.Render("Config directory: " + cfgDir))
	fmt.Println()

	in := bufio.NewReader(os.Stdin)

	token, err := readSecret("Telegram bot token (from @BotFather): ")
	if err != nil {
		return err
	}

	chatIDText, err := prompt(in, "Allowed chat id (empty allows any chat): ")
	if err != nil {
		return err
	}
	if chatIDText != "" {
		id, err := strconv.ParseInt(chatIDText, 10, 64)
		if err != nil {
			return fmt.Errorf("chat id must be a number: %w", err)
		}
		cfg.AllowedChatID = id
	}

	repos, err := prompt(in, "Repos folder for launching new sessions (empty to skip): ")
	if err != nil {
		return err
	}
	if repos != "" {
		cfg.ReposFolder = util.ExpandHome(repos)
	}

	openaiKey, err := readSecret("OpenAI API key for voice features (empty to skip): ")
	if err != nil {
		return err
	}

	if err := config.Save(cfgDir, cfg); err != nil {
		return err
	}
	if err := config.SaveEnv(cfgDir, map[string]string{
		"TELEGRAM_BOT_TOKEN": token,
		"OPENAI_API_KEY":     openaiKey,
	}); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(style.Success.Render("✓ Saved.") + " Start the bridge with 'telclaude run'.")
	return nil
}

func prompt(in *bufio.Reader, label string) (string, error) {
	fmt.Print(label)
	line, err := in.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readSecret reads a line without echo when stdin is a terminal.
func readSecret(label string) (string, error) {
	fmt.Print(label)
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}
	secret, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(secret)), nil
}
