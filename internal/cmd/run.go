package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/telclaude/telclaude/internal/ai"
	"github.com/telclaude/telclaude/internal/bridge"
	"github.com/telclaude/telclaude/internal/chat"
	"github.com/telclaude/telclaude/internal/config"
	"github.com/telclaude/telclaude/internal/constants"
	"github.com/telclaude/telclaude/internal/lock"
	"github.com/telclaude/telclaude/internal/permission"
	"github.com/telclaude/telclaude/internal/sessions"
	"github.com/telclaude/telclaude/internal/timer"
	"github.com/telclaude/telclaude/internal/tmux"
	"github.com/telclaude/telclaude/internal/watch"
)

var runDebug bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bridge",
	Long: `Run the telclaude bridge in the foreground.

The bridge long-polls Telegram, injects messages into tmux panes running
Claude Code, and watches session transcripts to stream replies back. Only
one instance may run per config directory.`,
	RunE: runBridge,
}

func init() {
	runCmd.Flags().BoolVar(&runDebug, "debug", false, "verbose development logging")
	rootCmd.AddCommand(runCmd)
}

func runBridge(cmd *cobra.Command, args []string) error {
	cfgDir := config.Dir()
	if err := config.EnsureDir(cfgDir); err != nil {
		return err
	}

	release, err := lock.Acquire(filepath.Join(cfgDir, constants.LockFile))
	if err != nil {
		return err
	}
	defer release()

	log, err := newLogger(runDebug)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	cfg, err := config.Load(cfgDir)
	if err != nil {
		return err
	}

	token := config.BotToken(cfgDir)
	if token == "" {
		return fmt.Errorf("no Telegram bot token; run 'telclaude setup' or set TELEGRAM_BOT_TOKEN")
	}

	telegram, err := chat.NewTelegram(token, log.Named("telegram"))
	if err != nil {
		return err
	}

	tmx := tmux.New()
	if !tmx.IsAvailable() {
		log.Warn("tmux not found on PATH; injection will fail until it is installed")
	}

	index := sessions.NewIndex(config.ProjectsRoot(), cfgDir)
	notifier := bridge.NewNotifier(telegram, log.Named("notify"))
	manager := watch.NewManager(index, notifier, log.Named("watch"))
	speech := ai.NewClient(config.OpenAIKey(cfgDir), log.Named("ai"))

	// The timer resolves the chat id per tick through the coordinator, which
	// is constructed right after it.
	var co *bridge.Coordinator
	tm := timer.New(tmx, index, manager, func() int64 { return co.ChatID() }, log.Named("timer"))

	co = bridge.New(bridge.Options{
		Surface:          telegram,
		Tmux:             tmx,
		Index:            index,
		Manager:          manager,
		Timer:            tm,
		Speech:           speech,
		Config:           cfg,
		ConfigDir:        cfgDir,
		NoPermissionKeys: os.Getenv(constants.EnvNoPermissionKeys) != "",
		Log:              log.Named("bridge"),
	})

	perms, err := permission.NewBridge(cfgDir, co.HandlePermissionRequest, log.Named("permission"))
	if err != nil {
		return err
	}
	defer perms.Close()
	co.SetPermissionBridge(perms)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info("shutting down")
		manager.Clear()
		tm.Stop()
		telegram.Stop()
	}()

	if chatID := config.LoadChatID(cfgDir); chatID != 0 {
		if err := telegram.SendText(chatID, "🟢 telclaude is online."); err != nil {
			log.Warn("sending startup notice", zap.Error(err))
		}
	}

	log.Info("bridge running",
		zap.String("configDir", cfgDir),
		zap.Bool("speech", speech.Enabled()))
	telegram.Listen(co.HandleUpdate)
	return nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.TimeKey = "ts"
	return cfg.Build()
}
