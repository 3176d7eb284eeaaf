// Command bot plays the daily puzzle over Telegram. It reads the puzzles the
// figurdle server stores and never generates one itself.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"figurdle/api/internal/config"
	"figurdle/api/internal/game"
	"figurdle/api/internal/logging"
	"figurdle/api/internal/store"
	"figurdle/api/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "bot:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg *config.Config
	root := &cobra.Command{
		Use:           "bot",
		Short:         "Telegram front end for the daily puzzle",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.ValidateGame(); err != nil {
				return err
			}
			if strings.TrimSpace(cfg.TelegramToken) == "" {
				return fmt.Errorf("telegram-token is required")
			}
			log, err := logging.New(cfg.Verbose)
			if err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			defer func() { _ = log.Sync() }()
			return run(cmd.Context(), cfg, log)
		},
	}
	root.CompletionOptions.HiddenDefaultCmd = true
	cfg = config.Bind(root)
	return root
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	dsn := cfg.DSN()
	db, err := store.Open(ctx, dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info("db connected", zap.String("dsn", store.SafeDSNSummary(dsn)))
	if err := store.Migrate(ctx, db); err != nil {
		return err
	}

	svc := game.NewService(store.NewPuzzleRepo(db), store.NewNameRepo(db), nil, game.Options{
		SigningSecret: cfg.SigningSecret,
		Location:      cfg.Location(),
	}, log.Named("game"))

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	bot.Debug = false
	log.Info("telegram authorized", zap.String("bot", bot.Self.UserName))

	r := &telegram.Router{Bot: bot, Game: svc, Log: log.Named("telegram")}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthz(db))

	webhookURL := strings.TrimSpace(cfg.WebhookURL)
	if webhookURL != "" {
		return startWebhookMode(ctx, cfg.Addr(), mux, bot, r, webhookURL, log)
	}
	return startPollingMode(ctx, cfg.Addr(), mux, bot, r, log)
}

func healthz(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db: not ok\n" + err.Error()))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
