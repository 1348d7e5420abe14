// Package main contains the entrypoint for the Telegram check-in bot.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/joho/godotenv"

	"github.com/virevo/virevo/internal/bot"
	"github.com/virevo/virevo/internal/bot/handlers"
	"github.com/virevo/virevo/internal/bot/tasks"
	"github.com/virevo/virevo/internal/checkin"
	"github.com/virevo/virevo/internal/config"
	"github.com/virevo/virevo/internal/database"
	"github.com/virevo/virevo/internal/llm"
	"github.com/virevo/virevo/internal/logger"
	"github.com/virevo/virevo/internal/metrics"
	"github.com/virevo/virevo/internal/telegram"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires config, storage, the LLM client, the Telegram bot, the scheduler
// and the HTTP server, then blocks until shutdown. It returns the exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}
	if err := cfg.ValidateBot(); err != nil {
		slog.Error("Invalid bot configuration", "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	m := metrics.Registry(cfg.Metrics.Namespace)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	llmClient, err := llm.NewClient(ctx, cfg.AI, m, log)
	if err != nil {
		log.Error("Failed to initialize LLM client", "backend", cfg.AI.Backend, "error", err)
		return 1
	}

	opts, err := checkin.OptionsFromConfig(cfg)
	if err != nil {
		log.Error("Invalid check-in configuration", "error", err)
		return 1
	}

	// The default handler needs the engine, which needs a sender built on the
	// bot. Updates are only dispatched after Start, when onMessage is set.
	var onMessage tgbot.HandlerFunc
	defaultHandler := func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
		onMessage(ctx, b, update)
	}

	middleware := []tgbot.Middleware{logger.Middleware(log)}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, telegram.Options(cfg.Telegram, middleware, defaultHandler)...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

	sender := telegram.NewSender(tg, log)
	engine := checkin.NewEngine(store, llmClient, sender, opts, m, log)

	hDeps := handlers.HandlerDeps{
		Logger:       log,
		Config:       cfg,
		Conversation: engine,
	}
	onMessage = handlers.NewCheckinHandler(hDeps)

	if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllCommands(hDeps)); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}
	if err := telegram.ConfigureWebhook(ctx, tg, cfg.Telegram, log); err != nil {
		log.Error("Failed to configure Telegram updates", "mode", cfg.Telegram.Mode, "error", err)
		return 1
	}

	tDeps := tasks.TaskDeps{
		Logger:     log,
		Store:      store,
		Engine:     engine,
		Sender:     sender,
		Config:     cfg,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, cfg.Location(), tasks.RegisterAllTasks(tDeps), m)
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	listen := bot.Listener(tg.Start)
	var webhook http.Handler
	if cfg.Telegram.Mode == config.TelegramModeWebhook {
		listen = tg.StartWebhook
		webhook = tg.WebhookHandler()
	}
	server := bot.NewServer(cfg.HTTP.Addr, webhook, log)

	app := bot.NewBot(log, listen, cfg.Telegram.Mode, sched, server, cfg.HTTP.ShutdownTimeout)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	return 0
}
