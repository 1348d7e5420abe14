// Package telegram handles the setup of the Telegram bot: client creation,
// handler registration, webhook configuration and outgoing messages.
package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"

	"github.com/virevo/virevo/internal/bot/handlers"
	"github.com/virevo/virevo/internal/config"
)

// NewTelegramBot creates a new Telegram bot instance using the go-telegram/bot library.
func NewTelegramBot(token string, logger *slog.Logger, opts ...bot.Option) (*bot.Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "telegram_bot")

	b, err := bot.New(token, opts...)
	if err != nil {
		log.Error("Failed to create Telegram bot instance", "error", err)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	log.Info("Telegram bot instance created", "token_prefix", tokenPrefix(token))
	return b, nil
}

// Options returns the bot options for the configured update mode.
func Options(cfg config.TelegramConfig, mw []bot.Middleware, defaultHandler bot.HandlerFunc) []bot.Option {
	opts := []bot.Option{bot.WithMiddlewares(mw...)}
	if defaultHandler != nil {
		opts = append(opts, bot.WithDefaultHandler(defaultHandler))
	}
	if cfg.Mode == config.TelegramModeWebhook && cfg.WebhookSecret != "" {
		opts = append(opts, bot.WithWebhookSecretToken(cfg.WebhookSecret))
	}
	return opts
}

// ConfigureWebhook registers the webhook URL in webhook mode and removes any
// stale webhook in polling mode, since Telegram rejects getUpdates while one is set.
func ConfigureWebhook(ctx context.Context, b *bot.Bot, cfg config.TelegramConfig, logger *slog.Logger) error {
	log := logger.With("component", "telegram_bot")

	if cfg.Mode != config.TelegramModeWebhook {
		if _, err := b.DeleteWebhook(ctx, &bot.DeleteWebhookParams{}); err != nil {
			return fmt.Errorf("failed to delete webhook: %w", err)
		}
		log.InfoContext(ctx, "Using long polling for updates")
		return nil
	}

	_, err := b.SetWebhook(ctx, &bot.SetWebhookParams{
		URL:         cfg.WebhookURL,
		SecretToken: cfg.WebhookSecret,
	})
	if err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}
	log.InfoContext(ctx, "Webhook registered", "url", cfg.WebhookURL)
	return nil
}

// applyMiddleware wraps a handler function with a slice of middleware.
// The first middleware in the slice is the outermost.
func applyMiddleware(handler bot.HandlerFunc, mw []bot.Middleware) bot.HandlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	return handler
}

// RegisterHandlers registers command handlers with the Telegram bot instance.
func RegisterHandlers(b *bot.Bot, logger *slog.Logger, registeredHandlers map[string]handlers.RegisteredHandler) error {
	if b == nil {
		return fmt.Errorf("bot instance cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "handler_registry")

	if len(registeredHandlers) == 0 {
		log.Warn("No handlers provided for registration")
		return nil
	}

	for name, regHandler := range registeredHandlers {
		if regHandler.Handler == nil {
			log.Warn("Skipping registration for nil handler", "name", name)
			continue
		}
		finalHandler := applyMiddleware(regHandler.Handler, regHandler.Middleware)
		b.RegisterHandler(regHandler.HandlerType, regHandler.Pattern, regHandler.MatchType, finalHandler)
		log.Debug("Registered handler", "name", name, "pattern", regHandler.Pattern, "middleware_count", len(regHandler.Middleware))
	}

	log.Info("Registered Telegram handlers", "count", len(registeredHandlers))
	return nil
}

func tokenPrefix(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return token[:8] + "..."
}
