// Package bot wires the check-in bot together and manages the lifecycle of
// the Telegram listener, the scheduler and the HTTP server.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Listener receives Telegram updates until ctx is cancelled.
// *bot.Bot satisfies it with Start (polling) and StartWebhook.
type Listener func(ctx context.Context)

// Bot runs the check-in bot components.
type Bot struct {
	logger          *slog.Logger
	listen          Listener
	mode            string
	scheduler       *Scheduler
	server          *Server
	shutdownTimeout time.Duration
}

// NewBot creates the orchestrator. mode is only used for logging.
func NewBot(logger *slog.Logger, listen Listener, mode string, scheduler *Scheduler, server *Server, shutdownTimeout time.Duration) *Bot {
	return &Bot{
		logger:          logger.With("component", "bot_orchestrator"),
		listen:          listen,
		mode:            mode,
		scheduler:       scheduler,
		server:          server,
		shutdownTimeout: shutdownTimeout,
	}
}

// Run starts every component and blocks until ctx is cancelled or one of
// them fails.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator", "mode", b.mode)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Starting Telegram listener", "mode", b.mode)
		b.listen(gCtx)
		b.logger.Info("Telegram listener stopped")

		if gCtx.Err() == nil {
			return fmt.Errorf("telegram listener stopped unexpectedly")
		}
		return nil
	})

	g.Go(func() error {
		if err := b.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping scheduler")
		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	if b.server != nil {
		g.Go(func() error {
			return b.server.Run(gCtx, b.shutdownTimeout)
		})
	}

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully")
	return nil
}
