package handlers

import (
	"context"
	"log/slog"

	"github.com/virevo/virevo/internal/checkin"
	"github.com/virevo/virevo/internal/config"
)

// Conversation runs the check-in flow for one inbound message.
type Conversation interface {
	HandleMessage(ctx context.Context, in checkin.Inbound) (checkin.Branch, error)
	Enroll(ctx context.Context, in checkin.Inbound) (bool, error)
}

// HandlerDeps provides dependencies for Telegram handlers.
type HandlerDeps struct {
	Logger       *slog.Logger
	Config       *config.Config
	Conversation Conversation
}
