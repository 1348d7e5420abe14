package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// MessageSender is the subset of *bot.Bot used to deliver messages.
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Sender delivers check-in messages. Replies are sent as legacy Markdown;
// when Telegram cannot parse the entities (model output often contains stray
// asterisks) the text is resent as plain text.
type Sender struct {
	client MessageSender
	logger *slog.Logger
}

// NewSender wraps a Telegram client.
func NewSender(client MessageSender, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{client: client, logger: logger.With("component", "telegram_sender")}
}

// Send delivers text to chatID.
func (s *Sender) Send(ctx context.Context, chatID int64, text string) error {
	_, err := s.client.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeMarkdownV1,
	})
	if err == nil {
		return nil
	}
	if !isEntityParseError(err) {
		return fmt.Errorf("failed to send message: %w", err)
	}

	s.logger.DebugContext(ctx, "Markdown send failed, retrying as plain text", "chat_id", chatID, "error", err)
	if _, plainErr := s.client.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); plainErr != nil {
		return fmt.Errorf("failed to send message: %w", plainErr)
	}
	return nil
}

// isEntityParseError matches the Bot API 400 returned for malformed Markdown.
// Anything else may already have been delivered, or would fail again.
func isEntityParseError(err error) bool {
	return errors.Is(err, bot.ErrorBadRequest) &&
		strings.Contains(strings.ToLower(err.Error()), "can't parse entities")
}
