package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStartHandler returns a handler for the /start command.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

// startHandler greets the user and enrolls them when they are new, which
// sends today's opening question.
type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")
	chatID := update.Message.Chat.ID

	log.InfoContext(ctx, "Handling /start command", "chat_id", chatID, "user_id", update.Message.From.ID)

	welcome := withBotName(h.deps.Config.Messages.Welcome, h.deps.Config.Telegram.BotInfo)
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: welcome}); err != nil {
		log.ErrorContext(ctx, "Failed to send welcome message", "error", err, "chat_id", chatID)
	} else {
		log.DebugContext(ctx, "Sent welcome message", "chat_id", chatID)
	}

	in, ok := inboundFromUpdate(update)
	if !ok {
		return
	}
	enrolled, err := h.deps.Conversation.Enroll(ctx, in)
	if err != nil {
		log.ErrorContext(ctx, "Failed to enroll user", "error", err, "user_id", in.UserID)
		return
	}
	if enrolled {
		log.InfoContext(ctx, "Enrolled new user", "user_id", in.UserID)
	}
}

func withBotName(text string, info *models.User) string {
	if info == nil || info.Username == "" {
		return text
	}
	return strings.ReplaceAll(text, "@botname", "@"+info.Username)
}
