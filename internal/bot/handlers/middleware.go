package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// PrivateOnly drops updates that are not text messages in a private chat.
// The check-in bot does not talk in groups.
func PrivateOnly() tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			if update.Message == nil || update.Message.From == nil {
				return
			}
			if update.Message.Chat.Type != models.ChatTypePrivate {
				return
			}
			next(ctx, b, update)
		}
	}
}
