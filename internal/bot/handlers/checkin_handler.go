package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/virevo/virevo/internal/checkin"
)

// NewCheckinHandler returns the default handler: every text message that is
// not a registered command is passed to the check-in conversation.
func NewCheckinHandler(deps HandlerDeps) bot.HandlerFunc {
	return checkinHandler{deps}.Handle
}

type checkinHandler struct {
	deps HandlerDeps
}

func (h checkinHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	in, ok := inboundFromUpdate(update)
	if !ok {
		return
	}
	log := h.deps.Logger.With("handler", "checkin")

	// Failures are already logged by the conversation; they are not reported to Telegram.
	branch, err := h.deps.Conversation.HandleMessage(ctx, in)
	if err != nil {
		log.DebugContext(ctx, "Check-in message finished with errors", "branch", branch, "user_id", in.UserID)
	}
}

func inboundFromUpdate(update *models.Update) (checkin.Inbound, bool) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Text == "" {
		return checkin.Inbound{}, false
	}

	in := checkin.Inbound{
		UserID:   msg.From.ID,
		ChatID:   msg.Chat.ID,
		Name:     displayName(msg.From),
		ChatType: string(msg.Chat.Type),
		Text:     msg.Text,
	}
	if msg.Chat.Type != models.ChatTypePrivate {
		in.GroupID = msg.Chat.ID
	}
	return in, true
}

func displayName(u *models.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Username
	}
	return name
}
