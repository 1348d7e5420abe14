// Package handlers contains the Telegram command and message handlers
// and their registration table.
package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// RegisteredHandler describes a handler and how it is matched.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// RegisterAllCommands returns the bot commands keyed by name. Plain text is
// not registered here; it goes through the default handler (NewCheckinHandler).
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	privateOnly := []tgbot.Middleware{PrivateOnly()}

	return map[string]RegisteredHandler{
		"/start": {
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     "start",
			Handler:     NewStartHandler(deps),
			Middleware:  privateOnly,
			MatchType:   tgbot.MatchTypeCommandStartOnly,
		},
		"/help": {
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     "help",
			Handler:     NewHelpHandler(deps),
			Middleware:  privateOnly,
			MatchType:   tgbot.MatchTypeCommandStartOnly,
		},
	}
}
