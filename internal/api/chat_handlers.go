package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatHandler serves /api/chat.
type ChatHandler struct {
	deps Deps
}

// History lists the caller's chats with their latest message.
func (h *ChatHandler) History(c *gin.Context) {
	id, ok := callerID(c)
	if !ok {
		respond(c, http.StatusUnauthorized, Failure("User not found", nil))
		return
	}

	history, err := h.deps.Chats.History(c.Request.Context(), id)
	if err != nil {
		internalError(c, err)
		return
	}
	if len(history) == 0 {
		respond(c, http.StatusOK, Failure("No chat history found", nil))
		return
	}
	respond(c, http.StatusOK, Success("Chat history fetched successfully", history))
}

// Messages returns a page of a chat's messages. Only participants may read them.
func (h *ChatHandler) Messages(c *gin.Context) {
	ctx := c.Request.Context()
	id, ok := callerID(c)
	if !ok {
		respond(c, http.StatusUnauthorized, Failure("User not found", nil))
		return
	}
	chatID, err := primitive.ObjectIDFromHex(c.Param("chatId"))
	if err != nil {
		respond(c, http.StatusOK, Failure("No chat id found", nil))
		return
	}

	member, err := h.deps.Chats.IsParticipant(ctx, chatID, id)
	if err != nil {
		internalError(c, err)
		return
	}
	if !member {
		respond(c, http.StatusForbidden, Failure("Forbidden: Access Denied", nil))
		return
	}

	page := pageFromQuery(c, h.deps.Config.API.PageSize)
	messages, total, err := h.deps.Chats.Messages(ctx, chatID, page)
	if err != nil {
		internalError(c, err)
		return
	}
	if total == 0 {
		respond(c, http.StatusOK, Failure("No chat history found", nil))
		return
	}
	respond(c, http.StatusOK, Success("Message Fetched successfully", gin.H{
		"messages":   messages,
		"pagination": newPagination(page, total),
	}))
}

// AllUsers returns a page of accounts to start a chat with.
func (h *ChatHandler) AllUsers(c *gin.Context) {
	listAccounts(c, h.deps, "Users fetched successfully")
}
