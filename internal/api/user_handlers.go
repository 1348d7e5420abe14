package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/virevo/virevo/internal/auth"
	"github.com/virevo/virevo/internal/mongodb"
)

const dashboardRecentChats = 5

// UserHandler serves /api/user.
type UserHandler struct {
	deps Deps
}

// FetchUser returns one account by id.
func (h *UserHandler) FetchUser(c *gin.Context) {
	acc, err := h.deps.Accounts.FindByID(c.Request.Context(), c.Param("userId"))
	if errors.Is(err, mongodb.ErrNotFound) {
		respond(c, http.StatusOK, Failure("User not found", nil))
		return
	}
	if err != nil {
		internalError(c, err)
		return
	}
	respond(c, http.StatusOK, Success("User fetched successfully", acc))
}

// Dashboard returns the caller's account and their most recent chats.
func (h *UserHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	id, ok := callerID(c)
	if !ok {
		respond(c, http.StatusUnauthorized, Failure("User not found", nil))
		return
	}

	acc, err := h.deps.Accounts.FindByID(ctx, id.Hex())
	if errors.Is(err, mongodb.ErrNotFound) {
		respond(c, http.StatusOK, Failure("User not found", nil))
		return
	}
	if err != nil {
		internalError(c, err)
		return
	}

	chats, err := h.deps.Chats.History(ctx, id)
	if err != nil {
		internalError(c, err)
		return
	}
	recent := chats[:min(len(chats), dashboardRecentChats)]

	respond(c, http.StatusOK, Success("", gin.H{
		"userData":    acc,
		"chatCount":   len(chats),
		"recentChats": recent,
	}))
}

// List returns a page of other accounts.
func (h *UserHandler) List(c *gin.Context) {
	listAccounts(c, h.deps, "Users fetched successfully")
}

// UpdateProfile applies the caller's profile changes.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	id, ok := callerID(c)
	if !ok {
		respond(c, http.StatusUnauthorized, Failure("User not found", nil))
		return
	}
	var update mongodb.ProfileUpdate
	if err := bindRequest(c, &update); err != nil {
		respond(c, http.StatusBadRequest, Failure("Invalid profile data.", "validation"))
		return
	}

	acc, err := h.deps.Accounts.UpdateProfile(c.Request.Context(), id, update)
	if errors.Is(err, mongodb.ErrNotFound) {
		respond(c, http.StatusOK, Failure("User not found", nil))
		return
	}
	if err != nil {
		internalError(c, err)
		return
	}
	respond(c, http.StatusOK, Success("Profile updated successfully", acc))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword"     binding:"required,min=6"`
}

// ChangePassword replaces the caller's password after checking the current one
// and revokes their refresh token.
func (h *UserHandler) ChangePassword(c *gin.Context) {
	ctx := c.Request.Context()
	id, ok := callerID(c)
	if !ok {
		respond(c, http.StatusUnauthorized, Failure("User not found", nil))
		return
	}
	var req changePasswordRequest
	if err := bindRequest(c, &req); err != nil {
		respond(c, http.StatusBadRequest, Failure("Current and new password are required.", "validation"))
		return
	}

	acc, err := h.deps.Accounts.FindByID(ctx, id.Hex())
	if errors.Is(err, mongodb.ErrNotFound) {
		respond(c, http.StatusOK, Failure("User not found", nil))
		return
	}
	if err != nil {
		internalError(c, err)
		return
	}
	if !auth.CheckPassword(acc.Password, req.CurrentPassword) {
		respond(c, http.StatusOK, Failure("Current password is incorrect.", "currentPassword"))
		return
	}

	hash, err := auth.HashPassword(req.NewPassword, h.deps.Config.Auth.BcryptCost)
	if err != nil {
		internalError(c, err)
		return
	}
	if err := h.deps.Accounts.SetPasswordByID(ctx, id, hash); err != nil {
		internalError(c, err)
		return
	}
	if err := h.deps.Refresh.Revoke(ctx, id.Hex()); err != nil {
		internalError(c, err)
		return
	}
	respond(c, http.StatusOK, Success("Password updated successfully.", nil))
}

// listAccounts replies with a page of accounts other than the caller.
func listAccounts(c *gin.Context, deps Deps, message string) {
	id, _ := callerID(c)
	page := pageFromQuery(c, deps.Config.API.PageSize)

	accounts, total, err := deps.Accounts.List(c.Request.Context(), page, id)
	if err != nil {
		internalError(c, err)
		return
	}
	respond(c, http.StatusOK, Success(message, gin.H{
		"users":      accounts,
		"pagination": newPagination(page, total),
	}))
}
