package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminHandler serves /api/admin.
type AdminHandler struct {
	deps Deps
}

// Dashboard returns account counts per role and a page of accounts.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	page := pageFromQuery(c, h.deps.Config.API.PageSize)

	counts, err := h.deps.Accounts.CountByRole(ctx)
	if err != nil {
		internalError(c, err)
		return
	}
	accounts, total, err := h.deps.Accounts.List(ctx, page, primitive.NilObjectID)
	if err != nil {
		internalError(c, err)
		return
	}

	respond(c, http.StatusOK, Success("", gin.H{
		"roleCounts": counts,
		"users":      accounts,
		"pagination": newPagination(page, total),
	}))
}
