package api

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/virevo/virevo/internal/mongodb"
)

const maxPageSize = 100

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

// pageFromQuery reads ?page and ?limit, falling back to page 1 and the configured size.
func pageFromQuery(c *gin.Context, defaultSize int) mongodb.Page {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 {
		limit = defaultSize
	}
	limit = min(limit, maxPageSize)
	return mongodb.Page{Number: page, Size: limit}
}

func newPagination(p mongodb.Page, total int64) Pagination {
	pages := int64(0)
	if p.Size > 0 {
		pages = (total + int64(p.Size) - 1) / int64(p.Size)
	}
	return Pagination{Page: p.Number, Limit: p.Size, Total: total, TotalPages: pages}
}
