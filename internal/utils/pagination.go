package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// Page bounds for list endpoints
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page holds parsed pagination query parameters
type Page struct {
	Page  int
	Limit int
}

// Offset is the number of rows to skip
func (p Page) Offset() int { return (p.Page - 1) * p.Limit }

// ParsePage reads page and limit from the query, clamping invalid values
func ParsePage(c *gin.Context) Page {
	p := Page{Page: 1, Limit: DefaultPageSize}
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		p.Page = v
	}
	// page_size is accepted as an alias for older clients
	limit := c.Query("limit")
	if limit == "" {
		limit = c.Query("page_size")
	}
	if v, err := strconv.Atoi(limit); err == nil && v > 0 {
		p.Limit = min(v, MaxPageSize)
	}
	return p
}
