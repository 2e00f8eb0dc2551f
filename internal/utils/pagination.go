package utils

import (
	"fmt"
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/recipe-catalog/internal/constants"
)

// PageRequest is a zero-based page index and a page size.
type PageRequest struct {
	Page int
	Size int
}

// Valid reports whether the page index is non-negative and the size positive.
func (p PageRequest) Valid() bool {
	return p.Page >= 0 && p.Size > 0
}

// Offset returns the number of rows skipped before this page, saturating at
// math.MaxInt instead of overflowing.
func (p PageRequest) Offset() int {
	if p.Page > 0 && p.Size > 0 && p.Page > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return p.Page * p.Size
}

// PastEnd reports whether the page starts after the last of total rows.
func (p PageRequest) PastEnd(total int64) bool {
	offset := p.Offset()
	return offset > 0 && int64(offset) >= total
}

// TotalPages returns how many pages of this size hold total rows.
func (p PageRequest) TotalPages(total int64) int {
	if p.Size <= 0 {
		return 0
	}
	return int((total + int64(p.Size) - 1) / int64(p.Size))
}

// PaginationResponse represents the pagination metadata in API responses
type PaginationResponse struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// HasPaginationParams reports whether the request asked for a specific page.
func HasPaginationParams(c *gin.Context) bool {
	_, hasPage := c.GetQuery("page")
	_, hasSize := c.GetQuery("size")
	return hasPage || hasSize
}

// GetPageRequest extracts pagination parameters from the request. Values are
// passed through unclamped so the service can reject them; sizes above
// MaxPageSize are capped.
func GetPageRequest(c *gin.Context) (PageRequest, error) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil {
		return PageRequest{}, fmt.Errorf("invalid page: %w", err)
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(constants.DefaultPageSize)))
	if err != nil {
		return PageRequest{}, fmt.Errorf("invalid size: %w", err)
	}

	if size > constants.MaxPageSize {
		size = constants.MaxPageSize
	}

	return PageRequest{Page: page, Size: size}, nil
}
