package store

import "callcenter-platform/internal/apperr"

const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// Page is a validated 1-based page request.
type Page struct {
	Number int
	Size   int
}

// NewPage applies defaults to zero values and rejects out of range input.
func NewPage(number, size int) (Page, error) {
	if number == 0 {
		number = 1
	}
	if size == 0 {
		size = DefaultPageSize
	}
	if number < 1 {
		return Page{}, apperr.Validation("page", "page must be >= 1")
	}
	if size < 1 || size > MaxPageSize {
		return Page{}, apperr.Validation("limit", "limit must be between 1 and %d", MaxPageSize)
	}
	return Page{Number: number, Size: size}, nil
}

func (p Page) Offset() uint64 {
	if p.Number < 1 {
		return 0
	}
	return uint64((p.Number - 1) * p.limit())
}

func (p Page) limit() int {
	if p.Size < 1 {
		return DefaultPageSize
	}
	return p.Size
}

// Result is the paginated list envelope.
type Result[E any] struct {
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Items    []E `json:"items"`
}

func NewResult[E any](items []E, total int, p Page) Result[E] {
	if items == nil {
		items = []E{}
	}
	return Result[E]{Total: total, Page: max(p.Number, 1), PageSize: p.limit(), Items: items}
}
