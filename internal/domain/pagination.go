package domain

// Pagination defaults. Limits above MaxPageSize are clamped, never rejected,
// so a greedy client still gets a bounded query.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest is a normalized page window request.
// Build one with NewPageRequest so the invariants (page >= 1,
// 1 <= limit <= 100) always hold.
type PageRequest struct {
	Page  int
	Limit int
}

// NewPageRequest applies defaults and clamps out-of-range values.
// A non-positive page falls back to 1; a page past the end of the result
// set is kept as-is and simply yields an empty window (the metadata stays
// truthful, so clients can detect they walked off the end).
func NewPageRequest(page, limit int) PageRequest {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return PageRequest{Page: page, Limit: limit}
}

// Offset returns the number of records to skip for this window.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// PageMeta is the navigation metadata echoed alongside every list response.
// The list endpoint and the UI both derive "showing X–Y of Z" from these
// four fields, so they must always be consistent with each other.
type PageMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

// NewPageMeta derives the metadata for a window over total records.
// TotalPages is ceil(total/limit) and 0 when total is 0.
func NewPageMeta(req PageRequest, total int64) PageMeta {
	totalPages := int64(0)
	if total > 0 {
		totalPages = (total + int64(req.Limit) - 1) / int64(req.Limit)
	}
	return PageMeta{
		Page:       req.Page,
		Limit:      req.Limit,
		Total:      total,
		TotalPages: totalPages,
	}
}
