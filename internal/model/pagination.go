package model

import "math"

// Pagination defaults
const (
	DefaultPage     = 1
	DefaultPageSize = 50
	MaxPageSize     = 1000
)

// Visibility selects hidden/visible comments in a listing.
type Visibility int

const (
	VisibilityAll Visibility = iota
	VisibilityHidden
	VisibilityVisible
)

// CommentList is the paginated comment list response.
type CommentList struct {
	Items             []Comment `json:"items"`
	Page              int       `json:"page"`
	PageSize          int       `json:"page_size"`
	TotalPages        int       `json:"total_pages"`
	TotalItems        int       `json:"total_items"`
	HasHiddenComments bool      `json:"has_hidden_comments"`
}

// CommentIDEntry is one row of get_comment_ids.
type CommentIDEntry struct {
	CommentID string  `db:"comment_id" json:"comment_id"`
	ParentID  *string `db:"parent_id" json:"parent_id,omitempty"`
}

// CommentIDList is the response of get_comment_ids. When flattened, Items is a
// list of bare ids and Replies pairs each id with its parent.
type CommentIDList struct {
	Items      any          `json:"items"`
	Replies    [][2]*string `json:"replies,omitempty"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalPages int          `json:"total_pages"`
	TotalItems int          `json:"total_items"`
}

// TotalPages returns ceil(total/pageSize).
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// Offset returns the row offset for a 1-indexed page. Offsets past the
// largest int saturate, so a far page is still past the end.
func Offset(page, pageSize int) int {
	if page < 1 || pageSize < 1 {
		return 0
	}
	if page-1 > math.MaxInt/pageSize {
		return math.MaxInt
	}
	return pageSize * (page - 1)
}
