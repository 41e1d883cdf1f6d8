package envelope

import (
	"context"

	storeskema "github.com/kioskcart/storeskema"
	"github.com/kioskcart/storeskema/rules"
)

// Page is one page of a paginated listing.
type Page[T any] struct {
	Data       []T  `json:"data"`
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	HasMore    bool `json:"hasMore"`
	TotalPages int  `json:"totalPages"`
}

// Paginate builds a Page whose hasMore and totalPages are derived from total,
// page and limit. A limit or page below 1, or a negative total, is rejected.
func Paginate[T any](items []T, total, page, limit int) (Page[T], error) {
	var iss storeskema.Issues
	if limit < 1 {
		iss = storeskema.AppendIssues(iss, storeskema.IssueAt("/limit", storeskema.CodeTooSmall, "limit must be at least 1", map[string]any{"min": 1}))
	}
	if page < 1 {
		iss = storeskema.AppendIssues(iss, storeskema.IssueAt("/page", storeskema.CodeTooSmall, "page must be at least 1", map[string]any{"min": 1}))
	}
	if total < 0 {
		iss = storeskema.AppendIssues(iss, storeskema.IssueAt("/total", storeskema.CodeTooSmall, "total must not be negative", map[string]any{"min": 0}))
	}
	if len(iss) > 0 {
		return Page[T]{}, iss
	}
	data := append([]T{}, items...)
	tp := rules.TotalPages(total, limit)
	return Page[T]{Data: data, Total: total, Page: page, Limit: limit, HasMore: page < tp, TotalPages: tp}, nil
}

// Facts projects the page onto the values the pagination invariant inspects.
func (p Page[T]) Facts() rules.PageFacts {
	return rules.PageFacts{Total: p.Total, Page: p.Page, Limit: p.Limit, Count: len(p.Data), HasMore: p.HasMore, TotalPages: p.TotalPages}
}

// Check verifies the pagination arithmetic, including the item count.
func (p Page[T]) Check(ctx context.Context) error {
	if iss := rules.CheckPage(p.Facts()); len(iss) > 0 {
		return &storeskema.InvariantError{Entity: "page", Issues: iss}
	}
	return nil
}
