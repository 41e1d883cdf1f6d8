package rules

import (
	storeskema "github.com/kioskcart/storeskema"
	"github.com/kioskcart/storeskema/i18n"
)

// PageFacts are the observable values of one page of a paginated listing.
type PageFacts struct {
	Total      int
	Page       int
	Limit      int
	Count      int // items actually returned
	HasMore    bool
	TotalPages int
}

// TotalPages returns ceil(total/limit), 0 when total is 0. limit must be ≥ 1.
func TotalPages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// PageCount returns the number of items page must carry: limit before the
// last page, the remainder (or limit) on it, 0 beyond.
func PageCount(total, page, limit int) int {
	tp := TotalPages(total, limit)
	switch {
	case page < 1 || page > tp:
		return 0
	case page < tp:
		return limit
	}
	if r := total % limit; r != 0 {
		return r
	}
	return limit
}

// CheckPage verifies the pagination arithmetic of f. A non-positive page or
// limit is reported on its own since nothing else can be derived from it.
func CheckPage(f PageFacts) []storeskema.Issue {
	var out []storeskema.Issue
	add := func(path string, params map[string]any) {
		out = append(out, storeskema.IssueAt(path, storeskema.CodePageMismatch, i18n.T(storeskema.CodePageMismatch, nil), params))
	}
	if f.Limit < 1 {
		add("/limit", map[string]any{"min": 1, "got": f.Limit})
	}
	if f.Page < 1 {
		add("/page", map[string]any{"min": 1, "got": f.Page})
	}
	if f.Total < 0 {
		add("/total", map[string]any{"min": 0, "got": f.Total})
	}
	if len(out) > 0 {
		return out
	}
	tp := TotalPages(f.Total, f.Limit)
	if f.TotalPages != tp {
		add("/totalPages", map[string]any{"expected": tp, "got": f.TotalPages})
	}
	if want := f.Page < tp; f.HasMore != want {
		add("/hasMore", map[string]any{"expected": want, "got": f.HasMore})
	}
	if want := PageCount(f.Total, f.Page, f.Limit); f.Count != want {
		add("/data", map[string]any{"expected": want, "got": f.Count})
	}
	return out
}

// Pagination builds a rule from a projection of page facts.
func Pagination[T any](get func(T) PageFacts) storeskema.Rule[T] {
	return func(d storeskema.DomainCtx[T], v T) []storeskema.Issue { return CheckPage(get(v)) }
}
