package entity

import (
	"context"

	storeskema "github.com/kioskcart/storeskema"
	"github.com/kioskcart/storeskema/batch"
	g "github.com/kioskcart/storeskema/dsl"
	"github.com/kioskcart/storeskema/envelope"
	"github.com/kioskcart/storeskema/rules"
)

var pageRow = g.Object().
	Title("page").
	Field("data", g.ArrayOf(g.Row())).Required().
	Field("total", g.Int().Min(0)).Required().
	Field("page", g.Int().Min(1)).Required().
	Field("limit", g.Int().Min(1)).Required().
	Field("has_more", optBool()).
	Field("total_pages", g.Int().Min(0).Nullable()).
	UnknownStrip().
	MustBuild()

// ParsePage validates a paginated listing and runs every row through p under
// policy. hasMore and totalPages are recomputed; values sent upstream, and
// the number of items returned, must agree with them or an *InvariantError
// is returned. Rows dropped by SkipInvalid count as missing items, so a page
// that lost rows is rejected at /data with the skipped indexes in Params.
// A page or limit below 1 is a structural error.
func ParsePage[T any](ctx context.Context, p batch.Runner[T], raw storeskema.RawRecord, policy batch.Policy, opts ...batch.Option) (envelope.Page[T], error) {
	dm, err := pageRow.ParseWithMeta(ctx, raw)
	if err != nil {
		return envelope.Page[T]{}, err
	}
	m := dm.Value
	rows := m["data"].([]map[string]any)
	items, rep, err := batch.Process(ctx, p, rows, policy, opts...)
	if err != nil {
		return envelope.Page[T]{}, err
	}
	page, err := envelope.Paginate(items, m["total"].(int), m["page"].(int), m["limit"].(int))
	if err != nil {
		return envelope.Page[T]{}, err
	}

	facts := page.Facts()
	if v, ok := m["has_more"].(bool); ok {
		facts.HasMore = v
	}
	if v, ok := m["total_pages"].(int); ok {
		facts.TotalPages = v
	}
	if iss := rules.CheckPage(facts); len(iss) > 0 {
		for i := range iss {
			if iss[i].Path == "/data" && rep.Skipped > 0 {
				iss[i].Params["skipped"] = skippedIndexes(rep)
			}
		}
		return envelope.Page[T]{}, &storeskema.InvariantError{Entity: "page", Issues: iss}
	}
	return page, nil
}

func skippedIndexes(rep batch.Report) []int {
	out := make([]int, 0, len(rep.Failures))
	for _, f := range rep.Failures {
		out = append(out, f.Index)
	}
	return out
}
