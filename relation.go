package storeskema

import (
	"context"
	"fmt"
)

// Join resolves a many-to-one relationship. For every item whose foreign key
// fk is set, the related record with the same primary key is attached
// through set. Items are copied; neither input slice is modified. When no
// related record matches, the relation is left unset and a relation_miss
// diagnostic is emitted. Matching is by id only.
func Join[E, R any](ctx context.Context, entity, field string, items []E, related []R,
	fk func(E) *string, pk func(R) string, set func(*E, *R)) []E {
	rel := append([]R(nil), related...)
	byID := make(map[string]*R, len(rel))
	for i := range rel {
		byID[pk(rel[i])] = &rel[i]
	}
	out := append([]E(nil), items...)
	for i := range out {
		key := fk(out[i])
		if key == nil || *key == "" {
			continue
		}
		if r, ok := byID[*key]; ok {
			set(&out[i], r)
			continue
		}
		Diagnose(ctx, Diagnostic{
			Kind:    DiagRelationMiss,
			Entity:  entity,
			Path:    "/" + escapePointer(field),
			ID:      *key,
			Index:   i,
			Message: fmt.Sprintf("no %s with id %q", field, *key),
		})
	}
	return out
}

// Group resolves a one-to-many relationship: each parent receives the
// children whose foreign key equals its primary key, in input order.
// Children matching no parent emit a relation_miss diagnostic.
func Group[P, C any](ctx context.Context, entity, field string, parents []P, children []C,
	pk func(P) string, fk func(C) string, set func(*P, []C)) []P {
	out := append([]P(nil), parents...)
	idx := make(map[string]int, len(out))
	for i := range out {
		idx[pk(out[i])] = i
	}
	grouped := make([][]C, len(out))
	for i, c := range children {
		key := fk(c)
		pi, ok := idx[key]
		if !ok {
			Diagnose(ctx, Diagnostic{
				Kind:    DiagRelationMiss,
				Entity:  entity,
				Path:    "/" + escapePointer(field),
				ID:      key,
				Index:   i,
				Message: fmt.Sprintf("%s references unknown parent %q", field, key),
			})
			continue
		}
		grouped[pi] = append(grouped[pi], c)
	}
	for i := range out {
		cs := grouped[i]
		if cs == nil {
			cs = []C{}
		}
		set(&out[i], cs)
	}
	return out
}
