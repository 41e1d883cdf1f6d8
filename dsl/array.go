package dsl

import (
	"context"
	"strconv"

	storeskema "github.com/kioskcart/storeskema"
	"github.com/kioskcart/storeskema/i18n"
	js "github.com/kioskcart/storeskema/jsonschema"
)

// ArraySchema validates every element with elem and reports all element
// issues under their index.
type ArraySchema[E any] struct {
	elem   storeskema.Schema[E]
	minLen int
	maxLen int
}

var _ storeskema.Schema[[]string] = (*ArraySchema[string])(nil)

// Array returns an array schema with the given element schema.
func Array[E any](elem storeskema.Schema[E]) *ArraySchema[E] {
	return &ArraySchema[E]{elem: elem, minLen: -1, maxLen: -1}
}

// ArrayOf adapts Array[E] to AnyAdapter for use in object builders.
// Example: Field("tags", dsl.ArrayOf[string](dsl.String()))
func ArrayOf[E any](elem storeskema.Schema[E]) AnyAdapter { return Array(elem).Adapt() }

// Min sets the minimum length.
func (a *ArraySchema[E]) Min(n int) *ArraySchema[E] { a.minLen = n; return a }

// Max sets the maximum length.
func (a *ArraySchema[E]) Max(n int) *ArraySchema[E] { a.maxLen = n; return a }

// Adapt implements Adapter.
func (a *ArraySchema[E]) Adapt() AnyAdapter { return SchemaOf[[]E](a) }

// Nullable is shorthand for Nullable(a).
func (a *ArraySchema[E]) Nullable() AnyAdapter { return Nullable(a) }

func (a *ArraySchema[E]) parse(ctx context.Context, v any) ([]E, storeskema.PresenceMap, error) {
	pm := storeskema.PresenceMap{"/": storeskema.PresenceSeen}
	var src []any
	switch t := v.(type) {
	case []any:
		src = t
	case []E:
		src = make([]any, len(t))
		for i := range t {
			src[i] = t[i]
		}
	default:
		return nil, pm, storeskema.Issues{{Path: "/", Code: storeskema.CodeInvalidType, Message: i18n.T(storeskema.CodeInvalidType, nil), Hint: "expected array", Value: v}}
	}
	iss := a.lengthIssues(len(src))
	if len(iss) > 0 && storeskema.IsFailFast(ctx) {
		return nil, pm, iss
	}
	res := make([]E, 0, len(src))
	for i := range src {
		base := "/" + strconv.Itoa(i)
		dm, err := a.elem.ParseWithMeta(ctx, src[i])
		if err != nil {
			iss = storeskema.AppendIssues(iss, issuesFromErr("/", err).Rebase(base)...)
			if storeskema.IsFailFast(ctx) {
				return nil, pm, iss
			}
			continue
		}
		mergePresence(pm, dm.Presence, base)
		res = append(res, dm.Value)
	}
	if len(iss) > 0 {
		return nil, pm, iss
	}
	return res, pm, nil
}

func (a *ArraySchema[E]) lengthIssues(n int) storeskema.Issues {
	var iss storeskema.Issues
	if a.minLen >= 0 && n < a.minLen {
		iss = storeskema.AppendIssues(iss, storeskema.Issue{Path: "/", Code: storeskema.CodeTooShort, Message: i18n.T("too_small", map[string]string{"min": strconv.Itoa(a.minLen)}), Hint: "array is shorter than min"})
	}
	if a.maxLen >= 0 && n > a.maxLen {
		iss = storeskema.AppendIssues(iss, storeskema.Issue{Path: "/", Code: storeskema.CodeTooLong, Message: i18n.T("too_big", map[string]string{"max": strconv.Itoa(a.maxLen)}), Hint: "array is longer than max"})
	}
	return iss
}

func (a *ArraySchema[E]) Parse(ctx context.Context, v any) ([]E, error) {
	out, _, err := a.parse(ctx, v)
	return out, err
}

func (a *ArraySchema[E]) ParseWithMeta(ctx context.Context, v any) (storeskema.Decoded[[]E], error) {
	out, pm, err := a.parse(ctx, v)
	return storeskema.Decoded[[]E]{Value: out, Presence: pm}, err
}

func (a *ArraySchema[E]) ValidateValue(ctx context.Context, v []E) error {
	iss := a.lengthIssues(len(v))
	for i := range v {
		if err := a.elem.ValidateValue(ctx, v[i]); err != nil {
			iss = storeskema.AppendIssues(iss, issuesFromErr("/", err).Rebase("/"+strconv.Itoa(i))...)
		}
	}
	if len(iss) > 0 {
		return iss
	}
	return nil
}

func (a *ArraySchema[E]) JSONSchema() (*js.Schema, error) {
	es, err := a.elem.JSONSchema()
	if err != nil {
		return nil, err
	}
	s := &js.Schema{Type: "array", Items: es}
	if a.minLen >= 0 {
		n := a.minLen
		s.MinItems = &n
	}
	if a.maxLen >= 0 {
		n := a.maxLen
		s.MaxItems = &n
	}
	return s, nil
}
