package dsl

import (
	"context"
	"reflect"

	storeskema "github.com/kioskcart/storeskema"
	js "github.com/kioskcart/storeskema/jsonschema"
)

// Adapter is implemented by every builder accepted by Field.
type Adapter interface {
	Adapt() AnyAdapter
}

// AnyAdapter adapts Schema[T] to an any-typed DSL wrapper.
type AnyAdapter struct {
	parse      func(context.Context, any) (any, storeskema.PresenceMap, error)
	jsonSchema func() (*js.Schema, error)
	sensitive  bool
	orig       any
}

// Adapt implements Adapter.
func (ad AnyAdapter) Adapt() AnyAdapter { return ad }

// SchemaOf converts an arbitrary Schema[T] into an AnyAdapter.
func SchemaOf[T any](s storeskema.Schema[T]) AnyAdapter {
	return AnyAdapter{
		parse: func(ctx context.Context, v any) (any, storeskema.PresenceMap, error) {
			dm, err := s.ParseWithMeta(ctx, v)
			if err != nil {
				return nil, nil, err
			}
			return any(dm.Value), dm.Presence, nil
		},
		jsonSchema: s.JSONSchema,
		orig:       s,
	}
}

// Orig returns the underlying Schema[T] or builder the adapter was created from.
func (ad AnyAdapter) Orig() any { return ad.orig }

// IsSensitive reports whether offending values are withheld from issues.
func (ad AnyAdapter) IsSensitive() bool { return ad.sensitive }

// Nullable wraps an adapter to accept JSON null. Null parses to nil and
// the field is recorded with PresenceWasNull.
func Nullable(a Adapter) AnyAdapter {
	ad := a.Adapt()
	prevParse := ad.parse
	prevJSON := ad.jsonSchema
	out := ad
	out.parse = func(ctx context.Context, v any) (any, storeskema.PresenceMap, error) {
		if isNull(v) {
			return nil, nil, nil
		}
		return prevParse(ctx, v)
	}
	out.jsonSchema = func() (*js.Schema, error) {
		s := &js.Schema{}
		if prevJSON != nil {
			ps, err := prevJSON()
			if err != nil {
				return nil, err
			}
			if ps != nil {
				cp := *ps
				s = &cp
			}
		}
		s.Nullable = true
		return s, nil
	}
	return out
}

// isNull reports whether v stands for JSON null: nil itself, or a nil map,
// slice or pointer held in an interface.
func isNull(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer:
		return rv.IsNil()
	}
	return false
}

// Nullable enables fluent chaining: dsl.SchemaOf(s).Nullable()
func (ad AnyAdapter) Nullable() AnyAdapter { return Nullable(ad) }

// Sensitive marks the field so its offending value is never echoed in issues.
func (ad AnyAdapter) Sensitive() AnyAdapter {
	ad.sensitive = true
	return ad
}

func (ad AnyAdapter) validate(ctx context.Context, v any) error {
	if ad.parse == nil {
		return nil
	}
	_, _, err := ad.parse(ctx, v)
	return err
}
