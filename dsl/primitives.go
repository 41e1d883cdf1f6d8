package dsl

import (
	"context"

	storeskema "github.com/kioskcart/storeskema"
	"github.com/kioskcart/storeskema/codec"
	"github.com/kioskcart/storeskema/i18n"
	js "github.com/kioskcart/storeskema/jsonschema"
)

// newIssue builds a root-level issue with a translated message.
func newIssue(code, key string, data map[string]string, label string, v any) storeskema.Issue {
	msg := i18n.T(key, data)
	if label != "" {
		msg = label + " " + msg
	}
	var params map[string]any
	if len(data) > 0 {
		params = make(map[string]any, len(data))
		for k, val := range data {
			params[k] = val
		}
	}
	return storeskema.Issue{Path: "/", Code: code, Message: msg, Value: v, Params: params}
}

func seen[T any](v T, err error) (storeskema.Decoded[T], error) {
	return storeskema.Decoded[T]{Value: v, Presence: storeskema.PresenceMap{"/": storeskema.PresenceSeen}}, err
}

// ---- Bool ----

type boolSchema struct{}

// Bool returns a boolean schema. Only true and false are accepted.
func Bool() AnyAdapter { return SchemaOf[bool](boolSchema{}) }

func (boolSchema) Parse(ctx context.Context, v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, storeskema.Issues{newIssue(storeskema.CodeInvalidType, "invalid_type", nil, "", v)}
	}
	return b, nil
}

func (s boolSchema) ParseWithMeta(ctx context.Context, v any) (storeskema.Decoded[bool], error) {
	out, err := s.Parse(ctx, v)
	return seen(out, err)
}
func (boolSchema) ValidateValue(ctx context.Context, v bool) error { return nil }
func (boolSchema) JSONSchema() (*js.Schema, error)                 { return &js.Schema{Type: "boolean"}, nil }

// ---- Timestamp ----

type timestampSchema struct{}

// Timestamp returns a schema for timestamp strings. The value is checked
// through codec.Timestamp and kept verbatim.
func Timestamp() AnyAdapter { return SchemaOf[string](timestampSchema{}) }

func (timestampSchema) Parse(ctx context.Context, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", storeskema.Issues{newIssue(storeskema.CodeInvalidType, "invalid_type", nil, "", v)}
	}
	if _, err := codec.Timestamp().Decode(ctx, s); err != nil {
		return "", storeskema.Issues{newIssue(storeskema.CodeInvalidFormat, "invalid_format", map[string]string{"format": "date-time"}, "", v)}
	}
	return s, nil
}

func (s timestampSchema) ParseWithMeta(ctx context.Context, v any) (storeskema.Decoded[string], error) {
	out, err := s.Parse(ctx, v)
	return seen(out, err)
}

func (s timestampSchema) ValidateValue(ctx context.Context, v string) error {
	_, err := s.Parse(ctx, v)
	return err
}

func (timestampSchema) JSONSchema() (*js.Schema, error) {
	return &js.Schema{Type: "string", Format: "date-time"}, nil
}

// ---- JSONText ----

type jsonTextSchema struct{}

// JSONText accepts auxiliary metadata stored either as a JSON object or as
// text. The text is not decoded here; the normalizer parses it safely.
func JSONText() AnyAdapter { return SchemaOf[any](jsonTextSchema{}) }

func (jsonTextSchema) Parse(ctx context.Context, v any) (any, error) {
	switch t := v.(type) {
	case string, map[string]any:
		return t, nil
	}
	return nil, storeskema.Issues{newIssue(storeskema.CodeInvalidType, "invalid_type", nil, "", v)}
}

func (s jsonTextSchema) ParseWithMeta(ctx context.Context, v any) (storeskema.Decoded[any], error) {
	out, err := s.Parse(ctx, v)
	return seen(out, err)
}

func (s jsonTextSchema) ValidateValue(ctx context.Context, v any) error {
	_, err := s.Parse(ctx, v)
	return err
}

func (jsonTextSchema) JSONSchema() (*js.Schema, error) {
	return &js.Schema{OneOf: []*js.Schema{{Type: "object"}, {Type: "string"}}}, nil
}

// ---- Any ----

type anySchema struct{}

// Any accepts every value unchanged.
func Any() AnyAdapter { return SchemaOf[any](anySchema{}) }

func (anySchema) Parse(ctx context.Context, v any) (any, error) { return v, nil }
func (anySchema) ParseWithMeta(ctx context.Context, v any) (storeskema.Decoded[any], error) {
	return seen[any](v, nil)
}
func (anySchema) ValidateValue(ctx context.Context, v any) error { return nil }
func (anySchema) JSONSchema() (*js.Schema, error)              { return &js.Schema{}, nil }

// ---- Row ----

type rowSchema struct{}

// Row accepts any object unchanged, for rows validated later by their own
// schema. Use it as an element schema: Array(Row()).
func Row() storeskema.Schema[map[string]any] { return rowSchema{} }

func (rowSchema) Parse(ctx context.Context, v any) (map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, storeskema.Issues{newIssue(storeskema.CodeInvalidType, "invalid_type", nil, "", v)}
	}
	return m, nil
}

func (s rowSchema) ParseWithMeta(ctx context.Context, v any) (storeskema.Decoded[map[string]any], error) {
	out, err := s.Parse(ctx, v)
	return seen(out, err)
}

func (rowSchema) ValidateValue(ctx context.Context, v map[string]any) error { return nil }
func (rowSchema) JSONSchema() (*js.Schema, error)                           { return &js.Schema{Type: "object"}, nil }
