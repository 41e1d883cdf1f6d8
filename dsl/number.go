package dsl

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	storeskema "github.com/kioskcart/storeskema"
	js "github.com/kioskcart/storeskema/jsonschema"
)

// NumberBuilder is a float64 schema. It accepts json.Number and every Go
// numeric kind; strings only with CoerceFromString.
type NumberBuilder struct {
	min, max *float64
	integer  bool
	coerce   bool
	label    string
}

var _ storeskema.Schema[float64] = (*NumberBuilder)(nil)

// Number returns a float64 schema with no constraints.
func Number() *NumberBuilder { return &NumberBuilder{} }

// Min sets an inclusive minimum.
func (b *NumberBuilder) Min(n float64) *NumberBuilder { b.min = &n; return b }

// Max sets an inclusive maximum.
func (b *NumberBuilder) Max(n float64) *NumberBuilder { b.max = &n; return b }

// Int rejects values with a fractional part.
func (b *NumberBuilder) Int() *NumberBuilder { b.integer = true; return b }

// CoerceFromString accepts numeric strings such as "12.50".
func (b *NumberBuilder) CoerceFromString() *NumberBuilder { b.coerce = true; return b }

// Label prefixes issue messages.
func (b *NumberBuilder) Label(name string) *NumberBuilder { b.label = name; return b }

// Adapt implements Adapter.
func (b *NumberBuilder) Adapt() AnyAdapter { return SchemaOf[float64](b) }

// Nullable is shorthand for Nullable(b).
func (b *NumberBuilder) Nullable() AnyAdapter { return Nullable(b) }

func (b *NumberBuilder) Parse(ctx context.Context, v any) (float64, error) {
	f, ok := toFloat(v, b.coerce)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, storeskema.Issues{newIssue(storeskema.CodeInvalidType, "invalid_type", nil, b.label, v)}
	}
	if err := b.check(ctx, f, v); err != nil {
		return 0, err
	}
	return f, nil
}

func (b *NumberBuilder) ParseWithMeta(ctx context.Context, v any) (storeskema.Decoded[float64], error) {
	f, err := b.Parse(ctx, v)
	return storeskema.Decoded[float64]{Value: f, Presence: storeskema.PresenceMap{"/": storeskema.PresenceSeen}}, err
}

func (b *NumberBuilder) ValidateValue(ctx context.Context, f float64) error { return b.check(ctx, f, f) }

func (b *NumberBuilder) check(ctx context.Context, f float64, orig any) error {
	var iss storeskema.Issues
	if b.integer && f != math.Trunc(f) {
		iss = storeskema.AppendIssues(iss, newIssue(storeskema.CodeInvalidType, "not_integer", nil, b.label, orig))
		if storeskema.IsFailFast(ctx) {
			return iss
		}
	}
	if b.min != nil && f < *b.min {
		it := newIssue(storeskema.CodeTooSmall, "too_small", map[string]string{"min": formatNum(*b.min)}, b.label, orig)
		iss = storeskema.AppendIssues(iss, it)
		if storeskema.IsFailFast(ctx) {
			return iss
		}
	}
	if b.max != nil && f > *b.max {
		it := newIssue(storeskema.CodeTooBig, "too_big", map[string]string{"max": formatNum(*b.max)}, b.label, orig)
		iss = storeskema.AppendIssues(iss, it)
	}
	if len(iss) > 0 {
		return iss
	}
	return nil
}

func (b *NumberBuilder) JSONSchema() (*js.Schema, error) {
	s := &js.Schema{Type: "number", Minimum: b.min, Maximum: b.max}
	if b.integer {
		s.Type = "integer"
	}
	return s, nil
}

// IntBuilder is an integer schema decoding to int.
type IntBuilder struct{ n NumberBuilder }

var _ storeskema.Schema[int] = (*IntBuilder)(nil)

// Int returns an integer-only schema.
func Int() *IntBuilder { return &IntBuilder{n: NumberBuilder{integer: true}} }

func (b *IntBuilder) Min(n int) *IntBuilder           { b.n.Min(float64(n)); return b }
func (b *IntBuilder) Max(n int) *IntBuilder           { b.n.Max(float64(n)); return b }
func (b *IntBuilder) CoerceFromString() *IntBuilder   { b.n.coerce = true; return b }
func (b *IntBuilder) Label(name string) *IntBuilder   { b.n.label = name; return b }
func (b *IntBuilder) Adapt() AnyAdapter               { return SchemaOf[int](b) }
func (b *IntBuilder) Nullable() AnyAdapter            { return Nullable(b) }
func (b *IntBuilder) JSONSchema() (*js.Schema, error) { return b.n.JSONSchema() }

func (b *IntBuilder) Parse(ctx context.Context, v any) (int, error) {
	f, err := b.n.Parse(ctx, v)
	if err != nil {
		return 0, err
	}
	i, ok := storeskema.IntOf(f)
	if !ok {
		if f < 0 {
			return 0, storeskema.Issues{newIssue(storeskema.CodeTooSmall, "too_small", map[string]string{"min": strconv.Itoa(math.MinInt)}, b.n.label, v)}
		}
		return 0, storeskema.Issues{newIssue(storeskema.CodeTooBig, "too_big", map[string]string{"max": strconv.Itoa(math.MaxInt)}, b.n.label, v)}
	}
	return i, nil
}

func (b *IntBuilder) ParseWithMeta(ctx context.Context, v any) (storeskema.Decoded[int], error) {
	i, err := b.Parse(ctx, v)
	return storeskema.Decoded[int]{Value: i, Presence: storeskema.PresenceMap{"/": storeskema.PresenceSeen}}, err
}

func (b *IntBuilder) ValidateValue(ctx context.Context, v int) error {
	return b.n.check(ctx, float64(v), v)
}

func toFloat(v any, coerce bool) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		if !coerce {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func formatNum(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
