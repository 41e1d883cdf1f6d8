package storeskema

import (
	"context"

	js "github.com/kioskcart/storeskema/jsonschema"
)

// Schema validates an untyped value into T.
type Schema[T any] interface {
	// Parse transforms an unknown input into T (Coerce -> Validate -> Refine).
	// It returns Issues when validation fails; every violation is reported.
	Parse(ctx context.Context, v any) (T, error)
	// ParseWithMeta returns the typed value together with presence metadata.
	ParseWithMeta(ctx context.Context, v any) (Decoded[T], error)

	// ValidateValue verifies a value already typed as T without any conversion.
	ValidateValue(ctx context.Context, v T) error

	// JSONSchema projects the schema into a JSON Schema representation.
	JSONSchema() (*js.Schema, error)
}

// Codec performs bidirectional transformation between the wire representation
// A and the domain representation B.
type Codec[A, B any] interface {
	Decode(ctx context.Context, a A) (B, error)
	Encode(ctx context.Context, b B) (A, error)
}

// ---- Parse-time context options ----

type contextKey int

const (
	_ctxKeyFailFast contextKey = iota
	_ctxKeyRecordIndex
)

// WithRecordIndex tags ctx with the position of the record being processed
// within a batch. Diagnostics raised for the record carry it.
func WithRecordIndex(ctx context.Context, i int) context.Context {
	return context.WithValue(ctx, _ctxKeyRecordIndex, i)
}

// RecordIndex returns the batch position stored in ctx, or -1.
func RecordIndex(ctx context.Context) int {
	if i, ok := ctx.Value(_ctxKeyRecordIndex).(int); ok {
		return i
	}
	return -1
}

// WithFailFast returns a child context that marks fail-fast parsing behavior.
// Schemas stop at the first issue instead of aggregating.
func WithFailFast(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, _ctxKeyFailFast, enabled)
}

// IsFailFast reports whether the current parse should stop on the first issue.
func IsFailFast(ctx context.Context) bool {
	v := ctx.Value(_ctxKeyFailFast)
	b, _ := v.(bool)
	return b
}
