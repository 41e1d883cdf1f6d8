package storeskema

import (
	"context"
	"errors"

	js "github.com/kioskcart/storeskema/jsonschema"
)

// NormalizeFunc turns a validated record into its domain value. Problems are
// reported through the record's Scope; the return value is discarded when any
// issue was reported.
type NormalizeFunc[T any] func(r Record) T

// Pipeline validates, normalizes and checks one entity type. A Pipeline holds
// no mutable state and is safe for concurrent use.
type Pipeline[T any] struct {
	entity    string
	raw       Schema[RawRecord]
	normalize NormalizeFunc[T]
	rules     []namedRule[T]
}

// PipelineBuilder assembles a Pipeline.
type PipelineBuilder[T any] struct {
	p Pipeline[T]
}

// Define starts a pipeline for the named entity.
func Define[T any](entity string) *PipelineBuilder[T] {
	return &PipelineBuilder[T]{p: Pipeline[T]{entity: entity}}
}

// Raw sets the schema used to validate records before normalization.
func (b *PipelineBuilder[T]) Raw(s Schema[RawRecord]) *PipelineBuilder[T] {
	b.p.raw = s
	return b
}

// Normalize sets the transformation from validated record to domain value.
func (b *PipelineBuilder[T]) Normalize(fn NormalizeFunc[T]) *PipelineBuilder[T] {
	b.p.normalize = fn
	return b
}

// Check registers a business invariant evaluated on the normalized value.
// Rules run in registration order.
func (b *PipelineBuilder[T]) Check(name string, r Rule[T]) *PipelineBuilder[T] {
	if r != nil {
		b.p.rules = append(b.p.rules, namedRule[T]{name: name, fn: r})
	}
	return b
}

// Build returns the configured Pipeline.
func (b *PipelineBuilder[T]) Build() (*Pipeline[T], error) {
	if b.p.entity == "" {
		return nil, errors.New("storeskema: pipeline entity name is empty")
	}
	if b.p.raw == nil {
		return nil, errors.New("storeskema: pipeline " + b.p.entity + " has no raw schema")
	}
	if b.p.normalize == nil {
		return nil, errors.New("storeskema: pipeline " + b.p.entity + " has no normalize func")
	}
	p := b.p
	p.rules = append([]namedRule[T](nil), b.p.rules...)
	return &p, nil
}

// MustBuild is like Build but panics on error.
func (b *PipelineBuilder[T]) MustBuild() *Pipeline[T] {
	p, err := b.Build()
	if err != nil {
		panic(err)
	}
	return p
}

// Entity returns the entity name the pipeline was defined with.
func (p *Pipeline[T]) Entity() string { return p.entity }

// Run processes a record read from the store.
func (p *Pipeline[T]) Run(ctx context.Context, raw RawRecord) (T, error) {
	return p.RunFor(ctx, OpRead, raw)
}

// RunFor processes a record for the given request operation. Structural
// problems are returned as Issues, business violations as *InvariantError.
// raw is never modified.
func (p *Pipeline[T]) RunFor(ctx context.Context, op Operation, raw RawRecord) (T, error) {
	var zero T
	if raw == nil {
		return zero, Issues{{Path: "/", Code: CodeInvalidType, Message: "expected object"}}
	}
	dm, err := p.raw.ParseWithMeta(ctx, raw)
	if err != nil {
		return zero, err
	}
	sc := NewScope(ctx, p.entity)
	v := p.normalize(sc.Record(raw, dm.Value, dm.Presence))
	if err := sc.Err(); err != nil {
		return zero, err
	}
	if iss := runRules(ctx, v, dm.Presence, RequestInfo{Op: op}, p.rules); len(iss) > 0 {
		return zero, &InvariantError{Entity: p.entity, Issues: iss}
	}
	return v, nil
}

// RunFrom decodes a single JSON object from src and runs it.
func (p *Pipeline[T]) RunFrom(ctx context.Context, src Source, opts ...ParseOpt) (T, error) {
	var zero T
	v, err := Decode(src, opts...)
	if err != nil {
		return zero, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return zero, Issues{{Path: "/", Code: CodeInvalidType, Message: "expected object"}}
	}
	return p.Run(ctx, m)
}

// Validate runs only the raw schema.
func (p *Pipeline[T]) Validate(ctx context.Context, raw RawRecord) error {
	_, err := p.raw.Parse(ctx, raw)
	return err
}

// CheckValue evaluates the pipeline's invariants on an already built value.
func (p *Pipeline[T]) CheckValue(ctx context.Context, op Operation, v T) error {
	if iss := runRules(ctx, v, PresenceMap{"/": PresenceSeen}, RequestInfo{Op: op}, p.rules); len(iss) > 0 {
		return &InvariantError{Entity: p.entity, Issues: iss}
	}
	return nil
}

// JSONSchema describes the raw records the pipeline accepts.
func (p *Pipeline[T]) JSONSchema() (*js.Schema, error) { return p.raw.JSONSchema() }

// ID returns the record's "id" when it is a string, for reporting.
func ID(raw RawRecord) string {
	s, _ := raw["id"].(string)
	return s
}
