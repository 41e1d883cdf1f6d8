package dsl

import (
	"context"
	"sort"

	storeskema "github.com/kioskcart/storeskema"
)

type objectBuilder struct {
	fields        map[string]AnyAdapter
	required      map[string]struct{}
	unknownPolicy storeskema.UnknownPolicy
	unknownTarget string
	refines       []objRefine
	title         string
}

type fieldStep struct {
	b    *objectBuilder
	name string
}

// Object creates a new object builder with safe defaults (UnknownStrict).
func Object() *objectBuilder {
	return &objectBuilder{
		fields:        map[string]AnyAdapter{},
		required:      map[string]struct{}{},
		unknownPolicy: storeskema.UnknownStrict,
	}
}

// Field registers a field with its adapter. Fields are optional until
// Required is called.
func (b *objectBuilder) Field(name string, ad Adapter) *fieldStep {
	b.fields[name] = ad.Adapt()
	return &fieldStep{b: b, name: name}
}

// Required marks the field as required: present and not null.
func (f *fieldStep) Required() *objectBuilder {
	f.b.required[f.name] = struct{}{}
	return f.b
}

// Optional marks the field as optional (default) and returns the builder.
func (f *fieldStep) Optional() *objectBuilder {
	delete(f.b.required, f.name)
	return f.b
}

func (f *fieldStep) Field(name string, ad Adapter) *fieldStep { return f.b.Field(name, ad) }
func (f *fieldStep) Require(names ...string) *objectBuilder   { return f.b.Require(names...) }
func (f *fieldStep) UnknownStrict() *objectBuilder            { return f.b.UnknownStrict() }
func (f *fieldStep) UnknownStrip() *objectBuilder             { return f.b.UnknownStrip() }
func (f *fieldStep) UnknownPassthrough(target string) *objectBuilder {
	return f.b.UnknownPassthrough(target)
}
func (f *fieldStep) Refine(name string, fn func(context.Context, map[string]any) error) *objectBuilder {
	return f.b.Refine(name, fn)
}
func (f *fieldStep) Build() (storeskema.Schema[map[string]any], error) { return f.b.Build() }
func (f *fieldStep) MustBuild() storeskema.Schema[map[string]any]      { return f.b.MustBuild() }

// Require marks one or more fields as required.
func (b *objectBuilder) Require(names ...string) *objectBuilder {
	for _, n := range names {
		b.required[n] = struct{}{}
	}
	return b
}

// Title names the object in JSON Schema output.
func (b *objectBuilder) Title(t string) *objectBuilder {
	b.title = t
	return b
}

// UnknownStrict sets unknown policy to Strict.
func (b *objectBuilder) UnknownStrict() *objectBuilder {
	b.unknownPolicy = storeskema.UnknownStrict
	b.unknownTarget = ""
	return b
}

// UnknownStrip sets unknown policy to Strip.
func (b *objectBuilder) UnknownStrip() *objectBuilder {
	b.unknownPolicy = storeskema.UnknownStrip
	b.unknownTarget = ""
	return b
}

// UnknownPassthrough keeps unknown keys, collected as a map under target.
func (b *objectBuilder) UnknownPassthrough(target string) *objectBuilder {
	b.unknownPolicy = storeskema.UnknownPassthrough
	b.unknownTarget = target
	return b
}

// Refine adds an object-level check executed after every field parsed.
func (b *objectBuilder) Refine(name string, fn func(context.Context, map[string]any) error) *objectBuilder {
	if fn == nil {
		return b
	}
	b.refines = append(b.refines, objRefine{name: name, fn: fn})
	return b
}

// Build validates the builder and returns a Schema.
func (b *objectBuilder) Build() (storeskema.Schema[map[string]any], error) {
	if b.unknownPolicy == storeskema.UnknownPassthrough {
		if b.unknownTarget == "" {
			return nil, storeskema.Issues{{Path: "/", Code: storeskema.CodeParseError, Message: "unknown target missing for passthrough"}}
		}
		if _, clash := b.fields[b.unknownTarget]; clash {
			return nil, storeskema.Issues{{Path: storeskema.JoinPointer("", b.unknownTarget), Code: storeskema.CodeParseError, Message: "unknown target collides with a declared field"}}
		}
	}
	for k := range b.required {
		if _, ok := b.fields[k]; !ok {
			return nil, storeskema.Issues{{Path: storeskema.JoinPointer("", k), Code: storeskema.CodeParseError, Message: "required field is not declared"}}
		}
	}
	// cache sorted keys for deterministic order without per-parse sorting
	kfs := make([]string, 0, len(b.fields))
	for k := range b.fields {
		kfs = append(kfs, k)
	}
	sort.Strings(kfs)
	fields := make(map[string]AnyAdapter, len(b.fields))
	for k, v := range b.fields {
		fields[k] = v
	}
	required := make(map[string]struct{}, len(b.required))
	for k := range b.required {
		required[k] = struct{}{}
	}
	return &objectSchema{
		fields:        fields,
		required:      required,
		unknownPolicy: b.unknownPolicy,
		unknownTarget: b.unknownTarget,
		refines:       append([]objRefine(nil), b.refines...),
		sortedKeys:    kfs,
		title:         b.title,
	}, nil
}

// MustBuild is like Build but panics on error.
func (b *objectBuilder) MustBuild() storeskema.Schema[map[string]any] {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}
