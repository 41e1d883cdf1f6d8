// Package dsl declares the raw record schemas that guard the normalization
// pipeline.
//
// Overview
//   - Builder API: declare record semantics (unknown/required/nullable/refine) with
//     Object()/Field()/Required()/UnknownStrip()/MustBuild().
//   - Primitives: String() with Trim/Lower/NonEmpty/Min/Max/Digits/Pattern/Email/URL/UUID/OneOf,
//     Number()/Int() with Min/Max, Bool(), Timestamp(), JSONText(), Any().
//   - Arrays: Array(elem)/ArrayOf(elem) with Min/Max; element issues are rebased under /<index>.
//   - AnyAdapter: adapt an existing Schema[T] (a nested object for instance) via SchemaOf[T](s).
//   - Presence: ParseWithMeta returns a JSON Pointer keyed map telling missing from null.
//
// No defaults are applied here. A schema only says whether a record is acceptable; defaults
// belong to the normalizer.
//
// File layout (roles)
//   - adapter.go: AnyAdapter, SchemaOf, Nullable, Sensitive.
//   - string.go / number.go / primitives.go: field coercion primitives.
//   - array.go: ArraySchema (Parse/Validate/JSONSchema).
//   - object_builder.go: objectBuilder/fieldStep and Build/MustBuild.
//   - object_core.go: objectSchema (Parse/ParseWithMeta/ValidateValue/JSONSchema).
//   - presence_helpers.go: presence merging for nested values.
//
// Example
//
//	pin := g.Object().
//	    Field("staff_id", g.String().NonEmpty()).Required().
//	    Field("pin", g.String().Digits(4).Label("PIN").Sensitive()).Required().
//	    UnknownStrict().
//	    MustBuild()
//	_, err := pin.Parse(ctx, map[string]any{"staff_id": "s1", "pin": "12a4"})
//	// err is Issues{{Path: "/pin", Code: "non_numeric", Message: "PIN must contain only numbers"}}
//
// JSON Schema output hints
//
//	// UnknownStrict => additionalProperties=false,
//	// UnknownStrip/UnknownPassthrough => additionalProperties=true
package dsl
