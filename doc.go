// Package storeskema validates and normalizes storefront records read from a
// backend store before the rest of an application sees them.
//
// A Pipeline couples three stages:
//
//   - a raw schema (see package dsl) that checks the shape of the row and
//     reports every structural problem as Issues with JSON Pointer paths
//   - a normalize func that maps the validated row onto a domain struct via
//     Record accessors, applying defaults, trimming and canonical time format
//   - named invariant rules (see package rules) whose violations surface as
//     an *InvariantError matched by errors.Is(err, ErrInvariant)
//
// Recoverable conditions, such as a relation that did not resolve or
// unparseable metadata, never fail a record. They are reported as
// Diagnostics to the sink installed with WithDiagnostics.
//
// Typical usage:
//
//	p := storeskema.Define[Payment]("payment").
//		Raw(paymentRow).
//		Normalize(normalizePayment).
//		Check("total_matches", totalMatches).
//		MustBuild()
//
//	ctx = storeskema.WithClock(ctx, storeskema.FixedClock(now))
//	v, err := p.Run(ctx, row)
//
// Batches are handled by package batch; response shapes by package envelope.
package storeskema
