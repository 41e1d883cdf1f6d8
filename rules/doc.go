// Package rules holds the cross-field business invariants evaluated on
// normalized values, and small combinators to compose them.
//
// Monetary sums are compared with SumTolerance; nothing else in the module
// compares amounts directly. Violations surface from a Pipeline as
// *storeskema.InvariantError, never as structural Issues.
package rules
