package storeskema

import "context"

// Operation indicates the high-level request intent for validation.
type Operation uint8

const (
	OpRead Operation = iota
	OpCreate
	OpUpdate
	OpPatch
)

// IsWrite reports whether op creates or changes a record.
func (op Operation) IsWrite() bool { return op != OpRead }

func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpPatch:
		return "patch"
	default:
		return "read"
	}
}

// RequestInfo carries request-scoped information affecting validation behavior.
type RequestInfo struct {
	Op Operation
}

// DomainCtx provides cross-field rules with execution context, presence and request info.
type DomainCtx[T any] struct {
	Ctx      context.Context
	Presence PresenceMap
	Req      RequestInfo
	Ref      Ref // Provided by the runner; safe to use for building paths and issues.
}

// Rule is a cross-field check over a normalized value. It reports violations
// as issues; an empty result means the value satisfies the rule.
type Rule[T any] func(DomainCtx[T], T) []Issue

type namedRule[T any] struct {
	name string
	fn   Rule[T]
}

// runRules executes rules in registration order and stamps each issue with
// the rule name.
func runRules[T any](ctx context.Context, v T, pres PresenceMap, req RequestInfo, rules []namedRule[T]) Issues {
	var iss Issues
	dctx := DomainCtx[T]{Ctx: ctx, Presence: pres, Req: req, Ref: NewRef(pres)}
	for _, r := range rules {
		out := r.fn(dctx, v)
		for _, it := range out {
			if it.Rule == "" {
				it.Rule = r.name
			}
			if it.Params == nil {
				it.Params = map[string]any{"rule": it.Rule}
			} else if _, ok := it.Params["rule"]; !ok {
				it.Params["rule"] = it.Rule
			}
			iss = AppendIssues(iss, it)
		}
		if len(iss) > 0 && IsFailFast(ctx) {
			return iss
		}
	}
	return iss
}

// Check runs rules against an already normalized value read from the store.
// Violations are returned as an *InvariantError.
func Check[T any](ctx context.Context, v T, rules ...Rule[T]) error {
	return CheckFor(ctx, OpRead, v, rules...)
}

// CheckFor is Check for a specific request operation; write-only rules run
// for OpCreate, OpUpdate and OpPatch.
func CheckFor[T any](ctx context.Context, op Operation, v T, rules ...Rule[T]) error {
	nr := make([]namedRule[T], 0, len(rules))
	for _, r := range rules {
		if r != nil {
			nr = append(nr, namedRule[T]{fn: r})
		}
	}
	if iss := runRules(ctx, v, PresenceMap{"/": PresenceSeen}, RequestInfo{Op: op}, nr); len(iss) > 0 {
		return &InvariantError{Issues: iss}
	}
	return nil
}
