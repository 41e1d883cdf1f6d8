package rules

import storeskema "github.com/kioskcart/storeskema"

// All executes every rule and concatenates the issues. Under fail-fast it
// stops at the first rule reporting anything.
func All[T any](rules ...storeskema.Rule[T]) storeskema.Rule[T] {
	return func(d storeskema.DomainCtx[T], v T) []storeskema.Issue {
		var out []storeskema.Issue
		for _, r := range rules {
			if r == nil {
				continue
			}
			if iss := r(d, v); len(iss) > 0 {
				out = append(out, iss...)
				if storeskema.IsFailFast(d.Ctx) {
					return out
				}
			}
		}
		return out
	}
}

// OnWrite runs r only for requests that create or change a record.
func OnWrite[T any](r storeskema.Rule[T]) storeskema.Rule[T] {
	return func(d storeskema.DomainCtx[T], v T) []storeskema.Issue {
		if !d.Req.Op.IsWrite() {
			return nil
		}
		return r(d, v)
	}
}
