package rules

import (
	"math"
	"strconv"
	"strings"

	storeskema "github.com/kioskcart/storeskema"
	"github.com/kioskcart/storeskema/i18n"
)

// SumTolerance is the absolute difference under which two monetary amounts
// are considered equal: one cent.
const SumTolerance = 0.01

// Approx reports whether a and b differ by less than SumTolerance.
func Approx(a, b float64) bool { return math.Abs(a-b) < SumTolerance }

// Round2 rounds a monetary amount to cents.
func Round2(f float64) float64 { return math.Round(f*100) / 100 }

// Term is one named operand of a sum.
type Term struct {
	Name  string
	Value float64
}

// T is shorthand for Term{name, v}.
func T(name string, v float64) Term { return Term{Name: name, Value: v} }

// Sum checks total ≈ Σ terms and reports sum_mismatch at the total's pointer.
func Sum(totalPath string, total float64, terms ...Term) []storeskema.Issue {
	want := 0.0
	names := ""
	for i, t := range terms {
		want += t.Value
		if i > 0 {
			names += " + "
		}
		names += t.Name
	}
	if Approx(total, want) {
		return nil
	}
	p := normalizePath(totalPath)
	field := p[strings.LastIndexByte(p, '/')+1:]
	return []storeskema.Issue{{
		Path:    p,
		Code:    storeskema.CodeSumMismatch,
		Message: i18n.T(storeskema.CodeSumMismatch, map[string]string{"field": field}),
		Value:   total,
		Params: map[string]any{
			"expected":  Round2(want),
			"got":       total,
			"terms":     names,
			"tolerance": SumTolerance,
		},
	}}
}

// SumEquals builds a rule from a projection returning the total and its terms.
func SumEquals[T any](totalPath string, get func(T) (float64, []Term)) storeskema.Rule[T] {
	return func(d storeskema.DomainCtx[T], v T) []storeskema.Issue {
		total, terms := get(v)
		return Sum(totalPath, total, terms...)
	}
}

// MinAtMost checks min ≤ max when both bounds are set.
func MinAtMost[T any](minPath, maxPath string, get func(T) (min, max *int)) storeskema.Rule[T] {
	mp := normalizePath(minPath)
	return func(d storeskema.DomainCtx[T], v T) []storeskema.Issue {
		lo, hi := get(v)
		if lo == nil || hi == nil || *lo <= *hi {
			return nil
		}
		msg := i18n.T(storeskema.CodeDomainRange, map[string]string{"min": strconv.Itoa(*lo), "max": strconv.Itoa(*hi)})
		return []storeskema.Issue{d.Ref.At(mp).Issue(storeskema.CodeDomainRange, msg, "min", *lo, "max", *hi, "maxPath", normalizePath(maxPath))}
	}
}

// BulkFacts are the counters of a bulk operation result.
type BulkFacts struct {
	Success        bool
	Results        int
	TotalProcessed int
	SuccessCount   int
	ErrorCount     int
}

// CheckBulk verifies success + error = totalProcessed = len(results) and that
// the success flag is set exactly when nothing failed.
func CheckBulk(f BulkFacts) []storeskema.Issue {
	var out []storeskema.Issue
	add := func(path string, params map[string]any) {
		out = append(out, storeskema.IssueAt(path, storeskema.CodeCountMismatch, i18n.T(storeskema.CodeCountMismatch, nil), params))
	}
	if f.SuccessCount < 0 || f.ErrorCount < 0 {
		add("/successCount", map[string]any{"successCount": f.SuccessCount, "errorCount": f.ErrorCount})
	}
	if f.SuccessCount+f.ErrorCount != f.TotalProcessed {
		add("/totalProcessed", map[string]any{"expected": f.SuccessCount + f.ErrorCount, "got": f.TotalProcessed})
	}
	if f.Results != f.TotalProcessed {
		add("/results", map[string]any{"expected": f.TotalProcessed, "got": f.Results})
	}
	if f.Success != (f.ErrorCount == 0) {
		add("/success", map[string]any{"errorCount": f.ErrorCount, "got": f.Success})
	}
	return out
}

// BulkCounts builds a rule from a projection of bulk counters.
func BulkCounts[T any](get func(T) BulkFacts) storeskema.Rule[T] {
	return func(d storeskema.DomainCtx[T], v T) []storeskema.Issue { return CheckBulk(get(v)) }
}
