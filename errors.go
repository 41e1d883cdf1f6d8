package storeskema

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType    = "invalid_type"
	CodeRequired       = "required"
	CodeUnknownKey     = "unknown_key"
	CodeDuplicateKey   = "duplicate_key"
	CodeTooSmall       = "too_small"
	CodeTooBig         = "too_big"
	CodeTooShort       = "too_short"
	CodeTooLong        = "too_long"
	CodePattern        = "pattern"
	CodeNonNumeric     = "non_numeric"
	CodeInvalidEnum    = "invalid_enum"
	CodeInvalidFormat  = "invalid_format"
	CodeEmptyAfterTrim = "empty_after_trim"
	CodeParseError     = "parse_error"
	CodeTruncated      = "truncated"
	CodeCustom         = "custom"
	// Cross-field passes (business semantics)
	CodeSumMismatch   = "sum_mismatch"
	CodePageMismatch  = "page_mismatch"
	CodeCountMismatch = "count_mismatch"
	CodeDomainRange   = "domain_range"
	CodeUniqueness    = "uniqueness"
	CodeBusinessRule  = "business_rule"
)

// Issue represents a single validation entry.
type Issue struct {
	Path    string // JSON Pointer (for example: /items/2/price).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: remediation hints, format names, etc.
	Cause   error  // Optional: underlying error.
	// Value is the offending input. It is left nil for fields marked sensitive.
	Value any
	// Params carries structured parameters (e.g., {"min":1, "max":10, "got":42})
	// for i18n and observability.
	Params map[string]any
	// Rule optionally records the rule name that produced this issue.
	Rule string
}

// Field renders Path as a dotted field identifier ("/items/0/qty" -> "items.0.qty").
func (it Issue) Field() string {
	p := strings.TrimPrefix(it.Path, "/")
	if p == "" {
		return ""
	}
	parts := strings.Split(p, "/")
	for i, s := range parts {
		parts[i] = strings.ReplaceAll(strings.ReplaceAll(s, "~1", "/"), "~0", "~")
	}
	return strings.Join(parts, ".")
}

// Issues is a collection of structural validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := min(n, maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. invalid_type at /path
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts structural Issues from an error using errors.As internally.
// Business invariant violations are not reported here; see AsInvariant.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// Rebase prefixes every issue path with base. Root-level paths collapse onto base.
func (iss Issues) Rebase(base string) Issues {
	if base == "" || base == "/" {
		return iss
	}
	out := make(Issues, 0, len(iss))
	for _, it := range iss {
		p := it.Path
		switch {
		case p == "" || p == "/":
			p = base
		case p[0] == '/':
			p = base + p
		default:
			p = base + "/" + p
		}
		it.Path = p
		out = append(out, it)
	}
	return out
}

// ErrInvariant is matched by errors.Is for every business invariant violation.
var ErrInvariant = errors.New("storeskema: business invariant violated")

// InvariantError reports cross-field consistency failures on an otherwise
// well-typed value. It is deliberately not an Issues value so callers can tell
// the two classes apart.
type InvariantError struct {
	Entity string
	Issues Issues
}

func (e *InvariantError) Error() string {
	if e.Entity == "" {
		return "invariant violated: " + e.Issues.Error()
	}
	return e.Entity + ": invariant violated: " + e.Issues.Error()
}

func (e *InvariantError) Is(target error) bool { return target == ErrInvariant }

// AsInvariant extracts an InvariantError from err.
func AsInvariant(err error) (*InvariantError, bool) {
	var ie *InvariantError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

func singleIssue(code, msg string) Issues { return Issues{Issue{Path: "/", Code: code, Message: msg}} }
