package dsl

import (
	"context"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	storeskema "github.com/kioskcart/storeskema"
	js "github.com/kioskcart/storeskema/jsonschema"
)

type stringFormat string

const (
	formatNone  stringFormat = ""
	formatEmail stringFormat = "email"
	formatURL   stringFormat = "uri"
	formatUUID  stringFormat = "uuid"
)

// StringBuilder is a string schema with chainable transforms and checks.
// Transforms (Trim, Lower) run before any check, so checks see the
// normalized candidate.
type StringBuilder struct {
	trim      bool
	lower     bool
	nonEmpty  bool
	minLen    int
	maxLen    int
	digits    int
	pattern   *regexp.Regexp
	patName   string
	format    stringFormat
	enum      []string
	label     string
	sensitive bool
}

var _ storeskema.Schema[string] = (*StringBuilder)(nil)

// String returns a string schema with no constraints.
func String() *StringBuilder { return &StringBuilder{minLen: -1, maxLen: -1} }

// Trim strips surrounding whitespace before checks.
func (b *StringBuilder) Trim() *StringBuilder { b.trim = true; return b }

// Lower lower-cases the value before checks.
func (b *StringBuilder) Lower() *StringBuilder { b.lower = true; return b }

// NonEmpty rejects "" (after Trim when set).
func (b *StringBuilder) NonEmpty() *StringBuilder { b.nonEmpty = true; return b }

// Min sets the minimum length in characters.
func (b *StringBuilder) Min(n int) *StringBuilder { b.minLen = n; return b }

// Max sets the maximum length in characters.
func (b *StringBuilder) Max(n int) *StringBuilder { b.maxLen = n; return b }

// Digits requires exactly n ASCII digits. A wrong length and a non-digit
// character are reported as separate issues.
func (b *StringBuilder) Digits(n int) *StringBuilder { b.digits = n; return b }

// Pattern requires a regular expression match; name is used in messages.
func (b *StringBuilder) Pattern(re *regexp.Regexp, name string) *StringBuilder {
	b.pattern, b.patName = re, name
	return b
}

// Email requires an email address.
func (b *StringBuilder) Email() *StringBuilder { b.format = formatEmail; return b }

// URL requires an absolute http(s) URL.
func (b *StringBuilder) URL() *StringBuilder { b.format = formatURL; return b }

// UUID requires a UUID in canonical or braced form.
func (b *StringBuilder) UUID() *StringBuilder { b.format = formatUUID; return b }

// OneOf restricts the value to a closed set.
func (b *StringBuilder) OneOf(values ...string) *StringBuilder {
	b.enum = append([]string(nil), values...)
	return b
}

// Label prefixes issue messages, e.g. "PIN must be exactly 4 digits".
func (b *StringBuilder) Label(name string) *StringBuilder { b.label = name; return b }

// Sensitive withholds the offending value from issues.
func (b *StringBuilder) Sensitive() *StringBuilder { b.sensitive = true; return b }

// Adapt implements Adapter.
func (b *StringBuilder) Adapt() AnyAdapter {
	ad := SchemaOf[string](b)
	ad.sensitive = b.sensitive
	return ad
}

// Nullable is shorthand for Nullable(b).
func (b *StringBuilder) Nullable() AnyAdapter { return Nullable(b) }

func (b *StringBuilder) transform(s string) string {
	if b.trim {
		s = strings.TrimSpace(s)
	}
	if b.lower {
		s = cases.Lower(language.Und).String(s)
	}
	return s
}

func (b *StringBuilder) Parse(ctx context.Context, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", storeskema.Issues{b.issue(storeskema.CodeInvalidType, "invalid_type", nil, v)}
	}
	s = b.transform(s)
	if err := b.check(ctx, s, v); err != nil {
		return "", err
	}
	return s, nil
}

func (b *StringBuilder) ParseWithMeta(ctx context.Context, v any) (storeskema.Decoded[string], error) {
	s, err := b.Parse(ctx, v)
	return storeskema.Decoded[string]{Value: s, Presence: storeskema.PresenceMap{"/": storeskema.PresenceSeen}}, err
}

func (b *StringBuilder) ValidateValue(ctx context.Context, s string) error { return b.check(ctx, s, s) }

func (b *StringBuilder) check(ctx context.Context, s string, orig any) error {
	var iss storeskema.Issues
	add := func(it storeskema.Issue) bool {
		iss = storeskema.AppendIssues(iss, it)
		return storeskema.IsFailFast(ctx)
	}
	if b.nonEmpty && s == "" {
		code, key := storeskema.CodeTooShort, "too_short"
		if b.trim {
			code, key = storeskema.CodeEmptyAfterTrim, "empty_after_trim"
		}
		if add(b.issue(code, key, map[string]string{"min": "1"}, orig)) {
			return iss
		}
	}
	n := utf8.RuneCountInString(s)
	if b.minLen >= 0 && n < b.minLen {
		if add(b.issue(storeskema.CodeTooShort, "too_short", map[string]string{"min": strconv.Itoa(b.minLen)}, orig)) {
			return iss
		}
	}
	if b.maxLen >= 0 && n > b.maxLen {
		if add(b.issue(storeskema.CodeTooLong, "too_long", map[string]string{"max": strconv.Itoa(b.maxLen)}, orig)) {
			return iss
		}
	}
	if b.digits > 0 {
		data := map[string]string{"n": strconv.Itoa(b.digits)}
		switch {
		case n < b.digits:
			if add(b.issue(storeskema.CodeTooShort, "exact_digits", data, orig)) {
				return iss
			}
		case n > b.digits:
			if add(b.issue(storeskema.CodeTooLong, "exact_digits", data, orig)) {
				return iss
			}
		}
		if !allDigits(s) {
			if add(b.issue(storeskema.CodeNonNumeric, "non_numeric", nil, orig)) {
				return iss
			}
		}
	}
	if b.pattern != nil && !b.pattern.MatchString(s) {
		name := b.patName
		if name == "" {
			name = b.pattern.String()
		}
		if add(b.issue(storeskema.CodePattern, "pattern", map[string]string{"pattern": name}, orig)) {
			return iss
		}
	}
	if b.format != formatNone && s != "" && !b.formatOK(s) {
		if add(b.issue(storeskema.CodeInvalidFormat, "invalid_format", map[string]string{"format": string(b.format)}, orig)) {
			return iss
		}
	}
	if len(b.enum) > 0 && !slices.Contains(b.enum, s) {
		if add(b.issue(storeskema.CodeInvalidEnum, "invalid_enum", map[string]string{"values": strings.Join(b.enum, ", ")}, orig)) {
			return iss
		}
	}
	if len(iss) > 0 {
		return iss
	}
	return nil
}

func (b *StringBuilder) formatOK(s string) bool {
	switch b.format {
	case formatEmail:
		return govalidator.IsEmail(s)
	case formatURL:
		return govalidator.IsURL(s) && (strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://"))
	case formatUUID:
		_, err := uuid.Parse(s)
		return err == nil
	}
	return true
}

func (b *StringBuilder) issue(code, key string, data map[string]string, v any) storeskema.Issue {
	it := newIssue(code, key, data, b.label, v)
	if b.sensitive {
		it.Value = nil
	}
	return it
}

func (b *StringBuilder) JSONSchema() (*js.Schema, error) {
	s := &js.Schema{Type: "string", Format: string(b.format)}
	if b.minLen >= 0 {
		n := b.minLen
		s.MinLength = &n
	}
	if b.nonEmpty && s.MinLength == nil {
		n := 1
		s.MinLength = &n
	}
	if b.maxLen >= 0 {
		n := b.maxLen
		s.MaxLength = &n
	}
	if b.digits > 0 {
		s.Pattern = "^[0-9]{" + strconv.Itoa(b.digits) + "}$"
	} else if b.pattern != nil {
		s.Pattern = b.pattern.String()
	}
	for _, e := range b.enum {
		s.Enum = append(s.Enum, e)
	}
	return s, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
