package storeskema

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	gojson "github.com/goccy/go-json"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// RawRecord is an untyped record keyed by persistence column names. A key
// holding nil is an explicit null; an absent key is a missing field.
type RawRecord = map[string]any

// TimeDefault selects what a null or missing timestamp becomes.
type TimeDefault uint8

const (
	// DefaultEmpty turns a null/missing timestamp into "".
	DefaultEmpty TimeDefault = iota
	// DefaultNow reads the Clock installed in the context. It is the only
	// non-deterministic default of the pipeline.
	DefaultNow
)

// Scope carries the state of one normalization call: the clock, the issues
// raised so far and diagnostic routing. A Scope is never shared between
// records.
type Scope struct {
	ctx    context.Context
	entity string
	clock  Clock
	index  int
	iss    Issues
	now    time.Time
}

// NewScope creates a Scope for entity. Pipelines create one per record; it is
// exported for normalizers exercised outside a Pipeline.
func NewScope(ctx context.Context, entity string) *Scope {
	return &Scope{ctx: ctx, entity: entity, clock: ClockFrom(ctx), index: RecordIndex(ctx)}
}

func (s *Scope) Context() context.Context { return s.ctx }
func (s *Scope) Entity() string           { return s.entity }

// Now returns the scope's current time as a canonical RFC3339 string. The
// clock is read once per scope so every DefaultNow field of a record agrees.
func (s *Scope) Now() string { return FormatTime(s.Instant()) }

// Instant returns the scope's current time.
func (s *Scope) Instant() time.Time {
	if s.now.IsZero() {
		s.now = s.clock.Now()
	}
	return s.now
}

// Report records a structural issue raised while normalizing.
func (s *Scope) Report(it Issue) { s.iss = AppendIssues(s.iss, it) }

// Issues returns the issues reported so far.
func (s *Scope) Issues() Issues { return s.iss }

// Err returns the reported issues as an error, or nil.
func (s *Scope) Err() error {
	if len(s.iss) == 0 {
		return nil
	}
	return s.iss
}

// Diagnose emits a non-fatal diagnostic tagged with the scope's entity and batch index.
func (s *Scope) Diagnose(kind DiagnosticKind, path, id, msg string, cause error) {
	Diagnose(s.ctx, Diagnostic{Kind: kind, Entity: s.entity, Path: path, ID: id, Index: s.index, Message: msg, Cause: cause})
}

// Record wraps a validated record. orig is the input exactly as received and
// feeds Capture; validated is the Raw Record Validator output.
func (s *Scope) Record(orig, validated RawRecord, pm PresenceMap) Record {
	if pm == nil {
		pm = PresenceMap{"/": PresenceSeen}
	}
	return Record{s: s, m: validated, orig: orig, pm: pm}
}

// Record gives three-state access to a validated raw record.
type Record struct {
	s    *Scope
	base string
	m    RawRecord
	orig RawRecord
	pm   PresenceMap
}

// Scope returns the owning scope.
func (r Record) Scope() *Scope { return r.s }

// Path returns the JSON Pointer of key within the top-level record.
func (r Record) Path(key string) string { return JoinPointer(r.base, key) }

// Presence returns the presence map of the top-level record.
func (r Record) Presence() PresenceMap { return r.pm }

// Has reports whether key is present (null included).
func (r Record) Has(key string) bool {
	_, ok := r.m[key]
	return ok
}

// ID returns the record id, or "" when absent.
func (r Record) ID() string { return r.Str("id").Or("") }

func (r Record) wrongType(path, want string, v any) {
	r.s.Report(Issue{Path: path, Code: CodeInvalidType, Message: "expected " + want, Value: v})
}

// Str reads a string field.
func (r Record) Str(key string) Opt[string] {
	v, ok := r.m[key]
	if !ok {
		return Missing[string]()
	}
	switch t := v.(type) {
	case nil:
		return Null[string]()
	case string:
		return Some(t)
	default:
		r.wrongType(r.Path(key), "string", v)
		return Missing[string]()
	}
}

// Float reads a numeric field as float64.
func (r Record) Float(key string) Opt[float64] {
	v, ok := r.m[key]
	if !ok {
		return Missing[float64]()
	}
	if v == nil {
		return Null[float64]()
	}
	f, ok := toFloat(v)
	if !ok {
		r.wrongType(r.Path(key), "number", v)
		return Missing[float64]()
	}
	return Some(f)
}

// Int reads an integer field.
func (r Record) Int(key string) Opt[int] {
	f := r.Float(key)
	v, ok := f.Get()
	if !ok {
		return Opt[int]{p: f.Presence()}
	}
	i, ok := IntOf(v)
	if !ok {
		r.wrongType(r.Path(key), "integer", v)
		return Missing[int]()
	}
	return Some(i)
}

// IntOf converts f to int, reporting false when f has a fraction or lies
// outside the range of int.
func IntOf(f float64) (int, bool) {
	if f != math.Trunc(f) || f < float64(math.MinInt) || f >= -float64(math.MinInt) {
		return 0, false
	}
	return int(f), true
}

// Bool reads a boolean field.
func (r Record) Bool(key string) Opt[bool] {
	v, ok := r.m[key]
	if !ok {
		return Missing[bool]()
	}
	switch t := v.(type) {
	case nil:
		return Null[bool]()
	case bool:
		return Some(t)
	default:
		r.wrongType(r.Path(key), "boolean", v)
		return Missing[bool]()
	}
}

// Strings reads an array of strings.
func (r Record) Strings(key string) Opt[[]string] {
	v, ok := r.m[key]
	if !ok {
		return Missing[[]string]()
	}
	switch t := v.(type) {
	case nil:
		return Null[[]string]()
	case []string:
		return Some(append([]string{}, t...))
	case []any:
		out := make([]string, 0, len(t))
		for i, e := range t {
			s, ok := e.(string)
			if !ok {
				r.wrongType(r.Path(key)+"/"+strconv.Itoa(i), "string", e)
				continue
			}
			out = append(out, s)
		}
		return Some(out)
	default:
		r.wrongType(r.Path(key), "array", v)
		return Missing[[]string]()
	}
}

// The ...Or accessors return def for null or missing fields.
func (r Record) StrOr(key, def string) string            { return r.Str(key).Or(def) }
func (r Record) FloatOr(key string, def float64) float64 { return r.Float(key).Or(def) }
func (r Record) IntOr(key string, def int) int           { return r.Int(key).Or(def) }
func (r Record) BoolOr(key string, def bool) bool        { return r.Bool(key).Or(def) }

// Ptr reads a string field keeping null/missing as nil.
func (r Record) Ptr(key string) *string { return r.Str(key).Ptr() }

// Name reads human-entered text: surrounding whitespace is trimmed and the
// result NFC-normalized before the emptiness check. Text that is empty after
// trimming is rejected. Null or missing yields "" unless required.
func (r Record) Name(key string, required bool) string {
	o := r.Str(key)
	v, ok := o.Get()
	if !ok {
		if required {
			r.s.Report(Issue{Path: r.Path(key), Code: CodeRequired, Message: "required property missing"})
		}
		return ""
	}
	t := norm.NFC.String(strings.TrimSpace(v))
	if t == "" {
		r.s.Report(Issue{Path: r.Path(key), Code: CodeEmptyAfterTrim, Message: "must not be empty", Value: v})
	}
	return t
}

// Email reads an identifier-like field: trimmed, then lower-cased.
func (r Record) Email(key string) string {
	v, ok := r.Str(key).Get()
	if !ok {
		return ""
	}
	return NormalizeEmail(v)
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(s string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(s))
}

// Time reads a timestamp string. Present values are kept verbatim; null or
// missing values follow def.
func (r Record) Time(key string, def TimeDefault) string {
	if v, ok := r.Str(key).Get(); ok {
		return v
	}
	if def == DefaultNow {
		r.s.Diagnose(DiagDefaultNow, r.Path(key), r.ID(), "timestamp defaulted to current time", nil)
		return r.s.Now()
	}
	return ""
}

// Object returns the nested record at key; ok is false for missing or null.
func (r Record) Object(key string) (Record, bool) {
	m, ok := r.m[key].(map[string]any)
	if !ok {
		return Record{}, false
	}
	orig, _ := r.orig[key].(map[string]any)
	return Record{s: r.s, base: r.Path(key), m: m, orig: orig, pm: r.pm}, true
}

// Objects returns the nested records of an array field.
func (r Record) Objects(key string) []Record {
	base := r.Path(key)
	var origs []any
	switch t := r.orig[key].(type) {
	case []any:
		origs = t
	case []map[string]any:
		for _, e := range t {
			origs = append(origs, e)
		}
	}
	at := func(i int) RawRecord {
		if i < len(origs) {
			m, _ := origs[i].(map[string]any)
			return m
		}
		return nil
	}
	var out []Record
	switch t := r.m[key].(type) {
	case []map[string]any:
		for i, m := range t {
			out = append(out, Record{s: r.s, base: base + "/" + strconv.Itoa(i), m: m, orig: at(i), pm: r.pm})
		}
	case []any:
		for i, e := range t {
			m, ok := e.(map[string]any)
			if !ok {
				r.wrongType(r.Path(key)+"/"+strconv.Itoa(i), "object", e)
				continue
			}
			out = append(out, Record{s: r.s, base: base + "/" + strconv.Itoa(i), m: m, orig: at(i), pm: r.pm})
		}
	}
	return out
}

// JSONObject reads auxiliary metadata stored either as an object or as
// JSON-encoded text. Anything that does not decode to an object degrades to
// an empty map and a metadata_parse diagnostic.
func (r Record) JSONObject(key string) map[string]any {
	switch t := r.m[key].(type) {
	case nil:
		return map[string]any{}
	case map[string]any:
		return cloneMap(t)
	case string:
		if strings.TrimSpace(t) == "" {
			return map[string]any{}
		}
		var out map[string]any
		if err := gojson.Unmarshal([]byte(t), &out); err != nil || out == nil {
			if err == nil {
				err = fmt.Errorf("metadata is not a JSON object")
			}
			r.s.Diagnose(DiagMetadataParse, r.Path(key), r.ID(), "metadata could not be parsed; using empty object", err)
			return map[string]any{}
		}
		return out
	default:
		r.s.Diagnose(DiagMetadataParse, r.Path(key), r.ID(), "metadata has unexpected type; using empty object", nil)
		return map[string]any{}
	}
}

// Capture copies the original values of keys into DebugMetadata, before any
// coercion or default. Nulls are kept; absent keys are omitted.
func (r Record) Capture(keys ...string) DebugMetadata {
	dm := make(DebugMetadata, len(keys))
	src := r.orig
	if src == nil {
		src = r.m
	}
	for _, k := range keys {
		if v, ok := src[k]; ok {
			dm[k] = cloneValue(v)
		}
	}
	return dm
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
