package rules

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	storeskema "github.com/kioskcart/storeskema"
)

// Op compares the value found at a path with a wanted value.
type Op int

const (
	Eq Op = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

// Conditional is a predicate over a normalized value, used to gate rules.
type Conditional[T any] struct {
	holds func(T) bool
}

// If holds when the value at path compares to want under op. path is a JSON
// Pointer over json names ("/status", "/items/0/quantity"); a path that does
// not resolve, or a nil pointer on the way, never holds.
func If[T any](path string, op Op, want any) Conditional[T] {
	p := rooted(path)
	return Conditional[T]{holds: func(v T) bool {
		cur, ok := lookup(v, p)
		return ok && op.apply(cur, want)
	}}
}

// IfAny holds when at least one of conds holds.
func IfAny[T any](conds ...Conditional[T]) Conditional[T] {
	return Conditional[T]{holds: func(v T) bool {
		for _, c := range conds {
			if c.holds(v) {
				return true
			}
		}
		return false
	}}
}

// Then runs rules, in order, only for values where c holds.
func (c Conditional[T]) Then(rules ...storeskema.Rule[T]) storeskema.Rule[T] {
	inner := All(rules...)
	return func(d storeskema.DomainCtx[T], v T) []storeskema.Issue {
		if c.holds == nil || !c.holds(v) {
			return nil
		}
		return inner(d, v)
	}
}

// AtLeastOne requires the slice at path to be non-empty.
func AtLeastOne[T any](path string) storeskema.Rule[T] {
	p := rooted(path)
	return func(d storeskema.DomainCtx[T], v T) []storeskema.Issue {
		n, ok := length(v, p)
		if !ok || n > 0 {
			return nil
		}
		return []storeskema.Issue{d.Ref.At(p).Issue(storeskema.CodeTooShort, "at least 1 item is required", "minItems", 1)}
	}
}

// UniqueBy requires the elements of the slice at path to carry distinct
// values at key, a path relative to each element ("id"). Keys are compared
// by their fmt rendering.
func UniqueBy[T any](path, key string) storeskema.Rule[T] {
	p := rooted(path)
	k := strings.TrimPrefix(key, "/")
	return func(d storeskema.DomainCtx[T], v T) []storeskema.Issue {
		coll, ok := lookup(v, p)
		if !ok {
			return nil
		}
		rv := reflect.ValueOf(coll)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil
		}
		var out []storeskema.Issue
		first := make(map[string]int, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			kv, ok := walk(rv.Index(i), k)
			if !ok {
				continue
			}
			s := fmt.Sprint(kv)
			if j, dup := first[s]; dup {
				out = append(out, d.Ref.At(p).Index(i).Field(k).Issue(storeskema.CodeUniqueness, "duplicate value", "first", j, "dup", i, "key", s))
				continue
			}
			first[s] = i
		}
		return out
	}
}

func rooted(p string) string {
	if p == "" || p == "/" {
		return "/"
	}
	return "/" + strings.TrimPrefix(p, "/")
}

func lookup(v any, pointer string) (any, bool) {
	return walk(reflect.ValueOf(v), strings.TrimPrefix(pointer, "/"))
}

func length(v any, pointer string) (int, bool) {
	x, ok := lookup(v, pointer)
	if !ok {
		return 0, false
	}
	rv := reflect.ValueOf(x)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return 0, false
	}
	return rv.Len(), true
}

// walk follows rel, a "/"-separated relative pointer, through structs (by
// json name), string-keyed maps and slices, dereferencing as it goes.
func walk(cur reflect.Value, rel string) (any, bool) {
	var segs []string
	if rel != "" {
		segs = strings.Split(rel, "/")
	}
	for _, seg := range segs {
		cur = deref(cur)
		if !cur.IsValid() {
			return nil, false
		}
		switch cur.Kind() {
		case reflect.Struct:
			cur = fieldByJSONName(cur, seg)
		case reflect.Map:
			cur = cur.MapIndex(reflect.ValueOf(seg))
		case reflect.Slice, reflect.Array:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= cur.Len() {
				return nil, false
			}
			cur = cur.Index(i)
		default:
			return nil, false
		}
	}
	cur = deref(cur)
	if !cur.IsValid() {
		return nil, false
	}
	return cur.Interface(), true
}

func deref(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func fieldByJSONName(rv reflect.Value, name string) reflect.Value {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		switch {
		case !sf.IsExported():
		case sf.Anonymous && sf.Type.Kind() == reflect.Struct:
			if f := fieldByJSONName(rv.Field(i), name); f.IsValid() {
				return f
			}
		case storeskema.ResolveStructKey(sf) == name:
			return rv.Field(i)
		}
	}
	return reflect.Value{}
}

func (op Op) apply(cur, want any) bool {
	switch op {
	case Eq:
		return reflect.DeepEqual(cur, want)
	case Ne:
		return !reflect.DeepEqual(cur, want)
	}
	a, ok := asFloat(cur)
	b, ok2 := asFloat(want)
	if !ok || !ok2 {
		return false
	}
	switch op {
	case Lt:
		return a < b
	case Le:
		return a <= b
	case Gt:
		return a > b
	case Ge:
		return a >= b
	}
	return false
}

func asFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch {
	case rv.CanInt():
		return float64(rv.Int()), true
	case rv.CanUint():
		return float64(rv.Uint()), true
	case rv.CanFloat():
		return rv.Float(), true
	}
	return 0, false
}
