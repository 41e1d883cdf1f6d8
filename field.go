package storeskema

import (
	"reflect"
	"strings"
)

// PointerOf returns the JSON Pointer of the field of T addressed by selector,
// built from the fields' JSON names:
//
//	PointerOf(func(p *Payment) *float64 { return &p.Total }) // "/total"
//
// Nested struct fields are followed; pointer hops are not. It panics when
// selector does not address a field of T, so misuse shows up at package
// initialisation.
func PointerOf[T any, F any](selector func(*T) *F) string {
	return "/" + strings.Join(keysOf(selector), "/")
}

// FieldNameOf returns the JSON name of the top-level field of T addressed by
// selector.
func FieldNameOf[T any, F any](selector func(*T) *F) string {
	keys := keysOf(selector)
	if len(keys) != 1 {
		panic("storeskema.FieldNameOf: selector must address a top-level field")
	}
	return keys[0]
}

func keysOf[T any, F any](selector func(*T) *F) []string {
	if selector == nil {
		panic("storeskema.PointerOf: selector must not be nil")
	}
	var zero T
	target := reflect.ValueOf(selector(&zero))
	keys, ok := findPathKeys(reflect.ValueOf(&zero).Elem(), target.Pointer(), target.Type().Elem(), 0)
	if !ok || len(keys) == 0 {
		panic("storeskema.PointerOf: selector must address an exported struct field")
	}
	for i, k := range keys {
		keys[i] = escapePointer(k)
	}
	return keys
}

const _maxPathDepth = 32

// findPathKeys locates the field at address target with type ft. Embedded
// structs without a json tag are flattened as encoding/json does.
func findPathKeys(v reflect.Value, target uintptr, ft reflect.Type, depth int) ([]string, bool) {
	if depth > _maxPathDepth || v.Kind() != reflect.Struct {
		return nil, false
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		fv := v.Field(i)
		name := ResolveStructKey(sf)
		if fv.Addr().Pointer() == target && fv.Type() == ft {
			if name == "" || name == "-" {
				return nil, false
			}
			return []string{name}, true
		}
		if fv.Kind() != reflect.Struct {
			continue
		}
		rest, ok := findPathKeys(fv, target, ft, depth+1)
		if !ok {
			continue
		}
		if sf.Anonymous && sf.Tag.Get("json") == "" && sf.Tag.Get("storeskema") == "" {
			return rest, true
		}
		if name == "" || name == "-" {
			return nil, false
		}
		return append([]string{name}, rest...), true
	}
	return nil, false
}
