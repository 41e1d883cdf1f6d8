package storeskema

import (
	"reflect"
	"strings"
)

// ResolveStructKey resolves the external key of a struct field as seen by
// rules and PresenceMap paths.
// Priority: storeskema:"name=..." > json tag name > field name; "-" disables the field.
func ResolveStructKey(sf reflect.StructField) string {
	if st := sf.Tag.Get("storeskema"); st != "" {
		for _, p := range strings.Split(st, ",") {
			if name, ok := strings.CutPrefix(strings.TrimSpace(p), "name="); ok {
				return name
			}
		}
	}
	if jt := sf.Tag.Get("json"); jt != "" {
		if jt == "-" {
			return "-"
		}
		if i := strings.IndexByte(jt, ','); i >= 0 {
			if i == 0 {
				return sf.Name
			}
			return jt[:i]
		}
		return jt
	}
	return sf.Name
}
