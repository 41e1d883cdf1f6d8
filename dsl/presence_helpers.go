package dsl

import (
	"strconv"

	storeskema "github.com/kioskcart/storeskema"
)

// mergePresence copies a child presence map under base. The child root entry
// is folded into base itself.
func mergePresence(pm, child storeskema.PresenceMap, base string) {
	for k, v := range child {
		if k == "/" || k == "" {
			pm[base] |= v
			continue
		}
		pm[base+k] |= v
	}
}

// markPresenceSubtree records presence bits for a value subtree under the given base JSON Pointer.
// It marks the base as seen, sets WasNull for nulls, and descends into maps and arrays.
func markPresenceSubtree(pm storeskema.PresenceMap, base string, v any) {
	if pm == nil {
		return
	}
	pm[base] |= storeskema.PresenceSeen
	switch t := v.(type) {
	case nil:
		pm[base] |= storeskema.PresenceWasNull
	case map[string]any:
		for k, val := range t {
			markPresenceSubtree(pm, storeskema.JoinPointer(base, k), val)
		}
	case []any:
		for i, val := range t {
			markPresenceSubtree(pm, base+"/"+strconv.Itoa(i), val)
		}
	}
}
