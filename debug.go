package storeskema

import "github.com/davecgh/go-spew/spew"

// DebugMetadata holds raw pre-normalization values of selected keys. It is a
// diagnostic side channel: business logic must never read it.
type DebugMetadata map[string]any

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	SortKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// Dump renders the captured values with sorted keys.
func (d DebugMetadata) Dump() string {
	if len(d) == 0 {
		return "(empty)\n"
	}
	return dumpConfig.Sdump(map[string]any(d))
}

// Raw returns the captured value for key and whether it was present in the input.
func (d DebugMetadata) Raw(key string) (any, bool) {
	v, ok := d[key]
	return v, ok
}
