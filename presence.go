package storeskema

import gojson "github.com/goccy/go-json"

// Presence is the bit flag collected while validating a raw record.
type Presence uint8

const (
	PresenceSeen           Presence = 1 << iota // Field appeared in the input.
	PresenceWasNull                             // Field value was null.
	PresenceDefaultApplied                      // Default value was applied.
)

// PresenceMap maps JSON Pointers to Presence flags.
type PresenceMap map[string]Presence

// Decoded carries the parsed value along with presence metadata.
type Decoded[T any] struct {
	Value    T
	Presence PresenceMap
}

// Seen reports whether the pointer appeared in the input (null included).
func (pm PresenceMap) Seen(p string) bool { return pm[p]&PresenceSeen != 0 }

// Null reports whether the pointer appeared with an explicit null.
func (pm PresenceMap) Null(p string) bool { return pm[p]&PresenceWasNull != 0 }

// Opt is a three-state field value: missing, explicit null, or a value.
type Opt[T any] struct {
	v T
	p Presence
}

// Missing returns an Opt for an absent field.
func Missing[T any]() Opt[T] { return Opt[T]{} }

// Null returns an Opt for a field present with an explicit null.
func Null[T any]() Opt[T] { return Opt[T]{p: PresenceSeen | PresenceWasNull} }

// Some returns an Opt holding v.
func Some[T any](v T) Opt[T] { return Opt[T]{v: v, p: PresenceSeen} }

func (o Opt[T]) IsMissing() bool { return o.p&PresenceSeen == 0 }
func (o Opt[T]) IsNull() bool    { return o.p&PresenceWasNull != 0 }

// IsSet reports whether a non-null value is held.
func (o Opt[T]) IsSet() bool { return o.p&PresenceSeen != 0 && o.p&PresenceWasNull == 0 }

// Presence exposes the flags backing the Opt.
func (o Opt[T]) Presence() Presence { return o.p }

// Get returns the held value and whether one is set.
func (o Opt[T]) Get() (T, bool) { return o.v, o.IsSet() }

// Or returns the held value, or def when the field was missing or null.
func (o Opt[T]) Or(def T) T {
	if o.IsSet() {
		return o.v
	}
	return def
}

// Ptr returns a pointer to a copy of the value, or nil for missing/null.
func (o Opt[T]) Ptr() *T {
	if !o.IsSet() {
		return nil
	}
	v := o.v
	return &v
}

// MarshalJSON encodes a set value as itself and missing or null as null.
func (o Opt[T]) MarshalJSON() ([]byte, error) {
	if !o.IsSet() {
		return []byte("null"), nil
	}
	return gojson.Marshal(o.v)
}

// IsZero reports a missing value, for omitzero.
func (o Opt[T]) IsZero() bool { return o.IsMissing() }
