package storeskema

// UnknownPolicy controls how unknown keys are handled.
type UnknownPolicy int

const (
	UnknownStrict      UnknownPolicy = iota // Reject unknown keys with an error.
	UnknownStrip                            // Drop unknown keys.
	UnknownPassthrough                      // Preserve unknown keys (optionally storing them elsewhere).
)

// NumberMode dictates how JSON numbers are decoded.
type NumberMode int

const (
	NumberJSONNumber NumberMode = iota // Preserve json.Number (default).
	NumberFloat64                      // Decode to float64.
)

// Severity expresses the severity level for issues.
type Severity int

const (
	Ignore Severity = iota
	Warn
	Error
)

// Strictness configures enforcement for duplicate keys.
type Strictness struct {
	OnDuplicateKey Severity
}

// ParseOpt bundles JSON decoding options.
type ParseOpt struct {
	Strictness Strictness
	Numbers    NumberMode
	MaxDepth   int
	MaxBytes   int64
	FailFast   bool
}

// DefaultParseOpt rejects duplicate keys and documents nested deeper than 64 levels.
func DefaultParseOpt() ParseOpt {
	return ParseOpt{Strictness: Strictness{OnDuplicateKey: Error}, MaxDepth: 64}
}
