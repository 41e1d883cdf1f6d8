// Package envelope wraps pipeline results into the response shapes handed to
// callers: a success/failure union, paginated listings and bulk results.
package envelope

import (
	"bytes"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	storeskema "github.com/kioskcart/storeskema"
)

// Kind classifies a Failure.
type Kind string

const (
	KindStructural Kind = "validation"
	KindInvariant  Kind = "invariant"
	KindInternal   Kind = "internal"
)

// ErrMalformed is returned by Decode for envelopes that are neither a clean
// success nor a clean failure.
var ErrMalformed = errors.New("envelope: malformed response")

// Response is either a Success[T] or a Failure. No other implementation exists.
type Response[T any] interface {
	OK() bool
	response()
}

// Success carries a fully validated value.
type Success[T any] struct {
	Data    T
	Message string
}

func (Success[T]) OK() bool  { return true }
func (Success[T]) response()  {}

// FieldError is one validation failure rendered for clients.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// Failure carries an error and, for validation failures, the offending fields.
type Failure struct {
	Error            string
	Kind             Kind
	ValidationErrors []FieldError
	Message          string
}

func (Failure) OK() bool  { return false }
func (Failure) response() {}

// Err returns the failure as a Go error.
func (f Failure) Err() error {
	if f.Message != "" {
		return fmt.Errorf("%s: %s", f.Error, f.Message)
	}
	return errors.New(f.Error)
}

// From maps a pipeline result onto a Response. A non-nil err always yields a
// Failure; v is then ignored.
func From[T any](v T, err error) Response[T] {
	if err == nil {
		return Success[T]{Data: v}
	}
	return Fail(err)
}

// Fail builds the Failure describing err.
func Fail(err error) Failure {
	if ie, ok := storeskema.AsInvariant(err); ok {
		return Failure{Error: "business invariant violated", Kind: KindInvariant, ValidationErrors: FieldErrors(ie.Issues), Message: ie.Entity}
	}
	if iss, ok := storeskema.AsIssues(err); ok {
		return Failure{Error: "validation failed", Kind: KindStructural, ValidationErrors: FieldErrors(iss)}
	}
	return Failure{Error: err.Error(), Kind: KindInternal}
}

// FieldErrors converts issues into their client representation.
func FieldErrors(iss storeskema.Issues) []FieldError {
	if len(iss) == 0 {
		return nil
	}
	out := make([]FieldError, 0, len(iss))
	for _, it := range iss {
		out = append(out, FieldError{Field: it.Field(), Code: it.Code, Message: it.Message, Value: it.Value})
	}
	return out
}

type wire struct {
	Success          *bool           `json:"success"`
	Data             json.RawMessage `json:"data,omitempty"`
	Error            *string         `json:"error,omitempty"`
	Kind             Kind            `json:"kind,omitempty"`
	ValidationErrors []FieldError    `json:"validationErrors,omitempty"`
	Message          string          `json:"message,omitempty"`
}

func (s Success[T]) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(s.Data)
	if err != nil {
		return nil, err
	}
	ok := true
	return json.Marshal(wire{Success: &ok, Data: data, Message: s.Message})
}

func (f Failure) MarshalJSON() ([]byte, error) {
	ok := false
	e := f.Error
	return json.Marshal(wire{Success: &ok, Error: &e, Kind: f.Kind, ValidationErrors: f.ValidationErrors, Message: f.Message})
}

// Marshal renders r as JSON.
func Marshal[T any](r Response[T]) ([]byte, error) { return json.Marshal(r) }

// Decode parses an envelope produced by Marshal. Envelopes carrying both data
// and an error, or neither, are rejected with ErrMalformed.
func Decode[T any](b []byte) (Response[T], error) {
	var w wire
	if err := json.Unmarshal(b, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if w.Success == nil {
		return nil, fmt.Errorf("%w: success flag missing", ErrMalformed)
	}
	hasData := len(w.Data) > 0
	if *w.Success {
		if w.Error != nil || len(w.ValidationErrors) > 0 {
			return nil, fmt.Errorf("%w: success carries an error", ErrMalformed)
		}
		if !hasData {
			return nil, fmt.Errorf("%w: success without data", ErrMalformed)
		}
		var v T
		if err := json.Unmarshal(w.Data, &v); err != nil {
			return nil, fmt.Errorf("%w: data: %v", ErrMalformed, err)
		}
		return Success[T]{Data: v, Message: w.Message}, nil
	}
	if hasData && !bytes.Equal(bytes.TrimSpace(w.Data), []byte("null")) {
		return nil, fmt.Errorf("%w: failure carries data", ErrMalformed)
	}
	if w.Error == nil || *w.Error == "" {
		return nil, fmt.Errorf("%w: failure without error", ErrMalformed)
	}
	return Failure{Error: *w.Error, Kind: w.Kind, ValidationErrors: w.ValidationErrors, Message: w.Message}, nil
}
