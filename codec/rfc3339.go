// Package codec converts wire representations into domain values and back.
package codec

import (
	"context"
	"time"

	storeskema "github.com/kioskcart/storeskema"
)

// Timestamp returns a Codec between timestamp strings and time.Time. Decode
// accepts RFC3339 (with optional fraction) and Postgres text timestamps;
// Encode always emits UTC RFC3339.
func Timestamp() storeskema.Codec[string, time.Time] { return timestampCodec{} }

type timestampCodec struct{}

func (timestampCodec) Decode(ctx context.Context, a string) (time.Time, error) {
	t, err := storeskema.ParseTime(a)
	if err != nil {
		return time.Time{}, storeskema.Issues{{Path: "/", Code: storeskema.CodeInvalidFormat, Message: "invalid RFC3339 time", Value: a, Cause: err}}
	}
	return t, nil
}

func (timestampCodec) Encode(ctx context.Context, b time.Time) (string, error) {
	if b.IsZero() {
		return "", storeskema.Issues{{Path: "/", Code: storeskema.CodeInvalidType, Message: "cannot encode zero time"}}
	}
	return storeskema.FormatTime(b), nil
}

// Canonical re-renders a timestamp string in canonical UTC form.
func Canonical(ctx context.Context, s string) (string, error) {
	c := Timestamp()
	t, err := c.Decode(ctx, s)
	if err != nil {
		return "", err
	}
	return c.Encode(ctx, t)
}
