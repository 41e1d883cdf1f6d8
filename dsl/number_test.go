package dsl_test

import (
	"context"
	"encoding/json"
	"testing"

	storeskema "github.com/kioskcart/storeskema"
	g "github.com/kioskcart/storeskema/dsl"
)

func TestNumber_AcceptsNumericKinds(t *testing.T) {
	ctx := context.Background()
	s := g.Number().Min(0)
	for _, in := range []any{json.Number("12.5"), 12.5, float32(12.5)} {
		v, err := s.Parse(ctx, in)
		if err != nil || v != 12.5 {
			t.Fatalf("%T: got v=%v err=%v", in, v, err)
		}
	}
	if v, err := s.Parse(ctx, int64(3)); err != nil || v != 3 {
		t.Fatalf("int64: got v=%v err=%v", v, err)
	}
}

func TestNumber_StringOnlyWithCoerce(t *testing.T) {
	ctx := context.Background()
	if _, err := g.Number().Parse(ctx, "12.50"); err == nil {
		t.Fatalf("string accepted without coercion")
	}
	v, err := g.Number().CoerceFromString().Parse(ctx, " 12.50 ")
	if err != nil || v != 12.5 {
		t.Fatalf("got v=%v err=%v", v, err)
	}
}

func TestNumber_Bounds(t *testing.T) {
	ctx := context.Background()
	_, err := g.Number().Min(0).Parse(ctx, -1)
	if it := firstIssue(t, err); it.Code != storeskema.CodeTooSmall || it.Params["min"] != "0" {
		t.Fatalf("expected too_small with min param, got %+v", it)
	}
	_, err = g.Number().Max(10).Parse(ctx, 11)
	if it := firstIssue(t, err); it.Code != storeskema.CodeTooBig {
		t.Fatalf("expected too_big, got %+v", it)
	}
}

func TestInt(t *testing.T) {
	ctx := context.Background()
	s := g.Int().Min(1)
	v, err := s.Parse(ctx, json.Number("3"))
	if err != nil || v != 3 {
		t.Fatalf("got v=%v err=%v", v, err)
	}
	if _, err := s.Parse(ctx, 2.5); err == nil {
		t.Fatalf("fraction accepted")
	}
	if _, err := s.Parse(ctx, 0); err == nil {
		t.Fatalf("below minimum accepted")
	}
	sch, _ := s.JSONSchema()
	if sch.Type != "integer" || sch.Minimum == nil || *sch.Minimum != 1 {
		t.Fatalf("unexpected schema: %+v", sch)
	}
}

func TestTimestampAndJSONText(t *testing.T) {
	ctx := context.Background()
	obj := g.Object().
		Field("created_at", g.Timestamp()).
		Field("metadata", g.JSONText().Nullable()).
		UnknownStrict().
		MustBuild()

	if _, err := obj.Parse(ctx, map[string]any{"created_at": "2024-01-02T03:04:05Z", "metadata": `{"a":1}`}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := obj.Parse(ctx, map[string]any{"created_at": "2024-01-02 03:04:05+00", "metadata": nil}); err != nil {
		t.Fatalf("postgres timestamp rejected: %v", err)
	}
	_, err := obj.Parse(ctx, map[string]any{"created_at": "soon", "metadata": 5})
	iss, _ := storeskema.AsIssues(err)
	if len(iss) != 2 || iss[0].Path != "/created_at" || iss[1].Path != "/metadata" {
		t.Fatalf("expected two issues in key order, got %v", iss)
	}
}

func TestInt_RejectsOutOfRange(t *testing.T) {
	ctx := context.Background()
	s := g.Int().Min(0)
	if it := firstIssue(t, parseErr(s.Parse(ctx, 1e20))); it.Code != storeskema.CodeTooBig {
		t.Fatalf("1e20: got %+v", it)
	}
	if it := firstIssue(t, parseErr(g.Int().Parse(ctx, -1e20))); it.Code != storeskema.CodeTooSmall {
		t.Fatalf("-1e20: got %+v", it)
	}
	if it := firstIssue(t, parseErr(s.Parse(ctx, json.Number("9223372036854775808")))); it.Code != storeskema.CodeTooBig {
		t.Fatalf("2^63: got %+v", it)
	}
	if v, err := s.Parse(ctx, json.Number("4503599627370496")); err != nil || v != 4503599627370496 {
		t.Fatalf("2^52: got v=%v err=%v", v, err)
	}
}

func parseErr[T any](_ T, err error) error { return err }
