package storeskema_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	storeskema "github.com/kioskcart/storeskema"
	g "github.com/kioskcart/storeskema/dsl"
)

func TestDecodeRecords_ArrayAndStream(t *testing.T) {
	for name, in := range map[string]string{
		"array":  `[{"id":"a"},{"id":"b","qty":2}]`,
		"stream": "{\"id\":\"a\"}\n{\"id\":\"b\",\"qty\":2}\n",
	} {
		t.Run(name, func(t *testing.T) {
			recs, err := storeskema.DecodeRecords(storeskema.JSONBytes([]byte(in)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(recs) != 2 || recs[0]["id"] != "a" {
				t.Fatalf("unexpected records: %v", recs)
			}
			if n, ok := recs[1]["qty"].(json.Number); !ok || n.String() != "2" {
				t.Fatalf("numbers must stay json.Number, got %T", recs[1]["qty"])
			}
		})
	}
}

func TestDecodeRecords_NonObjectElement(t *testing.T) {
	recs, err := storeskema.DecodeRecords(storeskema.JSONBytes([]byte(`[{"id":"a"},3,{"id":"c"}]`)))
	iss, ok := storeskema.AsIssues(err)
	if !ok || len(iss) != 1 || iss[0].Path != "/1" || iss[0].Code != storeskema.CodeInvalidType {
		t.Fatalf("expected invalid_type at /1, got %v", err)
	}
	if len(recs) != 3 || recs[1] != nil {
		t.Fatalf("positions must be kept: %v", recs)
	}
}

func TestDecode_KeepsExplicitNull(t *testing.T) {
	v, err := storeskema.Decode(storeskema.JSONBytes([]byte(`{"a":null}`)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := v.(map[string]any)
	if x, ok := m["a"]; !ok || x != nil {
		t.Fatalf("null must be kept as a nil value, got %v (present=%v)", x, ok)
	}
}

func TestDecode_DuplicateKey(t *testing.T) {
	tests := []struct {
		in   string
		path string
	}{
		{`{"a":1,"a":2}`, "/a"},
		{`[{"a":1,"a":2}]`, "/0/a"},
		{`{"x":{"b":1,"b":2}}`, "/x/b"},
	}
	for _, tt := range tests {
		_, err := storeskema.Decode(storeskema.JSONBytes([]byte(tt.in)))
		iss, ok := storeskema.AsIssues(err)
		if !ok || len(iss) == 0 {
			t.Fatalf("%s: expected issues, got %v", tt.in, err)
		}
		if iss[0].Code != storeskema.CodeDuplicateKey || iss[0].Path != tt.path {
			t.Fatalf("%s: got %s at %s", tt.in, iss[0].Code, iss[0].Path)
		}
	}

	opt := storeskema.ParseOpt{Strictness: storeskema.Strictness{OnDuplicateKey: storeskema.Ignore}}
	if _, err := storeskema.Decode(storeskema.JSONBytes([]byte(`{"a":1,"a":2}`)), opt); err != nil {
		t.Fatalf("duplicates are allowed when ignored: %v", err)
	}
}

func TestDecode_MaxDepth(t *testing.T) {
	opt := storeskema.DefaultParseOpt()
	opt.MaxDepth = 2
	_, err := storeskema.Decode(storeskema.JSONBytes([]byte(`{"a":{"b":{"c":1}}}`)), opt)
	if _, ok := storeskema.AsIssues(err); !ok {
		t.Fatalf("expected depth issue, got %v", err)
	}
}

func TestDecode_Truncated(t *testing.T) {
	_, err := storeskema.Decode(storeskema.JSONBytes([]byte(`{"a":`)))
	iss, ok := storeskema.AsIssues(err)
	if !ok || iss[0].Code != storeskema.CodeParseError {
		t.Fatalf("expected parse_error, got %v", err)
	}
}

func itemSchema() storeskema.Schema[map[string]any] {
	return g.Object().
		Field("id", g.String()).Required().
		Field("email", g.String().Email()).Required().
		UnknownStrict().
		MustBuild()
}

func TestParseFrom_CollectVsFailFast(t *testing.T) {
	ctx := context.Background()
	in := []byte(`{"email": 1, "zzz": true}`)

	_, err := storeskema.ParseFrom(ctx, itemSchema(), storeskema.JSONBytes(in))
	var iss storeskema.Issues
	if !errors.As(err, &iss) {
		t.Fatalf("expected Issues, got %v", err)
	}
	if len(iss) != 3 {
		t.Fatalf("expected every issue to be collected, got %v", iss)
	}
	if errors.Is(err, storeskema.ErrInvariant) {
		t.Fatal("structural issues must not match ErrInvariant")
	}

	opt := storeskema.DefaultParseOpt()
	opt.FailFast = true
	_, err = storeskema.ParseFrom(ctx, itemSchema(), storeskema.JSONBytes(in), opt)
	iss, _ = storeskema.AsIssues(err)
	if len(iss) != 1 {
		t.Fatalf("fail-fast must stop at the first issue, got %v", iss)
	}
}

func TestStreamParse_MaxBytes(t *testing.T) {
	opt := storeskema.DefaultParseOpt()
	opt.MaxBytes = 8
	_, err := storeskema.StreamParse(context.Background(), itemSchema(), strings.NewReader(`{"id":"abcdefgh","email":"a@b.test"}`), opt)
	iss, ok := storeskema.AsIssues(err)
	if !ok || iss[0].Code != storeskema.CodeTruncated {
		t.Fatalf("expected truncated, got %v", err)
	}
}

func TestIssues_ErrorSummary(t *testing.T) {
	iss := storeskema.Issues{
		{Path: "/a", Code: storeskema.CodeInvalidType},
		{Path: "/b", Code: storeskema.CodeUnknownKey},
		{Path: "/c", Code: storeskema.CodeTooShort},
		{Path: "/d", Code: storeskema.CodeTooLong},
	}
	want := "invalid_type at /a; unknown_key at /b; too_short at /c; ... (total 4)"
	if got := iss.Error(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestIssue_Field(t *testing.T) {
	cases := map[string]string{
		"/":               "",
		"/email":          "email",
		"/items/0/qty":    "items.0.qty",
		"/meta/a~1b/c~0d": "meta.a/b.c~d",
	}
	for path, want := range cases {
		if got := (storeskema.Issue{Path: path}).Field(); got != want {
			t.Fatalf("Field(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestInvariantError(t *testing.T) {
	err := error(&storeskema.InvariantError{Entity: "payment", Issues: storeskema.Issues{{Path: "/total", Code: storeskema.CodeSumMismatch}}})
	if !errors.Is(err, storeskema.ErrInvariant) {
		t.Fatal("expected ErrInvariant")
	}
	if _, ok := storeskema.AsIssues(err); ok {
		t.Fatal("invariant errors are not structural issues")
	}
	ie, ok := storeskema.AsInvariant(err)
	if !ok || ie.Entity != "payment" {
		t.Fatalf("AsInvariant failed: %v", err)
	}
	if got := err.Error(); got != "payment: invariant violated: sum_mismatch at /total" {
		t.Fatalf("unexpected message %q", got)
	}
}
