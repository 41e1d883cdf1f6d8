package storeskema_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	storeskema "github.com/kioskcart/storeskema"
)

func TestService(t *testing.T) {
	type tenant string
	ctx := storeskema.WithService[tenant](context.Background(), "acme")
	if v, ok := storeskema.Service[tenant](ctx); !ok || v != "acme" {
		t.Fatalf("service: %q %v", v, ok)
	}
	if _, ok := storeskema.Service[int](ctx); ok {
		t.Fatal("unexpected service of another type")
	}
}

func TestClockFrom(t *testing.T) {
	if _, ok := storeskema.ClockFrom(context.Background()).(storeskema.SystemClock); !ok {
		t.Fatal("default clock must be the system clock")
	}
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	ctx := storeskema.WithClock(context.Background(), storeskema.FixedClock(at))
	if got := storeskema.ClockFrom(ctx).Now(); !got.Equal(at) {
		t.Fatalf("fixed clock: %v", got)
	}
}

func TestLogDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := storeskema.WithDiagnostics(context.Background(), storeskema.LogDiagnostics(logger))

	storeskema.Diagnose(ctx, storeskema.Diagnostic{
		Kind:    storeskema.DiagMetadataParse,
		Entity:  "payment",
		Path:    "/metadata",
		ID:      "pay1",
		Index:   -1,
		Message: "metadata is not valid JSON; using empty object",
		Cause:   errors.New("unexpected end"),
	})
	storeskema.Diagnose(ctx, storeskema.Diagnostic{
		Kind:    storeskema.DiagDefaultNow,
		Entity:  "order",
		Path:    "/created_at",
		Index:   2,
		Message: "created_at missing; using now",
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("want 2 log lines, got %d:\n%s", len(lines), buf.String())
	}
	for _, want := range []string{"level=WARN", "kind=metadata_parse", "entity=payment", "path=/metadata", "id=pay1", `error="unexpected end"`} {
		if !strings.Contains(lines[0], want) {
			t.Fatalf("first line missing %q: %s", want, lines[0])
		}
	}
	if strings.Contains(lines[0], "index=") {
		t.Fatalf("index must be omitted outside batches: %s", lines[0])
	}
	for _, want := range []string{"level=DEBUG", "kind=default_now", "index=2"} {
		if !strings.Contains(lines[1], want) {
			t.Fatalf("second line missing %q: %s", want, lines[1])
		}
	}
}

func TestDiagnose_NoSink(t *testing.T) {
	storeskema.Diagnose(context.Background(), storeskema.Diagnostic{Kind: storeskema.DiagRecordSkipped})
}
