package storeskema

import (
	"context"
	"log/slog"
	"time"
)

// serviceKey is a unique key per type parameter T for context storage.
type serviceKey[T any] struct{}

// WithService stores a typed service instance in the context for use by
// normalizers and rules.
func WithService[T any](ctx context.Context, svc T) context.Context {
	return context.WithValue(ctx, serviceKey[T]{}, any(svc))
}

// Service retrieves a typed service instance from context.
func Service[T any](ctx context.Context) (T, bool) {
	var zero T
	v := ctx.Value(serviceKey[T]{})
	if v == nil {
		return zero, false
	}
	if tv, ok := v.(T); ok {
		return tv, true
	}
	return zero, false
}

// Clock is the time source behind "current time" defaults.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }

// WithClock installs the clock used for DefaultNow timestamps.
func WithClock(ctx context.Context, c Clock) context.Context { return WithService[Clock](ctx, c) }

// ClockFrom returns the installed clock, falling back to SystemClock.
func ClockFrom(ctx context.Context) Clock {
	if c, ok := Service[Clock](ctx); ok && c != nil {
		return c
	}
	return SystemClock{}
}

// DiagnosticKind classifies non-fatal signals raised while normalizing.
type DiagnosticKind string

const (
	DiagRelationMiss  DiagnosticKind = "relation_miss"
	DiagMetadataParse DiagnosticKind = "metadata_parse"
	DiagRecordSkipped DiagnosticKind = "record_skipped"
	DiagDefaultNow    DiagnosticKind = "default_now"
)

// Diagnostic is a recoverable condition. The entity is still produced.
type Diagnostic struct {
	Kind    DiagnosticKind
	Entity  string
	Path    string
	ID      string
	Index   int // position within a batch; -1 outside batches
	Message string
	Cause   error
}

// DiagnosticSink receives diagnostics. Implementations must be safe for
// concurrent use when batches run with several workers.
type DiagnosticSink interface {
	Diagnose(ctx context.Context, d Diagnostic)
}

// DiagnosticFunc adapts a function to DiagnosticSink.
type DiagnosticFunc func(context.Context, Diagnostic)

func (f DiagnosticFunc) Diagnose(ctx context.Context, d Diagnostic) { f(ctx, d) }

// WithDiagnostics installs a sink for diagnostics.
func WithDiagnostics(ctx context.Context, sink DiagnosticSink) context.Context {
	return WithService[DiagnosticSink](ctx, sink)
}

// Diagnose forwards d to the sink installed in ctx, if any.
func Diagnose(ctx context.Context, d Diagnostic) {
	if sink, ok := Service[DiagnosticSink](ctx); ok && sink != nil {
		sink.Diagnose(ctx, d)
	}
}

// LogDiagnostics returns a sink writing each diagnostic as a WARN record
// (DEBUG for default_now).
func LogDiagnostics(logger *slog.Logger) DiagnosticSink {
	return DiagnosticFunc(func(ctx context.Context, d Diagnostic) {
		level := slog.LevelWarn
		if d.Kind == DiagDefaultNow {
			level = slog.LevelDebug
		}
		attrs := []slog.Attr{
			slog.String("kind", string(d.Kind)),
			slog.String("entity", d.Entity),
		}
		if d.Path != "" {
			attrs = append(attrs, slog.String("path", d.Path))
		}
		if d.ID != "" {
			attrs = append(attrs, slog.String("id", d.ID))
		}
		if d.Index >= 0 {
			attrs = append(attrs, slog.Int("index", d.Index))
		}
		if d.Cause != nil {
			attrs = append(attrs, slog.String("error", d.Cause.Error()))
		}
		logger.LogAttrs(ctx, level, d.Message, attrs...)
	})
}
