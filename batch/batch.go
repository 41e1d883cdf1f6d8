// Package batch runs a pipeline over many records under an explicit failure
// policy. Output order always equals input order.
package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	storeskema "github.com/kioskcart/storeskema"
	"github.com/kioskcart/storeskema/envelope"
)

// Policy decides what one invalid record does to the batch.
type Policy uint8

const (
	policyUnset Policy = iota
	// FailFast aborts on the first invalid record; no partial output is returned.
	FailFast
	// SkipInvalid drops invalid records and reports them.
	SkipInvalid
)

// ErrPolicyRequired is returned when no policy was chosen.
var ErrPolicyRequired = errors.New("batch: policy must be FailFast or SkipInvalid")

func (p Policy) String() string {
	switch p {
	case FailFast:
		return "fail-fast"
	case SkipInvalid:
		return "skip-invalid"
	default:
		return "unset"
	}
}

// ParsePolicy accepts "fail-fast" and "skip-invalid" (underscores allowed).
func ParsePolicy(s string) (Policy, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-") {
	case "fail-fast", "failfast":
		return FailFast, nil
	case "skip-invalid", "skipinvalid":
		return SkipInvalid, nil
	case "":
		return policyUnset, ErrPolicyRequired
	}
	return policyUnset, fmt.Errorf("%w: unknown policy %q", ErrPolicyRequired, s)
}

// Runner is the part of a pipeline the batch processor needs.
// *storeskema.Pipeline[T] implements it.
type Runner[T any] interface {
	Entity() string
	Run(ctx context.Context, raw storeskema.RawRecord) (T, error)
}

// RecordError is the failure of the record at Index.
type RecordError struct {
	Index int
	ID    string
	Err   error
}

func (e *RecordError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("record %d (id %s): %v", e.Index, e.ID, e.Err)
	}
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// Report summarizes a batch.
type Report struct {
	Total    int
	Accepted int
	Skipped  int
	Failures []RecordError
}

// Outcome labels passed to observers.
const (
	OutcomeAccepted = "accepted"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
)

// Observer is notified once per evaluated record and once per batch, always
// in record order and from the calling goroutine.
type Observer interface {
	ObserveRecord(entity, outcome string)
	ObserveBatch(entity, policy string, r Report, d time.Duration)
}

type options struct {
	workers  int
	observer Observer
	tracer   trace.Tracer
}

// Option configures Process and Bulk.
type Option func(*options)

// WithWorkers evaluates records on n goroutines. Values below 2 run sequentially.
func WithWorkers(n int) Option { return func(o *options) { o.workers = n } }

// WithObserver installs a batch observer.
func WithObserver(obs Observer) Option { return func(o *options) { o.observer = obs } }

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option { return func(o *options) { o.tracer = t } }

const tracerName = "github.com/kioskcart/storeskema/batch"

func buildOptions(opts []Option) options {
	o := options{workers: 1}
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}
	return o
}

type slot[T any] struct {
	v     T
	err   error
	done  bool
	diags []storeskema.Diagnostic
}

// diagBuffer holds the diagnostics of one record until the batch replays
// them in record order. A record runs on a single goroutine.
type diagBuffer struct{ diags []storeskema.Diagnostic }

func (b *diagBuffer) Diagnose(_ context.Context, d storeskema.Diagnostic) { b.diags = append(b.diags, d) }

func runRecord[T any](ctx context.Context, p Runner[T], i int, raw storeskema.RawRecord) slot[T] {
	buf := &diagBuffer{}
	rctx := storeskema.WithDiagnostics(storeskema.WithRecordIndex(ctx, i), buf)
	v, err := p.Run(rctx, raw)
	return slot[T]{v: v, err: err, done: true, diags: buf.diags}
}

func (s slot[T]) flush(ctx context.Context) {
	for _, d := range s.diags {
		storeskema.Diagnose(ctx, d)
	}
}

// Process runs every record through p. Under FailFast the first invalid
// record (lowest index) aborts the batch and its *RecordError is returned
// with no output. Under SkipInvalid invalid records are dropped, listed in
// the report and announced with a record_skipped diagnostic.
func Process[T any](ctx context.Context, p Runner[T], records []storeskema.RawRecord, policy Policy, opts ...Option) ([]T, Report, error) {
	rep := Report{Total: len(records)}
	if policy != FailFast && policy != SkipInvalid {
		return nil, rep, ErrPolicyRequired
	}
	o := buildOptions(opts)
	entity := p.Entity()
	start := time.Now()

	ctx, span := o.tracer.Start(ctx, "batch.Process", trace.WithAttributes(
		attribute.String("storeskema.entity", entity),
		attribute.String("storeskema.policy", policy.String()),
		attribute.Int("storeskema.records", len(records)),
		attribute.Int("storeskema.workers", o.workers),
	))
	defer span.End()

	slots, err := evaluate(ctx, p, records, o.workers, policy == FailFast)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cancelled")
		return nil, rep, err
	}

	out := make([]T, 0, len(records))
	var first *RecordError
	for i, s := range slots {
		if !s.done {
			continue
		}
		s.flush(ctx)
		if s.err == nil {
			rep.Accepted++
			out = append(out, s.v)
			o.observe(entity, OutcomeAccepted)
			continue
		}
		re := RecordError{Index: i, ID: storeskema.ID(records[i]), Err: s.err}
		rep.Failures = append(rep.Failures, re)
		if policy == FailFast {
			if first == nil {
				first = &re
			}
			o.observe(entity, OutcomeFailed)
			continue
		}
		rep.Skipped++
		o.observe(entity, OutcomeSkipped)
		storeskema.Diagnose(ctx, storeskema.Diagnostic{
			Kind:    storeskema.DiagRecordSkipped,
			Entity:  entity,
			ID:      re.ID,
			Index:   i,
			Message: "invalid record skipped",
			Cause:   s.err,
		})
	}

	span.SetAttributes(
		attribute.Int("storeskema.accepted", rep.Accepted),
		attribute.Int("storeskema.skipped", rep.Skipped),
	)
	if o.observer != nil {
		o.observer.ObserveBatch(entity, policy.String(), rep, time.Since(start))
	}
	if first != nil {
		span.RecordError(first)
		span.SetStatus(codes.Error, "invalid record")
		return nil, rep, first
	}
	return out, rep, nil
}

// Bulk evaluates every record and reports each outcome, successes and
// failures alike, in a bulk envelope whose counters are consistent.
func Bulk[T any](ctx context.Context, p Runner[T], records []storeskema.RawRecord, opts ...Option) (envelope.Bulk[T], error) {
	o := buildOptions(opts)
	entity := p.Entity()
	start := time.Now()
	ctx, span := o.tracer.Start(ctx, "batch.Bulk", trace.WithAttributes(
		attribute.String("storeskema.entity", entity),
		attribute.Int("storeskema.records", len(records)),
	))
	defer span.End()

	slots, err := evaluate(ctx, p, records, o.workers, false)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cancelled")
		return envelope.Bulk[T]{}, err
	}
	items := make([]envelope.Item[T], len(slots))
	rep := Report{Total: len(records)}
	for i, s := range slots {
		s.flush(ctx)
		items[i] = envelope.ItemFrom(i, storeskema.ID(records[i]), s.v, s.err)
		if s.err == nil {
			rep.Accepted++
			o.observe(entity, OutcomeAccepted)
			continue
		}
		rep.Failures = append(rep.Failures, RecordError{Index: i, ID: items[i].ID, Err: s.err})
		o.observe(entity, OutcomeFailed)
	}
	if o.observer != nil {
		o.observer.ObserveBatch(entity, "bulk", rep, time.Since(start))
	}
	return envelope.NewBulk(items), nil
}

func (o options) observe(entity, outcome string) {
	if o.observer != nil {
		o.observer.ObserveRecord(entity, outcome)
	}
}

// evaluate fills one slot per record, buffering each record's diagnostics
// so the caller can replay them in order. With stopOnError no record is started
// after a failure was seen; records already started still complete, so the
// lowest failing index among started records is the lowest overall.
func evaluate[T any](ctx context.Context, p Runner[T], records []storeskema.RawRecord, workers int, stopOnError bool) ([]slot[T], error) {
	slots := make([]slot[T], len(records))
	if workers < 2 {
		for i, raw := range records {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			slots[i] = runRecord(ctx, p, i, raw)
			if slots[i].err != nil && stopOnError {
				break
			}
		}
		return slots, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	errStop := errors.New("stop")
	for i := range records {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			slots[i] = runRecord(ctx, p, i, records[i])
			if slots[i].err != nil && stopOnError {
				return errStop
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, errStop) {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slots, nil
}
