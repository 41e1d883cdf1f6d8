package entity

import (
	"context"
	"fmt"
	"sort"

	storeskema "github.com/kioskcart/storeskema"
	"github.com/kioskcart/storeskema/batch"
	js "github.com/kioskcart/storeskema/jsonschema"
)

// Entry is a pipeline with its value type erased, for tools selecting an
// entity by name.
type Entry interface {
	Name() string
	Run(ctx context.Context, raw storeskema.RawRecord) (any, error)
	RunBatch(ctx context.Context, records []storeskema.RawRecord, policy batch.Policy, opts ...batch.Option) (any, batch.Report, error)
	Bulk(ctx context.Context, records []storeskema.RawRecord, opts ...batch.Option) (any, error)
	JSONSchema() (*js.Schema, error)
}

type entry[T any] struct {
	p  *storeskema.Pipeline[T]
	op storeskema.Operation
}

func (e entry[T]) Name() string { return e.p.Entity() }

func (e entry[T]) Entity() string { return e.p.Entity() }

func (e entry[T]) Run(ctx context.Context, raw storeskema.RawRecord) (T, error) {
	return e.p.RunFor(ctx, e.op, raw)
}

type erased[T any] struct{ entry[T] }

func (e erased[T]) Run(ctx context.Context, raw storeskema.RawRecord) (any, error) {
	v, err := e.entry.Run(ctx, raw)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (e erased[T]) RunBatch(ctx context.Context, records []storeskema.RawRecord, policy batch.Policy, opts ...batch.Option) (any, batch.Report, error) {
	out, rep, err := batch.Process[T](ctx, e.entry, records, policy, opts...)
	if err != nil {
		return nil, rep, err
	}
	return out, rep, nil
}

func (e erased[T]) Bulk(ctx context.Context, records []storeskema.RawRecord, opts ...batch.Option) (any, error) {
	b, err := batch.Bulk[T](ctx, e.entry, records, opts...)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (e erased[T]) JSONSchema() (*js.Schema, error) {
	s, err := e.p.JSONSchema()
	if err != nil {
		return nil, err
	}
	return js.Document(e.p.Entity(), s), nil
}

func read[T any](p *storeskema.Pipeline[T]) Entry  { return erased[T]{entry[T]{p: p, op: storeskema.OpRead}} }
func write[T any](p *storeskema.Pipeline[T]) Entry { return erased[T]{entry[T]{p: p, op: storeskema.OpCreate}} }

var registry = func() map[string]Entry {
	m := map[string]Entry{}
	for _, e := range []Entry{
		read(Users),
		read(Categories),
		read(Products),
		write(ProductInputs),
		read(CartItems),
		read(Orders),
		read(KioskSessions),
		read(StaffPins),
		write(PinInputs),
		write(PinLogins),
		read(Payments),
		read(PaymentMethods),
		write(LoginInputs),
		write(RegisterInputs),
		write(RefreshInputs),
		write(ProfileUpdates),
		read(AuthResponses),
	} {
		m[e.Name()] = e
	}
	return m
}()

// Lookup returns the entry registered under name.
func Lookup(name string) (Entry, error) {
	e, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("entity: unknown entity %q (known: %v)", name, Names())
	}
	return e, nil
}

// Names lists the registered entity names in sorted order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
