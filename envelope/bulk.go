package envelope

import (
	"context"

	storeskema "github.com/kioskcart/storeskema"
	"github.com/kioskcart/storeskema/rules"
)

// Item is the outcome of one record of a bulk operation.
type Item[T any] struct {
	Index            int          `json:"index"`
	ID               string       `json:"id,omitempty"`
	Success          bool         `json:"success"`
	Data             *T           `json:"data,omitempty"`
	Error            string       `json:"error,omitempty"`
	ValidationErrors []FieldError `json:"validationErrors,omitempty"`
}

// ItemFrom builds the Item for the record at index i.
func ItemFrom[T any](i int, id string, v T, err error) Item[T] {
	if err != nil {
		f := Fail(err)
		return Item[T]{Index: i, ID: id, Error: f.Error, ValidationErrors: f.ValidationErrors}
	}
	return Item[T]{Index: i, ID: id, Success: true, Data: &v}
}

// Bulk is the result of a bulk operation.
type Bulk[T any] struct {
	Success        bool      `json:"success"`
	Results        []Item[T] `json:"results"`
	TotalProcessed int       `json:"totalProcessed"`
	SuccessCount   int       `json:"successCount"`
	ErrorCount     int       `json:"errorCount"`
}

// NewBulk derives the counters from results. Success is true when no item failed.
func NewBulk[T any](results []Item[T]) Bulk[T] {
	b := Bulk[T]{Results: append([]Item[T]{}, results...), TotalProcessed: len(results)}
	for _, r := range results {
		if r.Success {
			b.SuccessCount++
		} else {
			b.ErrorCount++
		}
	}
	b.Success = b.ErrorCount == 0
	return b
}

// Facts projects the counters the bulk invariant inspects.
func (b Bulk[T]) Facts() rules.BulkFacts {
	return rules.BulkFacts{Success: b.Success, Results: len(b.Results), TotalProcessed: b.TotalProcessed, SuccessCount: b.SuccessCount, ErrorCount: b.ErrorCount}
}

// Check verifies the bulk counters.
func (b Bulk[T]) Check(ctx context.Context) error {
	if iss := rules.CheckBulk(b.Facts()); len(iss) > 0 {
		return &storeskema.InvariantError{Entity: "bulk", Issues: iss}
	}
	return nil
}
