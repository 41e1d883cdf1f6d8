package rules_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storeskema "github.com/kioskcart/storeskema"
	"github.com/kioskcart/storeskema/rules"
)

type line struct {
	ID  string `json:"id"`
	Qty int    `json:"quantity"`
}

type ticket struct {
	Status string  `json:"status"`
	Total  float64 `json:"total"`
	Items  []line  `json:"items"`
}

func TestIfThen(t *testing.T) {
	ctx := context.Background()
	needsItems := rules.If[ticket]("/status", rules.Eq, "confirmed").Then(rules.AtLeastOne[ticket]("/items"))

	assert.NoError(t, storeskema.Check(ctx, ticket{Status: "pending"}, needsItems))

	err := storeskema.Check(ctx, ticket{Status: "confirmed"}, needsItems)
	ie, ok := storeskema.AsInvariant(err)
	require.True(t, ok)
	assert.Equal(t, "/items", ie.Issues[0].Path)
	assert.Equal(t, storeskema.CodeTooShort, ie.Issues[0].Code)
}

func TestIfAny(t *testing.T) {
	v := ticket{Status: "ready", Total: 20}
	big := rules.If[ticket]("total", rules.Gt, 10)
	ready := rules.If[ticket]("/status", rules.Eq, "ready")
	done := rules.If[ticket]("/status", rules.Eq, "completed")

	flag := func(c rules.Conditional[ticket]) bool {
		r := c.Then(func(d storeskema.DomainCtx[ticket], v ticket) []storeskema.Issue {
			return []storeskema.Issue{d.Ref.Root().Issue(storeskema.CodeBusinessRule, "hit")}
		})
		return storeskema.Check(context.Background(), v, r) != nil
	}
	assert.True(t, flag(big))
	assert.True(t, flag(rules.IfAny(done, ready)))
	assert.False(t, flag(rules.IfAny(done, rules.If[ticket]("/total", rules.Lt, 5))))
	assert.False(t, flag(rules.IfAny[ticket]()))
	assert.False(t, flag(rules.If[ticket]("/missing", rules.Eq, "x")))
}

func TestUniqueBy(t *testing.T) {
	v := ticket{Items: []line{{ID: "a"}, {ID: "b"}, {ID: "a"}}}
	err := storeskema.Check(context.Background(), v, rules.UniqueBy[ticket]("/items", "id"))
	ie, ok := storeskema.AsInvariant(err)
	require.True(t, ok)
	require.Len(t, ie.Issues, 1)
	assert.Equal(t, "/items/2/id", ie.Issues[0].Path)
	assert.Equal(t, 0, ie.Issues[0].Params["first"])
}

func TestAtLeastOne_IndexedPath(t *testing.T) {
	type nested struct {
		Tickets []ticket `json:"tickets"`
	}
	v := nested{Tickets: []ticket{{Items: []line{{ID: "a"}}}, {}}}
	ctx := context.Background()
	assert.NoError(t, storeskema.Check(ctx, v, rules.AtLeastOne[nested]("/tickets/0/items")))

	err := storeskema.Check(ctx, v, rules.AtLeastOne[nested]("/tickets/1/items"))
	ie, ok := storeskema.AsInvariant(err)
	require.True(t, ok)
	assert.Equal(t, "/tickets/1/items", ie.Issues[0].Path)
	assert.NoError(t, storeskema.Check(ctx, v, rules.AtLeastOne[nested]("/tickets/5/items")))
}
