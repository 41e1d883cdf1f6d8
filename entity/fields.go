package entity

import (
	g "github.com/kioskcart/storeskema/dsl"
)

// Column helpers shared by the row schemas. Optional columns are nullable:
// the store returns NULL for unset values.

func idCol() *g.StringBuilder { return g.String().Trim().NonEmpty() }

func optText() g.AnyAdapter { return g.String().Nullable() }

func optURL() g.AnyAdapter { return g.String().Trim().URL().Nullable() }

func optTime() g.AnyAdapter { return g.Timestamp().Nullable() }

func optBool() g.AnyAdapter { return g.Bool().Nullable() }

func optCount() g.AnyAdapter { return g.Int().Min(0).CoerceFromString().Nullable() }

func money() *g.NumberBuilder { return g.Number().Min(0).CoerceFromString() }

func optMoney() g.AnyAdapter { return money().Nullable() }

func optEnum(values ...string) g.AnyAdapter {
	return g.String().Trim().Lower().OneOf(values...).Nullable()
}

func optTags() g.AnyAdapter { return g.ArrayOf[string](g.String()).Nullable() }
