package entity

import (
	storeskema "github.com/kioskcart/storeskema"
	g "github.com/kioskcart/storeskema/dsl"
)

// Category is a normalized row of the categories table.
type Category struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	ImageURL     string  `json:"imageUrl"`
	SortOrder    int     `json:"sortOrder"`
	IsActive     bool    `json:"isActive"`
	ParentID     *string `json:"parentId"`
	ProductCount int     `json:"productCount"`
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    string  `json:"updatedAt"`

	Debug storeskema.DebugMetadata `json:"_dbData,omitempty"`
}

var categoryRow = g.Object().
	Title("categories").
	Field("id", idCol()).Required().
	Field("name", g.String()).Required().
	Field("description", optText()).
	Field("image_url", optURL()).
	Field("sort_order", g.Int().CoerceFromString().Nullable()).
	Field("is_active", optBool()).
	Field("parent_id", optText()).
	Field("product_count", optCount()).
	Field("created_at", optTime()).
	Field("updated_at", optTime()).
	UnknownStrip().
	MustBuild()

// Categories turns categories rows into Category values.
var Categories = storeskema.Define[Category]("category").
	Raw(categoryRow).
	Normalize(normalizeCategory).
	MustBuild()

func normalizeCategory(r storeskema.Record) Category {
	return Category{
		ID:           r.ID(),
		Name:         r.Name("name", true),
		Description:  r.StrOr("description", ""),
		ImageURL:     r.StrOr("image_url", ""),
		SortOrder:    r.IntOr("sort_order", 0),
		IsActive:     r.BoolOr("is_active", true),
		ParentID:     r.Ptr("parent_id"),
		ProductCount: r.IntOr("product_count", 0),
		CreatedAt:    r.Time("created_at", storeskema.DefaultNow),
		UpdatedAt:    r.Time("updated_at", storeskema.DefaultEmpty),
		Debug:        r.Capture("name", "is_active", "sort_order", "product_count"),
	}
}
