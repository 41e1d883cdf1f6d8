package entity

import (
	"context"

	storeskema "github.com/kioskcart/storeskema"
	g "github.com/kioskcart/storeskema/dsl"
	"github.com/kioskcart/storeskema/rules"
)

// Product is a normalized row of the products table.
type Product struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Price          float64  `json:"price"`
	CompareAtPrice *float64 `json:"compareAtPrice"`
	CategoryID     *string  `json:"categoryId"`
	ImageURL       string   `json:"imageUrl"`
	LegacyImageURL string   `json:"image_url"` // legacy alias of ImageURL
	SKU            string   `json:"sku"`

	StockQuantity     int  `json:"stockQuantity"`
	Stock             int  `json:"stock"` // legacy alias of StockQuantity
	ReservedQuantity  int  `json:"reservedQuantity"`
	AvailableQuantity int  `json:"availableQuantity"`
	InStock           bool `json:"inStock"`

	IsActive            bool   `json:"isActive"`
	IsFeatured          bool   `json:"isFeatured"`
	IsPreOrder          bool   `json:"isPreOrder"`
	PreOrderMinQuantity int    `json:"preOrderMinQuantity"`
	PreOrderMaxQuantity *int   `json:"preOrderMaxQuantity"`
	PreOrderReleaseDate string `json:"preOrderReleaseDate"`

	Tags      []string       `json:"tags"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt string         `json:"createdAt"`
	UpdatedAt string         `json:"updatedAt"`

	Category *Category `json:"category,omitempty"`

	Debug storeskema.DebugMetadata `json:"_dbData,omitempty"`
}

var productRow = g.Object().
	Title("products").
	Field("id", idCol()).Required().
	Field("name", g.String()).Required().
	Field("description", optText()).
	Field("price", money()).Required().
	Field("compare_at_price", optMoney()).
	Field("category_id", optText()).
	Field("image_url", optURL()).
	Field("sku", optText()).
	Field("stock_quantity", optCount()).
	Field("reserved_quantity", optCount()).
	Field("is_active", optBool()).
	Field("is_featured", optBool()).
	Field("is_pre_order", optBool()).
	Field("pre_order_min_quantity", g.Int().Min(1).CoerceFromString().Nullable()).
	Field("pre_order_max_quantity", g.Int().Min(1).CoerceFromString().Nullable()).
	Field("pre_order_release_date", optTime()).
	Field("tags", optTags()).
	Field("metadata", g.JSONText().Nullable()).
	Field("created_at", optTime()).
	Field("updated_at", optTime()).
	UnknownStrip().
	MustBuild()

// Products turns products rows into Product values.
var Products = storeskema.Define[Product]("product").
	Raw(productRow).
	Normalize(normalizeProduct).
	MustBuild()

func normalizeProduct(r storeskema.Record) Product {
	p := Product{
		ID:                  r.ID(),
		Name:                r.Name("name", true),
		Description:         r.StrOr("description", ""),
		Price:               r.FloatOr("price", 0),
		CompareAtPrice:      r.Float("compare_at_price").Ptr(),
		CategoryID:          r.Ptr("category_id"),
		ImageURL:            r.StrOr("image_url", ""),
		SKU:                 r.StrOr("sku", ""),
		StockQuantity:       r.IntOr("stock_quantity", 0),
		ReservedQuantity:    r.IntOr("reserved_quantity", 0),
		IsActive:            r.BoolOr("is_active", true),
		IsFeatured:          r.BoolOr("is_featured", false),
		IsPreOrder:          r.BoolOr("is_pre_order", false),
		PreOrderMinQuantity: r.IntOr("pre_order_min_quantity", 1),
		PreOrderMaxQuantity: r.Int("pre_order_max_quantity").Ptr(),
		PreOrderReleaseDate: r.Time("pre_order_release_date", storeskema.DefaultEmpty),
		Tags:                r.Strings("tags").Or([]string{}),
		Metadata:            r.JSONObject("metadata"),
		CreatedAt:           r.Time("created_at", storeskema.DefaultNow),
		UpdatedAt:           r.Time("updated_at", storeskema.DefaultEmpty),
		Debug:               r.Capture("name", "price", "category_id", "stock_quantity", "is_active", "metadata"),
	}
	p.LegacyImageURL = p.ImageURL
	p.Stock = p.StockQuantity
	p.AvailableQuantity = max(p.StockQuantity-p.ReservedQuantity, 0)
	p.InStock = p.AvailableQuantity > 0 || p.IsPreOrder
	return p
}

// AttachCategories returns copies of products with Category set from
// categories by id. Products whose category is unknown keep a nil Category.
func AttachCategories(ctx context.Context, products []Product, categories []Category) []Product {
	return storeskema.Join(ctx, "product", "category", products, categories,
		func(p Product) *string { return p.CategoryID },
		func(c Category) string { return c.ID },
		func(p *Product, c *Category) { cp := *c; p.Category = &cp },
	)
}

// ProductInput is a product create or update request.
type ProductInput struct {
	Name                string   `json:"name"`
	Description         string   `json:"description"`
	Price               float64  `json:"price"`
	CompareAtPrice      *float64 `json:"compareAtPrice"`
	CategoryID          *string  `json:"categoryId"`
	ImageURL            string   `json:"imageUrl"`
	SKU                 string   `json:"sku"`
	StockQuantity       int      `json:"stockQuantity"`
	IsActive            bool     `json:"isActive"`
	IsFeatured          bool     `json:"isFeatured"`
	IsPreOrder          bool     `json:"isPreOrder"`
	PreOrderMinQuantity *int     `json:"preOrderMinQuantity"`
	PreOrderMaxQuantity *int     `json:"preOrderMaxQuantity"`
	PreOrderReleaseDate string   `json:"preOrderReleaseDate"`
	Tags                []string `json:"tags"`
}

var productInput = g.Object().
	Title("product_input").
	Field("name", g.String().Trim().NonEmpty().Max(200)).Required().
	Field("description", optText()).
	Field("price", g.Number().Min(0)).Required().
	Field("compare_at_price", g.Number().Min(0).Nullable()).
	Field("category_id", optText()).
	Field("image_url", optURL()).
	Field("sku", optText()).
	Field("stock_quantity", g.Int().Min(0).Nullable()).
	Field("is_active", optBool()).
	Field("is_featured", optBool()).
	Field("is_pre_order", optBool()).
	Field("pre_order_min_quantity", g.Int().Min(1).Nullable()).
	Field("pre_order_max_quantity", g.Int().Min(1).Nullable()).
	Field("pre_order_release_date", optTime()).
	Field("tags", optTags()).
	UnknownStrict().
	MustBuild()

// ProductInputs validates product writes. Pre-order bounds are checked for
// create and update requests; run it with RunFor.
var ProductInputs = storeskema.Define[ProductInput]("product_input").
	Raw(productInput).
	Normalize(func(r storeskema.Record) ProductInput {
		return ProductInput{
			Name:                r.Name("name", true),
			Description:         r.StrOr("description", ""),
			Price:               r.FloatOr("price", 0),
			CompareAtPrice:      r.Float("compare_at_price").Ptr(),
			CategoryID:          r.Ptr("category_id"),
			ImageURL:            r.StrOr("image_url", ""),
			SKU:                 r.StrOr("sku", ""),
			StockQuantity:       r.IntOr("stock_quantity", 0),
			IsActive:            r.BoolOr("is_active", true),
			IsFeatured:          r.BoolOr("is_featured", false),
			IsPreOrder:          r.BoolOr("is_pre_order", false),
			PreOrderMinQuantity: r.Int("pre_order_min_quantity").Ptr(),
			PreOrderMaxQuantity: r.Int("pre_order_max_quantity").Ptr(),
			PreOrderReleaseDate: r.StrOr("pre_order_release_date", ""),
			Tags:                r.Strings("tags").Or([]string{}),
		}
	}).
	Check("pre_order_bounds", rules.OnWrite(rules.If[ProductInput]("/isPreOrder", rules.Eq, true).Then(rules.MinAtMost(
		storeskema.PointerOf(func(in *ProductInput) **int { return &in.PreOrderMinQuantity }),
		storeskema.PointerOf(func(in *ProductInput) **int { return &in.PreOrderMaxQuantity }),
		func(in ProductInput) (*int, *int) { return in.PreOrderMinQuantity, in.PreOrderMaxQuantity })))).
	MustBuild()
