package entity

import (
	"context"
	"fmt"

	storeskema "github.com/kioskcart/storeskema"
	g "github.com/kioskcart/storeskema/dsl"
	"github.com/kioskcart/storeskema/rules"
)

// CartItem is a normalized row of the cart_items table.
type CartItem struct {
	ID        string   `json:"id"`
	ProductID string   `json:"productId"`
	Quantity  int      `json:"quantity"`
	UserID    *string  `json:"userId"`
	SessionID *string  `json:"sessionId"`
	UnitPrice float64  `json:"unitPrice"`
	Notes     string   `json:"notes"`
	AddedAt   string   `json:"addedAt"`
	LineTotal float64  `json:"lineTotal"`
	Product   *Product `json:"product,omitempty"`

	Debug storeskema.DebugMetadata `json:"_dbData,omitempty"`

	priceStored bool
}

var cartItemRow = g.Object().
	Title("cart_items").
	Field("id", idCol()).Required().
	Field("product_id", idCol()).Required().
	Field("quantity", g.Int().Min(1).CoerceFromString()).Required().
	Field("user_id", optText()).
	Field("session_id", optText()).
	Field("unit_price", optMoney()).
	Field("notes", optText()).
	Field("product", g.SchemaOf(productRow).Nullable()).
	Field("added_at", optTime()).
	UnknownStrip().
	MustBuild()

// CartItems turns cart_items rows, optionally carrying the joined product
// row under "product", into CartItem values.
var CartItems = storeskema.Define[CartItem]("cart_item").
	Raw(cartItemRow).
	Normalize(normalizeCartItem).
	MustBuild()

func normalizeCartItem(r storeskema.Record) CartItem {
	it := CartItem{
		ID:        r.ID(),
		ProductID: r.StrOr("product_id", ""),
		Quantity:  r.IntOr("quantity", 1),
		UserID:    r.Ptr("user_id"),
		SessionID: r.Ptr("session_id"),
		Notes:     r.StrOr("notes", ""),
		AddedAt:   r.Time("added_at", storeskema.DefaultNow),
		Debug:     r.Capture("quantity", "unit_price", "product_id"),
	}
	if pr, ok := r.Object("product"); ok {
		if id := pr.ID(); id == it.ProductID {
			p := normalizeProduct(pr)
			it.Product = &p
		} else {
			r.Scope().Diagnose(storeskema.DiagRelationMiss, pr.Path("id"), it.ID,
				fmt.Sprintf("embedded product %q does not match product_id", id), nil)
		}
	}
	price := r.Float("unit_price")
	it.priceStored = price.IsSet()
	it.UnitPrice = price.Or(embeddedPrice(it.Product))
	it.LineTotal = lineTotal(it.Quantity, it.UnitPrice)
	return it
}

func embeddedPrice(p *Product) float64 {
	if p == nil {
		return 0
	}
	return p.Price
}

func lineTotal(qty int, unit float64) float64 { return rules.Round2(float64(qty) * unit) }

// AttachProducts returns copies of items with Product set by product id.
// Items whose unit price was not stored take the attached product's price.
func AttachProducts(ctx context.Context, items []CartItem, products []Product) []CartItem {
	return storeskema.Join(ctx, "cart_item", "product", items, products,
		func(it CartItem) *string { return &it.ProductID },
		func(p Product) string { return p.ID },
		func(it *CartItem, p *Product) {
			cp := *p
			it.Product = &cp
			if !it.priceStored {
				it.UnitPrice = cp.Price
				it.LineTotal = lineTotal(it.Quantity, it.UnitPrice)
			}
		},
	)
}
