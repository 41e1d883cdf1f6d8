package entity

import (
	storeskema "github.com/kioskcart/storeskema"
	g "github.com/kioskcart/storeskema/dsl"
	"github.com/kioskcart/storeskema/rules"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// PaymentStatus of an order.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

var paymentMethods = []string{"card", "cash", "apple_pay", "google_pay"}

// OrderItem is one line of an order.
type OrderItem struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	TotalPrice  float64 `json:"totalPrice"`
}

// Order is a normalized row of the orders table with its items.
type Order struct {
	ID             string        `json:"id"`
	OrderNumber    string        `json:"orderNumber"`
	UserID         *string       `json:"userId"`
	KioskSessionID *string       `json:"kioskSessionId"`
	Status         OrderStatus   `json:"status"`
	Subtotal       float64       `json:"subtotal"`
	Tax            float64       `json:"tax"`
	Tip            float64       `json:"tip"`
	Total          float64       `json:"total"`
	PaymentMethod  string        `json:"paymentMethod"`
	PaymentStatus  PaymentStatus `json:"paymentStatus"`
	CustomerName   string        `json:"customerName"`
	Notes          string        `json:"notes"`
	Items          []OrderItem   `json:"items"`
	ItemCount      int           `json:"itemCount"`
	CreatedAt      string        `json:"createdAt"`
	UpdatedAt      string        `json:"updatedAt"`

	Debug storeskema.DebugMetadata `json:"_dbData,omitempty"`
}

var orderItemRow = g.Object().
	Title("order_items").
	Field("id", idCol()).Required().
	Field("product_id", idCol()).Required().
	Field("product_name", optText()).
	Field("quantity", g.Int().Min(1).CoerceFromString()).Required().
	Field("unit_price", money()).Required().
	Field("total_price", optMoney()).
	UnknownStrip().
	MustBuild()

var orderRow = g.Object().
	Title("orders").
	Field("id", idCol()).Required().
	Field("order_number", optText()).
	Field("user_id", optText()).
	Field("kiosk_session_id", optText()).
	Field("status", optEnum(string(OrderPending), string(OrderConfirmed), string(OrderPreparing),
		string(OrderReady), string(OrderCompleted), string(OrderCancelled))).
	Field("subtotal", money()).Required().
	Field("tax", optMoney()).
	Field("tip", optMoney()).
	Field("total", money()).Required().
	Field("payment_method", optEnum(paymentMethods...)).
	Field("payment_status", optEnum(string(PaymentPending), string(PaymentPaid), string(PaymentFailed), string(PaymentRefunded))).
	Field("customer_name", optText()).
	Field("notes", optText()).
	Field("items", g.ArrayOf(orderItemRow).Nullable()).
	Field("created_at", optTime()).
	Field("updated_at", optTime()).
	UnknownStrip().
	MustBuild()

// Orders turns orders rows, with their items under "items", into Order values.
var Orders = storeskema.Define[Order]("order").
	Raw(orderRow).
	Normalize(normalizeOrder).
	Check("total_matches", rules.SumEquals(storeskema.PointerOf(func(o *Order) *float64 { return &o.Total }), func(o Order) (float64, []rules.Term) {
		return o.Total, []rules.Term{rules.T("subtotal", o.Subtotal), rules.T("tax", o.Tax), rules.T("tip", o.Tip)}
	})).
	Check("item_totals", itemTotals).
	Check("unique_items", rules.UniqueBy[Order]("/items", "id")).
	Check("settled_has_items", rules.IfAny(
		rules.If[Order]("/paymentStatus", rules.Eq, PaymentPaid),
		rules.If[Order]("/status", rules.Eq, OrderCompleted),
	).Then(rules.AtLeastOne[Order]("/items"))).
	MustBuild()

func normalizeOrder(r storeskema.Record) Order {
	o := Order{
		ID:             r.ID(),
		OrderNumber:    r.StrOr("order_number", ""),
		UserID:         r.Ptr("user_id"),
		KioskSessionID: r.Ptr("kiosk_session_id"),
		Status:         OrderStatus(r.StrOr("status", string(OrderPending))),
		Subtotal:       r.FloatOr("subtotal", 0),
		Tax:            r.FloatOr("tax", 0),
		Tip:            r.FloatOr("tip", 0),
		Total:          r.FloatOr("total", 0),
		PaymentMethod:  r.StrOr("payment_method", ""),
		PaymentStatus:  PaymentStatus(r.StrOr("payment_status", string(PaymentPending))),
		CustomerName:   r.Name("customer_name", false),
		Notes:          r.StrOr("notes", ""),
		Items:          []OrderItem{},
		CreatedAt:      r.Time("created_at", storeskema.DefaultNow),
		UpdatedAt:      r.Time("updated_at", storeskema.DefaultEmpty),
		Debug:          r.Capture("status", "subtotal", "tax", "tip", "total"),
	}
	for _, ir := range r.Objects("items") {
		it := OrderItem{
			ID:          ir.ID(),
			ProductID:   ir.StrOr("product_id", ""),
			ProductName: ir.StrOr("product_name", ""),
			Quantity:    ir.IntOr("quantity", 1),
			UnitPrice:   ir.FloatOr("unit_price", 0),
		}
		it.TotalPrice = ir.Float("total_price").Or(lineTotal(it.Quantity, it.UnitPrice))
		o.Items = append(o.Items, it)
		o.ItemCount += it.Quantity
	}
	return o
}

func itemTotals(d storeskema.DomainCtx[Order], o Order) []storeskema.Issue {
	var out []storeskema.Issue
	for i, it := range o.Items {
		path := d.Ref.At("/items").Index(i).Field("totalPrice").Pointer()
		out = append(out, rules.Sum(path, it.TotalPrice, rules.T("quantity × unitPrice", float64(it.Quantity)*it.UnitPrice))...)
	}
	return out
}
