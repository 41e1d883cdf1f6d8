package entity

import (
	"context"

	storeskema "github.com/kioskcart/storeskema"
	g "github.com/kioskcart/storeskema/dsl"
	"github.com/kioskcart/storeskema/rules"
)

// Payment is a normalized row of the payments table.
type Payment struct {
	ID                string         `json:"id"`
	OrderID           string         `json:"orderId"`
	Subtotal          float64        `json:"subtotal"`
	Tax               float64        `json:"tax"`
	Tip               float64        `json:"tip"`
	Total             float64        `json:"total"`
	Currency          string         `json:"currency"`
	Method            string         `json:"method"`
	Status            string         `json:"status"`
	ProviderPaymentID string         `json:"providerPaymentId"`
	CardBrand         string         `json:"cardBrand"`
	CardLast4         string         `json:"cardLast4"`
	ReceiptURL        string         `json:"receiptUrl"`
	Metadata          map[string]any `json:"metadata"`
	CreatedAt         string         `json:"createdAt"`

	Debug storeskema.DebugMetadata `json:"_dbData,omitempty"`
}

var paymentRow = g.Object().
	Title("payments").
	Field("id", idCol()).Required().
	Field("order_id", idCol()).Required().
	Field("subtotal", money()).Required().
	Field("tax", money()).Required().
	Field("tip", optMoney()).
	Field("total", money()).Required().
	Field("currency", g.String().Trim().Lower().Min(3).Max(3).Nullable()).
	Field("method", g.String().Trim().Lower().OneOf(paymentMethods...)).Required().
	Field("status", optEnum("pending", "processing", "succeeded", "failed", "refunded")).
	Field("provider_payment_id", optText()).
	Field("card_brand", optText()).
	Field("card_last4", g.String().Digits(4).Nullable()).
	Field("receipt_url", optURL()).
	Field("metadata", g.JSONText().Nullable()).
	Field("created_at", optTime()).
	UnknownStrip().
	MustBuild()

func paymentSum(p Payment) (float64, []rules.Term) {
	return p.Total, []rules.Term{rules.T("subtotal", p.Subtotal), rules.T("tax", p.Tax), rules.T("tip", p.Tip)}
}

// Payments turns payments rows into Payment values and enforces
// total ≈ subtotal + tax + tip.
var Payments = storeskema.Define[Payment]("payment").
	Raw(paymentRow).
	Normalize(func(r storeskema.Record) Payment {
		return Payment{
			ID:                r.ID(),
			OrderID:           r.StrOr("order_id", ""),
			Subtotal:          r.FloatOr("subtotal", 0),
			Tax:               r.FloatOr("tax", 0),
			Tip:               r.FloatOr("tip", 0),
			Total:             r.FloatOr("total", 0),
			Currency:          r.StrOr("currency", "usd"),
			Method:            r.StrOr("method", ""),
			Status:            r.StrOr("status", "pending"),
			ProviderPaymentID: r.StrOr("provider_payment_id", ""),
			CardBrand:         r.StrOr("card_brand", ""),
			CardLast4:         r.StrOr("card_last4", ""),
			ReceiptURL:        r.StrOr("receipt_url", ""),
			Metadata:          r.JSONObject("metadata"),
			CreatedAt:         r.Time("created_at", storeskema.DefaultNow),
			Debug:             r.Capture("subtotal", "tax", "tip", "total", "status"),
		}
	}).
	Check("total_matches", rules.SumEquals(storeskema.PointerOf(func(p *Payment) *float64 { return &p.Total }), paymentSum)).
	MustBuild()

// PaymentMethod is a normalized row of the payment_methods table.
type PaymentMethod struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Type      string `json:"type"`
	Brand     string `json:"brand"`
	Last4     string `json:"last4"`
	ExpMonth  int    `json:"expMonth"`
	ExpYear   int    `json:"expYear"`
	IsDefault bool   `json:"isDefault"`
	CreatedAt string `json:"createdAt"`
}

var paymentMethodRow = g.Object().
	Title("payment_methods").
	Field("id", idCol()).Required().
	Field("user_id", idCol()).Required().
	Field("type", optEnum("card", "apple_pay", "google_pay")).
	Field("brand", optText()).
	Field("last4", g.String().Digits(4).Nullable()).
	Field("exp_month", g.Int().Min(1).Max(12).CoerceFromString().Nullable()).
	Field("exp_year", g.Int().Min(2000).CoerceFromString().Nullable()).
	Field("is_default", optBool()).
	Field("created_at", optTime()).
	UnknownStrip().
	MustBuild()

// PaymentMethods turns payment_methods rows into PaymentMethod values.
var PaymentMethods = storeskema.Define[PaymentMethod]("payment_method").
	Raw(paymentMethodRow).
	Normalize(func(r storeskema.Record) PaymentMethod {
		return PaymentMethod{
			ID:        r.ID(),
			UserID:    r.StrOr("user_id", ""),
			Type:      r.StrOr("type", "card"),
			Brand:     r.StrOr("brand", ""),
			Last4:     r.StrOr("last4", ""),
			ExpMonth:  r.IntOr("exp_month", 0),
			ExpYear:   r.IntOr("exp_year", 0),
			IsDefault: r.BoolOr("is_default", false),
			CreatedAt: r.Time("created_at", storeskema.DefaultNow),
		}
	}).
	MustBuild()

// LinkPaymentMethods returns copies of users with their payment methods
// attached. Methods of unknown users emit a relation_miss diagnostic.
func LinkPaymentMethods(ctx context.Context, users []User, methods []PaymentMethod) []User {
	return storeskema.Group(ctx, "user", "payment_methods", users, methods,
		func(u User) string { return u.ID },
		func(m PaymentMethod) string { return m.UserID },
		func(u *User, ms []PaymentMethod) { u.PaymentMethods = ms },
	)
}
