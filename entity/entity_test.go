package entity_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storeskema "github.com/kioskcart/storeskema"
	"github.com/kioskcart/storeskema/batch"
	"github.com/kioskcart/storeskema/entity"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testCtx() context.Context {
	return storeskema.WithClock(context.Background(), storeskema.FixedClock(fixedNow))
}

type diagRecorder struct {
	mu   sync.Mutex
	seen []storeskema.Diagnostic
}

func (d *diagRecorder) Diagnose(_ context.Context, diag storeskema.Diagnostic) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen = append(d.seen, diag)
}

func (d *diagRecorder) kinds() []storeskema.DiagnosticKind {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]storeskema.DiagnosticKind, len(d.seen))
	for i, x := range d.seen {
		out[i] = x.Kind
	}
	return out
}

func withRecorder() (context.Context, *diagRecorder) {
	rec := &diagRecorder{}
	return storeskema.WithDiagnostics(testCtx(), rec), rec
}

func TestUsers_NormalizesIdentifiers(t *testing.T) {
	u, err := entity.Users.Run(testCtx(), storeskema.RawRecord{
		"id":        "u1",
		"email":     "  Alice@Example.COM ",
		"full_name": "  Alice Smith ",
		"role":      "Manager",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, "Alice Smith", u.Name)
	assert.Equal(t, u.Name, u.FullName)
	assert.Equal(t, entity.RoleManager, u.Role)
	assert.Equal(t, "Alice Smith", u.DisplayName)
	assert.Equal(t, "2024-03-01T12:00:00Z", u.CreatedAt)
	assert.Equal(t, "", u.UpdatedAt)

	raw, ok := u.Debug.Raw("email")
	require.True(t, ok)
	assert.Equal(t, "  Alice@Example.COM ", raw)
}

func TestUsers_DisplayNameFallsBackToEmail(t *testing.T) {
	u, err := entity.Users.Run(testCtx(), storeskema.RawRecord{"id": "u1", "email": "bob@shop.test", "full_name": nil})
	require.NoError(t, err)
	assert.Equal(t, "", u.Name)
	assert.Equal(t, "bob", u.DisplayName)
}

func TestUsers_Deterministic(t *testing.T) {
	raw := storeskema.RawRecord{"id": "u1", "email": "a@b.test", "loyalty_points": "12"}
	a, err := entity.Users.Run(testCtx(), raw)
	require.NoError(t, err)
	b, err := entity.Users.Run(testCtx(), raw)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, 12, a.LoyaltyPoints)
	assert.Equal(t, "12", raw["loyalty_points"], "input must not be modified")
}

func TestUsers_NullableBooleans(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		omit   bool
		active bool
	}{
		{name: "missing defaults to true", omit: true, active: true},
		{name: "null defaults to true", value: nil, active: true},
		{name: "false is preserved", value: false, active: false},
		{name: "true", value: true, active: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := storeskema.RawRecord{"id": "u1", "email": "a@b.test"}
			if !tt.omit {
				raw["is_active"] = tt.value
			}
			u, err := entity.Users.Run(testCtx(), raw)
			require.NoError(t, err)
			assert.Equal(t, tt.active, u.IsActive)
			assert.False(t, u.EmailVerified)
		})
	}
}

func TestUsers_StructuralIssues(t *testing.T) {
	_, err := entity.Users.Run(testCtx(), storeskema.RawRecord{"email": "not-an-email", "is_active": "yes"})
	iss, ok := storeskema.AsIssues(err)
	require.True(t, ok, "expected Issues, got %v", err)
	assert.False(t, errors.Is(err, storeskema.ErrInvariant))

	paths := map[string]string{}
	for _, it := range iss {
		paths[it.Path] = it.Code
	}
	assert.Equal(t, storeskema.CodeInvalidFormat, paths["/email"])
	assert.Equal(t, storeskema.CodeRequired, paths["/id"])
	assert.Equal(t, storeskema.CodeInvalidType, paths["/is_active"])
}

func TestStaffPins_IsActiveHasNoDefault(t *testing.T) {
	p, err := entity.StaffPins.Run(testCtx(), storeskema.RawRecord{"id": "p1", "staff_id": "s1", "pin": "1234", "is_active": nil})
	require.NoError(t, err)
	assert.Nil(t, p.IsActive)
	_, kept := p.Debug.Raw("pin")
	assert.False(t, kept)

	p, err = entity.StaffPins.Run(testCtx(), storeskema.RawRecord{"id": "p1", "staff_id": "s1", "pin": "1234", "is_active": false})
	require.NoError(t, err)
	require.NotNil(t, p.IsActive)
	assert.False(t, *p.IsActive)
}

func TestPinInputs_Messages(t *testing.T) {
	tests := []struct {
		pin  string
		code string
		msg  string
	}{
		{"12a4", storeskema.CodeNonNumeric, "PIN must contain only numbers"},
		{"123", storeskema.CodeTooShort, "PIN must be exactly 4 digits"},
		{"12345", storeskema.CodeTooLong, "PIN must be exactly 4 digits"},
	}
	for _, tt := range tests {
		t.Run(tt.pin, func(t *testing.T) {
			_, err := entity.PinInputs.RunFor(testCtx(), storeskema.OpCreate, storeskema.RawRecord{"pin": tt.pin})
			iss, ok := storeskema.AsIssues(err)
			require.True(t, ok)
			require.Len(t, iss, 1)
			assert.Equal(t, "/pin", iss[0].Path)
			assert.Equal(t, tt.code, iss[0].Code)
			assert.Equal(t, tt.msg, iss[0].Message)
			assert.Nil(t, iss[0].Value, "PIN must not be echoed")
		})
	}

	in, err := entity.PinInputs.RunFor(testCtx(), storeskema.OpCreate, storeskema.RawRecord{"pin": "0042"})
	require.NoError(t, err)
	assert.Equal(t, "0042", in.PIN)
}

func TestPinLogins_RejectsUnknownKeys(t *testing.T) {
	_, err := entity.PinLogins.RunFor(testCtx(), storeskema.OpCreate, storeskema.RawRecord{"staff_id": "s1", "pin": "1234", "remember": true})
	iss, ok := storeskema.AsIssues(err)
	require.True(t, ok)
	require.Len(t, iss, 1)
	assert.Equal(t, storeskema.CodeUnknownKey, iss[0].Code)
	assert.Equal(t, "/remember", iss[0].Path)
}

func paymentRow(total any) storeskema.RawRecord {
	return storeskema.RawRecord{
		"id": "pay1", "order_id": "o1", "method": "Card",
		"subtotal": 10.00, "tax": 0.85, "tip": 2.00, "total": total,
	}
}

func TestPayments_TotalInvariant(t *testing.T) {
	p, err := entity.Payments.Run(testCtx(), paymentRow(12.85))
	require.NoError(t, err)
	assert.Equal(t, "usd", p.Currency)
	assert.Equal(t, "card", p.Method)
	assert.Equal(t, map[string]any{}, p.Metadata)

	_, err = entity.Payments.Run(testCtx(), paymentRow(13.00))
	require.Error(t, err)
	assert.True(t, errors.Is(err, storeskema.ErrInvariant))
	ie, ok := storeskema.AsInvariant(err)
	require.True(t, ok)
	assert.Equal(t, "payment", ie.Entity)
	require.Len(t, ie.Issues, 1)
	assert.Equal(t, "/total", ie.Issues[0].Path)
	assert.Equal(t, storeskema.CodeSumMismatch, ie.Issues[0].Code)
	assert.Equal(t, 12.85, ie.Issues[0].Params["expected"])
}

func TestPayments_AmountsFromText(t *testing.T) {
	raw := paymentRow("12.85")
	raw["subtotal"] = "10.00"
	p, err := entity.Payments.Run(testCtx(), raw)
	require.NoError(t, err)
	assert.Equal(t, 10.0, p.Subtotal)
	assert.Equal(t, 12.85, p.Total)
}

func TestPayments_MetadataParseDiagnostic(t *testing.T) {
	ctx, rec := withRecorder()
	raw := paymentRow(12.85)
	raw["metadata"] = "{not json"
	raw["created_at"] = "2024-02-01T00:00:00Z"
	p, err := entity.Payments.Run(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, p.Metadata)
	assert.Equal(t, []storeskema.DiagnosticKind{storeskema.DiagMetadataParse}, rec.kinds())
}

func TestProducts_Derived(t *testing.T) {
	p, err := entity.Products.Run(testCtx(), storeskema.RawRecord{
		"id": "p1", "name": " Latte ", "price": "4.50",
		"stock_quantity": 3, "reserved_quantity": 5,
		"image_url": "https://cdn.test/latte.png",
		"metadata": `{"origin":"ET"}`,
		"tags":     []any{"hot", "coffee"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Latte", p.Name)
	assert.Equal(t, 4.5, p.Price)
	assert.Equal(t, 0, p.AvailableQuantity)
	assert.False(t, p.InStock)
	assert.Equal(t, p.StockQuantity, p.Stock)
	assert.Equal(t, p.ImageURL, p.LegacyImageURL)
	assert.Equal(t, map[string]any{"origin": "ET"}, p.Metadata)
	assert.Equal(t, []string{"hot", "coffee"}, p.Tags)
	assert.Equal(t, 1, p.PreOrderMinQuantity)
	assert.Nil(t, p.PreOrderMaxQuantity)
}

func TestProducts_EmptyNameAfterTrim(t *testing.T) {
	_, err := entity.Products.Run(testCtx(), storeskema.RawRecord{"id": "p1", "name": "   ", "price": 1})
	iss, ok := storeskema.AsIssues(err)
	require.True(t, ok)
	require.Len(t, iss, 1)
	assert.Equal(t, "/name", iss[0].Path)
	assert.Equal(t, storeskema.CodeEmptyAfterTrim, iss[0].Code)
}

func TestAttachCategories_RelationMiss(t *testing.T) {
	ctx, rec := withRecorder()
	cats, _, err := batch.Process[entity.Category](ctx, entity.Categories, []storeskema.RawRecord{
		{"id": "c1", "name": "Drinks", "created_at": "2024-01-01T00:00:00Z"},
	}, batch.FailFast)
	require.NoError(t, err)
	prods, _, err := batch.Process[entity.Product](ctx, entity.Products, []storeskema.RawRecord{
		{"id": "p1", "name": "Latte", "price": 4.5, "category_id": "c1", "created_at": "2024-01-01T00:00:00Z"},
		{"id": "p2", "name": "Bagel", "price": 3, "category_id": "c9", "created_at": "2024-01-01T00:00:00Z"},
		{"id": "p3", "name": "Gift card", "price": 25, "created_at": "2024-01-01T00:00:00Z"},
	}, batch.FailFast)
	require.NoError(t, err)

	out := entity.AttachCategories(ctx, prods, cats)
	require.Len(t, out, 3)
	require.NotNil(t, out[0].Category)
	assert.Equal(t, "Drinks", out[0].Category.Name)
	assert.Nil(t, out[1].Category)
	assert.Nil(t, out[2].Category)
	assert.Nil(t, prods[0].Category, "inputs must not be modified")

	require.Equal(t, []storeskema.DiagnosticKind{storeskema.DiagRelationMiss}, rec.kinds())
	assert.Equal(t, "c9", rec.seen[0].ID)
	assert.Equal(t, 1, rec.seen[0].Index)
}

func TestCartItems_PriceResolution(t *testing.T) {
	ctx := testCtx()
	embedded, err := entity.CartItems.Run(ctx, storeskema.RawRecord{
		"id": "ci1", "product_id": "p1", "quantity": 3,
		"product": map[string]any{"id": "p1", "name": "Latte", "price": 4.15},
	})
	require.NoError(t, err)
	assert.Equal(t, 4.15, embedded.UnitPrice)
	assert.Equal(t, 12.45, embedded.LineTotal)
	require.NotNil(t, embedded.Product)

	stored, err := entity.CartItems.Run(ctx, storeskema.RawRecord{"id": "ci2", "product_id": "p1", "quantity": 2, "unit_price": 3.99})
	require.NoError(t, err)
	bare, err := entity.CartItems.Run(ctx, storeskema.RawRecord{"id": "ci3", "product_id": "p1", "quantity": 2})
	require.NoError(t, err)
	assert.Equal(t, 0.0, bare.LineTotal)

	p, err := entity.Products.Run(ctx, storeskema.RawRecord{"id": "p1", "name": "Latte", "price": 5})
	require.NoError(t, err)
	out := entity.AttachProducts(ctx, []entity.CartItem{stored, bare}, []entity.Product{p})
	assert.Equal(t, 3.99, out[0].UnitPrice, "stored price wins")
	assert.Equal(t, 7.98, out[0].LineTotal)
	assert.Equal(t, 5.0, out[1].UnitPrice)
	assert.Equal(t, 10.0, out[1].LineTotal)
}

func TestCartItems_EmbeddedProductMismatch(t *testing.T) {
	ctx, rec := withRecorder()
	it, err := entity.CartItems.Run(ctx, storeskema.RawRecord{
		"id": "ci1", "product_id": "p1", "quantity": 2, "added_at": "2024-03-01T08:00:00Z",
		"product": map[string]any{"id": "p999", "name": "Other", "price": 7},
	})
	require.NoError(t, err)
	assert.Nil(t, it.Product)
	assert.Equal(t, 0.0, it.UnitPrice)
	assert.Equal(t, 0.0, it.LineTotal)
	require.Equal(t, []storeskema.DiagnosticKind{storeskema.DiagRelationMiss}, rec.kinds())
	assert.Equal(t, "/product/id", rec.seen[0].Path)
	assert.Equal(t, "ci1", rec.seen[0].ID)
}

func orderRaw() storeskema.RawRecord {
	return storeskema.RawRecord{
		"id": "o1", "status": "Confirmed", "subtotal": 9.0, "tax": 0.75, "tip": 1, "total": 10.75,
		"items": []any{
			map[string]any{"id": "i1", "product_id": "p1", "quantity": 2, "unit_price": 3.0},
			map[string]any{"id": "i2", "product_id": "p2", "quantity": 1, "unit_price": 3.0, "total_price": 3.0},
		},
	}
}

func TestOrders_Valid(t *testing.T) {
	o, err := entity.Orders.Run(testCtx(), orderRaw())
	require.NoError(t, err)
	assert.Equal(t, entity.OrderConfirmed, o.Status)
	assert.Equal(t, entity.PaymentPending, o.PaymentStatus)
	require.Len(t, o.Items, 2)
	assert.Equal(t, 6.0, o.Items[0].TotalPrice)
	assert.Equal(t, 3, o.ItemCount)
}

func TestOrders_Invariants(t *testing.T) {
	raw := orderRaw()
	raw["total"] = 11.75
	items := raw["items"].([]any)
	items[1].(map[string]any)["total_price"] = 4.0
	items[1].(map[string]any)["id"] = "i1"

	_, err := entity.Orders.Run(testCtx(), raw)
	ie, ok := storeskema.AsInvariant(err)
	require.True(t, ok, "expected invariant error, got %v", err)

	got := map[string]string{}
	for _, it := range ie.Issues {
		got[it.Path] = it.Code
	}
	assert.Equal(t, map[string]string{
		"/total":              storeskema.CodeSumMismatch,
		"/items/1/totalPrice": storeskema.CodeSumMismatch,
		"/items/1/id":         storeskema.CodeUniqueness,
	}, got)
}

func TestOrders_NullItems(t *testing.T) {
	raw := orderRaw()
	raw["items"] = nil
	o, err := entity.Orders.Run(testCtx(), raw)
	require.NoError(t, err)
	assert.Empty(t, o.Items)
	assert.NotNil(t, o.Items)
}

func TestOrders_SettledRequiresItems(t *testing.T) {
	cases := []struct {
		name    string
		status  string
		payment string
		fail    bool
	}{
		{"pending unpaid", "pending", "pending", false},
		{"confirmed unpaid", "confirmed", "failed", false},
		{"paid", "confirmed", "paid", true},
		{"completed", "completed", "refunded", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := orderRaw()
			raw["items"] = []any{}
			raw["subtotal"], raw["tax"], raw["tip"], raw["total"] = 0.0, 0.0, 0, 0.0
			raw["status"], raw["payment_status"] = tc.status, tc.payment

			_, err := entity.Orders.Run(testCtx(), raw)
			if !tc.fail {
				require.NoError(t, err)
				return
			}
			ie, ok := storeskema.AsInvariant(err)
			require.True(t, ok, "expected invariant error, got %v", err)
			require.Len(t, ie.Issues, 1)
			assert.Equal(t, "/items", ie.Issues[0].Path)
			assert.Equal(t, storeskema.CodeTooShort, ie.Issues[0].Code)
		})
	}

	raw := orderRaw()
	raw["payment_status"] = "paid"
	_, err := entity.Orders.Run(testCtx(), raw)
	require.NoError(t, err)
}

func TestKioskSessions_EmbeddedStaff(t *testing.T) {
	ctx, rec := withRecorder()
	s, err := entity.KioskSessions.Run(ctx, storeskema.RawRecord{
		"id": "k1", "kiosk_id": "front", "staff_id": "s1", "started_at": "2024-03-01T08:00:00Z",
		"users": map[string]any{"id": "s1", "full_name": "Dana", "role": "manager"},
	})
	require.NoError(t, err)
	require.NotNil(t, s.Staff)
	assert.Equal(t, "Dana", s.Staff.Name)
	assert.True(t, s.IsOpen)
	assert.Empty(t, rec.kinds())

	s, err = entity.KioskSessions.Run(ctx, storeskema.RawRecord{
		"id": "k2", "kiosk_id": "front", "staff_id": "s1", "started_at": "2024-03-01T08:00:00Z",
		"ended_at": "2024-03-01T16:00:00Z",
		"staff":    map[string]any{"id": "s2"},
	})
	require.NoError(t, err)
	assert.Nil(t, s.Staff)
	assert.False(t, s.IsOpen)
	assert.Equal(t, []storeskema.DiagnosticKind{storeskema.DiagRelationMiss}, rec.kinds())
}

func TestProductInputs_PreOrderBounds(t *testing.T) {
	raw := storeskema.RawRecord{"name": "Mug", "price": 12, "is_pre_order": true, "pre_order_min_quantity": 5, "pre_order_max_quantity": 2}
	_, err := entity.ProductInputs.RunFor(testCtx(), storeskema.OpCreate, raw)
	ie, ok := storeskema.AsInvariant(err)
	require.True(t, ok)
	assert.Equal(t, storeskema.CodeDomainRange, ie.Issues[0].Code)

	raw["is_pre_order"] = false
	in, err := entity.ProductInputs.RunFor(testCtx(), storeskema.OpCreate, raw)
	require.NoError(t, err, "bounds only apply to pre-order products")
	assert.False(t, in.IsPreOrder)

	_, err = entity.ProductInputs.RunFor(testCtx(), storeskema.OpCreate, storeskema.RawRecord{"name": "Mug", "price": 12, "colour": "red"})
	iss, ok := storeskema.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, "/colour", iss[0].Path)
}

func TestRegisterInputs_PasswordsMatch(t *testing.T) {
	base := storeskema.RawRecord{"email": "A@B.test", "password": "correct-horse", "full_name": "Ann"}
	in, err := entity.RegisterInputs.RunFor(testCtx(), storeskema.OpCreate, base)
	require.NoError(t, err)
	assert.Equal(t, "a@b.test", in.Email)

	raw := storeskema.RawRecord{"email": "a@b.test", "password": "correct-horse", "confirm_password": "wrong-horse", "full_name": "Ann"}
	_, err = entity.RegisterInputs.RunFor(testCtx(), storeskema.OpCreate, raw)
	iss, ok := storeskema.AsIssues(err)
	require.True(t, ok)
	require.Len(t, iss, 1)
	assert.Equal(t, "/confirm_password", iss[0].Path)
	assert.Equal(t, storeskema.CodeCustom, iss[0].Code)
}

func TestLoginInputs_ShortPassword(t *testing.T) {
	_, err := entity.LoginInputs.RunFor(testCtx(), storeskema.OpCreate, storeskema.RawRecord{"email": "a@b.test", "password": "short"})
	iss, ok := storeskema.AsIssues(err)
	require.True(t, ok)
	require.Len(t, iss, 1)
	assert.Equal(t, "/password", iss[0].Path)
	assert.Equal(t, storeskema.CodeTooShort, iss[0].Code)
	assert.Nil(t, iss[0].Value)
}

func TestProfileUpdates_Presence(t *testing.T) {
	in, err := entity.ProfileUpdates.RunFor(testCtx(), storeskema.OpPatch, storeskema.RawRecord{"phone": nil, "full_name": " Ann "})
	require.NoError(t, err)
	assert.True(t, in.Phone.IsNull())
	assert.True(t, in.AvatarURL.IsMissing())
	v, ok := in.FullName.Get()
	require.True(t, ok)
	assert.Equal(t, "Ann", v)

	_, err = entity.ProfileUpdates.RunFor(testCtx(), storeskema.OpPatch, storeskema.RawRecord{})
	iss, ok := storeskema.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, storeskema.CodeRequired, iss[0].Code)
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func authRaw(session map[string]any) storeskema.RawRecord {
	return storeskema.RawRecord{
		"user":    map[string]any{"id": "u1", "email": "a@b.test", "created_at": "2024-01-01T00:00:00Z"},
		"session": session,
	}
}

func TestAuthResponses_SessionExpiry(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("stored expires_at wins", func(t *testing.T) {
		r, err := entity.AuthResponses.Run(testCtx(), authRaw(map[string]any{
			"access_token": signedToken(t, exp), "refresh_token": "r", "expires_at": 1700000000,
		}))
		require.NoError(t, err)
		require.NotNil(t, r.Session)
		assert.Equal(t, int64(1700000000), r.Session.ExpiresAt)
		assert.Equal(t, "bearer", r.Session.TokenType)
	})

	t.Run("token exp claim", func(t *testing.T) {
		r, err := entity.AuthResponses.Run(testCtx(), authRaw(map[string]any{
			"access_token": signedToken(t, exp), "refresh_token": "r", "expires_in": 3600,
		}))
		require.NoError(t, err)
		assert.Equal(t, exp.Unix(), r.Session.ExpiresAt)
	})

	t.Run("expires_in from clock", func(t *testing.T) {
		ctx, rec := withRecorder()
		r, err := entity.AuthResponses.Run(ctx, authRaw(map[string]any{
			"access_token": "opaque", "refresh_token": "r", "expires_in": 3600,
		}))
		require.NoError(t, err)
		assert.Equal(t, fixedNow.Unix()+3600, r.Session.ExpiresAt)
		assert.Equal(t, []storeskema.DiagnosticKind{storeskema.DiagDefaultNow}, rec.kinds())
	})

	t.Run("no session", func(t *testing.T) {
		r, err := entity.AuthResponses.Run(testCtx(), authRaw(nil))
		require.NoError(t, err)
		assert.Nil(t, r.Session)
		assert.Equal(t, "u1", r.User.ID)
	})
}

func TestAuthResponses_IdentityExtra(t *testing.T) {
	r, err := entity.AuthResponses.Run(testCtx(), authRaw(map[string]any{
		"access_token": "opaque", "refresh_token": "r",
		"user": map[string]any{
			"id":    "0b6f3a52-4a3e-4b8b-9a55-2d1c0f3e9b11",
			"email": "A@B.test",
			"factors": []any{"totp"},
		},
	}))
	require.NoError(t, err)
	require.NotNil(t, r.Session.User)
	assert.Equal(t, "a@b.test", r.Session.User.Email)
	assert.Equal(t, map[string]any{"factors": []any{"totp"}}, r.Session.User.Extra)
}

func productRows(n, from int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = map[string]any{"id": fmt.Sprintf("p%d", from+i), "name": "Item", "price": 1, "created_at": "2024-01-01T00:00:00Z"}
	}
	return out
}

func TestParsePage(t *testing.T) {
	ctx := testCtx()

	first, err := entity.ParsePage[entity.Product](ctx, entity.Products, storeskema.RawRecord{
		"data": productRows(10, 0), "total": 25, "page": 1, "limit": 10,
	}, batch.FailFast)
	require.NoError(t, err)
	assert.Equal(t, 3, first.TotalPages)
	assert.True(t, first.HasMore)
	assert.Len(t, first.Data, 10)
	assert.NoError(t, first.Check(ctx))

	last, err := entity.ParsePage[entity.Product](ctx, entity.Products, storeskema.RawRecord{
		"data": productRows(5, 20), "total": 25, "page": 3, "limit": 10, "has_more": false,
	}, batch.FailFast)
	require.NoError(t, err)
	assert.False(t, last.HasMore)

	_, err = entity.ParsePage[entity.Product](ctx, entity.Products, storeskema.RawRecord{
		"data": productRows(10, 0), "total": 25, "page": 1, "limit": 10, "has_more": false,
	}, batch.FailFast)
	ie, ok := storeskema.AsInvariant(err)
	require.True(t, ok)
	assert.Equal(t, "page", ie.Entity)
	assert.Equal(t, "/hasMore", ie.Issues[0].Path)

	_, err = entity.ParsePage[entity.Product](ctx, entity.Products, storeskema.RawRecord{
		"data": []any{}, "total": 0, "page": 1, "limit": 0,
	}, batch.FailFast)
	iss, ok := storeskema.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, "/limit", iss[0].Path)
}

func TestParsePage_SkipInvalid(t *testing.T) {
	ctx, rec := withRecorder()
	rows := productRows(10, 0)
	rows[1].(map[string]any)["price"] = -1
	_, err := entity.ParsePage[entity.Product](ctx, entity.Products, storeskema.RawRecord{
		"data": rows, "total": 25, "page": 1, "limit": 10,
	}, batch.SkipInvalid)
	ie, ok := storeskema.AsInvariant(err)
	require.True(t, ok, "expected invariant error, got %v", err)
	require.Len(t, ie.Issues, 1)
	assert.Equal(t, "/data", ie.Issues[0].Path)
	assert.Equal(t, 10, ie.Issues[0].Params["expected"])
	assert.Equal(t, 9, ie.Issues[0].Params["got"])
	assert.Equal(t, []int{1}, ie.Issues[0].Params["skipped"])
	assert.Contains(t, rec.kinds(), storeskema.DiagRecordSkipped)

	p, err := entity.ParsePage[entity.Product](testCtx(), entity.Products, storeskema.RawRecord{
		"data": productRows(10, 0), "total": 25, "page": 1, "limit": 10,
	}, batch.SkipInvalid)
	require.NoError(t, err)
	assert.NoError(t, p.Check(testCtx()))
}

func TestRegistry(t *testing.T) {
	names := entity.Names()
	assert.Contains(t, names, "payment")
	assert.Contains(t, names, "auth_response")
	assert.IsIncreasing(t, names)

	e, err := entity.Lookup("payment")
	require.NoError(t, err)
	v, err := e.Run(testCtx(), paymentRow(12.85))
	require.NoError(t, err)
	assert.IsType(t, entity.Payment{}, v)

	out, rep, err := e.RunBatch(testCtx(), []storeskema.RawRecord{paymentRow(12.85), paymentRow(99)}, batch.SkipInvalid)
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, 1, rep.Skipped)

	doc, err := e.JSONSchema()
	require.NoError(t, err)
	assert.Equal(t, "payment", doc.Title)
	assert.Contains(t, doc.Required, "total")

	_, err = entity.Lookup("invoice")
	assert.Error(t, err)
}
