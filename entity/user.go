package entity

import (
	"strings"

	storeskema "github.com/kioskcart/storeskema"
	g "github.com/kioskcart/storeskema/dsl"
)

// Role is a user's role within the store.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// User is a normalized row of the users table.
type User struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"` // legacy alias of Name
	Phone         string `json:"phone"`
	AvatarURL     string `json:"avatarUrl"`
	Role          Role   `json:"role"`
	IsActive      bool   `json:"isActive"`
	EmailVerified bool   `json:"emailVerified"`
	LoyaltyPoints int    `json:"loyaltyPoints"`
	CreatedAt     string `json:"createdAt"`
	UpdatedAt     string `json:"updatedAt"`
	LastLoginAt   string `json:"lastLoginAt"`
	DisplayName   string `json:"displayName"`

	PaymentMethods []PaymentMethod `json:"paymentMethods,omitempty"`

	Debug storeskema.DebugMetadata `json:"_dbData,omitempty"`
}

var userRow = g.Object().
	Title("users").
	Field("id", idCol()).Required().
	Field("email", g.String().Trim().Lower().Email()).Required().
	Field("full_name", optText()).
	Field("phone", optText()).
	Field("avatar_url", optURL()).
	Field("role", optEnum(string(RoleCustomer), string(RoleStaff), string(RoleManager), string(RoleAdmin))).
	Field("is_active", optBool()).
	Field("email_verified", optBool()).
	Field("loyalty_points", optCount()).
	Field("created_at", optTime()).
	Field("updated_at", optTime()).
	Field("last_login_at", optTime()).
	UnknownStrip().
	MustBuild()

// Users turns users rows into User values.
var Users = storeskema.Define[User]("user").
	Raw(userRow).
	Normalize(normalizeUser).
	MustBuild()

func normalizeUser(r storeskema.Record) User {
	u := User{
		ID:            r.ID(),
		Email:         r.Email("email"),
		Name:          r.Name("full_name", false),
		Phone:         r.StrOr("phone", ""),
		AvatarURL:     r.StrOr("avatar_url", ""),
		Role:          Role(r.StrOr("role", string(RoleCustomer))),
		IsActive:      r.BoolOr("is_active", true),
		EmailVerified: r.BoolOr("email_verified", false),
		LoyaltyPoints: r.IntOr("loyalty_points", 0),
		CreatedAt:     r.Time("created_at", storeskema.DefaultNow),
		UpdatedAt:     r.Time("updated_at", storeskema.DefaultEmpty),
		LastLoginAt:   r.Time("last_login_at", storeskema.DefaultEmpty),
		Debug:         r.Capture("full_name", "email", "role", "is_active", "created_at"),
	}
	u.FullName = u.Name
	u.DisplayName = displayName(u.Name, u.Email)
	return u
}

// displayName prefers the name and falls back to the email's local part.
func displayName(name, email string) string {
	if name != "" {
		return name
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}
