package entity

import (
	"context"

	"github.com/golang-jwt/jwt/v5"

	storeskema "github.com/kioskcart/storeskema"
	g "github.com/kioskcart/storeskema/dsl"
)

// LoginInput is an email/password sign-in request.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"-"`
}

func emailField() *g.StringBuilder { return g.String().Trim().Lower().Email() }

func passwordField() *g.StringBuilder { return g.String().Min(8).Max(128).Label("password").Sensitive() }

// LoginInputs validates sign-in requests.
var LoginInputs = storeskema.Define[LoginInput]("login").
	Raw(g.Object().
		Title("login").
		Field("email", emailField()).Required().
		Field("password", passwordField()).Required().
		UnknownStrict().
		MustBuild()).
	Normalize(func(r storeskema.Record) LoginInput {
		return LoginInput{Email: r.Email("email"), Password: r.StrOr("password", "")}
	}).
	MustBuild()

// RegisterInput is a sign-up request.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"-"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
}

func passwordsMatch(_ context.Context, m map[string]any) error {
	confirm, ok := m["confirm_password"].(string)
	if !ok {
		return nil
	}
	if pw, _ := m["password"].(string); pw != confirm {
		return storeskema.Issues{{Path: "/confirm_password", Code: storeskema.CodeCustom, Message: "passwords do not match"}}
	}
	return nil
}

// RegisterInputs validates sign-up requests. confirm_password is optional
// but must equal password when sent.
var RegisterInputs = storeskema.Define[RegisterInput]("register").
	Raw(g.Object().
		Title("register").
		Field("email", emailField()).Required().
		Field("password", passwordField()).Required().
		Field("confirm_password", g.String().Sensitive()).
		Field("full_name", g.String().Trim().NonEmpty().Max(100)).Required().
		Field("phone", optText()).
		UnknownStrict().
		Refine("passwords_match", passwordsMatch).
		MustBuild()).
	Normalize(func(r storeskema.Record) RegisterInput {
		return RegisterInput{
			Email:    r.Email("email"),
			Password: r.StrOr("password", ""),
			FullName: r.Name("full_name", true),
			Phone:    r.StrOr("phone", ""),
		}
	}).
	MustBuild()

// RefreshInput exchanges a refresh token for a new session.
type RefreshInput struct {
	RefreshToken string `json:"-"`
}

// RefreshInputs validates token refresh requests.
var RefreshInputs = storeskema.Define[RefreshInput]("refresh").
	Raw(g.Object().
		Title("refresh").
		Field("refresh_token", g.String().Trim().NonEmpty().Sensitive()).Required().
		UnknownStrict().
		MustBuild()).
	Normalize(func(r storeskema.Record) RefreshInput { return RefreshInput{RefreshToken: r.StrOr("refresh_token", "")} }).
	MustBuild()

// ProfileUpdateInput is a partial profile update. A null field clears the
// value; a missing field leaves it untouched.
type ProfileUpdateInput struct {
	FullName  storeskema.Opt[string] `json:"fullName,omitzero"`
	Phone     storeskema.Opt[string] `json:"phone,omitzero"`
	AvatarURL storeskema.Opt[string] `json:"avatarUrl,omitzero"`
}

var profileFields = []string{"full_name", "phone", "avatar_url"}

func atLeastOneField(_ context.Context, m map[string]any) error {
	for _, k := range profileFields {
		if _, ok := m[k]; ok {
			return nil
		}
	}
	return storeskema.Issues{{Path: "/", Code: storeskema.CodeRequired, Message: "at least one field must be provided",
		Params: map[string]any{"fields": profileFields}}}
}

// ProfileUpdates validates partial profile updates.
var ProfileUpdates = storeskema.Define[ProfileUpdateInput]("profile_update").
	Raw(g.Object().
		Title("profile_update").
		Field("full_name", g.String().Trim().NonEmpty().Max(100).Nullable()).
		Field("phone", optText()).
		Field("avatar_url", optURL()).
		UnknownStrict().
		Refine("at_least_one_field", atLeastOneField).
		MustBuild()).
	Normalize(func(r storeskema.Record) ProfileUpdateInput {
		return ProfileUpdateInput{FullName: r.Str("full_name"), Phone: r.Str("phone"), AvatarURL: r.Str("avatar_url")}
	}).
	MustBuild()

// Identity is the user record of the external identity provider. Fields
// this package does not know are kept in Extra.
type Identity struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Aud          string         `json:"aud"`
	Role         string         `json:"role"`
	Phone        string         `json:"phone"`
	AppMetadata  map[string]any `json:"appMetadata"`
	UserMetadata map[string]any `json:"userMetadata"`
	CreatedAt    string         `json:"createdAt"`
	Extra        map[string]any `json:"extra,omitempty"`
}

// Session is an authenticated session.
type Session struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	TokenType    string    `json:"tokenType"`
	ExpiresIn    int       `json:"expiresIn"`
	ExpiresAt    int64     `json:"expiresAt"`
	User         *Identity `json:"user,omitempty"`
}

// AuthResponse is the result of a successful sign-in or sign-up.
type AuthResponse struct {
	User    User     `json:"user"`
	Session *Session `json:"session"`
}

var identityRow = g.Object().
	Field("id", g.String().UUID()).Required().
	Field("email", optText()).
	Field("aud", optText()).
	Field("role", optText()).
	Field("phone", optText()).
	Field("app_metadata", g.JSONText().Nullable()).
	Field("user_metadata", g.JSONText().Nullable()).
	Field("created_at", optTime()).
	UnknownPassthrough("extra").
	MustBuild()

var sessionRow = g.Object().
	Field("access_token", g.String().NonEmpty().Sensitive()).Required().
	Field("refresh_token", g.String().NonEmpty().Sensitive()).Required().
	Field("token_type", optText()).
	Field("expires_in", optCount()).
	Field("expires_at", g.Int().CoerceFromString().Nullable()).
	Field("user", g.SchemaOf(identityRow).Nullable()).
	UnknownStrip().
	MustBuild()

// AuthResponses turns an auth payload into an AuthResponse.
var AuthResponses = storeskema.Define[AuthResponse]("auth_response").
	Raw(g.Object().
		Title("auth_response").
		Field("user", g.SchemaOf(userRow)).Required().
		Field("session", g.SchemaOf(sessionRow).Nullable()).
		UnknownStrip().
		MustBuild()).
	Normalize(normalizeAuthResponse).
	MustBuild()

func normalizeAuthResponse(r storeskema.Record) AuthResponse {
	var out AuthResponse
	if ur, ok := r.Object("user"); ok {
		out.User = normalizeUser(ur)
	}
	sr, ok := r.Object("session")
	if !ok {
		return out
	}
	s := &Session{
		AccessToken:  sr.StrOr("access_token", ""),
		RefreshToken: sr.StrOr("refresh_token", ""),
		TokenType:    sr.StrOr("token_type", "bearer"),
		ExpiresIn:    sr.IntOr("expires_in", 0),
	}
	s.ExpiresAt = sessionExpiry(sr, s.AccessToken)
	if ir, ok := sr.Object("user"); ok {
		s.User = &Identity{
			ID:           ir.ID(),
			Email:        ir.Email("email"),
			Aud:          ir.StrOr("aud", ""),
			Role:         ir.StrOr("role", ""),
			Phone:        ir.StrOr("phone", ""),
			AppMetadata:  ir.JSONObject("app_metadata"),
			UserMetadata: ir.JSONObject("user_metadata"),
			CreatedAt:    ir.Time("created_at", storeskema.DefaultEmpty),
			Extra:        ir.JSONObject("extra"),
		}
	}
	out.Session = s
	return out
}

// sessionExpiry returns expires_at when stored, else the access token's exp
// claim, else now + expires_in, else 0. The token signature is not verified:
// the value is informational and never used for authorization.
func sessionExpiry(sr storeskema.Record, access string) int64 {
	if v, ok := sr.Int("expires_at").Get(); ok {
		return int64(v)
	}
	if exp, ok := tokenExpiry(access); ok {
		return exp
	}
	if n, ok := sr.Int("expires_in").Get(); ok {
		sr.Scope().Diagnose(storeskema.DiagDefaultNow, sr.Path("expires_at"), "", "session expiry derived from current time", nil)
		return sr.Scope().Instant().Unix() + int64(n)
	}
	return 0
}

func tokenExpiry(token string) (int64, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return 0, false
	}
	if claims.ExpiresAt == nil {
		return 0, false
	}
	return claims.ExpiresAt.Unix(), true
}
