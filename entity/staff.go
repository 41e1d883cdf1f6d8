package entity

import (
	storeskema "github.com/kioskcart/storeskema"
	g "github.com/kioskcart/storeskema/dsl"
)

func pinField() *g.StringBuilder { return g.String().Digits(4).Label("PIN").Sensitive() }

// StaffPin is a normalized row of the staff_pins table. The PIN itself is
// validated but never copied into the value or its debug metadata.
type StaffPin struct {
	ID             string `json:"id"`
	StaffID        string `json:"staffId"`
	IsActive       *bool  `json:"isActive"`
	FailedAttempts int    `json:"failedAttempts"`
	LockedUntil    string `json:"lockedUntil"`
	LastUsedAt     string `json:"lastUsedAt"`
	CreatedAt      string `json:"createdAt"`

	Debug storeskema.DebugMetadata `json:"_dbData,omitempty"`
}

var staffPinRow = g.Object().
	Title("staff_pins").
	Field("id", idCol()).Required().
	Field("staff_id", idCol()).Required().
	Field("pin", pinField()).Required().
	Field("is_active", optBool()).
	Field("failed_attempts", optCount()).
	Field("locked_until", optTime()).
	Field("last_used_at", optTime()).
	Field("created_at", optTime()).
	UnknownStrip().
	MustBuild()

// StaffPins turns staff_pins rows into StaffPin values. is_active has no
// default: a NULL stays nil so callers can tell "never set" from false.
var StaffPins = storeskema.Define[StaffPin]("staff_pin").
	Raw(staffPinRow).
	Normalize(func(r storeskema.Record) StaffPin {
		return StaffPin{
			ID:             r.ID(),
			StaffID:        r.StrOr("staff_id", ""),
			IsActive:       r.Bool("is_active").Ptr(),
			FailedAttempts: r.IntOr("failed_attempts", 0),
			LockedUntil:    r.Time("locked_until", storeskema.DefaultEmpty),
			LastUsedAt:     r.Time("last_used_at", storeskema.DefaultEmpty),
			CreatedAt:      r.Time("created_at", storeskema.DefaultNow),
			Debug:          r.Capture("staff_id", "is_active", "failed_attempts"),
		}
	}).
	MustBuild()

// PinInput is a PIN typed on the kiosk keypad.
type PinInput struct {
	PIN string `json:"-"`
}

// PinLoginInput is a kiosk staff login.
type PinLoginInput struct {
	StaffID string `json:"staffId"`
	PIN     string `json:"-"`
}

// PinInputs validates a PIN entry.
var PinInputs = storeskema.Define[PinInput]("pin_input").
	Raw(g.Object().
		Title("pin_input").
		Field("pin", pinField()).Required().
		UnknownStrict().
		MustBuild()).
	Normalize(func(r storeskema.Record) PinInput { return PinInput{PIN: r.StrOr("pin", "")} }).
	MustBuild()

// PinLogins validates a kiosk staff login.
var PinLogins = storeskema.Define[PinLoginInput]("pin_login").
	Raw(g.Object().
		Title("pin_login").
		Field("staff_id", idCol()).Required().
		Field("pin", pinField()).Required().
		UnknownStrict().
		MustBuild()).
	Normalize(func(r storeskema.Record) PinLoginInput {
		return PinLoginInput{StaffID: r.StrOr("staff_id", ""), PIN: r.StrOr("pin", "")}
	}).
	MustBuild()
