package entity

import (
	"context"
	"fmt"

	storeskema "github.com/kioskcart/storeskema"
	g "github.com/kioskcart/storeskema/dsl"
)

// Staff is the staff member embedded in a kiosk session.
type Staff struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// KioskSession is a normalized row of the kiosk_sessions table.
type KioskSession struct {
	ID         string  `json:"id"`
	KioskID    string  `json:"kioskId"`
	StaffID    *string `json:"staffId"`
	StartedAt  string  `json:"startedAt"`
	EndedAt    string  `json:"endedAt"`
	IsActive   bool    `json:"isActive"`
	OrderCount int     `json:"orderCount"`
	TotalSales float64 `json:"totalSales"`
	IsOpen     bool    `json:"isOpen"`
	Staff      *Staff  `json:"staff,omitempty"`

	Debug storeskema.DebugMetadata `json:"_dbData,omitempty"`
}

var staffRow = g.Object().
	Field("id", idCol()).Required().
	Field("full_name", optText()).
	Field("role", optEnum(string(RoleCustomer), string(RoleStaff), string(RoleManager), string(RoleAdmin))).
	UnknownStrip().
	MustBuild()

var kioskSessionRow = g.Object().
	Title("kiosk_sessions").
	Field("id", idCol()).Required().
	Field("kiosk_id", idCol()).Required().
	Field("staff_id", optText()).
	Field("started_at", optTime()).
	Field("ended_at", optTime()).
	Field("is_active", optBool()).
	Field("order_count", optCount()).
	Field("total_sales", optMoney()).
	Field("staff", g.SchemaOf(staffRow).Nullable()).
	Field("users", g.SchemaOf(staffRow).Nullable()).
	UnknownStrip().
	MustBuild()

// KioskSessions turns kiosk_sessions rows into KioskSession values. The
// joined staff row is read from "staff", or from the legacy "users" key.
var KioskSessions = storeskema.Define[KioskSession]("kiosk_session").
	Raw(kioskSessionRow).
	Normalize(normalizeKioskSession).
	MustBuild()

func normalizeKioskSession(r storeskema.Record) KioskSession {
	s := KioskSession{
		ID:         r.ID(),
		KioskID:    r.StrOr("kiosk_id", ""),
		StaffID:    r.Ptr("staff_id"),
		StartedAt:  r.Time("started_at", storeskema.DefaultNow),
		EndedAt:    r.Time("ended_at", storeskema.DefaultEmpty),
		IsActive:   r.BoolOr("is_active", true),
		OrderCount: r.IntOr("order_count", 0),
		TotalSales: r.FloatOr("total_sales", 0),
		Debug:      r.Capture("is_active", "staff_id", "started_at", "ended_at"),
	}
	s.IsOpen = s.IsActive && s.EndedAt == ""

	sr, ok := r.Object("staff")
	if !ok {
		sr, ok = r.Object("users")
	}
	if ok {
		st := Staff{ID: sr.ID(), Name: sr.Name("full_name", false), Role: Role(sr.StrOr("role", string(RoleStaff)))}
		if s.StaffID != nil && st.ID == *s.StaffID {
			s.Staff = &st
		} else {
			r.Scope().Diagnose(storeskema.DiagRelationMiss, sr.Path("id"), s.ID,
				fmt.Sprintf("embedded staff %q does not match staff_id", st.ID), nil)
		}
	}
	return s
}

// AttachStaff returns copies of sessions with Staff set from users by id.
func AttachStaff(ctx context.Context, sessions []KioskSession, users []User) []KioskSession {
	return storeskema.Join(ctx, "kiosk_session", "staff", sessions, users,
		func(s KioskSession) *string { return s.StaffID },
		func(u User) string { return u.ID },
		func(s *KioskSession, u *User) { s.Staff = &Staff{ID: u.ID, Name: u.Name, Role: u.Role} },
	)
}
