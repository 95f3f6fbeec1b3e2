package domain

import "strings"

// Role is a user role as carried in the auth token
type Role string

const (
	RoleClient Role = "CLIENT"
	RoleDJ     Role = "DJ"
	RoleAdmin  Role = "ADMIN"
)

// ParseRole normalizes a role string; unknown values map to ""
func ParseRole(s string) Role {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleClient, RoleDJ, RoleAdmin:
		return r
	}
	return ""
}

// Actor is the caller of a lifecycle operation
type Actor struct {
	UserID string
	Role   Role
}

// SystemActor is used by the timeout sweep. It has admin rights and is
// recorded with a NULL actor id.
var SystemActor = Actor{Role: RoleAdmin}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsSystem reports whether the actor is the internal sweep
func (a Actor) IsSystem() bool {
	return a.UserID == "" && a.Role == RoleAdmin
}

// User is an account known to the booking service
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// DjProfile is the DJ-facing profile a booking is assigned to
type DjProfile struct {
	ID                  string `json:"id"`
	UserID              string `json:"user_id"`
	StageName           string `json:"stage_name"`
	IsAcceptingBookings bool   `json:"is_accepting_bookings"`
	IsApprovedByAdmin   bool   `json:"is_approved_by_admin"`
}

// IsAvailable reports whether the DJ can take new bookings
func (p *DjProfile) IsAvailable() bool {
	return p.IsAcceptingBookings && p.IsApprovedByAdmin
}
