package domain

import "time"

// Role is the authorization role of an identity.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// Identity is the authenticated user record held after login.
type Identity struct {
	ID       ID     `json:"id" validate:"required"`
	Email    string `json:"email" validate:"required"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role" validate:"required"`
	Phone    string `json:"phone,omitempty"`
}

// IsAdmin reports whether the identity has the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// DisplayName returns the full name, falling back to the email.
func (i Identity) DisplayName() string {
	if i.FullName != "" {
		return i.FullName
	}
	return i.Email
}

// User is an identity as listed in the admin user manager.
type User struct {
	Identity
	CreatedAt time.Time `json:"created_at"`
}

// Session is either Anonymous or Authenticated. Consumers handle it with an
// exhaustive type switch.
type Session interface {
	session()
}

// Anonymous is the session before login or after logout.
type Anonymous struct{}

// Authenticated is the session of a signed-in identity.
type Authenticated struct {
	Identity Identity
}

func (Anonymous) session()     {}
func (Authenticated) session() {}

// IdentityOf returns the identity of s and whether s is authenticated.
func IdentityOf(s Session) (Identity, bool) {
	switch v := s.(type) {
	case Authenticated:
		return v.Identity, true
	case Anonymous:
		return Identity{}, false
	default:
		return Identity{}, false
	}
}
