package domain

import "strings"

// UserRole enumerates directory roles relevant to reply attribution.
type UserRole string

const (
	RoleUser       UserRole = "USER"
	RoleTechnician UserRole = "TECHNICIAN"
	RoleAdmin      UserRole = "ADMIN"
)

// User is a directory identity a reply can be attributed to.
type User struct {
	ID          string
	DisplayName string
	Email       string
	Role        UserRole
}

// Elevated reports whether the role may reply to tickets it is not a
// participant of.
func (r UserRole) Elevated() bool {
	return r == RoleTechnician || r == RoleAdmin
}

// SynthesizeUser builds a minimal unprivileged identity for an address that
// is authorized on a ticket but has no directory record. The local part of
// the address doubles as the display name.
func SynthesizeUser(email string) User {
	name := email
	if at := strings.Index(email, "@"); at > 0 {
		name = email[:at]
	}
	return User{
		ID:          "email:" + strings.ToLower(email),
		DisplayName: name,
		Email:       email,
		Role:        RoleUser,
	}
}
