package domain

import "strings"

type Role string

const (
	RoleNone     Role = ""
	RoleCustomer Role = "CUSTOMER"
	RoleVendor   Role = "VENDOR"
)

func ParseRole(s string) Role {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleCustomer:
		return RoleCustomer
	case RoleVendor:
		return RoleVendor
	}
	return RoleNone
}

// Session is what one browser profile knows about its visitor. ID names the
// storage namespace; the rest is derived from the stored bearer token.
type Session struct {
	ID       string
	Token    string
	LoggedIn bool
	Role     Role
	UserID   string
	Email    string
	Name     string
}

func (s Session) IsVendor() bool { return s.LoggedIn && s.Role == RoleVendor }

// CartKey is the record key of the visitor's cart.
func (s Session) CartKey() string {
	if s.Email == "" {
		return "cart"
	}
	return "cart_" + s.Email
}
