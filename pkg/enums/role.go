package enums

import "fmt"

// Role gates access to storefront versus back-office routes.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleGuest    Role = "guest"
	RoleAdmin    Role = "admin"
	RoleKitchen  Role = "kitchen"
)

var validRoles = []Role{
	RoleCustomer,
	RoleGuest,
	RoleAdmin,
	RoleKitchen,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
