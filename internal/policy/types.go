package policy

import (
	"fmt"
	"strings"
)

// Role is one of the fixed role tags carried in access tokens.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleMahasiswa   Role = "mahasiswa"
	RoleDosen       Role = "dosen"
	RoleKoordinator Role = "koordinator"
	RoleKaprodi     Role = "kaprodi"
	RolePenguji     Role = "penguji"
)

// AllRoles lists every known role in a stable order.
var AllRoles = []Role{
	RoleAdmin,
	RoleMahasiswa,
	RoleDosen,
	RoleKoordinator,
	RoleKaprodi,
	RolePenguji,
}

// Valid reports whether r is a known role tag.
func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// ParseRole normalises s and checks it against the known tags.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role: %q", s)
	}
	return r, nil
}

// Identity is the verified caller of one request.
type Identity struct {
	ID   int64 `json:"id"`
	Role Role  `json:"role"`
}

// Decision is the outcome of a guard.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow(reason string) Decision {
	return Decision{Allowed: true, Reason: reason}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}
