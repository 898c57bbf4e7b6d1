package token

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/upb/thesis-workflow/internal/policy"
)

var (
	// ErrMissingClaim is returned when a required claim is missing
	ErrMissingClaim = errors.New("missing required claim")

	// ErrInvalidClaimValue is returned when a claim carries a value outside its domain
	ErrInvalidClaimValue = errors.New("invalid claim value")
)

// Claims is the payload signed into every access token.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"id"`
	Role   string `json:"role"`
}

// identity converts verified claims to the request identity.
func (c *Claims) identity() (*policy.Identity, error) {
	if c.UserID <= 0 {
		return nil, fmt.Errorf("%w: id", ErrMissingClaim)
	}
	if c.Role == "" {
		return nil, fmt.Errorf("%w: role", ErrMissingClaim)
	}
	role := policy.Role(c.Role)
	if !role.Valid() {
		return nil, fmt.Errorf("%w: role %q", ErrInvalidClaimValue, c.Role)
	}
	return &policy.Identity{ID: c.UserID, Role: role}, nil
}
