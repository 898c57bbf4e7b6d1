package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/upb/thesis-workflow/internal/policy"
)

var (
	// ErrInvalidToken is returned when the signature, algorithm or payload is wrong
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when the token is past its expiry
	ErrTokenExpired = errors.New("token expired")
)

const defaultExpiry = 24 * time.Hour

// Config holds the process-wide signing settings.
type Config struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

// Codec issues and verifies HS256 access tokens.
type Codec struct {
	secret []byte
	expiry time.Duration
	issuer string
	now    func() time.Time
}

// NewCodec creates a codec. The secret is required.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token secret is required")
	}
	if cfg.Expiry <= 0 {
		cfg.Expiry = defaultExpiry
	}
	return &Codec{
		secret: []byte(cfg.Secret),
		expiry: cfg.Expiry,
		issuer: cfg.Issuer,
		now:    time.Now,
	}, nil
}

// Expiry returns the lifetime given to issued tokens.
func (c *Codec) Expiry() time.Duration {
	return c.expiry
}

// Issue signs the identity into a new token.
func (c *Codec) Issue(id policy.Identity) (string, error) {
	if id.ID <= 0 {
		return "", fmt.Errorf("%w: id", ErrMissingClaim)
	}
	if !id.Role.Valid() {
		return "", fmt.Errorf("%w: role %q", ErrInvalidClaimValue, id.Role)
	}

	now := c.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.expiry)),
		},
		UserID: id.ID,
		Role:   string(id.Role),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the embedded identity.
func (c *Codec) Verify(tokenString string) (*policy.Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	claims := &Claims{}
	token, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	id, err := claims.identity()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return id, nil
}
