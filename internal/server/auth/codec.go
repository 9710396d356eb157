package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed        = common.NewKindError(common.ErrUnauthenticated, "malformed token")
	ErrInvalidSignature = common.NewKindError(common.ErrUnauthenticated, "invalid token signature")
	ErrIssuerMismatch   = common.NewKindError(common.ErrUnauthenticated, "token issuer mismatch")
	ErrUnknownTokenKind = common.NewKindError(common.ErrUnauthenticated, "unknown token kind")
	ErrExpired          = common.ErrTokenExpired
)

// Codec signs and verifies compact JWS tokens with HMAC-SHA-256. It does no
// I/O and is safe for concurrent use.
type Codec struct {
	policy *Policy
	now    func() time.Time
	parser *jwt.Parser
}

type CodecOption func(*Codec)

// WithClock overrides the time source used for issuing and for expiry checks.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) { c.now = now }
}

func NewCodec(p *Policy, opts ...CodecOption) *Codec {
	c := &Codec{policy: p, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(p.Issuer()),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return c.now() }),
	)
	return c
}

// Policy returns the policy the codec was built with.
func (c *Codec) Policy() *Policy { return c.policy }

// Encode signs claims. The same claims always produce the same token.
func (c *Codec) Encode(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(c.policy.signingKey())
	if err != nil {
		return "", fmt.Errorf("auth.Encode: %w", err)
	}
	return s, nil
}

// IssueAccess mints an access token valid for the policy's access lifetime.
func (c *Codec) IssueAccess(userID int64, email string, roles []string) (string, *AccessClaims, error) {
	now := c.now()
	claims := NewAccessClaims(userID, c.policy.Issuer(), now, now.Add(c.policy.AccessTTL()), email, roles)
	token, err := c.Encode(claims)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// IssueRefresh mints a refresh token valid for the policy's refresh lifetime.
func (c *Codec) IssueRefresh(userID int64) (string, *RefreshClaims, error) {
	now := c.now()
	claims := NewRefreshClaims(userID, c.policy.Issuer(), now, now.Add(c.policy.RefreshTTL()))
	token, err := c.Encode(claims)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// Decode verifies the signature first and only then validates issuer and
// expiry and reads the payload. A token is expired once now >= exp.
func (c *Codec) Decode(tokenString string) (Claims, error) {
	wire := &wireClaims{}
	token, err := c.parser.ParseWithClaims(tokenString, wire, func(*jwt.Token) (any, error) {
		return c.policy.signingKey(), nil
	})
	if err != nil {
		return nil, mapParseError(err)
	}
	if !token.Valid {
		return nil, ErrInvalidSignature
	}

	if _, err := strconv.ParseInt(wire.Subject, 10, 64); err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrMalformed)
	}
	if wire.IssuedAt == nil {
		return nil, fmt.Errorf("%w: missing iat", ErrMalformed)
	}

	switch wire.TokenKind {
	case KindAccess:
		roles := wire.Roles
		if roles == nil {
			roles = []string{}
		}
		return &AccessClaims{
			TokenKind:        KindAccess,
			Email:            wire.Email,
			Roles:            roles,
			RegisteredClaims: wire.RegisteredClaims,
		}, nil
	case KindRefresh:
		return &RefreshClaims{
			TokenKind:        KindRefresh,
			RegisteredClaims: wire.RegisteredClaims,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTokenKind, wire.TokenKind)
	}
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return fmt.Errorf("%w: %v", ErrIssuerMismatch, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
