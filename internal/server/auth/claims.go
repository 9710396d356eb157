package auth

import (
	"slices"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind discriminates access tokens from refresh tokens. It travels in
// the token_kind claim.
type TokenKind string

const (
	KindAccess  TokenKind = "ACCESS"
	KindRefresh TokenKind = "REFRESH"
)

// Claims is implemented only by *AccessClaims and *RefreshClaims.
type Claims interface {
	jwt.Claims
	Kind() TokenKind
	UserID() int64
	sealed()
}

// AccessClaims is the payload of an access token.
type AccessClaims struct {
	TokenKind TokenKind `json:"token_kind"`
	Email     string    `json:"email"`
	Roles     []string  `json:"roles"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a refresh token.
type RefreshClaims struct {
	TokenKind TokenKind `json:"token_kind"`
	jwt.RegisteredClaims
}

// NewAccessClaims builds access claims. Roles are treated as a set: the
// result is sorted with duplicates removed. Timestamps are truncated to
// whole seconds, the resolution of the wire format.
func NewAccessClaims(userID int64, issuer string, issuedAt, expiresAt time.Time, email string, roles []string) *AccessClaims {
	return &AccessClaims{
		TokenKind:        KindAccess,
		Email:            email,
		Roles:            NormalizeRoles(roles),
		RegisteredClaims: registered(userID, issuer, issuedAt, expiresAt),
	}
}

// NewRefreshClaims builds refresh claims.
func NewRefreshClaims(userID int64, issuer string, issuedAt, expiresAt time.Time) *RefreshClaims {
	return &RefreshClaims{
		TokenKind:        KindRefresh,
		RegisteredClaims: registered(userID, issuer, issuedAt, expiresAt),
	}
}

func (c *AccessClaims) Kind() TokenKind { return KindAccess }

func (c *AccessClaims) UserID() int64 { return subjectID(c.Subject) }

func (c *AccessClaims) sealed() {}

func (c *RefreshClaims) Kind() TokenKind { return KindRefresh }

func (c *RefreshClaims) UserID() int64 { return subjectID(c.Subject) }

func (c *RefreshClaims) sealed() {}

// NormalizeRoles returns a sorted copy of roles without duplicates. The
// result is never nil.
func NormalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	out = append(out, roles...)
	slices.Sort(out)
	return slices.Compact(out)
}

func registered(userID int64, issuer string, issuedAt, expiresAt time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(issuedAt.Truncate(time.Second)),
		ExpiresAt: jwt.NewNumericDate(expiresAt.Truncate(time.Second)),
	}
}

// subjectID is only called on claims whose subject was validated by Decode
// or produced by registered.
func subjectID(sub string) int64 {
	id, _ := strconv.ParseInt(sub, 10, 64)
	return id
}

// wireClaims is the superset shape used while decoding, before the token
// kind is known.
type wireClaims struct {
	TokenKind TokenKind `json:"token_kind"`
	Email     string    `json:"email"`
	Roles     []string  `json:"roles"`
	jwt.RegisteredClaims
}
