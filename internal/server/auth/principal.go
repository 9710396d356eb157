package auth

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
)

var ErrWrongTokenKind = common.NewKindError(common.ErrUnauthenticated, "wrong token kind")

// Principal is the authenticated identity taken from a verified access
// token. It is the only authentication fact request handlers may trust.
type Principal struct {
	UserID int64
	Email  string
	Roles  []string
}

// HasRole reports whether the principal carries role.
func (p *Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Extractor turns access tokens into principals.
type Extractor struct {
	codec  *Codec
	logger logging.Logger
}

func NewExtractor(codec *Codec, logger logging.Logger) *Extractor {
	return &Extractor{codec: codec, logger: logger.With("module", "principal_extractor")}
}

// Extract verifies an access token and returns its principal. A refresh
// token, even a correctly signed one, fails with ErrWrongTokenKind.
// Every failure matches common.ErrUnauthenticated.
func (e *Extractor) Extract(ctx context.Context, token string) (*Principal, error) {
	claims, err := e.codec.Decode(token)
	if err != nil {
		return nil, err
	}

	access, ok := claims.(*AccessClaims)
	if !ok {
		return nil, fmt.Errorf("%w: got %s", ErrWrongTokenKind, claims.Kind())
	}

	return &Principal{
		UserID: access.UserID(),
		Email:  access.Email,
		Roles:  access.Roles,
	}, nil
}

// IsValid reports whether token verifies and is of the wanted kind.
// Failures are routine (expired, tampered, replayed tokens) and are logged
// at debug level only.
func (e *Extractor) IsValid(ctx context.Context, token string, kind TokenKind) bool {
	claims, err := e.codec.Decode(token)
	if err != nil {
		e.logger.Debug(ctx, "token rejected", "kind", kind, "reason", err.Error())
		return false
	}
	if claims.Kind() != kind {
		e.logger.Debug(ctx, "token rejected", "kind", kind, "reason", ErrWrongTokenKind.Error())
		return false
	}
	return true
}

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored by WithPrincipal.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
