// Package auth implements signed access/refresh token handling: the token
// policy built once at startup, the HS256 codec and the extraction of the
// authenticated principal from an access token.
package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// MinSecretLength is the minimum HMAC key size in bytes (256 bits).
const MinSecretLength = 32

var (
	ErrWeakSecret    = common.NewKindError(common.ErrConfiguration, "signing secret must be at least 32 bytes")
	ErrInvalidPolicy = common.NewKindError(common.ErrConfiguration, "invalid token policy")
)

// Policy holds the signing key, issuer and token lifetimes. It is built once
// at process start and never changes afterwards, so it may be shared by any
// number of goroutines without synchronisation.
type Policy struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewPolicy validates the configuration and returns an immutable Policy.
// A secret shorter than MinSecretLength yields ErrWeakSecret.
func NewPolicy(secret []byte, issuer string, accessTTL, refreshTTL time.Duration) (*Policy, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: got %d bytes", ErrWeakSecret, len(secret))
	}
	if strings.TrimSpace(issuer) == "" {
		return nil, fmt.Errorf("%w: issuer is empty", ErrInvalidPolicy)
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, fmt.Errorf("%w: token lifetimes must be positive", ErrInvalidPolicy)
	}

	key := make([]byte, len(secret))
	copy(key, secret)

	return &Policy{
		secret:     key,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

func (p *Policy) Issuer() string { return p.issuer }

func (p *Policy) AccessTTL() time.Duration { return p.accessTTL }

func (p *Policy) RefreshTTL() time.Duration { return p.refreshTTL }

func (p *Policy) signingKey() []byte { return p.secret }
