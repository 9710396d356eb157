package password

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// UserFinder is the slice of the users repository the authenticator needs.
type UserFinder interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Authenticator verifies an email/password pair against stored identities.
type Authenticator struct {
	hasher    Hasher
	dummyHash string
}

// NewAuthenticator prepares a hash of a throwaway password so unknown
// emails cost the same comparison as known ones.
func NewAuthenticator(hasher Hasher) (*Authenticator, error) {
	dummy, err := hasher.Hash("gophauth-unknown-user")
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}
	return &Authenticator{hasher: hasher, dummyHash: dummy}, nil
}

// Authenticate returns the identity for email when raw matches its
// password. Unknown emails and wrong passwords both yield
// common.ErrInvalidCredentials.
func (a *Authenticator) Authenticate(ctx context.Context, users UserFinder, email, raw string) (*models.User, error) {
	user, err := users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			a.hasher.Verify(raw, a.dummyHash)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if !a.hasher.Verify(raw, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}
	return user, nil
}
