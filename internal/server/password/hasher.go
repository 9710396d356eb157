// Package password hashes raw passwords and verifies credentials against
// stored identities.
package password

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// MaxLength is the longest password bcrypt accepts, in bytes.
const MaxLength = 72

type Hasher interface {
	Hash(raw string) (string, error)
	Verify(raw, hash string) bool
}

// BcryptHasher is a Hasher backed by bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher with the given cost. Costs outside
// bcrypt's accepted range fall back to bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(raw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(raw), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: password longer than %d bytes", common.ErrInvalidInput, MaxLength)
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h *BcryptHasher) Verify(raw, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}
