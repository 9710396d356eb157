package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type Repository interface {
	// Create stores token and fills its ID.
	Create(ctx context.Context, token *models.RefreshToken) error

	// FindActive looks a token up by its exact string, skipping revoked
	// rows. Missing tokens yield common.ErrorNotFound; expiry is left to
	// the caller.
	FindActive(ctx context.Context, token string) (*models.RefreshToken, error)

	// DeleteAllForUser removes every stored token of the user.
	DeleteAllForUser(ctx context.Context, userID int64) error

	// DeleteExpiredBefore removes tokens whose expiry is at or before
	// cutoff and reports how many were removed.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
