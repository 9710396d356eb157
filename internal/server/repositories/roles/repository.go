package roles

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type Repository interface {
	// GetByName returns the role or common.ErrorNotFound.
	GetByName(ctx context.Context, name string) (*models.Role, error)
}
