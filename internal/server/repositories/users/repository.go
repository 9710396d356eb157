// Package users declares the repository contract for registered identities
// and provides its PostgreSQL implementation.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills its ID and CreatedAt. A taken email
	// yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetUserByEmail returns the user with its role names, or
	// common.ErrorNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns the user with its role names, or
	// common.ErrorNotFound.
	GetUserByID(ctx context.Context, id int64) (*models.User, error)

	// LockByID takes a row lock on the user until the surrounding
	// transaction ends. Outside a transaction it only checks existence.
	LockByID(ctx context.Context, id int64) error

	// AddRole attaches a role to a user. Adding a role twice is a no-op.
	AddRole(ctx context.Context, userID, roleID int64) error
}
