// Package repomanager hands out repositories bound to a database handle,
// so services can scope them to a transaction with dbx.WithTx.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/roles"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Roles(db dbx.DBTX) roles.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
