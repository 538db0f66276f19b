package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gamestarter/internal/dbx"
	"github.com/dmitrijs2005/gamestarter/internal/server/repositories/logins"
	"github.com/dmitrijs2005/gamestarter/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Logins(db dbx.DBTX) logins.Repository
}
