package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/animeflix/internal/dbx"
	"github.com/dmitrijs2005/animeflix/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/animeflix/internal/server/repositories/movies"
)

// RepositoryManager hands out repositories bound to either the pool or a
// transaction, so services decide the unit of work.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Movies(db dbx.DBTX) movies.Repository
}
