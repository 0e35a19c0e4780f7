// Package repomanager vends repository implementations bound to a shared
// database handle and exposes the schema migration hook.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/openmool/openmool/internal/dbx"
	"github.com/openmool/openmool/internal/server/repositories/media"
	"github.com/openmool/openmool/internal/server/repositories/vectors"
)

// RepositoryManager builds repositories over a DBTX so services can run the
// same code against *sql.DB or an open transaction.
type RepositoryManager interface {
	Media(db dbx.DBTX) media.Repository
	Vectors(db dbx.DBTX) vectors.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
