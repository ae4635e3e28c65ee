package repomanager

import (
	"context"
	"database/sql"

	"github.com/arkadym/sealbox/internal/dbx"
	"github.com/arkadym/sealbox/internal/server/repositories/files"
	"github.com/arkadym/sealbox/internal/server/repositories/prekeys"
	"github.com/arkadym/sealbox/internal/server/repositories/shares"
	"github.com/arkadym/sealbox/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Prekeys(db dbx.DBTX) prekeys.Repository
	Files(db dbx.DBTX) files.Repository
	Shares(db dbx.DBTX) shares.Repository
}
