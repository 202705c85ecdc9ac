package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/studymatch/internal/dbx"
	"github.com/dmitrijs2005/studymatch/internal/server/repositories/chatrooms"
	"github.com/dmitrijs2005/studymatch/internal/server/repositories/messages"
	"github.com/dmitrijs2005/studymatch/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	ChatRooms(db dbx.DBTX) chatrooms.Repository
	Messages(db dbx.DBTX) messages.Repository
}
