// Package storage bootstraps the CLI's local SQLite cache and vends its
// repositories.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/studymatch/internal/client/migrations"
	"github.com/dmitrijs2005/studymatch/internal/client/repositories/messages"
	"github.com/dmitrijs2005/studymatch/internal/client/repositories/metadata"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

var gooseUpContext = goose.UpContext

// Store groups the cache repositories over one database handle.
type Store struct {
	DB       *sql.DB
	Metadata metadata.Repository
	Messages messages.Repository
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	return gooseUpContext(ctx, db, ".")
}

// Open opens (creating if needed) the cache at dsn and migrates it.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; a single connection also keeps ":memory:"
	// databases shared across calls.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		DB:       db,
		Metadata: metadata.NewSQLiteRepository(db),
		Messages: messages.NewSQLiteRepository(db),
	}, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}
