// Package localstore opens the client SQLite database and exposes the
// per-collection record contract together with the pending-change queue,
// the id map and key/value metadata.
//
// Open runs the embedded goose migrations and a write probe. Any failure is
// reported as ErrStoreUnavailable so the caller can switch to degraded,
// remote-only operation instead of silently losing writes.
package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/paykeeper/internal/client/migrations"
	"github.com/dmitrijs2005/paykeeper/internal/client/repositories/idmap"
	"github.com/dmitrijs2005/paykeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/paykeeper/internal/client/repositories/pending"
	recordsrepo "github.com/dmitrijs2005/paykeeper/internal/client/repositories/records"
	"github.com/dmitrijs2005/paykeeper/internal/dbx"
	"github.com/dmitrijs2005/paykeeper/internal/records"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

var ErrStoreUnavailable = errors.New("local store unavailable")

const probeKey = "__probe"

// Repositories groups the repositories bound to one DBTX handle, either the
// database itself or an open transaction.
type Repositories struct {
	Records  recordsrepo.Repository
	Pending  pending.Repository
	IDMap    idmap.Repository
	Metadata metadata.Repository
}

func NewRepositories(db dbx.DBTX) *Repositories {
	return &Repositories{
		Records:  recordsrepo.NewSQLiteRepository(db),
		Pending:  pending.NewSQLiteRepository(db),
		IDMap:    idmap.NewSQLiteRepository(db),
		Metadata: metadata.NewSQLiteRepository(db),
	}
}

type Store struct {
	db    *sql.DB
	repos *Repositories
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the database at dsn, migrates it and checks
// that it accepts writes.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	// a single connection serialises access and keeps :memory: databases whole
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: migrate: %v", ErrStoreUnavailable, err)
	}

	s := &Store{db: db, repos: NewRepositories(db)}
	if err := s.probe(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: write probe: %v", ErrStoreUnavailable, err)
	}
	return s, nil
}

func (s *Store) probe(ctx context.Context) error {
	return s.InTx(ctx, func(ctx context.Context, tx *Repositories) error {
		if err := tx.Metadata.Put(ctx, probeKey, []byte{1}); err != nil {
			return err
		}
		return tx.Metadata.Delete(ctx, probeKey)
	})
}

func (s *Store) DB() *sql.DB { return s.db }

// Repos returns repositories bound to the database outside any transaction.
func (s *Store) Repos() *Repositories { return s.repos }

// InTx runs fn with repositories bound to one transaction.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx *Repositories) error) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, q dbx.DBTX) error {
		return fn(ctx, NewRepositories(q))
	})
}

// Collection returns the record contract for one entity.
func (s *Store) Collection(e records.Entity) *Collection {
	return &Collection{store: s, entity: e}
}

func (s *Store) Close() error {
	return s.db.Close()
}
