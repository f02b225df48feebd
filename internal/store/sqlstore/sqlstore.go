// Package sqlstore implements store.Store on database/sql for SQLite and
// MySQL. The schema is versioned with golang-migrate from embedded files.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/alphabot-ai/qaforum/internal/store"
)

//go:embed migrations
var migrationFS embed.FS

type Store struct {
	db      *sql.DB
	dsn     string
	dialect dialect
}

// Open connects to driver ("sqlite" or "mysql") and applies pending
// migrations.
func Open(driver, dsn string) (*Store, error) {
	st, err := Connect(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// Connect opens the database without touching the schema.
func Connect(driver, dsn string) (*Store, error) {
	d, ok := dialectFor(driver)
	if !ok {
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
	dsn, err := d.normalizeDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse %s dsn: %w", driver, err)
	}
	db, err := sql.Open(d.name, dsn)
	if err != nil {
		return nil, err
	}
	if d.maxOpenConns > 0 {
		db.SetMaxOpenConns(d.maxOpenConns)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return &Store{db: db, dsn: dsn, dialect: d}, nil
}

// Migrate applies every pending up migration.
func (s *Store) Migrate() error {
	db := s.db
	if !s.dialect.migrateOnPool {
		mdb, err := sql.Open(s.dialect.name, s.dsn)
		if err != nil {
			return err
		}
		defer mdb.Close()
		db = mdb
	}

	src, err := iofs.New(migrationFS, "migrations/"+s.dialect.name)
	if err != nil {
		return err
	}
	drv, err := s.dialect.migrationDriver(db)
	if err != nil {
		_ = src.Close()
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, s.dialect.name, drv)
	if err != nil {
		_ = src.Close()
		return err
	}
	defer func() {
		if db == s.db {
			// m.Close would close the store's pool through the driver.
			_ = src.Close()
			return
		}
		_, _ = m.Close()
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return store.ErrNotFound
	case s.dialect.isUnique(err):
		return store.ErrDuplicateKey
	case s.dialect.isForeignKey(err):
		return store.ErrNotFound
	}
	return err
}

func orderClause(sort, alias string) string {
	switch sort {
	case store.SortNewest:
		return fmt.Sprintf(" ORDER BY %[1]s.created_at DESC, %[1]s.id DESC", alias)
	case store.SortPopular:
		return fmt.Sprintf(" ORDER BY %[1]s.likes DESC, %[1]s.id ASC", alias)
	}
	return fmt.Sprintf(" ORDER BY %s.id ASC", alias)
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func containsPattern(query string) string {
	return "%" + likeEscaper.Replace(store.NormalizeSearch(query)) + "%"
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UnixMilli()
}
