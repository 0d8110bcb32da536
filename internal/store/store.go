// Package store owns the embedded SQLite handle and exposes the minimal
// capability the services consume: statement execution, an atomic
// transaction primitive, id generation and shutdown.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/mzfrvt/hitolog/internal/apperr"
	"github.com/mzfrvt/hitolog/internal/logger"
)

// Store owns the single database handle for the process lifetime.
// The handle is lazy: the first caller of DB triggers open and schema
// creation, later callers reuse the memoized handle. After Close, the
// next DB call re-opens.
type Store struct {
	path string
	log  logger.Logger

	mu sync.Mutex
	db *sqlx.DB
}

// New returns a store bound to the given database file. The file is not
// touched until the first operation.
func New(path string) *Store {
	return &Store{
		path: path,
		log:  logger.Store(),
	}
}

// Open constructs a store and eagerly opens the handle, so callers that
// want fail-fast startup get schema errors immediately.
func Open(path string) (*Store, error) {
	s := New(path)
	if _, err := s.DB(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an already-open handle. Schema creation is skipped;
// used by embedders and by tests that substitute a mock driver.
func NewWithDB(db *sqlx.DB) *Store {
	return &Store{
		log: logger.Store(),
		db:  db,
	}
}

// DB returns the memoized handle, opening the database and running the
// idempotent schema on first use.
func (s *Store) DB() (*sqlx.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db, nil
	}

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", s.path)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, &apperr.StoreError{Op: "open", Err: err}
	}

	// One connection: the store is a single-writer embedded file, and a
	// pool would hand :memory: databases a fresh empty DB per conn.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &apperr.StoreError{Op: "open", Err: err}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, &apperr.StoreError{Op: "init schema", Err: err}
	}

	s.db = db
	s.log.Debug("database opened at %s", s.path)
	return db, nil
}

// WithTx executes fn within a transaction. If fn returns an error (or
// panics) every statement it issued is rolled back and the error
// propagates unchanged; otherwise the transaction commits.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	db, err := s.DB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return &apperr.StoreError{Op: "begin transaction", Err: err}
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return &apperr.StoreError{Op: "commit", Err: err}
	}

	return nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// NewID produces a globally-unique opaque identifier for new rows.
// Callers never rely on auto-increment.
func (s *Store) NewID() string {
	return uuid.NewString()
}

// Ping verifies the handle is usable.
func (s *Store) Ping(ctx context.Context) error {
	db, err := s.DB()
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		return &apperr.StoreError{Op: "ping", Err: err}
	}
	return nil
}

// Close releases the handle. A subsequent DB call re-opens lazily.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil
	if err != nil {
		return &apperr.StoreError{Op: "close", Err: err}
	}
	return nil
}
