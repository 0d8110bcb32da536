package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "hitolog.db"))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesSchema(t *testing.T) {
	s := newTestStore(t)

	db, err := s.DB()
	require.NoError(t, err)

	var count int
	err = db.Get(&count, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('persons', 'tags', 'events', 'relations', 'persons_tags', 'persons_events')`)
	require.NoError(t, err)
	assert.Equal(t, 6, count)

	var fk int
	err = db.Get(&fk, `PRAGMA foreign_keys`)
	require.NoError(t, err)
	assert.Equal(t, 1, fk, "foreign key enforcement must be on")
}

func TestSchemaIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hitolog.db")

	s, err := Open(path)
	require.NoError(t, err)

	db, err := s.DB()
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO tags (id, name, created_at) VALUES ('t1', 'golang', '2024-01-01 00:00:00.000000000')`)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Re-opening the same file must not clobber existing data.
	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	db2, err := s2.DB()
	require.NoError(t, err)
	var count int
	require.NoError(t, db2.Get(&count, `SELECT COUNT(*) FROM tags`))
	assert.Equal(t, 1, count)
}

func TestDBIsMemoized(t *testing.T) {
	s := newTestStore(t)

	first, err := s.DB()
	require.NoError(t, err)
	second, err := s.DB()
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestCloseThenReopen(t *testing.T) {
	s := newTestStore(t)

	_, err := s.DB()
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "closing an already-closed store is a no-op")

	db, err := s.DB()
	require.NoError(t, err)
	require.NoError(t, db.Ping())
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()

	t.Run("commit applies all writes", func(t *testing.T) {
		s := newTestStore(t)

		err := s.WithTx(ctx, func(tx *sqlx.Tx) error {
			if _, err := tx.Exec(`INSERT INTO tags (id, name, created_at) VALUES ('t1', 'a', '2024-01-01 00:00:00.000000000')`); err != nil {
				return err
			}
			_, err := tx.Exec(`INSERT INTO tags (id, name, created_at) VALUES ('t2', 'b', '2024-01-01 00:00:00.000000000')`)
			return err
		})
		require.NoError(t, err)

		db, err := s.DB()
		require.NoError(t, err)
		var count int
		require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM tags`))
		assert.Equal(t, 2, count)
	})

	t.Run("error rolls back every write", func(t *testing.T) {
		s := newTestStore(t)
		boom := errors.New("boom")

		err := s.WithTx(ctx, func(tx *sqlx.Tx) error {
			if _, err := tx.Exec(`INSERT INTO tags (id, name, created_at) VALUES ('t1', 'a', '2024-01-01 00:00:00.000000000')`); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom, "the unit's error propagates unchanged")

		db, err := s.DB()
		require.NoError(t, err)
		var count int
		require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM tags`))
		assert.Equal(t, 0, count, "partial writes must never be observable")
	})

	t.Run("panic rolls back and re-raises", func(t *testing.T) {
		s := newTestStore(t)

		assert.Panics(t, func() {
			_ = s.WithTx(ctx, func(tx *sqlx.Tx) error {
				if _, err := tx.Exec(`INSERT INTO tags (id, name, created_at) VALUES ('t1', 'a', '2024-01-01 00:00:00.000000000')`); err != nil {
					return err
				}
				panic("boom")
			})
		})

		db, err := s.DB()
		require.NoError(t, err)
		var count int
		require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM tags`))
		assert.Equal(t, 0, count)
	})
}

func TestNewID(t *testing.T) {
	s := newTestStore(t)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := s.NewID()
		_, err := uuid.Parse(id)
		require.NoError(t, err, "ids are v4-UUID-shaped")
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestJunctionCascade(t *testing.T) {
	s := newTestStore(t)
	db, err := s.DB()
	require.NoError(t, err)

	mustExec := func(q string, args ...interface{}) {
		t.Helper()
		_, err := db.Exec(q, args...)
		require.NoError(t, err)
	}

	mustExec(`INSERT INTO persons (id, name, created_at, updated_at) VALUES ('p1', 'Alice', '2024-01-01 00:00:00.000000000', '2024-01-01 00:00:00.000000000')`)
	mustExec(`INSERT INTO tags (id, name, created_at) VALUES ('t1', 'golang', '2024-01-01 00:00:00.000000000')`)
	mustExec(`INSERT INTO persons_tags (person_id, tag_id) VALUES ('p1', 't1')`)

	// Deleting the parent removes its junction rows, nothing else.
	mustExec(`DELETE FROM persons WHERE id = 'p1'`)

	var junctions, tags int
	require.NoError(t, db.Get(&junctions, `SELECT COUNT(*) FROM persons_tags`))
	require.NoError(t, db.Get(&tags, `SELECT COUNT(*) FROM tags`))
	assert.Equal(t, 0, junctions)
	assert.Equal(t, 1, tags)
}
