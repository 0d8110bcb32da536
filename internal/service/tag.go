package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/mzfrvt/hitolog/internal/apperr"
	"github.com/mzfrvt/hitolog/internal/logger"
	"github.com/mzfrvt/hitolog/internal/model"
	"github.com/mzfrvt/hitolog/internal/store"
)

var tagColumns = []string{"id", "name", "created_at"}

// tagRow is the storage shape of a tag; the service maps it to the
// camelCase record at the boundary.
type tagRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	CreatedAt string `db:"created_at"`
}

func (r tagRow) toModel() model.Tag {
	return model.Tag{
		ID:        r.ID,
		Name:      r.Name,
		CreatedAt: parseTime(r.CreatedAt),
	}
}

// TagService provides CRUD for tags with upsert-by-name semantics:
// creating a tag whose trimmed name already exists returns the existing
// record instead of inserting a duplicate.
type TagService struct {
	store *store.Store
	log   logger.Logger
}

func NewTagService(st *store.Store) *TagService {
	return &TagService{
		store: st,
		log:   logger.Service().WithField("entity", "tag"),
	}
}

// Create resolves a tag by its trimmed name, inserting only when no tag
// with that exact name exists. The returned flag reports whether a row
// was actually created, so callers can tell "found existing" from
// "created new".
func (s *TagService) Create(ctx context.Context, name string) (*model.Tag, bool, error) {
	db, err := s.store.DB()
	if err != nil {
		return nil, false, err
	}
	return s.resolve(ctx, db, name)
}

// CreateMany applies Create to each name. Repeated names in the input
// collapse to one stored tag; the result holds one record per unique
// name, in first-seen order. All writes share one transaction.
func (s *TagService) CreateMany(ctx context.Context, names []string) ([]model.Tag, error) {
	var tags []model.Tag
	err := s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		seen := make(map[string]bool, len(names))
		for _, name := range names {
			tag, _, err := s.resolve(ctx, tx, name)
			if err != nil {
				return err
			}
			if seen[tag.ID] {
				continue
			}
			seen[tag.ID] = true
			tags = append(tags, *tag)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []model.Tag{}
	}
	return tags, nil
}

// FindOrCreateByNames turns free-text tag input into stable ids: the
// result holds one id per input name, in input order, creating any tag
// that does not exist yet.
func (s *TagService) FindOrCreateByNames(ctx context.Context, names []string) ([]string, error) {
	ids := make([]string, 0, len(names))
	err := s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, name := range names {
			tag, _, err := s.resolve(ctx, tx, name)
			if err != nil {
				return err
			}
			ids = append(ids, tag.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// FindByID returns the tag or nil when the id is unknown.
func (s *TagService) FindByID(ctx context.Context, id string) (*model.Tag, error) {
	db, err := s.store.DB()
	if err != nil {
		return nil, err
	}
	return s.findOne(ctx, db, squirrel.Eq{"id": id})
}

// FindByName returns the tag with the exact (case-sensitive) name, or nil.
func (s *TagService) FindByName(ctx context.Context, name string) (*model.Tag, error) {
	db, err := s.store.DB()
	if err != nil {
		return nil, err
	}
	return s.findOne(ctx, db, squirrel.Eq{"name": name})
}

// FindAll returns every tag ordered by name ascending.
func (s *TagService) FindAll(ctx context.Context) ([]model.Tag, error) {
	return s.findMany(ctx, nil)
}

// Search returns tags whose name contains term (case-insensitive),
// ordered by name ascending.
func (s *TagService) Search(ctx context.Context, term string) ([]model.Tag, error) {
	return s.findMany(ctx, squirrel.Like{"name": "%" + term + "%"})
}

// Count returns the total number of tags.
func (s *TagService) Count(ctx context.Context) (int, error) {
	db, err := s.store.DB()
	if err != nil {
		return 0, err
	}

	query, args, err := squirrel.Select("COUNT(*)").From("tags").ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	if err := sqlx.GetContext(ctx, db, &count, query, args...); err != nil {
		return 0, &apperr.StoreError{Op: "count", Table: "tags", Err: err}
	}
	return count, nil
}

// Update renames a tag. The new name goes through the same trim and
// non-empty validation as Create, and must not belong to another tag.
func (s *TagService) Update(ctx context.Context, id, name string) (*model.Tag, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, &apperr.ValidationError{Field: "name", Message: "must not be empty"}
	}

	db, err := s.store.DB()
	if err != nil {
		return nil, err
	}

	existing, err := s.findOne(ctx, db, squirrel.Eq{"id": id})
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, &apperr.NotFoundError{Entity: "tag", ID: id}
	}

	other, err := s.findOne(ctx, db, squirrel.Eq{"name": trimmed})
	if err != nil {
		return nil, err
	}
	if other != nil && other.ID != id {
		return nil, &apperr.ConflictError{Entity: "tag", Message: "タグ「" + trimmed + "」は既に存在します"}
	}

	query, args, err := squirrel.Update("tags").
		Set("name", trimmed).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return nil, &apperr.StoreError{Op: "update", Table: "tags", Err: err}
	}

	existing.Name = trimmed
	return existing, nil
}

// Delete removes a tag. Junction rows referencing it go with it via the
// store's cascade; the people themselves are untouched.
func (s *TagService) Delete(ctx context.Context, id string) error {
	db, err := s.store.DB()
	if err != nil {
		return err
	}

	existing, err := s.findOne(ctx, db, squirrel.Eq{"id": id})
	if err != nil {
		return err
	}
	if existing == nil {
		return &apperr.NotFoundError{Entity: "tag", ID: id}
	}

	query, args, err := squirrel.Delete("tags").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return &apperr.StoreError{Op: "delete", Table: "tags", Err: err}
	}

	s.log.Debug("deleted tag %s (%s)", id, existing.Name)
	return nil
}

// resolve is the shared create-or-fetch path, runnable on the bare
// handle or inside a transaction.
func (s *TagService) resolve(ctx context.Context, q sqlx.ExtContext, name string) (*model.Tag, bool, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, false, &apperr.ValidationError{Field: "name", Message: "must not be empty"}
	}

	existing, err := s.findOneOn(ctx, q, squirrel.Eq{"name": trimmed})
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	tag := &model.Tag{
		ID:        s.store.NewID(),
		Name:      trimmed,
		CreatedAt: time.Now(),
	}

	query, args, err := squirrel.Insert("tags").
		Columns(tagColumns...).
		Values(tag.ID, tag.Name, formatTime(tag.CreatedAt)).
		ToSql()
	if err != nil {
		return nil, false, err
	}
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return nil, false, &apperr.StoreError{Op: "insert", Table: "tags", Err: err}
	}

	s.log.Debug("created tag %s (%s)", tag.ID, tag.Name)
	return tag, true, nil
}

func (s *TagService) findOne(ctx context.Context, db *sqlx.DB, where squirrel.Sqlizer) (*model.Tag, error) {
	return s.findOneOn(ctx, db, where)
}

func (s *TagService) findOneOn(ctx context.Context, q sqlx.ExtContext, where squirrel.Sqlizer) (*model.Tag, error) {
	query, args, err := squirrel.Select(tagColumns...).
		From("tags").
		Where(where).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row tagRow
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, &apperr.StoreError{Op: "select", Table: "tags", Err: err}
	}

	tag := row.toModel()
	return &tag, nil
}

func (s *TagService) findMany(ctx context.Context, where squirrel.Sqlizer) ([]model.Tag, error) {
	db, err := s.store.DB()
	if err != nil {
		return nil, err
	}

	builder := squirrel.Select(tagColumns...).
		From("tags").
		OrderBy("name ASC")
	if where != nil {
		builder = builder.Where(where)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	var rows []tagRow
	if err := sqlx.SelectContext(ctx, db, &rows, query, args...); err != nil {
		return nil, &apperr.StoreError{Op: "select", Table: "tags", Err: err}
	}

	tags := make([]model.Tag, 0, len(rows))
	for _, r := range rows {
		tags = append(tags, r.toModel())
	}
	return tags, nil
}
