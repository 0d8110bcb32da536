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

var personColumns = []string{
	"id", "name", "handle", "company", "position", "description",
	"product_name", "memo", "github_id", "created_at", "updated_at",
}

type personRow struct {
	ID          string  `db:"id"`
	Name        string  `db:"name"`
	Handle      *string `db:"handle"`
	Company     *string `db:"company"`
	Position    *string `db:"position"`
	Description *string `db:"description"`
	ProductName *string `db:"product_name"`
	Memo        *string `db:"memo"`
	GithubID    *string `db:"github_id"`
	CreatedAt   string  `db:"created_at"`
	UpdatedAt   string  `db:"updated_at"`
}

func (r personRow) toModel() *model.Person {
	return &model.Person{
		ID:          r.ID,
		Name:        r.Name,
		Handle:      r.Handle,
		Company:     r.Company,
		Position:    r.Position,
		Description: r.Description,
		ProductName: r.ProductName,
		Memo:        r.Memo,
		GithubID:    r.GithubID,
		CreatedAt:   parseTime(r.CreatedAt),
		UpdatedAt:   parseTime(r.UpdatedAt),
		Tags:        []model.Tag{},
		Events:      []model.Event{},
		Relations:   []model.Relation{},
	}
}

type relationRow struct {
	ID             string `db:"id"`
	SourcePersonID string `db:"source_person_id"`
	TargetPersonID string `db:"target_person_id"`
	RelationType   string `db:"relation_type"`
	CreatedAt      string `db:"created_at"`
}

func (r relationRow) toModel() model.Relation {
	return model.Relation{
		ID:             r.ID,
		SourcePersonID: r.SourcePersonID,
		TargetPersonID: r.TargetPersonID,
		RelationType:   r.RelationType,
		CreatedAt:      parseTime(r.CreatedAt),
	}
}

// PersonInput carries the writable fields of a person. Optional fields
// are nil when absent and stored as NULL.
type PersonInput struct {
	Name        string
	Handle      *string
	Company     *string
	Position    *string
	Description *string
	ProductName *string
	Memo        *string
	GithubID    *string
	TagIDs      []string
}

// PersonUpdateInput is a full-record write: every field is applied as
// given, and the tag-association set is replaced with TagIDs (nil or
// empty clears it).
type PersonUpdateInput struct {
	ID string
	PersonInput
}

// PersonFilter narrows FindMany by substring match; both fields set
// means both must match.
type PersonFilter struct {
	Name    string
	Company string
}

// PersonService provides CRUD for people plus maintenance of their tag,
// event and person-to-person relationships.
type PersonService struct {
	store *store.Store
	log   logger.Logger
}

func NewPersonService(st *store.Store) *PersonService {
	return &PersonService{
		store: st,
		log:   logger.Service().WithField("entity", "person"),
	}
}

// Create stores a new person. The row insert and any tag junction
// inserts share one transaction: a failure linking a tag rolls the
// person back too.
func (s *PersonService) Create(ctx context.Context, in PersonInput) (*model.Person, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, &apperr.ValidationError{Field: "name", Message: "must not be empty"}
	}

	now := time.Now()
	id := s.store.NewID()

	err := s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.Insert("persons").
			Columns(personColumns...).
			Values(id, name, in.Handle, in.Company, in.Position, in.Description,
				in.ProductName, in.Memo, in.GithubID, formatTime(now), formatTime(now)).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return &apperr.StoreError{Op: "insert", Table: "persons", Err: err}
		}
		return linkTags(ctx, tx, id, in.TagIDs)
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("created person %s (%s)", id, name)
	return s.FindByID(ctx, id)
}

// FindByID returns the person with resolved tags (name ascending),
// events (date descending) and relations, or nil when the id is
// unknown. Relationship slices are empty, never nil.
func (s *PersonService) FindByID(ctx context.Context, id string) (*model.Person, error) {
	db, err := s.store.DB()
	if err != nil {
		return nil, err
	}

	row, err := s.findRow(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}

	p := row.toModel()
	if p.Tags, err = s.loadTags(ctx, db, id); err != nil {
		return nil, err
	}
	if p.Events, err = s.loadEvents(ctx, db, id); err != nil {
		return nil, err
	}
	if p.Relations, err = s.loadRelations(ctx, db, id); err != nil {
		return nil, err
	}
	return p, nil
}

// Update rewrites the person and replaces their tag-association set
// with TagIDs: associations missing from the new set are removed, new
// ones added. UpdatedAt is refreshed.
func (s *PersonService) Update(ctx context.Context, in PersonUpdateInput) (*model.Person, error) {
	db, err := s.store.DB()
	if err != nil {
		return nil, err
	}

	existing, err := s.findRow(ctx, db, in.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, &apperr.NotFoundError{Entity: "person", ID: in.ID}
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, &apperr.ValidationError{Field: "name", Message: "must not be empty"}
	}

	now := time.Now()
	err = s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.Update("persons").
			Set("name", name).
			Set("handle", in.Handle).
			Set("company", in.Company).
			Set("position", in.Position).
			Set("description", in.Description).
			Set("product_name", in.ProductName).
			Set("memo", in.Memo).
			Set("github_id", in.GithubID).
			Set("updated_at", formatTime(now)).
			Where(squirrel.Eq{"id": in.ID}).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return &apperr.StoreError{Op: "update", Table: "persons", Err: err}
		}

		del, delArgs, err := squirrel.Delete("persons_tags").
			Where(squirrel.Eq{"person_id": in.ID}).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, del, delArgs...); err != nil {
			return &apperr.StoreError{Op: "delete", Table: "persons_tags", Err: err}
		}
		return linkTags(ctx, tx, in.ID, in.TagIDs)
	})
	if err != nil {
		return nil, err
	}

	return s.FindByID(ctx, in.ID)
}

// Delete removes the person. Tag, event and relation junction rows go
// with them via the store's cascade.
func (s *PersonService) Delete(ctx context.Context, id string) error {
	db, err := s.store.DB()
	if err != nil {
		return err
	}

	existing, err := s.findRow(ctx, db, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return &apperr.NotFoundError{Entity: "person", ID: id}
	}

	query, args, err := squirrel.Delete("persons").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return &apperr.StoreError{Op: "delete", Table: "persons", Err: err}
	}

	s.log.Debug("deleted person %s", id)
	return nil
}

// FindMany returns people matching the filter, newest first; rowid
// breaks created_at ties in insertion order.
func (s *PersonService) FindMany(ctx context.Context, filter *PersonFilter) ([]model.Person, error) {
	db, err := s.store.DB()
	if err != nil {
		return nil, err
	}

	builder := squirrel.Select(personColumns...).
		From("persons").
		OrderBy("created_at DESC", "rowid ASC")
	if filter != nil {
		if filter.Name != "" {
			builder = builder.Where(squirrel.Like{"name": "%" + filter.Name + "%"})
		}
		if filter.Company != "" {
			builder = builder.Where(squirrel.Like{"company": "%" + filter.Company + "%"})
		}
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	var rows []personRow
	if err := sqlx.SelectContext(ctx, db, &rows, query, args...); err != nil {
		return nil, &apperr.StoreError{Op: "select", Table: "persons", Err: err}
	}

	persons := make([]model.Person, 0, len(rows))
	for _, r := range rows {
		persons = append(persons, *r.toModel())
	}
	return persons, nil
}

// FindByTagID returns the people filed under a tag, newest first.
func (s *PersonService) FindByTagID(ctx context.Context, tagID string) ([]model.Person, error) {
	db, err := s.store.DB()
	if err != nil {
		return nil, err
	}

	cols := make([]string, len(personColumns))
	for i, c := range personColumns {
		cols[i] = "p." + c
	}
	query, args, err := squirrel.Select(cols...).
		From("persons p").
		Join("persons_tags pt ON pt.person_id = p.id").
		Where(squirrel.Eq{"pt.tag_id": tagID}).
		OrderBy("p.created_at DESC", "p.rowid ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []personRow
	if err := sqlx.SelectContext(ctx, db, &rows, query, args...); err != nil {
		return nil, &apperr.StoreError{Op: "select", Table: "persons", Err: err}
	}

	persons := make([]model.Person, 0, len(rows))
	for _, r := range rows {
		persons = append(persons, *r.toModel())
	}
	return persons, nil
}

// Count returns the total number of people.
func (s *PersonService) Count(ctx context.Context) (int, error) {
	db, err := s.store.DB()
	if err != nil {
		return 0, err
	}

	query, args, err := squirrel.Select("COUNT(*)").From("persons").ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	if err := sqlx.GetContext(ctx, db, &count, query, args...); err != nil {
		return 0, &apperr.StoreError{Op: "count", Table: "persons", Err: err}
	}
	return count, nil
}

// AddRelation links two people with a typed relation. Adding the same
// triple twice leaves exactly one row.
func (s *PersonService) AddRelation(ctx context.Context, sourceID, targetID, relationType string) error {
	relType := strings.TrimSpace(relationType)
	if relType == "" {
		return &apperr.ValidationError{Field: "relationType", Message: "must not be empty"}
	}

	db, err := s.store.DB()
	if err != nil {
		return err
	}

	for _, id := range []string{sourceID, targetID} {
		row, err := s.findRow(ctx, db, id)
		if err != nil {
			return err
		}
		if row == nil {
			return &apperr.NotFoundError{Entity: "person", ID: id}
		}
	}

	query, args, err := squirrel.Insert("relations").
		Options("OR IGNORE").
		Columns("id", "source_person_id", "target_person_id", "relation_type", "created_at").
		Values(s.store.NewID(), sourceID, targetID, relType, formatTime(time.Now())).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return &apperr.StoreError{Op: "insert", Table: "relations", Err: err}
	}
	return nil
}

// RemoveRelation removes a typed link; removing an absent one is a no-op.
func (s *PersonService) RemoveRelation(ctx context.Context, sourceID, targetID, relationType string) error {
	db, err := s.store.DB()
	if err != nil {
		return err
	}

	query, args, err := squirrel.Delete("relations").
		Where(squirrel.Eq{
			"source_person_id": sourceID,
			"target_person_id": targetID,
			"relation_type":    strings.TrimSpace(relationType),
		}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return &apperr.StoreError{Op: "delete", Table: "relations", Err: err}
	}
	return nil
}

func (s *PersonService) findRow(ctx context.Context, q sqlx.ExtContext, id string) (*personRow, error) {
	query, args, err := squirrel.Select(personColumns...).
		From("persons").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row personRow
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, &apperr.StoreError{Op: "select", Table: "persons", Err: err}
	}
	return &row, nil
}

func (s *PersonService) loadTags(ctx context.Context, db *sqlx.DB, personID string) ([]model.Tag, error) {
	query, args, err := squirrel.Select("t.id", "t.name", "t.created_at").
		From("tags t").
		Join("persons_tags pt ON pt.tag_id = t.id").
		Where(squirrel.Eq{"pt.person_id": personID}).
		OrderBy("t.name ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []tagRow
	if err := sqlx.SelectContext(ctx, db, &rows, query, args...); err != nil {
		return nil, &apperr.StoreError{Op: "select", Table: "persons_tags", Err: err}
	}

	tags := make([]model.Tag, 0, len(rows))
	for _, r := range rows {
		tags = append(tags, r.toModel())
	}
	return tags, nil
}

func (s *PersonService) loadEvents(ctx context.Context, db *sqlx.DB, personID string) ([]model.Event, error) {
	query, args, err := squirrel.Select("e.id", "e.name", "e.date", "e.location", "e.created_at").
		From("events e").
		Join("persons_events pe ON pe.event_id = e.id").
		Where(squirrel.Eq{"pe.person_id": personID}).
		OrderBy("e.date DESC", "e.created_at DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []eventRow
	if err := sqlx.SelectContext(ctx, db, &rows, query, args...); err != nil {
		return nil, &apperr.StoreError{Op: "select", Table: "persons_events", Err: err}
	}

	events := make([]model.Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, r.toModel())
	}
	return events, nil
}

func (s *PersonService) loadRelations(ctx context.Context, db *sqlx.DB, personID string) ([]model.Relation, error) {
	query, args, err := squirrel.Select("id", "source_person_id", "target_person_id", "relation_type", "created_at").
		From("relations").
		Where(squirrel.Eq{"source_person_id": personID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []relationRow
	if err := sqlx.SelectContext(ctx, db, &rows, query, args...); err != nil {
		return nil, &apperr.StoreError{Op: "select", Table: "relations", Err: err}
	}

	relations := make([]model.Relation, 0, len(rows))
	for _, r := range rows {
		relations = append(relations, r.toModel())
	}
	return relations, nil
}

// linkTags inserts one junction row per unique tag id; re-linking an
// already-linked tag is a no-op.
func linkTags(ctx context.Context, tx *sqlx.Tx, personID string, tagIDs []string) error {
	for _, tagID := range dedupeStrings(tagIDs) {
		query, args, err := squirrel.Insert("persons_tags").
			Options("OR IGNORE").
			Columns("person_id", "tag_id").
			Values(personID, tagID).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return &apperr.StoreError{Op: "insert", Table: "persons_tags", Err: err}
		}
	}
	return nil
}
