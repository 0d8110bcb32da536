package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/mzfrvt/hitolog/internal/apperr"
	"github.com/mzfrvt/hitolog/internal/logger"
	"github.com/mzfrvt/hitolog/internal/model"
	"github.com/mzfrvt/hitolog/internal/store"
)

var eventColumns = []string{"id", "name", "date", "location", "created_at"}

type eventRow struct {
	ID        string  `db:"id"`
	Name      string  `db:"name"`
	Date      *string `db:"date"`
	Location  *string `db:"location"`
	CreatedAt string  `db:"created_at"`
}

func (r eventRow) toModel() model.Event {
	return model.Event{
		ID:        r.ID,
		Name:      r.Name,
		Date:      r.Date,
		Location:  r.Location,
		CreatedAt: parseTime(r.CreatedAt),
	}
}

// EventInput carries the writable fields of an event. Date is an
// optional YYYY-MM-DD string.
type EventInput struct {
	Name     string
	Date     *string
	Location *string
}

// EventUpdateInput is a full-record write against an existing event.
type EventUpdateInput struct {
	ID string
	EventInput
}

// EventFilter narrows FindMany by substring match on name and/or
// location; both set means both must match.
type EventFilter struct {
	Name     string
	Location string
}

// EventService provides CRUD for events, (name, date) uniqueness,
// participant junction maintenance and the guarded delete.
type EventService struct {
	store *store.Store
	log   logger.Logger
}

func NewEventService(st *store.Store) *EventService {
	return &EventService{
		store: st,
		log:   logger.Service().WithField("entity", "event"),
	}
}

// Create stores a new event. An event with the same name and the same
// date (including "no date") must not already exist.
func (s *EventService) Create(ctx context.Context, in EventInput) (*model.Event, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, &apperr.ValidationError{Field: "name", Message: "must not be empty"}
	}

	date, err := normalizeDate(in.Date)
	if err != nil {
		return nil, err
	}

	db, err := s.store.DB()
	if err != nil {
		return nil, err
	}

	dup, err := s.findOne(ctx, db, squirrel.Eq{"name": name, "date": date})
	if err != nil {
		return nil, err
	}
	if dup != nil {
		if date != nil {
			return nil, &apperr.ConflictError{
				Entity:  "event",
				Message: fmt.Sprintf("同じ名前と日付のイベント「%s」(%s) が既に存在します", name, *date),
			}
		}
		return nil, &apperr.ConflictError{
			Entity:  "event",
			Message: fmt.Sprintf("同じ名前のイベント「%s」が既に存在します", name),
		}
	}

	event := &model.Event{
		ID:        s.store.NewID(),
		Name:      name,
		Date:      date,
		Location:  in.Location,
		CreatedAt: time.Now(),
	}

	query, args, err := squirrel.Insert("events").
		Columns(eventColumns...).
		Values(event.ID, event.Name, event.Date, event.Location, formatTime(event.CreatedAt)).
		ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return nil, &apperr.StoreError{Op: "insert", Table: "events", Err: err}
	}

	s.log.Debug("created event %s (%s)", event.ID, event.Name)
	return event, nil
}

// FindByID returns the event or nil when the id is unknown.
func (s *EventService) FindByID(ctx context.Context, id string) (*model.Event, error) {
	db, err := s.store.DB()
	if err != nil {
		return nil, err
	}
	return s.findOne(ctx, db, squirrel.Eq{"id": id})
}

// FindMany returns events matching the filter, newest date first.
// Events without a date sort as if their date were the minimum value.
func (s *EventService) FindMany(ctx context.Context, filter *EventFilter) ([]model.Event, error) {
	db, err := s.store.DB()
	if err != nil {
		return nil, err
	}

	builder := squirrel.Select(eventColumns...).
		From("events").
		OrderBy("date DESC", "created_at DESC")
	if filter != nil {
		if filter.Name != "" {
			builder = builder.Where(squirrel.Like{"name": "%" + filter.Name + "%"})
		}
		if filter.Location != "" {
			builder = builder.Where(squirrel.Like{"location": "%" + filter.Location + "%"})
		}
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	var rows []eventRow
	if err := sqlx.SelectContext(ctx, db, &rows, query, args...); err != nil {
		return nil, &apperr.StoreError{Op: "select", Table: "events", Err: err}
	}

	events := make([]model.Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, r.toModel())
	}
	return events, nil
}

// FindAll is the unfiltered equivalent of FindMany.
func (s *EventService) FindAll(ctx context.Context) ([]model.Event, error) {
	return s.FindMany(ctx, nil)
}

// Update rewrites an existing event; the name goes through the same
// non-empty validation as Create.
func (s *EventService) Update(ctx context.Context, in EventUpdateInput) (*model.Event, error) {
	db, err := s.store.DB()
	if err != nil {
		return nil, err
	}

	existing, err := s.findOne(ctx, db, squirrel.Eq{"id": in.ID})
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, &apperr.NotFoundError{Entity: "event", ID: in.ID}
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, &apperr.ValidationError{Field: "name", Message: "must not be empty"}
	}

	date, err := normalizeDate(in.Date)
	if err != nil {
		return nil, err
	}

	query, args, err := squirrel.Update("events").
		Set("name", name).
		Set("date", date).
		Set("location", in.Location).
		Where(squirrel.Eq{"id": in.ID}).
		ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return nil, &apperr.StoreError{Op: "update", Table: "events", Err: err}
	}

	existing.Name = name
	existing.Date = date
	existing.Location = in.Location
	return existing, nil
}

// HasParticipants reports whether at least one person is linked to the
// event.
func (s *EventService) HasParticipants(ctx context.Context, id string) (bool, error) {
	count, err := s.GetParticipantCount(ctx, id)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetParticipantCount returns the live participant count; it is never
// cached, so deletability is checkable at any time.
func (s *EventService) GetParticipantCount(ctx context.Context, id string) (int, error) {
	db, err := s.store.DB()
	if err != nil {
		return 0, err
	}

	query, args, err := squirrel.Select("COUNT(*)").
		From("persons_events").
		Where(squirrel.Eq{"event_id": id}).
		ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	if err := sqlx.GetContext(ctx, db, &count, query, args...); err != nil {
		return 0, &apperr.StoreError{Op: "count", Table: "persons_events", Err: err}
	}
	return count, nil
}

// DeleteByID removes an event. The delete is guarded, not cascaded: an
// event that still has participants is refused.
func (s *EventService) DeleteByID(ctx context.Context, id string) error {
	db, err := s.store.DB()
	if err != nil {
		return err
	}

	existing, err := s.findOne(ctx, db, squirrel.Eq{"id": id})
	if err != nil {
		return err
	}
	if existing == nil {
		return &apperr.NotFoundError{Entity: "event", ID: id}
	}

	count, err := s.GetParticipantCount(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return &apperr.ConflictError{
			Entity:  "event",
			Message: fmt.Sprintf("%d人の参加者がいるため削除できません", count),
		}
	}

	query, args, err := squirrel.Delete("events").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return &apperr.StoreError{Op: "delete", Table: "events", Err: err}
	}

	s.log.Debug("deleted event %s (%s)", id, existing.Name)
	return nil
}

// AddPersonToEvent links a person to an event. Linking the same pair
// twice leaves exactly one association.
func (s *EventService) AddPersonToEvent(ctx context.Context, personID, eventID string) error {
	db, err := s.store.DB()
	if err != nil {
		return err
	}

	query, args, err := squirrel.Insert("persons_events").
		Options("OR IGNORE").
		Columns("person_id", "event_id").
		Values(personID, eventID).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return &apperr.StoreError{Op: "insert", Table: "persons_events", Err: err}
	}
	return nil
}

// RemovePersonFromEvent unlinks a person from an event; removing an
// absent association is a no-op.
func (s *EventService) RemovePersonFromEvent(ctx context.Context, personID, eventID string) error {
	db, err := s.store.DB()
	if err != nil {
		return err
	}

	query, args, err := squirrel.Delete("persons_events").
		Where(squirrel.Eq{"person_id": personID, "event_id": eventID}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return &apperr.StoreError{Op: "delete", Table: "persons_events", Err: err}
	}
	return nil
}

// FindEventsByPersonID returns the events a person is linked to, newest
// date first. The result is empty, never nil, when there are none.
func (s *EventService) FindEventsByPersonID(ctx context.Context, personID string) ([]model.Event, error) {
	db, err := s.store.DB()
	if err != nil {
		return nil, err
	}

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

// FindPersonsByEventID returns the participants of an event, by name.
func (s *EventService) FindPersonsByEventID(ctx context.Context, eventID string) ([]model.Person, error) {
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
		Join("persons_events pe ON pe.person_id = p.id").
		Where(squirrel.Eq{"pe.event_id": eventID}).
		OrderBy("p.name ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []personRow
	if err := sqlx.SelectContext(ctx, db, &rows, query, args...); err != nil {
		return nil, &apperr.StoreError{Op: "select", Table: "persons_events", Err: err}
	}

	persons := make([]model.Person, 0, len(rows))
	for _, r := range rows {
		persons = append(persons, *r.toModel())
	}
	return persons, nil
}

// Count returns the total number of events.
func (s *EventService) Count(ctx context.Context) (int, error) {
	db, err := s.store.DB()
	if err != nil {
		return 0, err
	}

	query, args, err := squirrel.Select("COUNT(*)").From("events").ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	if err := sqlx.GetContext(ctx, db, &count, query, args...); err != nil {
		return 0, &apperr.StoreError{Op: "count", Table: "events", Err: err}
	}
	return count, nil
}

func (s *EventService) findOne(ctx context.Context, q sqlx.ExtContext, where squirrel.Sqlizer) (*model.Event, error) {
	query, args, err := squirrel.Select(eventColumns...).
		From("events").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row eventRow
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, &apperr.StoreError{Op: "select", Table: "events", Err: err}
	}

	event := row.toModel()
	return &event, nil
}

// normalizeDate trims an optional date; empty collapses to nil, and a
// present value must be a valid YYYY-MM-DD day.
func normalizeDate(date *string) (*string, error) {
	if date == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*date)
	if trimmed == "" {
		return nil, nil
	}
	if _, err := time.Parse(dateLayout, trimmed); err != nil {
		return nil, &apperr.ValidationError{Field: "date", Message: "must be a YYYY-MM-DD date"}
	}
	return &trimmed, nil
}
